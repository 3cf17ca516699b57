package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-auditor/internal/models"
	"github.com/noah-isme/lms-auditor/pkg/canvas"
	appErrors "github.com/noah-isme/lms-auditor/pkg/errors"
)

type assignmentReader interface {
	GetAssignment(ctx context.Context, courseID, assignmentID int64) (*models.Assignment, error)
	ListAssignments(ctx context.Context, courseID int64) ([]models.Assignment, error)
	GetAssignmentGroup(ctx context.Context, courseID, groupID int64) (*models.AssignmentGroup, error)
}

type groupReader interface {
	ListGroupCategories(ctx context.Context, courseID int64) ([]models.GroupCategory, error)
	ListGroups(ctx context.Context, categoryID int64) ([]models.Group, error)
	ListGroupMemberships(ctx context.Context, groupID int64) ([]models.GroupMembership, error)
	ListStudents(ctx context.Context, courseID int64) ([]models.Student, error)
}

type snapshotSource interface {
	assignmentReader
	groupReader
}

// SnapshotServiceConfig names the team categories looked up in each course.
type SnapshotServiceConfig struct {
	CategoryName   string
	LegacyCategory string
}

// SnapshotService assembles AssignmentSnapshots from LMS reads.
type SnapshotService struct {
	lms    snapshotSource
	cfg    SnapshotServiceConfig
	logger *zap.Logger
}

// NewSnapshotService constructs a SnapshotService.
func NewSnapshotService(lms snapshotSource, cfg SnapshotServiceConfig, logger *zap.Logger) *SnapshotService {
	if cfg.CategoryName == "" {
		cfg.CategoryName = "Equipo de trabajo"
	}
	if cfg.LegacyCategory == "" {
		cfg.LegacyCategory = "Project Groups"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{lms: lms, cfg: cfg, logger: logger}
}

// ClassifiedAssignment is an assignment paired with the catalog it is audited against.
type ClassifiedAssignment struct {
	Type       models.AssignmentType
	Assignment models.Assignment
}

// ListAudited returns the course assignments that map onto a rule catalog, in LMS order.
func (s *SnapshotService) ListAudited(ctx context.Context, courseID int64) ([]ClassifiedAssignment, error) {
	assignments, err := s.lms.ListAssignments(ctx, courseID)
	if err != nil {
		return nil, appErrors.Transport(err, "list assignments")
	}
	var out []ClassifiedAssignment
	for _, a := range assignments {
		kind, ok := models.ClassifyAssignment(a.Name)
		if !ok {
			continue
		}
		out = append(out, ClassifiedAssignment{Type: kind, Assignment: a})
	}
	return out, nil
}

// Build assembles the snapshot of an already fetched assignment.
func (s *SnapshotService) Build(ctx context.Context, courseID int64, kind models.AssignmentType, a models.Assignment) (models.AssignmentSnapshot, error) {
	snap := models.NewAssignmentSnapshot(courseID, a)

	if a.AssignmentGroupID != nil {
		group, err := s.lms.GetAssignmentGroup(ctx, courseID, *a.AssignmentGroupID)
		if err != nil {
			return snap, appErrors.Transport(err, "get assignment group")
		}
		if group != nil {
			snap.Module = &models.ModuleSnapshot{ID: group.ID, Name: group.Name, WeightPercent: group.GroupWeight}
		}
	}

	categories, err := s.lms.ListGroupCategories(ctx, courseID)
	if err != nil {
		return snap, appErrors.Transport(err, "list group categories")
	}
	snap.GroupCategories = s.categoryState(categories)

	if kind == models.AssignmentTypeTeamwork {
		teams, err := s.teamState(ctx, courseID, snap.GroupCategories.CanonicalID)
		if err != nil {
			return snap, err
		}
		snap.Teams = teams
	}

	return snap, nil
}

// Refresh re-reads one assignment and rebuilds its snapshot.
func (s *SnapshotService) Refresh(ctx context.Context, courseID int64, kind models.AssignmentType, assignmentID int64) (models.AssignmentSnapshot, error) {
	a, err := s.lms.GetAssignment(ctx, courseID, assignmentID)
	if err != nil {
		if canvas.IsNotFound(err) {
			return models.AssignmentSnapshot{}, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status,
				fmt.Sprintf("assignment %d no longer exists", assignmentID))
		}
		return models.AssignmentSnapshot{}, appErrors.Transport(err, "get assignment")
	}
	if a == nil {
		return models.AssignmentSnapshot{}, appErrors.Clone(appErrors.ErrDataShape, "assignment payload is empty")
	}
	return s.Build(ctx, courseID, kind, *a)
}

// Roster lists the ids of students enrolled in the course.
func (s *SnapshotService) Roster(ctx context.Context, courseID int64) ([]int64, error) {
	students, err := s.lms.ListStudents(ctx, courseID)
	if err != nil {
		return nil, appErrors.Transport(err, "list students")
	}
	ids := make([]int64, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	return ids, nil
}

func (s *SnapshotService) categoryState(categories []models.GroupCategory) models.GroupCategoryState {
	var state models.GroupCategoryState
	for _, c := range categories {
		id := c.ID
		switch {
		case state.CanonicalID == nil && strings.EqualFold(c.Name, s.cfg.CategoryName):
			state.CanonicalID = &id
		case state.LegacyID == nil && strings.EqualFold(c.Name, s.cfg.LegacyCategory):
			state.LegacyID = &id
		}
	}
	return state
}

func (s *SnapshotService) teamState(ctx context.Context, courseID int64, categoryID *int64) (*models.TeamState, error) {
	roster, err := s.Roster(ctx, courseID)
	if err != nil {
		return nil, err
	}

	state := &models.TeamState{RosterSize: len(roster)}
	assigned := make(map[int64]struct{})

	if categoryID != nil {
		groups, err := s.lms.ListGroups(ctx, *categoryID)
		if err != nil {
			return nil, appErrors.Transport(err, "list groups")
		}
		for _, g := range groups {
			memberships, err := s.lms.ListGroupMemberships(ctx, g.ID)
			if err != nil {
				return nil, appErrors.Transport(err, "list group memberships")
			}
			team := models.TeamSnapshot{ID: g.ID, Name: g.Name}
			for _, m := range memberships {
				if m.State != "" && m.State != "accepted" {
					continue
				}
				team.MemberIDs = append(team.MemberIDs, m.UserID)
				assigned[m.UserID] = struct{}{}
			}
			state.Teams = append(state.Teams, team)
		}
	}

	for _, id := range roster {
		if _, ok := assigned[id]; !ok {
			state.UnassignedStudentIDs = append(state.UnassignedStudentIDs, id)
		}
	}
	sort.Slice(state.UnassignedStudentIDs, func(i, j int) bool {
		return state.UnassignedStudentIDs[i] < state.UnassignedStudentIDs[j]
	})
	state.TeamsCreated = len(state.Teams) > 0
	state.AllStudentsAssigned = len(state.UnassignedStudentIDs) == 0

	return state, nil
}
