package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-auditor/internal/models"
	appErrors "github.com/noah-isme/lms-auditor/pkg/errors"
)

type lmsWriter interface {
	UpdateAssignment(ctx context.Context, courseID, assignmentID int64, patch models.AssignmentPatch) (*models.Assignment, error)
	UpdateAssignmentGroup(ctx context.Context, courseID, groupID int64, patch models.ModulePatch) (*models.AssignmentGroup, error)
	UpdateDiscussionTopic(ctx context.Context, courseID, topicID int64, patch models.DiscussionPatch) error
	CreateGroupCategory(ctx context.Context, courseID int64, name string) (*models.GroupCategory, error)
	DeleteGroupCategory(ctx context.Context, categoryID int64) error
	CreateGroup(ctx context.Context, categoryID int64, name string) (*models.Group, error)
	AddGroupMember(ctx context.Context, groupID, userID int64) error
}

// Write kinds used for logging and metrics.
const (
	writeAssignment     = "assignment"
	writeModule         = "module"
	writeDiscussion     = "discussion"
	writeDeleteCategory = "delete_category"
	writeCreateCategory = "create_category"
	writeCreateGroup    = "create_group"
	writeAddGroupMember = "add_group_member"
)

const (
	manualRubricWarning = "rubric settings must be fixed manually"
	defaultCategoryName = "Equipo de trabajo"
	defaultMinTeamSize  = 3
	defaultMaxTeamSize  = 4
)

// CorrectionServiceConfig holds the values the corrector writes back.
type CorrectionServiceConfig struct {
	Plagiarism   models.PlagiarismSettings
	CategoryName string
	MinTeamSize  int
	MaxTeamSize  int
}

// CorrectionServiceParams groups constructor dependencies.
type CorrectionServiceParams struct {
	LMS     lmsWriter
	Config  CorrectionServiceConfig
	Metrics *MetricsService
	Logger  *zap.Logger
	Rand    *rand.Rand
}

// CorrectionService issues the writes that bring one assignment into compliance.
type CorrectionService struct {
	lms      lmsWriter
	catalogs map[models.AssignmentType]ruleCatalog
	cfg      CorrectionServiceConfig
	metrics  *MetricsService
	logger   *zap.Logger
	rng      *rand.Rand
}

// NewCorrectionService constructs a CorrectionService with sane defaults.
func NewCorrectionService(params CorrectionServiceParams) *CorrectionService {
	cfg := params.Config
	if cfg.CategoryName == "" {
		cfg.CategoryName = defaultCategoryName
	}
	if cfg.MinTeamSize <= 0 {
		cfg.MinTeamSize = defaultMinTeamSize
	}
	if cfg.MaxTeamSize < cfg.MinTeamSize {
		cfg.MaxTeamSize = defaultMaxTeamSize
		if cfg.MaxTeamSize < cfg.MinTeamSize {
			cfg.MaxTeamSize = cfg.MinTeamSize
		}
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rng := params.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &CorrectionService{
		lms:      params.LMS,
		catalogs: newRuleCatalogs(),
		cfg:      cfg,
		metrics:  params.Metrics,
		logger:   logger,
		rng:      rng,
	}
}

// correction tracks the outcome of one Correct call.
type correction struct {
	svc      *CorrectionService
	logger   *zap.Logger
	courseID int64
	result   models.CorrectionResult
}

// Correct applies the correction plan derived from the failing rules of the snapshot.
// Failed writes are recorded on the result and do not stop independent writes.
func (s *CorrectionService) Correct(ctx context.Context, kind models.AssignmentType, courseID int64, snap models.AssignmentSnapshot) models.CorrectionResult {
	c := &correction{
		svc:      s,
		logger:   s.logger.With(zap.Int64("course_id", courseID), zap.Int64("assignment_id", snap.ID)),
		courseID: courseID,
		result: models.CorrectionResult{
			Type:           kind,
			AssignmentID:   snap.ID,
			AssignmentName: snap.Name,
		},
	}

	catalog, ok := s.catalogs[kind]
	if !ok {
		c.fail(writeAssignment, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown assignment type %q", kind)))
		return c.result
	}

	plan := catalog.plan(snap)
	if len(plan.manual) > 0 {
		c.warn(manualRubricWarning + " (" + strings.Join(plan.manual, ", ") + ")")
	}

	var categoryID *int64
	if catalog.groupWork {
		var legacyDeleted bool
		categoryID, legacyDeleted = c.ensureCategory(ctx, snap, plan)
		switch {
		case plan.linkCategory && categoryID != nil:
			id := *categoryID
			plan.assignment.GroupCategoryID = &id
		case legacyDeleted && pointsAt(snap.GroupCategoryID, snap.GroupCategories.LegacyID):
			plan.assignment.ClearGroupCategory = true
		}
	}

	if catalog.enforcePlagiarism {
		settings := s.cfg.Plagiarism
		plan.assignment.Plagiarism = &settings
	}

	if !plan.assignment.Empty() {
		patch := plan.assignment
		action := "assignment updated"
		if fields := patch.ConditionalFields(); len(fields) > 0 {
			action += ": " + strings.Join(fields, ", ")
		} else {
			action = "plagiarism settings re-asserted"
		}
		c.write(writeAssignment, action, func() error {
			_, err := s.lms.UpdateAssignment(ctx, courseID, snap.ID, patch)
			return err
		})
	}

	if !plan.module.Empty() && snap.Module != nil {
		patch := plan.module
		c.write(writeModule, fmt.Sprintf("module %d updated", snap.Module.ID), func() error {
			_, err := s.lms.UpdateAssignmentGroup(ctx, courseID, snap.Module.ID, patch)
			return err
		})
	}

	if !plan.discussion.Empty() && snap.DiscussionTopicID != nil {
		patch := plan.discussion
		c.write(writeDiscussion, "discussion set to "+models.DiscussionTypeThreaded, func() error {
			return s.lms.UpdateDiscussionTopic(ctx, courseID, *snap.DiscussionTopicID, patch)
		})
	}

	if catalog.groupWork && plan.buildTeams {
		if categoryID == nil {
			c.warn("teams not created: team category unavailable")
		} else {
			c.buildTeams(ctx, *categoryID, snap)
		}
	}

	return c.result
}

// ensureCategory deletes the legacy category when present and returns the canonical
// category id, creating the category when the plan needs it. The second result reports
// whether the legacy category was deleted. No category is created while a legacy
// category that could not be deleted is still in place.
func (c *correction) ensureCategory(ctx context.Context, snap models.AssignmentSnapshot, plan correctionPlan) (*int64, bool) {
	s := c.svc
	legacyDeleted := false
	if plan.deleteLegacy && snap.GroupCategories.LegacyID != nil {
		legacyID := *snap.GroupCategories.LegacyID
		legacyDeleted = c.write(writeDeleteCategory, fmt.Sprintf("legacy category %d deleted", legacyID), func() error {
			return s.lms.DeleteGroupCategory(ctx, legacyID)
		})
		if !legacyDeleted && snap.GroupCategories.CanonicalID == nil {
			c.warn(fmt.Sprintf("team category not created: legacy category %d still present", legacyID))
			return nil, false
		}
	}

	if snap.GroupCategories.CanonicalID != nil {
		id := *snap.GroupCategories.CanonicalID
		return &id, legacyDeleted
	}
	if !plan.linkCategory && !plan.buildTeams {
		return nil, legacyDeleted
	}

	var created *models.GroupCategory
	ok := c.write(writeCreateCategory, "team category created", func() error {
		var err error
		created, err = s.lms.CreateGroupCategory(ctx, c.courseID, s.cfg.CategoryName)
		return err
	})
	if !ok || created == nil {
		return nil, legacyDeleted
	}
	id := created.ID
	return &id, legacyDeleted
}

func pointsAt(categoryID, target *int64) bool {
	return categoryID != nil && target != nil && *categoryID == *target
}

// buildTeams completes team membership inside the canonical category. Unassigned students
// first fill the smallest existing teams below the maximum size; the rest are partitioned
// into new teams.
func (c *correction) buildTeams(ctx context.Context, categoryID int64, snap models.AssignmentSnapshot) {
	s := c.svc
	var existing []models.TeamSnapshot
	var pending []int64
	if snap.Teams != nil {
		pending = append(pending, snap.Teams.UnassignedStudentIDs...)
		if snap.GroupCategories.CanonicalID != nil && *snap.GroupCategories.CanonicalID == categoryID {
			existing = snap.Teams.Teams
		}
	}
	if len(pending) == 0 {
		return
	}
	s.rng.Shuffle(len(pending), func(i, j int) { pending[i], pending[j] = pending[j], pending[i] })

	if len(existing) > 0 {
		pending = c.fillExistingTeams(ctx, existing, pending)
		if len(pending) == 0 {
			return
		}
	}

	groups := PartitionStudents(pending, s.cfg.MinTeamSize, s.cfg.MaxTeamSize)
	if PartitionUnsatisfied(groups, s.cfg.MinTeamSize) {
		c.warn(appErrors.Clone(appErrors.ErrPartitionUnsatisfiable,
			fmt.Sprintf("%d students cannot all be placed in teams of %d to %d", len(pending), s.cfg.MinTeamSize, s.cfg.MaxTeamSize)).Error())
	}

	next := nextTeamNumber(existing, s.cfg.CategoryName)
	for i, members := range groups {
		name := fmt.Sprintf("%s %d", s.cfg.CategoryName, next+i)
		var group *models.Group
		ok := c.write(writeCreateGroup, "team created: "+name, func() error {
			var err error
			group, err = s.lms.CreateGroup(ctx, categoryID, name)
			return err
		})
		if !ok || group == nil {
			continue
		}
		for _, userID := range members {
			c.addMember(ctx, group.ID, userID)
		}
	}
}

func (c *correction) fillExistingTeams(ctx context.Context, teams []models.TeamSnapshot, pending []int64) []int64 {
	sizes := make([]int, len(teams))
	for i, t := range teams {
		sizes[i] = len(t.MemberIDs)
	}

	var leftovers []int64
	for _, userID := range pending {
		target := -1
		for i := range teams {
			if sizes[i] >= c.svc.cfg.MaxTeamSize {
				continue
			}
			if target == -1 || sizes[i] < sizes[target] {
				target = i
			}
		}
		if target == -1 {
			leftovers = append(leftovers, userID)
			continue
		}
		if c.addMember(ctx, teams[target].ID, userID) {
			sizes[target]++
		}
	}
	return leftovers
}

func (c *correction) addMember(ctx context.Context, groupID, userID int64) bool {
	return c.write(writeAddGroupMember, fmt.Sprintf("student %d added to team %d", userID, groupID), func() error {
		return c.svc.lms.AddGroupMember(ctx, groupID, userID)
	})
}

// write runs one remote write and records its outcome.
func (c *correction) write(kind, action string, fn func() error) bool {
	err := fn()
	c.svc.metrics.RecordCorrectionWrite(kind, err)
	if err != nil {
		c.fail(kind, appErrors.Transport(err, action))
		return false
	}
	c.result.Applied = true
	c.result.Actions = append(c.result.Actions, action)
	c.logger.Info("correction applied", zap.String("kind", kind), zap.String("action", action))
	return true
}

func (c *correction) fail(kind string, err error) {
	c.result.Failures = append(c.result.Failures, itemError(c.courseID, c.result.AssignmentID, err))
	c.logger.Warn("correction failed", zap.String("kind", kind), zap.Error(err))
}

func (c *correction) warn(message string) {
	c.result.Warnings = append(c.result.Warnings, message)
	c.logger.Warn("correction warning", zap.String("warning", message))
}

// nextTeamNumber continues the "<category> N" numbering after the existing teams.
func nextTeamNumber(teams []models.TeamSnapshot, prefix string) int {
	highest := len(teams)
	for _, t := range teams {
		if !strings.HasPrefix(t.Name, prefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(t.Name, prefix))); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}
