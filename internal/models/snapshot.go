package models

import (
	"sort"
	"strings"

	"github.com/noah-isme/lms-auditor/pkg/textnorm"
)

// AssignmentType selects the rule catalog applied to an assignment.
type AssignmentType string

const (
	AssignmentTypeTeamwork  AssignmentType = "teamwork"
	AssignmentTypeFinalWork AssignmentType = "final_work"
	AssignmentTypeForum     AssignmentType = "forum"
)

// AssignmentTypes lists the audited types in report order.
var AssignmentTypes = []AssignmentType{AssignmentTypeTeamwork, AssignmentTypeFinalWork, AssignmentTypeForum}

// Label returns the operator-facing name of the type.
func (t AssignmentType) Label() string {
	switch t {
	case AssignmentTypeTeamwork:
		return "Trabajo en equipo"
	case AssignmentTypeFinalWork:
		return "Trabajo final"
	case AssignmentTypeForum:
		return "Foro"
	default:
		return string(t)
	}
}

// ClassifyAssignment maps an assignment name onto an audited type.
func ClassifyAssignment(name string) (AssignmentType, bool) {
	normalized := textnorm.Normalize(name)
	switch {
	case normalized == "trabajo en equipo":
		return AssignmentTypeTeamwork, true
	case normalized == "trabajo final":
		return AssignmentTypeFinalWork, true
	case normalized == "foro", strings.HasPrefix(normalized, "foro "):
		return AssignmentTypeForum, true
	}
	return "", false
}

// Canvas enumerations referenced by the rule catalogs.
const (
	GradingTypePoints        = "points"
	SubmissionOnlineUpload   = "online_upload"
	SubmissionDiscussion     = "discussion_topic"
	DiscussionTypeThreaded   = "threaded"
	UnlimitedAttempts        = -1
	CategorySelfSignupClosed = "disabled"
	CategoryAutoLeaderRandom = "random"
	PlagiarismToolTurnitin   = "Turnitin"
	PlagiarismToolVeriCite   = "VeriCite"
)

// RubricSnapshot summarises the rubric linked to an assignment.
type RubricSnapshot struct {
	Title          string
	PointsPossible *float64
	UsedForGrading bool
}

// ModuleSnapshot is the owning assignment group.
type ModuleSnapshot struct {
	ID            int64
	Name          string
	WeightPercent *float64
}

// GroupCategoryState records the canonical and legacy team categories of a course.
type GroupCategoryState struct {
	CanonicalID *int64
	LegacyID    *int64
}

// TeamState describes how far team creation got inside the canonical category.
type TeamState struct {
	TeamsCreated         bool
	AllStudentsAssigned  bool
	RosterSize           int
	UnassignedStudentIDs []int64
	Teams                []TeamSnapshot
}

// Complete reports whether every enrolled student sits in a team. An empty roster needs no teams.
func (t *TeamState) Complete() bool {
	if t == nil || !t.AllStudentsAssigned {
		return false
	}
	return t.TeamsCreated || t.RosterSize == 0
}

// TeamSnapshot is one existing team and its current members.
type TeamSnapshot struct {
	ID        int64
	Name      string
	MemberIDs []int64
}

// AssignmentSnapshot is the read-only view of one assignment used by both audit and correction.
type AssignmentSnapshot struct {
	CourseID          int64
	ID                int64
	Name              string
	PointsPossible    *float64
	GradingType       string
	SubmissionTypes   []string
	AllowedAttempts   int
	GroupCategoryID   *int64
	DiscussionTopicID *int64
	DiscussionType    string
	PlagiarismEnabled bool
	PlagiarismTool    string

	Rubric          *RubricSnapshot
	Module          *ModuleSnapshot
	GroupCategories GroupCategoryState
	Teams           *TeamState
}

// SubmissionTypesEqual compares the snapshot's submission types with want as exact sets.
func (s AssignmentSnapshot) SubmissionTypesEqual(want []string) bool {
	have := uniqueSorted(s.SubmissionTypes)
	expected := uniqueSorted(want)
	if len(have) != len(expected) {
		return false
	}
	for i := range have {
		if have[i] != expected[i] {
			return false
		}
	}
	return true
}

// NewAssignmentSnapshot copies the assignment-level fields out of a Canvas payload.
func NewAssignmentSnapshot(courseID int64, a Assignment) AssignmentSnapshot {
	snap := AssignmentSnapshot{
		CourseID:          courseID,
		ID:                a.ID,
		Name:              a.Name,
		PointsPossible:    a.PointsPossible,
		GradingType:       a.GradingType,
		SubmissionTypes:   append([]string(nil), a.SubmissionTypes...),
		AllowedAttempts:   UnlimitedAttempts,
		GroupCategoryID:   a.GroupCategoryID,
		PlagiarismEnabled: a.TurnitinEnabled || a.VericiteEnabled,
	}
	switch {
	case a.TurnitinEnabled:
		snap.PlagiarismTool = PlagiarismToolTurnitin
	case a.VericiteEnabled:
		snap.PlagiarismTool = PlagiarismToolVeriCite
	}
	if a.AllowedAttempts != nil && *a.AllowedAttempts > 0 {
		snap.AllowedAttempts = *a.AllowedAttempts
	}
	if a.RubricSettings != nil {
		snap.Rubric = &RubricSnapshot{
			Title:          a.RubricSettings.Title,
			PointsPossible: a.RubricSettings.PointsPossible,
			UsedForGrading: a.UseRubricForGrading,
		}
	}
	if a.DiscussionTopic != nil {
		id := a.DiscussionTopic.ID
		snap.DiscussionTopicID = &id
		snap.DiscussionType = a.DiscussionTopic.DiscussionType
	}
	return snap
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
