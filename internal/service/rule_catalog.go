package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/lms-auditor/internal/models"
	"github.com/noah-isme/lms-auditor/pkg/textnorm"
)

// Rule identifiers, stable across catalogs so reports and metrics can be joined.
const (
	RuleRubric            = "rubric"
	RuleRubricGrading     = "rubric_grading"
	RuleModuleName        = "module_name"
	RuleModuleWeight      = "module_weight"
	RulePoints            = "points"
	RuleGradingType       = "grading_type"
	RuleSubmissionTypes   = "submission_types"
	RuleAllowedAttempts   = "allowed_attempts"
	RulePlagiarism        = "plagiarism"
	RuleGroupCategory     = "group_category"
	RuleNoGroupCategory   = "no_group_category"
	RuleLegacyCategory    = "legacy_category"
	RuleTeams             = "teams"
	RuleDiscussionType    = "discussion_type"
	notAvailable          = "N/A"
	unlimitedAttemptsText = "Unlimited"
)

// correctionPlan accumulates what the failing rules of one assignment ask the Corrector to do.
type correctionPlan struct {
	assignment   models.AssignmentPatch
	module       models.ModulePatch
	discussion   models.DiscussionPatch
	deleteLegacy bool
	linkCategory bool
	buildTeams   bool
	manual       []string
}

// rule is one checklist line: a predicate over the snapshot, the value to display and the
// contribution a failing rule makes to the correction plan. A nil fix means the rule can
// only be reported.
type rule struct {
	id       string
	label    string
	expected string
	check    func(models.AssignmentSnapshot) bool
	display  func(models.AssignmentSnapshot) string
	fix      func(models.AssignmentSnapshot, *correctionPlan)
}

// ruleCatalog is the fixed checklist for one assignment type.
type ruleCatalog struct {
	kind              models.AssignmentType
	enforcePlagiarism bool
	groupWork         bool
	rules             []rule
}

type catalogTargets struct {
	points          float64
	weight          float64
	attempts        int
	submissionTypes []string
}

// newRuleCatalogs builds the Teamwork, FinalWork and Forum checklists.
func newRuleCatalogs() map[models.AssignmentType]ruleCatalog {
	upload := catalogTargets{points: 100, attempts: 2, submissionTypes: []string{models.SubmissionOnlineUpload}}

	teamwork := upload
	teamwork.weight = 30
	final := upload
	final.weight = 50
	forum := catalogTargets{points: 100, weight: 20, attempts: models.UnlimitedAttempts, submissionTypes: []string{models.SubmissionDiscussion}}

	return map[models.AssignmentType]ruleCatalog{
		models.AssignmentTypeTeamwork: {
			kind:              models.AssignmentTypeTeamwork,
			enforcePlagiarism: true,
			groupWork:         true,
			rules: append(commonRules(teamwork),
				plagiarismRule(),
				groupCategoryRule(),
				legacyCategoryRule(),
				teamsRule(),
			),
		},
		models.AssignmentTypeFinalWork: {
			kind:              models.AssignmentTypeFinalWork,
			enforcePlagiarism: true,
			rules: append(commonRules(final),
				plagiarismRule(),
				noGroupCategoryRule(),
			),
		},
		models.AssignmentTypeForum: {
			kind: models.AssignmentTypeForum,
			rules: append(commonRules(forum),
				noGroupCategoryRule(),
				discussionTypeRule(),
			),
		},
	}
}

func commonRules(t catalogTargets) []rule {
	return []rule{
		{
			id:       RuleRubric,
			label:    "Rubric linked",
			expected: "linked rubric",
			check:    func(s models.AssignmentSnapshot) bool { return s.Rubric != nil },
			display: func(s models.AssignmentSnapshot) string {
				if s.Rubric == nil {
					return notAvailable
				}
				return s.Rubric.Title
			},
		},
		{
			id:       RuleRubricGrading,
			label:    "Rubric used for grading",
			expected: fmt.Sprintf("yes, %s points", formatNumber(t.points)),
			check: func(s models.AssignmentSnapshot) bool {
				return s.Rubric != nil && s.Rubric.UsedForGrading && floatEquals(s.Rubric.PointsPossible, t.points)
			},
			display: func(s models.AssignmentSnapshot) string {
				if s.Rubric == nil {
					return notAvailable
				}
				points := notAvailable
				if s.Rubric.PointsPossible != nil {
					points = formatNumber(*s.Rubric.PointsPossible)
				}
				return fmt.Sprintf("%s, %s points", yesNo(s.Rubric.UsedForGrading), points)
			},
		},
		{
			id:       RuleModuleName,
			label:    "Module name",
			expected: "matches assignment name",
			check: func(s models.AssignmentSnapshot) bool {
				return s.Module != nil && textnorm.Equal(s.Module.Name, s.Name)
			},
			display: func(s models.AssignmentSnapshot) string {
				if s.Module == nil {
					return notAvailable
				}
				return s.Module.Name
			},
			fix: func(s models.AssignmentSnapshot, p *correctionPlan) {
				if s.Module == nil {
					return
				}
				name := s.Name
				p.module.Name = &name
			},
		},
		{
			id:       RuleModuleWeight,
			label:    "Module weight",
			expected: formatNumber(t.weight) + "%",
			check: func(s models.AssignmentSnapshot) bool {
				return s.Module != nil && floatEquals(s.Module.WeightPercent, t.weight)
			},
			display: func(s models.AssignmentSnapshot) string {
				if s.Module == nil || s.Module.WeightPercent == nil {
					return notAvailable
				}
				return formatNumber(*s.Module.WeightPercent) + "%"
			},
			fix: func(s models.AssignmentSnapshot, p *correctionPlan) {
				if s.Module == nil {
					return
				}
				weight := t.weight
				p.module.GroupWeight = &weight
			},
		},
		{
			id:       RulePoints,
			label:    "Points",
			expected: formatNumber(t.points),
			check:    func(s models.AssignmentSnapshot) bool { return floatEquals(s.PointsPossible, t.points) },
			display: func(s models.AssignmentSnapshot) string {
				if s.PointsPossible == nil {
					return notAvailable
				}
				return formatNumber(*s.PointsPossible)
			},
			fix: func(_ models.AssignmentSnapshot, p *correctionPlan) {
				points := t.points
				p.assignment.PointsPossible = &points
			},
		},
		{
			id:       RuleGradingType,
			label:    "Grading type",
			expected: models.GradingTypePoints,
			check:    func(s models.AssignmentSnapshot) bool { return s.GradingType == models.GradingTypePoints },
			display:  func(s models.AssignmentSnapshot) string { return orNotAvailable(s.GradingType) },
			fix: func(_ models.AssignmentSnapshot, p *correctionPlan) {
				grading := models.GradingTypePoints
				p.assignment.GradingType = &grading
			},
		},
		{
			id:       RuleSubmissionTypes,
			label:    "Submission types",
			expected: strings.Join(t.submissionTypes, ", "),
			check:    func(s models.AssignmentSnapshot) bool { return s.SubmissionTypesEqual(t.submissionTypes) },
			display:  func(s models.AssignmentSnapshot) string { return orNotAvailable(strings.Join(s.SubmissionTypes, ", ")) },
			fix: func(_ models.AssignmentSnapshot, p *correctionPlan) {
				p.assignment.SubmissionTypes = append([]string(nil), t.submissionTypes...)
			},
		},
		{
			id:       RuleAllowedAttempts,
			label:    "Allowed attempts",
			expected: formatAttempts(t.attempts),
			check:    func(s models.AssignmentSnapshot) bool { return s.AllowedAttempts == t.attempts },
			display:  func(s models.AssignmentSnapshot) string { return formatAttempts(s.AllowedAttempts) },
			fix: func(_ models.AssignmentSnapshot, p *correctionPlan) {
				attempts := t.attempts
				p.assignment.AllowedAttempts = &attempts
			},
		},
	}
}

// plagiarismRule is report-only: the Corrector re-asserts the wiring on every pass anyway.
func plagiarismRule() rule {
	return rule{
		id:       RulePlagiarism,
		label:    "Plagiarism detection",
		expected: "enabled",
		check:    func(s models.AssignmentSnapshot) bool { return s.PlagiarismEnabled },
		display: func(s models.AssignmentSnapshot) string {
			if !s.PlagiarismEnabled {
				return "No"
			}
			if s.PlagiarismTool != "" {
				return "Yes (" + s.PlagiarismTool + ")"
			}
			return "Yes"
		},
	}
}

func groupCategoryRule() rule {
	return rule{
		id:       RuleGroupCategory,
		label:    "Group assignment",
		expected: "linked to team category",
		check: func(s models.AssignmentSnapshot) bool {
			return s.GroupCategoryID != nil && s.GroupCategories.CanonicalID != nil && *s.GroupCategoryID == *s.GroupCategories.CanonicalID
		},
		display: func(s models.AssignmentSnapshot) string {
			if s.GroupCategoryID == nil {
				return "No"
			}
			return fmt.Sprintf("Yes (category %d)", *s.GroupCategoryID)
		},
		fix: func(_ models.AssignmentSnapshot, p *correctionPlan) { p.linkCategory = true },
	}
}

func noGroupCategoryRule() rule {
	return rule{
		id:       RuleNoGroupCategory,
		label:    "Group assignment",
		expected: "individual",
		check:    func(s models.AssignmentSnapshot) bool { return s.GroupCategoryID == nil },
		display: func(s models.AssignmentSnapshot) string {
			if s.GroupCategoryID == nil {
				return "No"
			}
			return fmt.Sprintf("Yes (category %d)", *s.GroupCategoryID)
		},
		fix: func(_ models.AssignmentSnapshot, p *correctionPlan) { p.assignment.ClearGroupCategory = true },
	}
}

func legacyCategoryRule() rule {
	return rule{
		id:       RuleLegacyCategory,
		label:    "Legacy group category",
		expected: "absent",
		check:    func(s models.AssignmentSnapshot) bool { return s.GroupCategories.LegacyID == nil },
		display: func(s models.AssignmentSnapshot) string {
			if s.GroupCategories.LegacyID == nil {
				return "Absent"
			}
			return fmt.Sprintf("Present (category %d)", *s.GroupCategories.LegacyID)
		},
		fix: func(_ models.AssignmentSnapshot, p *correctionPlan) { p.deleteLegacy = true },
	}
}

func teamsRule() rule {
	return rule{
		id:       RuleTeams,
		label:    "Teams",
		expected: "created, every student assigned",
		check:    func(s models.AssignmentSnapshot) bool { return s.Teams.Complete() },
		display: func(s models.AssignmentSnapshot) string {
			if s.Teams == nil {
				return notAvailable
			}
			return fmt.Sprintf("%d teams, %d unassigned", len(s.Teams.Teams), len(s.Teams.UnassignedStudentIDs))
		},
		fix: func(_ models.AssignmentSnapshot, p *correctionPlan) { p.buildTeams = true },
	}
}

func discussionTypeRule() rule {
	return rule{
		id:       RuleDiscussionType,
		label:    "Discussion type",
		expected: models.DiscussionTypeThreaded,
		check:    func(s models.AssignmentSnapshot) bool { return s.DiscussionType == models.DiscussionTypeThreaded },
		display:  func(s models.AssignmentSnapshot) string { return orNotAvailable(s.DiscussionType) },
		fix: func(s models.AssignmentSnapshot, p *correctionPlan) {
			if s.DiscussionTopicID == nil {
				return
			}
			threaded := models.DiscussionTypeThreaded
			p.discussion.DiscussionType = &threaded
		},
	}
}

// plan derives the correction plan for the failing rules of the catalog.
func (c ruleCatalog) plan(s models.AssignmentSnapshot) correctionPlan {
	var p correctionPlan
	for _, r := range c.rules {
		if r.check(s) {
			continue
		}
		if r.fix == nil {
			if r.id != RulePlagiarism {
				p.manual = append(p.manual, r.id)
			}
			continue
		}
		r.fix(s, &p)
	}
	return p
}

func floatEquals(v *float64, want float64) bool {
	return v != nil && math.Abs(*v-want) < 0.005
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatAttempts(n int) string {
	if n == models.UnlimitedAttempts {
		return unlimitedAttemptsText
	}
	return strconv.Itoa(n)
}

func orNotAvailable(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
