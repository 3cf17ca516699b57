package service

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-auditor/internal/models"
	appErrors "github.com/noah-isme/lms-auditor/pkg/errors"
)

var testPlagiarism = models.PlagiarismSettings{
	Tool:             "Lti::MessageHandler_123",
	ToolType:         "Lti::MessageHandler",
	ReportVisibility: "immediate",
}

func newCorrectionServiceForTest(stub *lmsStub) *CorrectionService {
	return NewCorrectionService(CorrectionServiceParams{
		LMS: stub,
		Config: CorrectionServiceConfig{
			Plagiarism:   testPlagiarism,
			CategoryName: "Equipo de trabajo",
			MinTeamSize:  3,
			MaxTeamSize:  4,
		},
		Rand: rand.New(rand.NewSource(42)),
	})
}

func TestCorrectTeamworkCreatesCategoryAndTeams(t *testing.T) {
	stub := newLMSStub()
	stub.modules[9] = models.AssignmentGroup{ID: 9, Name: "Trabajo en equipo", GroupWeight: floatPtr(30)}
	stub.categories = []models.GroupCategory{{ID: 12, Name: "Project Groups"}}
	stub.students = studentRange(1, 9)
	stub.assignments = []models.Assignment{{
		ID: 101, Name: "Trabajo en equipo", PointsPossible: floatPtr(80), GradingType: "points",
		SubmissionTypes: []string{"online_upload"}, AssignmentGroupID: int64Ptr(9),
		RubricSettings: &models.RubricSettings{Title: "R", PointsPossible: floatPtr(100)}, UseRubricForGrading: true,
	}}

	snap, err := NewSnapshotService(stub, SnapshotServiceConfig{}, nil).Build(context.Background(), 7, models.AssignmentTypeTeamwork, stub.assignments[0])
	require.NoError(t, err)
	stub.calls = nil

	result := newCorrectionServiceForTest(stub).Correct(context.Background(), models.AssignmentTypeTeamwork, 7, snap)

	assert.True(t, result.Applied)
	assert.Empty(t, result.Failures)
	assert.Empty(t, result.Warnings)

	writes := stub.writes()
	require.GreaterOrEqual(t, len(writes), 3)
	assert.Equal(t, []string{
		"delete_group_category:12",
		"create_group_category:Equipo de trabajo",
		"update_assignment:101",
	}, writes[:3])

	var groupNames []string
	for _, w := range writes {
		if strings.HasPrefix(w, "create_group:") {
			groupNames = append(groupNames, strings.TrimPrefix(w, "create_group:"))
		}
	}
	assert.Equal(t, []string{"Equipo de trabajo 1", "Equipo de trabajo 2", "Equipo de trabajo 3"}, groupNames)

	categoryID, ok := stub.categoryID("Equipo de trabajo")
	require.True(t, ok)
	assert.Equal(t, []int{3, 3, 3}, stub.teamSizes(categoryID))

	var placed []int64
	for _, g := range stub.groups[categoryID] {
		placed = append(placed, stub.members[g.ID]...)
	}
	assert.ElementsMatch(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}, placed)

	require.Len(t, stub.assignmentPatches, 1)
	patch := stub.assignmentPatches[0]
	require.NotNil(t, patch.GroupCategoryID)
	assert.Equal(t, categoryID, *patch.GroupCategoryID)
	assert.Equal(t, []string{"points_possible", "allowed_attempts", "group_category_id"}, patch.ConditionalFields())
	require.NotNil(t, patch.Plagiarism)
	assert.Equal(t, testPlagiarism, *patch.Plagiarism)
}

func TestCorrectFillsSmallestExistingTeamsFirst(t *testing.T) {
	stub := newLMSStub()
	snap := compliantSnapshot(models.AssignmentTypeTeamwork)
	snap.Teams = &models.TeamState{
		TeamsCreated:         true,
		RosterSize:           8,
		UnassignedStudentIDs: []int64{7, 8},
		Teams: []models.TeamSnapshot{
			{ID: 1, Name: "Equipo de trabajo 1", MemberIDs: []int64{1, 2, 3}},
			{ID: 2, Name: "Equipo de trabajo 2", MemberIDs: []int64{4, 5, 6}},
		},
	}

	result := newCorrectionServiceForTest(stub).Correct(context.Background(), models.AssignmentTypeTeamwork, 7, snap)

	assert.Empty(t, result.Failures)
	writes := stub.writes()
	require.Len(t, writes, 3)
	assert.Equal(t, "update_assignment:101", writes[0])
	assert.True(t, strings.HasPrefix(writes[1], "add_group_member:1:"), writes[1])
	assert.True(t, strings.HasPrefix(writes[2], "add_group_member:2:"), writes[2])
	assert.ElementsMatch(t, []int64{7, 8}, append(append([]int64(nil), stub.members[1]...), stub.members[2]...))
}

func TestCorrectPartitionsLeftoversIntoNewTeams(t *testing.T) {
	stub := newLMSStub()
	snap := compliantSnapshot(models.AssignmentTypeTeamwork)
	snap.Teams = &models.TeamState{
		TeamsCreated:         true,
		RosterSize:           13,
		UnassignedStudentIDs: []int64{9, 10, 11, 12, 13},
		Teams: []models.TeamSnapshot{
			{ID: 1, Name: "Equipo de trabajo 1", MemberIDs: []int64{1, 2, 3, 4}},
			{ID: 2, Name: "Equipo de trabajo 2", MemberIDs: []int64{5, 6, 7, 8}},
		},
	}

	result := newCorrectionServiceForTest(stub).Correct(context.Background(), models.AssignmentTypeTeamwork, 7, snap)

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "cannot all be placed")
	assert.Equal(t, []int{1, 4}, stub.teamSizes(55))

	var created []string
	for _, g := range stub.groups[55] {
		created = append(created, g.Name)
	}
	assert.Equal(t, []string{"Equipo de trabajo 3", "Equipo de trabajo 4"}, created)
}

func TestCorrectContinuesAfterFailedWrite(t *testing.T) {
	stub := newLMSStub()
	stub.failOn["update_assignment"] = errStubTransport
	snap := compliantSnapshot(models.AssignmentTypeFinalWork)
	snap.PointsPossible = floatPtr(80)
	snap.Module.WeightPercent = floatPtr(10)

	result := newCorrectionServiceForTest(stub).Correct(context.Background(), models.AssignmentTypeFinalWork, 7, snap)

	assert.True(t, result.Applied)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, appErrors.ErrTransport.Code, result.Failures[0].Code)
	assert.Equal(t, int64(101), result.Failures[0].AssignmentID)
	assert.Contains(t, result.Failures[0].Message, "connection reset")
	assert.Equal(t, []string{"module 10 updated"}, result.Actions)
	assert.Equal(t, []string{"update_assignment:101", "update_assignment_group:10"}, stub.writes())
}

func TestCorrectWithoutCategoryCannotBuildTeams(t *testing.T) {
	stub := newLMSStub()
	stub.failOn["create_group_category"] = errStubTransport
	snap := compliantSnapshot(models.AssignmentTypeTeamwork)
	snap.GroupCategoryID = nil
	snap.GroupCategories = models.GroupCategoryState{}
	snap.Teams = &models.TeamState{RosterSize: 3, UnassignedStudentIDs: []int64{1, 2, 3}}

	result := newCorrectionServiceForTest(stub).Correct(context.Background(), models.AssignmentTypeTeamwork, 7, snap)

	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Warnings, "teams not created: team category unavailable")
	require.Len(t, stub.assignmentPatches, 1)
	assert.Nil(t, stub.assignmentPatches[0].GroupCategoryID)
	assert.Equal(t, []string{"create_group_category:Equipo de trabajo", "update_assignment:101"}, stub.writes())
}

func legacyLinkedTeamworkSnapshot() models.AssignmentSnapshot {
	snap := compliantSnapshot(models.AssignmentTypeTeamwork)
	snap.GroupCategoryID = int64Ptr(12)
	snap.GroupCategories = models.GroupCategoryState{LegacyID: int64Ptr(12)}
	snap.Teams = &models.TeamState{RosterSize: 3, UnassignedStudentIDs: []int64{1, 2, 3}}
	return snap
}

func TestCorrectUnlinksDeletedLegacyCategoryWhenCreateFails(t *testing.T) {
	stub := newLMSStub()
	stub.failOn["create_group_category"] = errStubTransport

	result := newCorrectionServiceForTest(stub).Correct(context.Background(), models.AssignmentTypeTeamwork, 7, legacyLinkedTeamworkSnapshot())

	require.Len(t, result.Failures, 1)
	assert.Equal(t, []string{
		"delete_group_category:12",
		"create_group_category:Equipo de trabajo",
		"update_assignment:101",
	}, stub.writes())
	require.Len(t, stub.assignmentPatches, 1)
	assert.Nil(t, stub.assignmentPatches[0].GroupCategoryID)
	assert.True(t, stub.assignmentPatches[0].ClearGroupCategory)
}

func TestCorrectKeepsLegacyCategoryAloneWhenDeleteFails(t *testing.T) {
	stub := newLMSStub()
	stub.failOn["delete_group_category"] = errStubTransport

	result := newCorrectionServiceForTest(stub).Correct(context.Background(), models.AssignmentTypeTeamwork, 7, legacyLinkedTeamworkSnapshot())

	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Warnings, "team category not created: legacy category 12 still present")
	assert.Contains(t, result.Warnings, "teams not created: team category unavailable")
	assert.Equal(t, []string{"delete_group_category:12", "update_assignment:101"}, stub.writes())
	require.Len(t, stub.assignmentPatches, 1)
	assert.Nil(t, stub.assignmentPatches[0].GroupCategoryID)
	assert.False(t, stub.assignmentPatches[0].ClearGroupCategory)
}

func TestCorrectUsesExistingCanonicalCategoryWhenDeleteFails(t *testing.T) {
	stub := newLMSStub()
	stub.failOn["delete_group_category"] = errStubTransport
	snap := legacyLinkedTeamworkSnapshot()
	snap.GroupCategories.CanonicalID = int64Ptr(55)

	result := newCorrectionServiceForTest(stub).Correct(context.Background(), models.AssignmentTypeTeamwork, 7, snap)

	require.Len(t, result.Failures, 1)
	assert.NotContains(t, stub.writes(), "create_group_category:Equipo de trabajo")
	require.Len(t, stub.assignmentPatches, 1)
	require.NotNil(t, stub.assignmentPatches[0].GroupCategoryID)
	assert.Equal(t, int64(55), *stub.assignmentPatches[0].GroupCategoryID)
	assert.Len(t, stub.groups[55], 1)
}

func TestCorrectForumThreadsDiscussionAndClearsCategory(t *testing.T) {
	stub := newLMSStub()
	snap := compliantSnapshot(models.AssignmentTypeForum)
	snap.GroupCategoryID = int64Ptr(12)
	snap.DiscussionType = "side_comment"

	result := newCorrectionServiceForTest(stub).Correct(context.Background(), models.AssignmentTypeForum, 7, snap)

	assert.True(t, result.Applied)
	assert.Equal(t, []string{"update_assignment:101", "update_discussion_topic:77"}, stub.writes())
	require.Len(t, stub.assignmentPatches, 1)
	assert.True(t, stub.assignmentPatches[0].ClearGroupCategory)
	assert.Nil(t, stub.assignmentPatches[0].Plagiarism)
	require.Len(t, stub.discussionPatches, 1)
	assert.Equal(t, models.DiscussionTypeThreaded, *stub.discussionPatches[0].DiscussionType)
}

func TestCorrectCompliantForumIssuesNoWrites(t *testing.T) {
	stub := newLMSStub()
	result := newCorrectionServiceForTest(stub).Correct(context.Background(), models.AssignmentTypeForum, 7, compliantSnapshot(models.AssignmentTypeForum))

	assert.False(t, result.Applied)
	assert.Empty(t, stub.writes())
}

func TestCorrectWarnsAboutManualRubricFixes(t *testing.T) {
	stub := newLMSStub()
	snap := compliantSnapshot(models.AssignmentTypeFinalWork)
	snap.Rubric = nil

	result := newCorrectionServiceForTest(stub).Correct(context.Background(), models.AssignmentTypeFinalWork, 7, snap)

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], manualRubricWarning)
	assert.Contains(t, result.Warnings[0], RuleRubricGrading)
	assert.Equal(t, []string{"plagiarism settings re-asserted"}, result.Actions)
}

func brokenCourseFixture() *lmsStub {
	stub := auditFixture()
	stub.categories = []models.GroupCategory{{ID: 12, Name: "Project Groups"}}
	stub.groups = map[int64][]models.Group{}
	stub.members = map[int64][]int64{}
	stub.modules[9] = models.AssignmentGroup{ID: 9, Name: "Unidad 1", GroupWeight: floatPtr(10)}

	teamwork := &stub.assignments[0]
	teamwork.GroupCategoryID = nil
	teamwork.AllowedAttempts = nil
	teamwork.PointsPossible = floatPtr(80)
	teamwork.TurnitinEnabled = false

	final := &stub.assignments[1]
	final.GroupCategoryID = int64Ptr(12)

	forum := &stub.assignments[2]
	forum.AllowedAttempts = intPtr(2)
	forum.DiscussionTopic = &models.DiscussionTopic{ID: 77, DiscussionType: "side_comment"}
	return stub
}

func TestRunCorrectionConvergesAndSecondPassIsIdempotent(t *testing.T) {
	stub := brokenCourseFixture()
	svc := newAuditServiceForTest(stub, newCorrectionServiceForTest(stub))
	ctx := context.Background()

	first, err := svc.RunCorrection(ctx, 7)
	require.NoError(t, err)
	assert.True(t, first.Applied())
	assert.Empty(t, first.Errors)
	for _, kind := range models.AssignmentTypes {
		require.Len(t, first.Results[kind], 1, kind)
		result := first.Results[kind][0]
		assert.Empty(t, result.Failures, kind)
		assert.Empty(t, result.Remaining, kind)
	}

	audit, err := svc.RunAudit(ctx, 7)
	require.NoError(t, err)
	for _, report := range audit.ReportsInOrder() {
		assert.True(t, report.Compliant(), report.AssignmentName)
	}

	stub.calls = nil
	stub.assignmentPatches = nil
	second, err := svc.RunCorrection(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, []string{"update_assignment:101", "update_assignment:102"}, stub.writes())
	for _, patch := range stub.assignmentPatches {
		assert.Empty(t, patch.ConditionalFields())
		assert.NotNil(t, patch.Plagiarism)
	}
	assert.Empty(t, second.Results[models.AssignmentTypeForum][0].Actions)
}

func TestRunCorrectionRequiresCorrector(t *testing.T) {
	svc := newAuditServiceForTest(auditFixture(), nil)
	_, err := svc.RunCorrection(context.Background(), 7)
	require.Error(t, err)
}

func TestNextTeamNumber(t *testing.T) {
	tests := []struct {
		name  string
		teams []models.TeamSnapshot
		want  int
	}{
		{name: "no teams", want: 1},
		{name: "sequential", teams: []models.TeamSnapshot{{Name: "Equipo de trabajo 1"}, {Name: "Equipo de trabajo 2"}}, want: 3},
		{name: "gap keeps highest", teams: []models.TeamSnapshot{{Name: "Equipo de trabajo 5"}}, want: 6},
		{name: "foreign names count", teams: []models.TeamSnapshot{{Name: "Alpha"}, {Name: "Beta"}}, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextTeamNumber(tt.teams, "Equipo de trabajo"))
		})
	}
}
