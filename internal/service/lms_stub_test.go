package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/lms-auditor/internal/models"
)

var errStubTransport = errors.New("connection reset")

// lmsStub is an in-memory course that records every call in order.
type lmsStub struct {
	course      *models.Course
	account     *models.Account
	assignments []models.Assignment
	modules     map[int64]models.AssignmentGroup
	categories  []models.GroupCategory
	groups      map[int64][]models.Group
	members     map[int64][]int64
	students    []models.Student

	subAccounts    map[int64][]models.Account
	accountCourses map[int64][]models.Course

	failOn map[string]error
	calls  []string

	assignmentPatches []models.AssignmentPatch
	modulePatches     []models.ModulePatch
	discussionPatches []models.DiscussionPatch

	nextID int64
}

func newLMSStub() *lmsStub {
	return &lmsStub{
		modules:        map[int64]models.AssignmentGroup{},
		groups:         map[int64][]models.Group{},
		members:        map[int64][]int64{},
		subAccounts:    map[int64][]models.Account{},
		accountCourses: map[int64][]models.Course{},
		failOn:         map[string]error{},
		nextID:         1000,
	}
}

func (s *lmsStub) call(name string, args ...interface{}) error {
	label := name
	for _, a := range args {
		label += fmt.Sprintf(":%v", a)
	}
	s.calls = append(s.calls, label)
	if err, ok := s.failOn[label]; ok {
		return err
	}
	return s.failOn[name]
}

func (s *lmsStub) writes() []string {
	var out []string
	for _, c := range s.calls {
		switch {
		case strings.HasPrefix(c, "update_"), strings.HasPrefix(c, "create_"), strings.HasPrefix(c, "delete_"), strings.HasPrefix(c, "add_"):
			out = append(out, c)
		}
	}
	return out
}

func (s *lmsStub) GetCourse(_ context.Context, courseID int64) (*models.Course, error) {
	if err := s.call("get_course", courseID); err != nil {
		return nil, err
	}
	return s.course, nil
}

func (s *lmsStub) GetAccount(_ context.Context, accountID int64) (*models.Account, error) {
	if err := s.call("get_account", accountID); err != nil {
		return nil, err
	}
	return s.account, nil
}

func (s *lmsStub) ListSubAccounts(_ context.Context, accountID int64) ([]models.Account, error) {
	if err := s.call("list_sub_accounts", accountID); err != nil {
		return nil, err
	}
	return s.subAccounts[accountID], nil
}

func (s *lmsStub) ListAccountCourses(_ context.Context, accountID int64) ([]models.Course, error) {
	if err := s.call("list_account_courses", accountID); err != nil {
		return nil, err
	}
	return s.accountCourses[accountID], nil
}

func (s *lmsStub) GetAssignment(_ context.Context, _ int64, assignmentID int64) (*models.Assignment, error) {
	if err := s.call("get_assignment", assignmentID); err != nil {
		return nil, err
	}
	for _, a := range s.assignments {
		if a.ID == assignmentID {
			a := a
			return &a, nil
		}
	}
	return nil, errors.New("not found")
}

func (s *lmsStub) ListAssignments(_ context.Context, courseID int64) ([]models.Assignment, error) {
	if err := s.call("list_assignments", courseID); err != nil {
		return nil, err
	}
	return append([]models.Assignment(nil), s.assignments...), nil
}

func (s *lmsStub) GetAssignmentGroup(_ context.Context, _ int64, groupID int64) (*models.AssignmentGroup, error) {
	if err := s.call("get_assignment_group", groupID); err != nil {
		return nil, err
	}
	g, ok := s.modules[groupID]
	if !ok {
		return nil, errors.New("not found")
	}
	return &g, nil
}

func (s *lmsStub) ListGroupCategories(_ context.Context, courseID int64) ([]models.GroupCategory, error) {
	if err := s.call("list_group_categories", courseID); err != nil {
		return nil, err
	}
	return append([]models.GroupCategory(nil), s.categories...), nil
}

func (s *lmsStub) ListGroups(_ context.Context, categoryID int64) ([]models.Group, error) {
	if err := s.call("list_groups", categoryID); err != nil {
		return nil, err
	}
	return append([]models.Group(nil), s.groups[categoryID]...), nil
}

func (s *lmsStub) ListGroupMemberships(_ context.Context, groupID int64) ([]models.GroupMembership, error) {
	if err := s.call("list_group_memberships", groupID); err != nil {
		return nil, err
	}
	var out []models.GroupMembership
	for _, userID := range s.members[groupID] {
		out = append(out, models.GroupMembership{GroupID: groupID, UserID: userID, State: "accepted"})
	}
	return out, nil
}

func (s *lmsStub) ListStudents(_ context.Context, courseID int64) ([]models.Student, error) {
	if err := s.call("list_students", courseID); err != nil {
		return nil, err
	}
	return append([]models.Student(nil), s.students...), nil
}

func (s *lmsStub) UpdateAssignment(_ context.Context, _ int64, assignmentID int64, patch models.AssignmentPatch) (*models.Assignment, error) {
	if err := s.call("update_assignment", assignmentID); err != nil {
		return nil, err
	}
	s.assignmentPatches = append(s.assignmentPatches, patch)
	for i := range s.assignments {
		a := &s.assignments[i]
		if a.ID != assignmentID {
			continue
		}
		if patch.PointsPossible != nil {
			v := *patch.PointsPossible
			a.PointsPossible = &v
		}
		if patch.GradingType != nil {
			a.GradingType = *patch.GradingType
		}
		if patch.SubmissionTypes != nil {
			a.SubmissionTypes = append([]string(nil), patch.SubmissionTypes...)
		}
		if patch.AllowedAttempts != nil {
			v := *patch.AllowedAttempts
			a.AllowedAttempts = &v
		}
		switch {
		case patch.GroupCategoryID != nil:
			v := *patch.GroupCategoryID
			a.GroupCategoryID = &v
		case patch.ClearGroupCategory:
			a.GroupCategoryID = nil
		}
		if patch.Plagiarism != nil {
			a.TurnitinEnabled = patch.Plagiarism.Tool != ""
			if patch.SubmissionTypes == nil {
				a.SubmissionTypes = []string{models.SubmissionOnlineUpload}
			}
		}
		out := *a
		return &out, nil
	}
	return nil, errors.New("not found")
}

func (s *lmsStub) UpdateAssignmentGroup(_ context.Context, _ int64, groupID int64, patch models.ModulePatch) (*models.AssignmentGroup, error) {
	if err := s.call("update_assignment_group", groupID); err != nil {
		return nil, err
	}
	s.modulePatches = append(s.modulePatches, patch)
	g := s.modules[groupID]
	if patch.Name != nil {
		g.Name = *patch.Name
	}
	if patch.GroupWeight != nil {
		v := *patch.GroupWeight
		g.GroupWeight = &v
	}
	s.modules[groupID] = g
	return &g, nil
}

func (s *lmsStub) UpdateDiscussionTopic(_ context.Context, _ int64, topicID int64, patch models.DiscussionPatch) error {
	if err := s.call("update_discussion_topic", topicID); err != nil {
		return err
	}
	s.discussionPatches = append(s.discussionPatches, patch)
	for i := range s.assignments {
		topic := s.assignments[i].DiscussionTopic
		if topic != nil && topic.ID == topicID && patch.DiscussionType != nil {
			topic.DiscussionType = *patch.DiscussionType
		}
	}
	return nil
}

func (s *lmsStub) CreateGroupCategory(_ context.Context, _ int64, name string) (*models.GroupCategory, error) {
	if err := s.call("create_group_category", name); err != nil {
		return nil, err
	}
	s.nextID++
	category := models.GroupCategory{ID: s.nextID, Name: name}
	s.categories = append(s.categories, category)
	return &category, nil
}

func (s *lmsStub) DeleteGroupCategory(_ context.Context, categoryID int64) error {
	if err := s.call("delete_group_category", categoryID); err != nil {
		return err
	}
	kept := s.categories[:0]
	for _, c := range s.categories {
		if c.ID != categoryID {
			kept = append(kept, c)
		}
	}
	s.categories = kept
	delete(s.groups, categoryID)
	return nil
}

func (s *lmsStub) CreateGroup(_ context.Context, categoryID int64, name string) (*models.Group, error) {
	if err := s.call("create_group", name); err != nil {
		return nil, err
	}
	s.nextID++
	group := models.Group{ID: s.nextID, Name: name, GroupCategoryID: categoryID}
	s.groups[categoryID] = append(s.groups[categoryID], group)
	return &group, nil
}

func (s *lmsStub) AddGroupMember(_ context.Context, groupID, userID int64) error {
	if err := s.call("add_group_member", groupID, userID); err != nil {
		return err
	}
	s.members[groupID] = append(s.members[groupID], userID)
	return nil
}

// teamSizes returns the sorted member counts of every group in the category.
func (s *lmsStub) teamSizes(categoryID int64) []int {
	var sizes []int
	for _, g := range s.groups[categoryID] {
		sizes = append(sizes, len(s.members[g.ID]))
	}
	sort.Ints(sizes)
	return sizes
}

func (s *lmsStub) categoryID(name string) (int64, bool) {
	for _, c := range s.categories {
		if c.Name == name {
			return c.ID, true
		}
	}
	return 0, false
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int { return &v }
func int64Ptr(v int64) *int64 { return &v }

func students(ids ...int64) []models.Student {
	out := make([]models.Student, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Student{ID: id, Name: fmt.Sprintf("Student %d", id)})
	}
	return out
}

func studentRange(from, to int64) []models.Student {
	var ids []int64
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return students(ids...)
}
