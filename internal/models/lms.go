package models

import "time"

// Course mirrors the subset of the Canvas course payload used in report headers.
type Course struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	CourseCode  string     `json:"course_code"`
	SISCourseID *string    `json:"sis_course_id"`
	StartAt     *time.Time `json:"start_at"`
	AccountID   *int64     `json:"account_id"`
}

// Account is a Canvas (sub-)account.
type Account struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	ParentAccountID *int64 `json:"parent_account_id"`
}

// RubricSettings is the rubric summary Canvas embeds in assignment payloads.
type RubricSettings struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	PointsPossible *float64 `json:"points_possible"`
}

// DiscussionTopic is embedded in graded discussion assignments.
type DiscussionTopic struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	DiscussionType string `json:"discussion_type"`
}

// Assignment is the Canvas assignment payload.
type Assignment struct {
	ID                  int64            `json:"id"`
	CourseID            int64            `json:"course_id"`
	Name                string           `json:"name"`
	PointsPossible      *float64         `json:"points_possible"`
	GradingType         string           `json:"grading_type"`
	SubmissionTypes     []string         `json:"submission_types"`
	AllowedAttempts     *int             `json:"allowed_attempts"`
	GroupCategoryID     *int64           `json:"group_category_id"`
	AssignmentGroupID   *int64           `json:"assignment_group_id"`
	RubricSettings      *RubricSettings  `json:"rubric_settings"`
	UseRubricForGrading bool             `json:"use_rubric_for_grading"`
	DiscussionTopic     *DiscussionTopic `json:"discussion_topic"`
	TurnitinEnabled     bool             `json:"turnitin_enabled"`
	VericiteEnabled     bool             `json:"vericite_enabled"`
	HTMLURL             string           `json:"html_url"`
}

// AssignmentGroup is what the checklist calls a module: a weighted bucket of assignments.
type AssignmentGroup struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	GroupWeight *float64 `json:"group_weight"`
	Position    int      `json:"position"`
}

// GroupCategory is a container of student groups (teams).
type GroupCategory struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	SelfSignup string `json:"self_signup"`
	AutoLeader string `json:"auto_leader"`
}

// Group is a single team inside a category.
type Group struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	GroupCategoryID int64  `json:"group_category_id"`
	MembersCount    int    `json:"members_count"`
}

// GroupMembership links a user to a group.
type GroupMembership struct {
	ID      int64  `json:"id"`
	GroupID int64  `json:"group_id"`
	UserID  int64  `json:"user_id"`
	State   string `json:"workflow_state"`
}

// Student is an enrolled user with the student role.
type Student struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SortableName string `json:"sortable_name"`
}
