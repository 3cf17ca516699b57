package canvas

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/noah-isme/lms-auditor/internal/models"
)

// GetCourse fetches the course used in report headers.
func (c *Client) GetCourse(ctx context.Context, courseID int64) (*models.Course, error) {
	var course models.Course
	if err := c.get(ctx, "get_course", fmt.Sprintf("/courses/%d", courseID), nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// GetAccount fetches a (sub-)account.
func (c *Client) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	var account models.Account
	if err := c.get(ctx, "get_account", fmt.Sprintf("/accounts/%d", accountID), nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// ListSubAccounts lists the direct sub-accounts of an account.
func (c *Client) ListSubAccounts(ctx context.Context, accountID int64) ([]models.Account, error) {
	return listAll[models.Account](ctx, c, "list_sub_accounts", fmt.Sprintf("/accounts/%d/sub_accounts", accountID), nil)
}

// ListAccountCourses lists the courses owned directly by an account.
func (c *Client) ListAccountCourses(ctx context.Context, accountID int64) ([]models.Course, error) {
	return listAll[models.Course](ctx, c, "list_account_courses", fmt.Sprintf("/accounts/%d/courses", accountID), nil)
}

// ListStudents lists users enrolled in the course with the student role.
func (c *Client) ListStudents(ctx context.Context, courseID int64) ([]models.Student, error) {
	query := url.Values{}
	query.Add("enrollment_type[]", "student")
	return listAll[models.Student](ctx, c, "list_students", fmt.Sprintf("/courses/%d/users", courseID), query)
}

// UpdateDiscussionTopic patches a graded discussion topic.
func (c *Client) UpdateDiscussionTopic(ctx context.Context, courseID, topicID int64, patch models.DiscussionPatch) error {
	path := fmt.Sprintf("/courses/%d/discussion_topics/%d", courseID, topicID)
	return c.send(ctx, "update_discussion_topic", http.MethodPut, path, patch.Body(), nil)
}
