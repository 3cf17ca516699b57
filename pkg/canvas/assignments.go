package canvas

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/lms-auditor/internal/models"
)

// GetAssignment fetches one assignment including its rubric settings.
func (c *Client) GetAssignment(ctx context.Context, courseID, assignmentID int64) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := c.get(ctx, "get_assignment", fmt.Sprintf("/courses/%d/assignments/%d", courseID, assignmentID), nil, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListAssignments lists every assignment of the course.
func (c *Client) ListAssignments(ctx context.Context, courseID int64) ([]models.Assignment, error) {
	return listAll[models.Assignment](ctx, c, "list_assignments", fmt.Sprintf("/courses/%d/assignments", courseID), nil)
}

// UpdateAssignment sends only the fields set on the patch.
func (c *Client) UpdateAssignment(ctx context.Context, courseID, assignmentID int64, patch models.AssignmentPatch) (*models.Assignment, error) {
	var updated models.Assignment
	path := fmt.Sprintf("/courses/%d/assignments/%d", courseID, assignmentID)
	if err := c.send(ctx, "update_assignment", http.MethodPut, path, patch.Body(), &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetAssignmentGroup fetches the assignment group (module) owning an assignment.
func (c *Client) GetAssignmentGroup(ctx context.Context, courseID, groupID int64) (*models.AssignmentGroup, error) {
	var group models.AssignmentGroup
	if err := c.get(ctx, "get_assignment_group", fmt.Sprintf("/courses/%d/assignment_groups/%d", courseID, groupID), nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// UpdateAssignmentGroup renames or re-weights an assignment group.
func (c *Client) UpdateAssignmentGroup(ctx context.Context, courseID, groupID int64, patch models.ModulePatch) (*models.AssignmentGroup, error) {
	var updated models.AssignmentGroup
	path := fmt.Sprintf("/courses/%d/assignment_groups/%d", courseID, groupID)
	if err := c.send(ctx, "update_assignment_group", http.MethodPut, path, patch.Body(), &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
