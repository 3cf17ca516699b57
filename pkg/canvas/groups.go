package canvas

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/lms-auditor/internal/models"
)

// ListGroupCategories lists the group categories of a course.
func (c *Client) ListGroupCategories(ctx context.Context, courseID int64) ([]models.GroupCategory, error) {
	return listAll[models.GroupCategory](ctx, c, "list_group_categories", fmt.Sprintf("/courses/%d/group_categories", courseID), nil)
}

// CreateGroupCategory creates a closed category whose team leaders are picked at random.
func (c *Client) CreateGroupCategory(ctx context.Context, courseID int64, name string) (*models.GroupCategory, error) {
	body := map[string]interface{}{
		"name":        name,
		"self_signup": models.CategorySelfSignupClosed,
		"auto_leader": models.CategoryAutoLeaderRandom,
	}
	var category models.GroupCategory
	path := fmt.Sprintf("/courses/%d/group_categories", courseID)
	if err := c.send(ctx, "create_group_category", http.MethodPost, path, body, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteGroupCategory removes a category together with its groups.
func (c *Client) DeleteGroupCategory(ctx context.Context, categoryID int64) error {
	return c.send(ctx, "delete_group_category", http.MethodDelete, fmt.Sprintf("/group_categories/%d", categoryID), nil, nil)
}

// ListGroups lists the groups of a category.
func (c *Client) ListGroups(ctx context.Context, categoryID int64) ([]models.Group, error) {
	return listAll[models.Group](ctx, c, "list_groups", fmt.Sprintf("/group_categories/%d/groups", categoryID), nil)
}

// CreateGroup creates a named group inside a category.
func (c *Client) CreateGroup(ctx context.Context, categoryID int64, name string) (*models.Group, error) {
	var group models.Group
	path := fmt.Sprintf("/group_categories/%d/groups", categoryID)
	if err := c.send(ctx, "create_group", http.MethodPost, path, map[string]interface{}{"name": name}, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// AddGroupMember adds a user to a group.
func (c *Client) AddGroupMember(ctx context.Context, groupID, userID int64) error {
	path := fmt.Sprintf("/groups/%d/memberships", groupID)
	return c.send(ctx, "add_group_member", http.MethodPost, path, map[string]interface{}{"user_id": userID}, nil)
}

// ListGroupMemberships lists the memberships of a group.
func (c *Client) ListGroupMemberships(ctx context.Context, groupID int64) ([]models.GroupMembership, error) {
	return listAll[models.GroupMembership](ctx, c, "list_group_memberships", fmt.Sprintf("/groups/%d/memberships", groupID), nil)
}
