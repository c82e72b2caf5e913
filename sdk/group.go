package sdk

import "context"

// CreateGroup creates a chat group owned by the caller
func (c *Client) CreateGroup(ctx context.Context, name string, memberIds []string) (*GroupInfo, error) {
	req := &CreateGroupRequest{Name: name, MemberIds: memberIds}
	var result GroupInfo
	if err := c.post(ctx, "/api/groups", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListGroups lists the caller's groups
func (c *Client) ListGroups(ctx context.Context) ([]*GroupInfo, error) {
	var result ListGroupsResponse
	if err := c.get(ctx, "/api/groups", nil, &result); err != nil {
		return nil, err
	}
	return result.Groups, nil
}

// GetGroupInfo gets a group with its member list
func (c *Client) GetGroupInfo(ctx context.Context, groupId string) (*GroupInfo, error) {
	params := map[string]string{"group_id": groupId}
	var result GroupInfo
	if err := c.get(ctx, "/api/groups/info", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
