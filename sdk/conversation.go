package sdk

import (
	"context"
	"strconv"
)

func pageParams(page, pageSize int) map[string]string {
	params := map[string]string{}
	if page > 0 {
		params["page"] = strconv.Itoa(page)
	}
	if pageSize > 0 {
		params["page_size"] = strconv.Itoa(pageSize)
	}
	return params
}

// ListConversations lists one page of the flat conversation list
// (specialist and admin roles).
func (c *Client) ListConversations(ctx context.Context, page, pageSize int) (*ConversationPage, error) {
	var result ConversationPage
	if err := c.get(ctx, "/api/conversations", pageParams(page, pageSize), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListClientConversations lists one page of the split client listing.
func (c *Client) ListClientConversations(ctx context.Context, page, pageSize int) (*ClientConversationList, error) {
	var result ClientConversationList
	if err := c.get(ctx, "/api/conversations", pageParams(page, pageSize), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
