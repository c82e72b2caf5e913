package sdk

import "context"

// SendMessage sends a message to a counterpart key: an identity id, the
// support sentinel, or a group key.
func (c *Client) SendMessage(ctx context.Context, req *SendMessageRequest) (*MessageInfo, error) {
	var result MessageInfo
	if err := c.post(ctx, "/api/messages", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendText is a convenience method to send a plain text message
func (c *Client) SendText(ctx context.Context, counterpartId, text string) (*MessageInfo, error) {
	return c.SendMessage(ctx, &SendMessageRequest{
		RecipientId: counterpartId,
		Content:     text,
	})
}

// LoadHistory loads the full thread behind a counterpart key, oldest
// first, attachment URLs signed.
func (c *Client) LoadHistory(ctx context.Context, counterpartId string) ([]*MessageInfo, error) {
	params := map[string]string{"counterpart_id": counterpartId}
	var result HistoryResponse
	if err := c.get(ctx, "/api/messages/history", params, &result); err != nil {
		return nil, err
	}
	return result.Messages, nil
}

// MarkRead marks a conversation as read. Returns how many messages
// flipped; zero on repeat calls.
func (c *Client) MarkRead(ctx context.Context, counterpartId string) (int64, error) {
	req := &MarkReadRequest{CounterpartId: counterpartId}
	var result MarkReadResponse
	if err := c.post(ctx, "/api/messages/mark_read", req, &result); err != nil {
		return 0, err
	}
	return result.Marked, nil
}
