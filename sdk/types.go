package sdk

// Response is the standard API response envelope
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// AttachmentInfo describes a message attachment. URL is a signed,
// time-limited access link minted at view time.
type AttachmentInfo struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	URL      string `json:"url,omitempty"`
}

// MessageInfo represents a message
type MessageInfo struct {
	Id          string          `json:"id"`
	SenderId    string          `json:"sender_id"`
	RecipientId string          `json:"recipient_id,omitempty"`
	GroupId     string          `json:"group_id,omitempty"`
	IsSupport   bool            `json:"is_support,omitempty"`
	Content     string          `json:"content"`
	Read        bool            `json:"read"`
	ReadAt      *int64          `json:"read_at,omitempty"`
	Attachment  *AttachmentInfo `json:"attachment,omitempty"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
}

// IdentityInfo represents public identity info
type IdentityInfo struct {
	Id          string `json:"id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
	Role        string `json:"role"`
	Headline    string `json:"headline,omitempty"`
}

// Conversation is one entry of a conversation list
type Conversation struct {
	CounterpartId string       `json:"counterpart_id"`
	DisplayName   string       `json:"display_name"`
	Avatar        string       `json:"avatar,omitempty"`
	Role          string       `json:"role,omitempty"`
	Headline      string       `json:"headline,omitempty"`
	IsGroup       bool         `json:"is_group,omitempty"`
	LastMessage   *MessageInfo `json:"last_message,omitempty"`
	UnreadCount   int64        `json:"unread_count"`
	LastActivity  int64        `json:"last_activity"`
}

// ConversationPage is one page of a flat conversation list
type ConversationPage struct {
	Items      []*Conversation `json:"items"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
	TotalCount int64           `json:"total_count"`
}

// ClientConversationList is the split listing served to clients
type ClientConversationList struct {
	Support             []*Conversation `json:"support"`
	Specialists         []*Conversation `json:"specialists"`
	Groups              []*Conversation `json:"groups,omitempty"`
	HasNewSupportOption bool            `json:"has_new_support_option"`
	Page                int             `json:"page"`
	TotalPages          int             `json:"total_pages"`
	TotalCount          int64           `json:"total_count"`
}

// GroupInfo represents a chat group
type GroupInfo struct {
	Id        string          `json:"id"`
	Name      string          `json:"name"`
	OwnerId   string          `json:"owner_id"`
	Members   []*IdentityInfo `json:"members,omitempty"`
	CreatedAt int64           `json:"created_at"`
}

// SendMessageRequest represents send message request
type SendMessageRequest struct {
	RecipientId string          `json:"recipient_id,omitempty"`
	GroupId     string          `json:"group_id,omitempty"`
	Content     string          `json:"content"`
	Attachment  *AttachmentInfo `json:"attachment,omitempty"`
}

// MarkReadRequest represents mark read request
type MarkReadRequest struct {
	CounterpartId string `json:"counterpart_id"`
}

// MarkReadResponse represents mark read response
type MarkReadResponse struct {
	Marked int64 `json:"marked"`
}

// HistoryResponse represents load history response
type HistoryResponse struct {
	Messages []*MessageInfo `json:"messages"`
}

// SignURLResponse represents sign attachment URL response
type SignURLResponse struct {
	URL string `json:"url"`
}

// CreateGroupRequest represents create group request
type CreateGroupRequest struct {
	Name      string   `json:"name"`
	MemberIds []string `json:"member_ids"`
}

// ListGroupsResponse represents list groups response
type ListGroupsResponse struct {
	Groups []*GroupInfo `json:"groups"`
}

// Event types pushed over the websocket.
const (
	EventTypeMessage = "message"
)

// PushEvent is a frame received over the realtime subscription
type PushEvent struct {
	Type    string       `json:"type"`
	Message *MessageInfo `json:"message,omitempty"`
}

// SupportCounterpart is the reserved counterpart id addressing the merged
// support pool.
const SupportCounterpart = "support"

// GroupKeyPrefix marks a conversation key referring to a chat group.
const GroupKeyPrefix = "grp_"

// GroupKey builds the conversation key for a group id.
func GroupKey(groupId string) string {
	return GroupKeyPrefix + groupId
}
