package entity

// Conversation is the derived list entry for one counterpart: a real
// identity, the merged support pool, or a chat group. It is never
// persisted; the aggregator materializes it on demand.
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

// ConversationPage is one page of the counterpart-keyed conversation list.
type ConversationPage struct {
	Items      []*Conversation `json:"items"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
	TotalCount int64           `json:"total_count"`
}

// ClientConversationList is the split listing for the client role: the
// support pool entry (if any history exists) separated from individual
// specialists, plus the start-new-support affordance flag.
type ClientConversationList struct {
	Support             []*Conversation `json:"support"`
	Specialists         []*Conversation `json:"specialists"`
	Groups              []*Conversation `json:"groups,omitempty"`
	HasNewSupportOption bool            `json:"has_new_support_option"`
	Page                int             `json:"page"`
	TotalPages          int             `json:"total_pages"`
	TotalCount          int64           `json:"total_count"`
}

// PartnerAggregate is the repository-level aggregation row for one
// counterpart: the latest message plus the viewer's unread count.
type PartnerAggregate struct {
	CounterpartId string
	IsSupport     bool
	IsGroup       bool
	LastMessage   *Message
	UnreadCount   int64
	LastAt        int64
}
