package entity

import (
	"strings"

	"github.com/mindwell/messaging/pkg/constant"
)

// Message represents a persisted message row.
//
// Addressing rules:
//   - direct: sender_id and recipient_id are both identity ids, is_support = 0
//   - support, client to pool: sender_id = client, recipient_id = "", is_support = 1
//   - support, admin reply: sender_id = admin, recipient_id = client, is_support = 1
//   - group: group_id set, recipient_id = "" (delivery is to all members)
type Message struct {
	Id             string  `json:"id" gorm:"column:id;primaryKey"`
	SenderId       string  `json:"sender_id" gorm:"column:sender_id;index"`
	RecipientId    string  `json:"recipient_id" gorm:"column:recipient_id;index"`
	GroupId        string  `json:"group_id" gorm:"column:group_id;index"`
	IsSupport      bool    `json:"is_support" gorm:"column:is_support"`
	Content        string  `json:"content" gorm:"column:content;type:text"`
	Read           bool    `json:"read" gorm:"column:is_read"`
	ReadAt         *int64  `json:"read_at" gorm:"column:read_at"`
	AttachmentPath string  `json:"attachment_path" gorm:"column:attachment_path"`
	AttachmentName string  `json:"attachment_name" gorm:"column:attachment_name"`
	AttachmentType string  `json:"attachment_type" gorm:"column:attachment_type"`
	AttachmentSize int64   `json:"attachment_size" gorm:"column:attachment_size"`
	CreatedAt      int64   `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt      int64   `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// HasAttachment reports whether the message carries an attachment.
func (m *Message) HasAttachment() bool {
	return m.AttachmentPath != ""
}

// IsValid checks the content-or-attachment invariant.
func (m *Message) IsValid() bool {
	return strings.TrimSpace(m.Content) != "" || m.HasAttachment()
}

// ClientParty returns the client-side identity of a support message.
// Pool-addressed rows were sent by the client; admin replies always name
// the client as recipient.
func (m *Message) ClientParty() string {
	if !m.IsSupport {
		return ""
	}
	if m.RecipientId == "" {
		return m.SenderId
	}
	return m.RecipientId
}

// CounterpartKeyFor derives the logical conversation key of this message
// from the viewer's perspective.
func (m *Message) CounterpartKeyFor(viewerId, viewerRole string) string {
	if m.GroupId != "" {
		return constant.GroupKey(m.GroupId)
	}
	if m.IsSupport {
		if viewerRole == constant.RoleAdmin {
			return m.ClientParty()
		}
		return constant.SupportCounterpart
	}
	if m.SenderId == viewerId {
		return m.RecipientId
	}
	return m.SenderId
}

// Preview returns the short text shown in conversation lists and
// notifications.
func (m *Message) Preview() string {
	if strings.TrimSpace(m.Content) != "" {
		return m.Content
	}
	if m.HasAttachment() {
		return m.AttachmentName
	}
	return ""
}

// AttachmentInfo is the attachment descriptor exposed to clients. URL is a
// view-time enrichment: it is signed on demand and never persisted.
type AttachmentInfo struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	URL      string `json:"url,omitempty"`
}

// Attachment returns the descriptor, or nil when the message has none.
func (m *Message) Attachment() *AttachmentInfo {
	if !m.HasAttachment() {
		return nil
	}
	return &AttachmentInfo{
		Path:     m.AttachmentPath,
		Name:     m.AttachmentName,
		MimeType: m.AttachmentType,
		Size:     m.AttachmentSize,
	}
}

// SetAttachment copies a descriptor into the attachment columns.
func (m *Message) SetAttachment(att *AttachmentInfo) {
	if att == nil {
		return
	}
	m.AttachmentPath = att.Path
	m.AttachmentName = att.Name
	m.AttachmentType = att.MimeType
	m.AttachmentSize = att.Size
}

// MessageInfo represents message info for API responses and realtime push.
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

// ToMessageInfo converts Message to MessageInfo
func (m *Message) ToMessageInfo() *MessageInfo {
	return &MessageInfo{
		Id:          m.Id,
		SenderId:    m.SenderId,
		RecipientId: m.RecipientId,
		GroupId:     m.GroupId,
		IsSupport:   m.IsSupport,
		Content:     m.Content,
		Read:        m.Read,
		ReadAt:      m.ReadAt,
		Attachment:  m.Attachment(),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
