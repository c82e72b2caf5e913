package entity

// ChatGroup represents an owner-created multi-party room. Membership is
// fixed at creation: there are no join/leave/kick operations and groups
// are not deletable.
type ChatGroup struct {
	Id        string `json:"id" gorm:"column:id;primaryKey"`
	Name      string `json:"name" gorm:"column:name"`
	OwnerId   string `json:"owner_id" gorm:"column:owner_id;index"`
	CreatedAt int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for ChatGroup
func (ChatGroup) TableName() string {
	return "chat_groups"
}

// GroupMember represents one member of a chat group. LastReadAt is the
// member's read watermark used for group unread counts.
type GroupMember struct {
	Id         int64  `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	GroupId    string `json:"group_id" gorm:"column:group_id;index"`
	IdentityId string `json:"identity_id" gorm:"column:identity_id;index"`
	LastReadAt int64  `json:"last_read_at" gorm:"column:last_read_at"`
	CreatedAt  int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
}

// TableName returns the table name for GroupMember
func (GroupMember) TableName() string {
	return "group_members"
}

// GroupInfo represents group info with the resolved member list.
type GroupInfo struct {
	Id        string          `json:"id"`
	Name      string          `json:"name"`
	OwnerId   string          `json:"owner_id"`
	Members   []*IdentityInfo `json:"members"`
	CreatedAt int64           `json:"created_at"`
}
