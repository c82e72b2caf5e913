package entity

import "github.com/mindwell/messaging/pkg/constant"

// Identity represents a platform account visible to the messaging core.
type Identity struct {
	Id          string `json:"id" gorm:"column:id;primaryKey"`
	DisplayName string `json:"display_name" gorm:"column:display_name"`
	Avatar      string `json:"avatar" gorm:"column:avatar"`
	Role        string `json:"role" gorm:"column:role;index"`
	Headline    string `json:"headline" gorm:"column:headline"`
	CreatedAt   int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt   int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for Identity
func (Identity) TableName() string {
	return "identities"
}

// IsAdmin checks if the identity belongs to the support pool.
func (i *Identity) IsAdmin() bool {
	return i.Role == constant.RoleAdmin
}

// SubLabel returns the role-specific sub-label, falling back to the
// role default when no headline is set.
func (i *Identity) SubLabel() string {
	if i.Headline != "" {
		return i.Headline
	}
	return constant.RoleHeadline(i.Role)
}

// IdentityInfo represents public identity info
type IdentityInfo struct {
	Id          string `json:"id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
	Role        string `json:"role"`
	Headline    string `json:"headline,omitempty"`
}

// ToIdentityInfo converts Identity to IdentityInfo
func (i *Identity) ToIdentityInfo() *IdentityInfo {
	return &IdentityInfo{
		Id:          i.Id,
		DisplayName: i.DisplayName,
		Avatar:      i.Avatar,
		Role:        i.Role,
		Headline:    i.SubLabel(),
	}
}
