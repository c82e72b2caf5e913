package repository

import (
	"context"
	"errors"

	"github.com/mindwell/messaging/internal/entity"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// GroupRepo is the repository for chat group operations
type GroupRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewGroupRepo creates a new GroupRepo
func NewGroupRepo(db *gorm.DB, rdb *redis.Client) *GroupRepo {
	return &GroupRepo{db: db, rdb: rdb}
}

// CreateWithMembers creates a group and its fixed member set in one
// transaction. Membership is immutable after this point.
func (r *GroupRepo) CreateWithMembers(ctx context.Context, group *entity.ChatGroup, memberIds []string) error {
	now := entity.NowUnixMilli()
	group.CreatedAt = now
	group.UpdatedAt = now

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		members := make([]*entity.GroupMember, 0, len(memberIds))
		for _, id := range memberIds {
			members = append(members, &entity.GroupMember{
				GroupId:    group.Id,
				IdentityId: id,
				LastReadAt: now,
				CreatedAt:  now,
			})
		}
		return tx.Create(members).Error
	})
}

// GetById gets group by id, nil when unknown.
func (r *GroupRepo) GetById(ctx context.Context, id string) (*entity.ChatGroup, error) {
	var group entity.ChatGroup
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

// GetMemberIds returns the identity ids of all group members
func (r *GroupRepo) GetMemberIds(ctx context.Context, groupId string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&entity.GroupMember{}).
		Where("group_id = ?", groupId).
		Pluck("identity_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// IsMember checks if an identity belongs to the group
func (r *GroupRepo) IsMember(ctx context.Context, groupId, identityId string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.GroupMember{}).
		Where("group_id = ? AND identity_id = ?", groupId, identityId).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserGroups gets all groups an identity belongs to
func (r *GroupRepo) GetUserGroups(ctx context.Context, identityId string) ([]*entity.ChatGroup, error) {
	var groups []*entity.ChatGroup
	err := r.db.WithContext(ctx).
		Joins("JOIN group_members ON group_members.group_id = chat_groups.id").
		Where("group_members.identity_id = ?", identityId).
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// TouchWatermark advances a member's read watermark to now. Idempotent
// for repeated calls within the same millisecond; the watermark never
// moves backwards.
func (r *GroupRepo) TouchWatermark(ctx context.Context, groupId, identityId string) error {
	return r.db.WithContext(ctx).
		Model(&entity.GroupMember{}).
		Where("group_id = ? AND identity_id = ? AND last_read_at < ?", groupId, identityId, entity.NowUnixMilli()).
		Update("last_read_at", entity.NowUnixMilli()).Error
}
