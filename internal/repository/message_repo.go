package repository

import (
	"context"
	"errors"

	"github.com/mindwell/messaging/internal/entity"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// messageColumns is the explicit select list used by the windowed
// aggregation queries so rows scan cleanly into entity.Message.
const messageColumns = "t.id, t.sender_id, t.recipient_id, t.group_id, t.is_support, t.content, t.is_read, t.read_at, t.attachment_path, t.attachment_name, t.attachment_type, t.attachment_size, t.created_at, t.updated_at"

// MessageRepo is the repository for message operations
type MessageRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewMessageRepo creates a new MessageRepo
func NewMessageRepo(db *gorm.DB, rdb *redis.Client) *MessageRepo {
	return &MessageRepo{db: db, rdb: rdb}
}

// Create creates a new message
func (r *MessageRepo) Create(ctx context.Context, msg *entity.Message) error {
	now := entity.NowUnixMilli()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	return r.db.WithContext(ctx).Create(msg).Error
}

// GetById gets a message by id
func (r *MessageRepo) GetById(ctx context.Context, id string) (*entity.Message, error) {
	var msg entity.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// DirectHistory returns all direct messages between two identities,
// oldest first.
func (r *MessageRepo) DirectHistory(ctx context.Context, a, b string) ([]*entity.Message, error) {
	var messages []*entity.Message
	err := r.db.WithContext(ctx).
		Where("group_id = '' AND is_support = 0 AND ((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?))", a, b, b, a).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// SupportHistory returns the full support thread for one client, oldest
// first. The thread spans pool-addressed rows from the client and replies
// from any admin: there is no per-admin sub-thread.
func (r *MessageRepo) SupportHistory(ctx context.Context, clientId string) ([]*entity.Message, error) {
	var messages []*entity.Message
	err := r.db.WithContext(ctx).
		Where("is_support = 1 AND ((sender_id = ? AND recipient_id = '') OR recipient_id = ?)", clientId, clientId).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// GroupHistory returns all messages of a group, oldest first.
func (r *MessageRepo) GroupHistory(ctx context.Context, groupId string) ([]*entity.Message, error) {
	var messages []*entity.Message
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupId).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkDirectRead flips every unread direct message from counterpart to
// owner. Idempotent: the is_read guard makes a second call a no-op.
// Returns the number of rows flipped.
func (r *MessageRepo) MarkDirectRead(ctx context.Context, ownerId, counterpartId string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("recipient_id = ? AND sender_id = ? AND is_support = 0 AND is_read = 0", ownerId, counterpartId).
		Updates(map[string]interface{}{
			"is_read":    true,
			"read_at":    entity.NowUnixMilli(),
			"updated_at": entity.NowUnixMilli(),
		})
	return res.RowsAffected, res.Error
}

// MarkSupportReadForClient flips unread admin replies addressed to the
// client.
func (r *MessageRepo) MarkSupportReadForClient(ctx context.Context, clientId string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("recipient_id = ? AND is_support = 1 AND is_read = 0", clientId).
		Updates(map[string]interface{}{
			"is_read":    true,
			"read_at":    entity.NowUnixMilli(),
			"updated_at": entity.NowUnixMilli(),
		})
	return res.RowsAffected, res.Error
}

// MarkSupportReadForPool flips unread pool-addressed messages from one
// client. Reading on behalf of the pool is shared: the flip is visible to
// every admin.
func (r *MessageRepo) MarkSupportReadForPool(ctx context.Context, clientId string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("sender_id = ? AND recipient_id = '' AND is_support = 1 AND is_read = 0", clientId).
		Updates(map[string]interface{}{
			"is_read":    true,
			"read_at":    entity.NowUnixMilli(),
			"updated_at": entity.NowUnixMilli(),
		})
	return res.RowsAffected, res.Error
}

// CountSupportForClient returns how many support messages exist for a
// client. Used to re-evaluate the start-new-support affordance.
func (r *MessageRepo) CountSupportForClient(ctx context.Context, clientId string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("is_support = 1 AND ((sender_id = ? AND recipient_id = '') OR recipient_id = ?)", clientId, clientId).
		Count(&count).Error
	return count, err
}

// counterpartUnread is the scan target of the unread aggregation queries.
type counterpartUnread struct {
	CounterpartId string
	UnreadCount   int64
}

// DirectAggregates returns, per direct counterpart of the viewer, the
// latest message and the viewer's unread count. Two grouped queries, no
// per-counterpart scanning.
func (r *MessageRepo) DirectAggregates(ctx context.Context, viewerId string) ([]*entity.PartnerAggregate, error) {
	var last []*entity.Message
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+messageColumns+` FROM (
			SELECT m.*, ROW_NUMBER() OVER (
				PARTITION BY CASE WHEN m.sender_id = ? THEN m.recipient_id ELSE m.sender_id END
				ORDER BY m.created_at DESC, m.id DESC
			) AS rn
			FROM messages m
			WHERE m.group_id = '' AND m.is_support = 0 AND (m.sender_id = ? OR m.recipient_id = ?)
		) t WHERE t.rn = 1`, viewerId, viewerId, viewerId).
		Scan(&last).Error
	if err != nil {
		return nil, err
	}

	var unread []counterpartUnread
	err = r.db.WithContext(ctx).Raw(`
		SELECT CASE WHEN sender_id = ? THEN recipient_id ELSE sender_id END AS counterpart_id,
		       SUM(CASE WHEN recipient_id = ? AND is_read = 0 THEN 1 ELSE 0 END) AS unread_count
		FROM messages
		WHERE group_id = '' AND is_support = 0 AND (sender_id = ? OR recipient_id = ?)
		GROUP BY counterpart_id`, viewerId, viewerId, viewerId, viewerId).
		Scan(&unread).Error
	if err != nil {
		return nil, err
	}

	unreadByKey := make(map[string]int64, len(unread))
	for _, u := range unread {
		unreadByKey[u.CounterpartId] = u.UnreadCount
	}

	aggs := make([]*entity.PartnerAggregate, 0, len(last))
	for _, msg := range last {
		key := msg.SenderId
		if msg.SenderId == viewerId {
			key = msg.RecipientId
		}
		aggs = append(aggs, &entity.PartnerAggregate{
			CounterpartId: key,
			LastMessage:   msg,
			UnreadCount:   unreadByKey[key],
			LastAt:        msg.CreatedAt,
		})
	}
	return aggs, nil
}

// SupportAggregateForClient returns the single merged support aggregate
// for a client, or nil when the client has no support history.
func (r *MessageRepo) SupportAggregateForClient(ctx context.Context, clientId string) (*entity.PartnerAggregate, error) {
	var last entity.Message
	err := r.db.WithContext(ctx).
		Where("is_support = 1 AND ((sender_id = ? AND recipient_id = '') OR recipient_id = ?)", clientId, clientId).
		Order("created_at DESC, id DESC").
		First(&last).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var unreadCount int64
	err = r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("recipient_id = ? AND is_support = 1 AND is_read = 0", clientId).
		Count(&unreadCount).Error
	if err != nil {
		return nil, err
	}

	return &entity.PartnerAggregate{
		CounterpartId: "",
		IsSupport:     true,
		LastMessage:   &last,
		UnreadCount:   unreadCount,
		LastAt:        last.CreatedAt,
	}, nil
}

// SupportAggregatesForPool returns one aggregate per client that has a
// support thread, keyed by the client identity. Identical for every
// admin: the pool is a shared inbox.
func (r *MessageRepo) SupportAggregatesForPool(ctx context.Context) ([]*entity.PartnerAggregate, error) {
	var last []*entity.Message
	err := r.db.WithContext(ctx).Raw(`
		SELECT ` + messageColumns + ` FROM (
			SELECT m.*, ROW_NUMBER() OVER (
				PARTITION BY CASE WHEN m.recipient_id = '' THEN m.sender_id ELSE m.recipient_id END
				ORDER BY m.created_at DESC, m.id DESC
			) AS rn
			FROM messages m
			WHERE m.is_support = 1
		) t WHERE t.rn = 1`).
		Scan(&last).Error
	if err != nil {
		return nil, err
	}

	var unread []counterpartUnread
	err = r.db.WithContext(ctx).Raw(`
		SELECT sender_id AS counterpart_id, COUNT(*) AS unread_count
		FROM messages
		WHERE is_support = 1 AND recipient_id = '' AND is_read = 0
		GROUP BY sender_id`).
		Scan(&unread).Error
	if err != nil {
		return nil, err
	}

	unreadByKey := make(map[string]int64, len(unread))
	for _, u := range unread {
		unreadByKey[u.CounterpartId] = u.UnreadCount
	}

	aggs := make([]*entity.PartnerAggregate, 0, len(last))
	for _, msg := range last {
		key := msg.ClientParty()
		aggs = append(aggs, &entity.PartnerAggregate{
			CounterpartId: key,
			IsSupport:     true,
			LastMessage:   msg,
			UnreadCount:   unreadByKey[key],
			LastAt:        msg.CreatedAt,
		})
	}
	return aggs, nil
}

// GroupAggregates returns, per group the viewer belongs to, the latest
// message and the count of messages past the viewer's read watermark.
func (r *MessageRepo) GroupAggregates(ctx context.Context, viewerId string) ([]*entity.PartnerAggregate, error) {
	var last []*entity.Message
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+messageColumns+` FROM (
			SELECT m.*, ROW_NUMBER() OVER (
				PARTITION BY m.group_id
				ORDER BY m.created_at DESC, m.id DESC
			) AS rn
			FROM messages m
			JOIN group_members gm ON gm.group_id = m.group_id AND gm.identity_id = ?
			WHERE m.group_id <> ''
		) t WHERE t.rn = 1`, viewerId).
		Scan(&last).Error
	if err != nil {
		return nil, err
	}

	type groupUnread struct {
		GroupId     string
		UnreadCount int64
	}
	var unread []groupUnread
	err = r.db.WithContext(ctx).Raw(`
		SELECT m.group_id AS group_id, COUNT(*) AS unread_count
		FROM messages m
		JOIN group_members gm ON gm.group_id = m.group_id AND gm.identity_id = ?
		WHERE m.group_id <> '' AND m.sender_id <> ? AND m.created_at > gm.last_read_at
		GROUP BY m.group_id`, viewerId, viewerId).
		Scan(&unread).Error
	if err != nil {
		return nil, err
	}

	unreadByGroup := make(map[string]int64, len(unread))
	for _, u := range unread {
		unreadByGroup[u.GroupId] = u.UnreadCount
	}

	aggs := make([]*entity.PartnerAggregate, 0, len(last))
	for _, msg := range last {
		aggs = append(aggs, &entity.PartnerAggregate{
			CounterpartId: msg.GroupId,
			IsGroup:       true,
			LastMessage:   msg,
			UnreadCount:   unreadByGroup[msg.GroupId],
			LastAt:        msg.CreatedAt,
		})
	}
	return aggs, nil
}
