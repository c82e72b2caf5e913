package service

import (
	"context"

	"github.com/mindwell/messaging/internal/entity"
)

// The services depend on narrow store interfaces rather than concrete
// repositories. The gorm-backed repos in internal/repository satisfy them;
// tests substitute in-memory fakes.

// MessageStore is the message persistence surface.
type MessageStore interface {
	Create(ctx context.Context, msg *entity.Message) error
	GetById(ctx context.Context, id string) (*entity.Message, error)
	DirectHistory(ctx context.Context, a, b string) ([]*entity.Message, error)
	SupportHistory(ctx context.Context, clientId string) ([]*entity.Message, error)
	GroupHistory(ctx context.Context, groupId string) ([]*entity.Message, error)
	MarkDirectRead(ctx context.Context, ownerId, counterpartId string) (int64, error)
	MarkSupportReadForClient(ctx context.Context, clientId string) (int64, error)
	MarkSupportReadForPool(ctx context.Context, clientId string) (int64, error)
	CountSupportForClient(ctx context.Context, clientId string) (int64, error)
}

// AggregateStore is the per-counterpart aggregation surface used by the
// conversation service.
type AggregateStore interface {
	DirectAggregates(ctx context.Context, viewerId string) ([]*entity.PartnerAggregate, error)
	SupportAggregateForClient(ctx context.Context, clientId string) (*entity.PartnerAggregate, error)
	SupportAggregatesForPool(ctx context.Context) ([]*entity.PartnerAggregate, error)
	GroupAggregates(ctx context.Context, viewerId string) ([]*entity.PartnerAggregate, error)
	CountSupportForClient(ctx context.Context, clientId string) (int64, error)
}

// IdentityStore is the identity lookup surface.
type IdentityStore interface {
	GetById(ctx context.Context, id string) (*entity.Identity, error)
	GetByIds(ctx context.Context, ids []string) ([]*entity.Identity, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

// GroupStore is the chat group persistence surface.
type GroupStore interface {
	CreateWithMembers(ctx context.Context, group *entity.ChatGroup, memberIds []string) error
	GetById(ctx context.Context, id string) (*entity.ChatGroup, error)
	GetMemberIds(ctx context.Context, groupId string) ([]string, error)
	IsMember(ctx context.Context, groupId, identityId string) (bool, error)
	GetUserGroups(ctx context.Context, identityId string) ([]*entity.ChatGroup, error)
	TouchWatermark(ctx context.Context, groupId, identityId string) error
}

// MessagePusher forwards a stored message toward its realtime audience.
// The realtime bridge implements it; set after construction to break the
// service/gateway dependency cycle.
type MessagePusher interface {
	AsyncPushMessage(msg *entity.Message)
}
