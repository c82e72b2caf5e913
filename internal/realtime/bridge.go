package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mbeoliero/kit/log"
	"github.com/mindwell/messaging/internal/entity"
	"github.com/mindwell/messaging/pkg/constant"
	"github.com/redis/go-redis/v9"
)

// Event types pushed over the websocket.
const (
	EventTypeMessage = "message"
)

// PushEvent is the frame delivered to websocket clients.
type PushEvent struct {
	Type    string              `json:"type"`
	Message *entity.MessageInfo `json:"message,omitempty"`
}

// Bridge publishes stored messages onto Redis pub/sub channels so that
// every gateway instance can deliver them to its local connections. It
// implements service.MessagePusher.
type Bridge struct {
	rdb *redis.Client
}

// NewBridge creates a new Bridge
func NewBridge(rdb *redis.Client) *Bridge {
	return &Bridge{rdb: rdb}
}

// channelsFor maps a message to its delivery channels:
//   - group: the group channel, fanned to members by the subscriber
//   - pool-addressed support: the shared support channel
//   - admin support reply: the client's channel plus the support channel,
//     so other admins watch the thread move
//   - direct: the recipient's channel
func channelsFor(msg *entity.Message) []string {
	if msg.GroupId != "" {
		return []string{fmt.Sprintf(constant.ChannelGroup(), msg.GroupId)}
	}
	if msg.IsSupport {
		if msg.RecipientId == "" {
			return []string{constant.ChannelSupport()}
		}
		return []string{
			fmt.Sprintf(constant.ChannelUser(), msg.RecipientId),
			constant.ChannelSupport(),
		}
	}
	return []string{fmt.Sprintf(constant.ChannelUser(), msg.RecipientId)}
}

// AsyncPushMessage publishes a message toward its audience without
// blocking the caller. Publish failures are logged and dropped; the
// message is already durable and reachable through history loads.
func (b *Bridge) AsyncPushMessage(msg *entity.Message) {
	event := &PushEvent{
		Type:    EventTypeMessage,
		Message: msg.ToMessageInfo(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error("marshal push event failed: message_id=%s, error=%v", msg.Id, err)
		return
	}

	channels := channelsFor(msg)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		for _, channel := range channels {
			if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
				log.CtxError(ctx, "publish push event failed: channel=%s, message_id=%s, error=%v",
					channel, msg.Id, err)
			}
		}
	}()
}

// Subscribe opens a pattern subscription covering every push channel.
func (b *Bridge) Subscribe(ctx context.Context) *redis.PubSub {
	return b.rdb.PSubscribe(ctx, constant.ChannelAllPattern())
}
