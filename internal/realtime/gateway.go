package realtime

import (
	"context"
	"sync/atomic"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"github.com/hertz-contrib/websocket"
	"github.com/mbeoliero/kit/log"
	"github.com/mindwell/messaging/internal/config"
	"github.com/mindwell/messaging/internal/entity"
	"github.com/mindwell/messaging/pkg/constant"
	"github.com/mindwell/messaging/pkg/errcode"
	"github.com/mindwell/messaging/pkg/response"
)

// MemberLister resolves group membership for group channel fan-out.
type MemberLister interface {
	GetMemberIds(ctx context.Context, groupId string) ([]string, error)
}

// Gateway terminates websocket connections and routes subscribed push
// events to the right local connections.
type Gateway struct {
	cfg            *config.Config
	hub            *Hub
	bridge         *Bridge
	groupMembers   MemberLister
	registerChan   chan *Client
	unregisterChan chan *Client
	pushChan       chan *pushTask
	onlineConnNum  atomic.Int64
	maxConnNum     int64
}

// pushTask carries one subscribed event toward local delivery.
type pushTask struct {
	channel string
	payload []byte
}

// NewGateway creates a new Gateway
func NewGateway(cfg *config.Config, hub *Hub, bridge *Bridge, groupMembers MemberLister) *Gateway {
	return &Gateway{
		cfg:            cfg,
		hub:            hub,
		bridge:         bridge,
		groupMembers:   groupMembers,
		registerChan:   make(chan *Client, 1000),
		unregisterChan: make(chan *Client, 1000),
		pushChan:       make(chan *pushTask, cfg.Realtime.PushChannelSize),
		maxConnNum:     cfg.Realtime.MaxConnNum,
	}
}

// Run starts the gateway loops
func (g *Gateway) Run(ctx context.Context) {
	go g.eventLoop(ctx)
	go g.subscribeLoop(ctx)

	workerNum := g.cfg.Realtime.PushWorkerNum
	for i := 0; i < workerNum; i++ {
		go g.pushLoop(ctx)
	}
	log.Info("realtime gateway started: push_workers=%d", workerNum)
}

// eventLoop handles client registration and unregistration
func (g *Gateway) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-g.registerChan:
			g.hub.Register(ctx, client)
			g.onlineConnNum.Add(1)
			log.CtxInfo(ctx, "client registered: identity_id=%s, role=%s, conn_id=%s, online_conns=%d",
				client.IdentityId, client.Role, client.ConnId, g.onlineConnNum.Load())
		case client := <-g.unregisterChan:
			offline := g.hub.Unregister(ctx, client)
			g.onlineConnNum.Add(-1)
			log.CtxInfo(ctx, "client unregistered: identity_id=%s, conn_id=%s, identity_offline=%v, online_conns=%d",
				client.IdentityId, client.ConnId, offline, g.onlineConnNum.Load())
		}
	}
}

// subscribeLoop consumes the Redis pattern subscription and queues events
// for delivery.
func (g *Gateway) subscribeLoop(ctx context.Context) {
	pubsub := g.bridge.Subscribe(ctx)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			task := &pushTask{channel: m.Channel, payload: []byte(m.Payload)}
			select {
			case g.pushChan <- task:
			default:
				log.Warn("push channel full, event dropped: channel=%s", m.Channel)
			}
		}
	}
}

// pushLoop handles async event delivery
func (g *Gateway) pushLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-g.pushChan:
			g.dispatch(ctx, task)
		}
	}
}

// dispatch fans one event out to its local audience.
func (g *Gateway) dispatch(ctx context.Context, task *pushTask) {
	kind, id := constant.ParseChannel(task.channel)
	switch kind {
	case constant.ChannelKindUser:
		g.pushToIdentity(ctx, id, task.payload)
	case constant.ChannelKindSupport:
		for _, client := range g.hub.GetByRole(constant.RoleAdmin) {
			g.pushToClient(ctx, client, task.payload)
		}
	case constant.ChannelKindGroup:
		memberIds, err := g.groupMembers.GetMemberIds(ctx, id)
		if err != nil {
			log.CtxError(ctx, "resolve group members failed: group_id=%s, error=%v", id, err)
			return
		}
		for _, memberId := range memberIds {
			g.pushToIdentity(ctx, memberId, task.payload)
		}
	default:
		log.CtxDebug(ctx, "unknown push channel: %s", task.channel)
	}
}

func (g *Gateway) pushToIdentity(ctx context.Context, identityId string, payload []byte) {
	clients, ok := g.hub.GetAll(identityId)
	if !ok {
		return
	}
	for _, client := range clients {
		g.pushToClient(ctx, client, payload)
	}
}

func (g *Gateway) pushToClient(ctx context.Context, client *Client, payload []byte) {
	if err := client.Push(payload); err != nil {
		log.CtxDebug(ctx, "push to client failed: identity_id=%s, conn_id=%s, error=%v",
			client.IdentityId, client.ConnId, err)
	}
}

// UnregisterClient queues a client for unregistration
func (g *Gateway) UnregisterClient(client *Client) {
	select {
	case g.unregisterChan <- client:
	default:
		log.Warn("unregister channel full: identity_id=%s", client.IdentityId)
	}
}

// OnlineConnCount returns the number of local connections
func (g *Gateway) OnlineConnCount() int64 {
	return g.onlineConnNum.Load()
}

// HandleConnection upgrades an authenticated request to a websocket
// connection and keeps it until the peer goes away.
func (g *Gateway) HandleConnection(ctx context.Context, c *app.RequestContext, upgrader *websocket.HertzUpgrader) {
	if g.onlineConnNum.Load() >= g.maxConnNum {
		response.ErrorWithCode(ctx, c, errcode.ErrConnOverLimit)
		return
	}

	value, exists := c.Get(constant.CtxIdentityKey)
	identity, ok := value.(*entity.Identity)
	if !exists || !ok {
		response.Unauthorized(ctx, c, "")
		return
	}

	err := upgrader.Upgrade(c, func(conn *websocket.Conn) {
		wsConn := NewWsClientConn(conn,
			g.cfg.Realtime.MaxMessageSize,
			g.cfg.Realtime.PongWait,
			g.cfg.Realtime.PingPeriod,
			g.cfg.Realtime.WriteWait,
			g.cfg.Realtime.WriteChannelSize,
		)
		client := NewClient(wsConn, identity.Id, identity.Role, uuid.New().String(), g)
		g.registerChan <- client
		client.Run()
	})
	if err != nil {
		log.CtxWarn(ctx, "websocket upgrade failed: %v", err)
	}
}
