package realtime

import (
	"context"
	"sync/atomic"

	"github.com/mbeoliero/kit/log"
	"github.com/mindwell/messaging/pkg/errcode"
)

// Client represents one websocket connection of an identity. The delivery
// bridge is push-only: inbound frames are treated as liveness traffic and
// otherwise discarded.
type Client struct {
	conn       ClientConn
	IdentityId string
	Role       string
	ConnId     string
	gateway    *Gateway
	closed     atomic.Bool
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewClient creates a new client
func NewClient(conn ClientConn, identityId, role, connId string, gateway *Gateway) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:       conn,
		IdentityId: identityId,
		Role:       role,
		ConnId:     connId,
		gateway:    gateway,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run reads until the connection dies, then unregisters. Blocks; the
// websocket library owns the connection only for the duration of this
// call.
func (c *Client) Run() {
	defer func() {
		if r := recover(); r != nil {
			log.CtxError(c.ctx, "client read loop panic: identity_id=%s, error=%v", c.IdentityId, r)
		}
		c.close()
	}()

	for {
		_, err := c.conn.ReadMessage()
		if err != nil {
			log.CtxDebug(c.ctx, "read message error: identity_id=%s, error=%v", c.IdentityId, err)
			return
		}
		if c.closed.Load() {
			return
		}
		c.gateway.hub.RefreshOnlineStatus(c.ctx, c.IdentityId)
	}
}

// Push writes an already-marshaled event frame to the connection.
func (c *Client) Push(data []byte) error {
	if c.closed.Load() {
		return errcode.ErrConnClosed
	}
	return c.conn.WriteMessage(data)
}

// Close closes the client connection
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.cancel()
	return c.conn.Close()
}

// close handles cleanup when the connection is gone.
func (c *Client) close() {
	c.Close()
	c.gateway.UnregisterClient(c)
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	return c.closed.Load()
}
