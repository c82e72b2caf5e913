package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mindwell/messaging/pkg/constant"
	"github.com/redis/go-redis/v9"
)

// Hub tracks live connections by identity. One identity may hold several
// connections (multiple tabs or devices); online presence is mirrored into
// Redis for cross-instance visibility.
type Hub struct {
	mu         sync.RWMutex
	identities map[string]*identityConns
	rdb        *redis.Client
	onlineTTL  time.Duration
}

type identityConns struct {
	Clients []*Client
	Time    time.Time
}

// NewHub creates a new Hub
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		identities: make(map[string]*identityConns),
		rdb:        rdb,
		onlineTTL:  60 * time.Second,
	}
}

// Register registers a client connection
func (h *Hub) Register(ctx context.Context, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, exists := h.identities[client.IdentityId]
	if !exists {
		conns = &identityConns{Clients: make([]*Client, 0, 4)}
		h.identities[client.IdentityId] = conns
	}

	conns.Clients = append(conns.Clients, client)
	conns.Time = time.Now()

	h.setOnline(ctx, client.IdentityId)
}

// Unregister removes a client connection. Returns true when the identity
// has no connections left.
func (h *Hub) Unregister(ctx context.Context, client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, exists := h.identities[client.IdentityId]
	if !exists {
		return false
	}

	kept := make([]*Client, 0, len(conns.Clients))
	for _, c := range conns.Clients {
		if c.ConnId != client.ConnId {
			kept = append(kept, c)
		}
	}
	conns.Clients = kept

	if len(conns.Clients) == 0 {
		delete(h.identities, client.IdentityId)
		h.setOffline(ctx, client.IdentityId)
		return true
	}
	return false
}

// GetAll gets all connections of an identity
func (h *Hub) GetAll(identityId string) ([]*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, exists := h.identities[identityId]
	if !exists {
		return nil, false
	}

	clients := make([]*Client, len(conns.Clients))
	copy(clients, conns.Clients)
	return clients, true
}

// GetByRole gets all connections whose identity holds a role. Used to fan
// the shared support pool out to every connected admin.
func (h *Hub) GetByRole(role string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var clients []*Client
	for _, conns := range h.identities {
		for _, c := range conns.Clients {
			if c.Role == role {
				clients = append(clients, c)
			}
		}
	}
	return clients
}

// HasConnection checks if an identity has any local connection
func (h *Hub) HasConnection(identityId string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, exists := h.identities[identityId]
	return exists && len(conns.Clients) > 0
}

// ConnCount returns the total number of local connections
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, conns := range h.identities {
		count += len(conns.Clients)
	}
	return count
}

// IsOnline checks presence, falling back to Redis for connections held by
// other instances.
func (h *Hub) IsOnline(ctx context.Context, identityId string) bool {
	if h.HasConnection(identityId) {
		return true
	}

	if h.rdb != nil {
		key := fmt.Sprintf(constant.RedisKeyOnline(), identityId)
		exists, _ := h.rdb.Exists(ctx, key).Result()
		return exists > 0
	}
	return false
}

// RefreshOnlineStatus refreshes the presence TTL
func (h *Hub) RefreshOnlineStatus(ctx context.Context, identityId string) {
	if h.rdb == nil {
		return
	}
	if h.HasConnection(identityId) {
		key := fmt.Sprintf(constant.RedisKeyOnline(), identityId)
		h.rdb.Expire(ctx, key, h.onlineTTL)
	}
}

func (h *Hub) setOnline(ctx context.Context, identityId string) {
	if h.rdb == nil {
		return
	}
	key := fmt.Sprintf(constant.RedisKeyOnline(), identityId)
	h.rdb.Set(ctx, key, "1", h.onlineTTL)
}

func (h *Hub) setOffline(ctx context.Context, identityId string) {
	if h.rdb == nil {
		return
	}
	key := fmt.Sprintf(constant.RedisKeyOnline(), identityId)
	h.rdb.Del(ctx, key)
}
