package realtime

import (
	"context"
	"fmt"
	"testing"

	"github.com/mindwell/messaging/internal/entity"
	"github.com/mindwell/messaging/pkg/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelsForRouting(t *testing.T) {
	userChan := func(id string) string { return fmt.Sprintf(constant.ChannelUser(), id) }
	groupChan := func(id string) string { return fmt.Sprintf(constant.ChannelGroup(), id) }

	tests := []struct {
		name string
		msg  *entity.Message
		want []string
	}{
		{
			name: "direct message goes to the recipient",
			msg:  &entity.Message{SenderId: "client-1", RecipientId: "spec-1"},
			want: []string{userChan("spec-1")},
		},
		{
			name: "pool message goes to the shared support channel",
			msg:  &entity.Message{SenderId: "client-1", IsSupport: true},
			want: []string{constant.ChannelSupport()},
		},
		{
			name: "admin reply reaches the client and the watching admins",
			msg:  &entity.Message{SenderId: "admin-1", RecipientId: "client-1", IsSupport: true},
			want: []string{userChan("client-1"), constant.ChannelSupport()},
		},
		{
			name: "group message goes to the group channel",
			msg:  &entity.Message{SenderId: "spec-1", GroupId: "g1"},
			want: []string{groupChan("g1")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, channelsFor(tt.msg))
		})
	}
}

func newHubClient(identityId, role, connId string) *Client {
	return &Client{IdentityId: identityId, Role: role, ConnId: connId}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(nil)
	ctx := context.Background()

	c1 := newHubClient("client-1", constant.RoleClient, "conn-1")
	c2 := newHubClient("client-1", constant.RoleClient, "conn-2")

	hub.Register(ctx, c1)
	hub.Register(ctx, c2)
	assert.True(t, hub.HasConnection("client-1"))
	assert.Equal(t, 2, hub.ConnCount())

	all, ok := hub.GetAll("client-1")
	require.True(t, ok)
	assert.Len(t, all, 2)

	// Dropping one tab keeps the identity online.
	offline := hub.Unregister(ctx, c1)
	assert.False(t, offline)
	assert.True(t, hub.HasConnection("client-1"))

	offline = hub.Unregister(ctx, c2)
	assert.True(t, offline)
	assert.False(t, hub.HasConnection("client-1"))
	assert.Zero(t, hub.ConnCount())

	_, ok = hub.GetAll("client-1")
	assert.False(t, ok)
}

func TestHubUnregisterUnknown(t *testing.T) {
	hub := NewHub(nil)

	offline := hub.Unregister(context.Background(), newHubClient("ghost", constant.RoleClient, "c"))
	assert.False(t, offline)
}

func TestHubGetByRole(t *testing.T) {
	hub := NewHub(nil)
	ctx := context.Background()

	hub.Register(ctx, newHubClient("admin-1", constant.RoleAdmin, "a1"))
	hub.Register(ctx, newHubClient("admin-2", constant.RoleAdmin, "a2"))
	hub.Register(ctx, newHubClient("client-1", constant.RoleClient, "c1"))

	admins := hub.GetByRole(constant.RoleAdmin)
	assert.Len(t, admins, 2)
	for _, c := range admins {
		assert.Equal(t, constant.RoleAdmin, c.Role)
	}

	assert.Empty(t, hub.GetByRole(constant.RoleSpecialist))
}

func TestHubIsOnlineWithoutRedis(t *testing.T) {
	hub := NewHub(nil)
	ctx := context.Background()

	assert.False(t, hub.IsOnline(ctx, "client-1"))

	hub.Register(ctx, newHubClient("client-1", constant.RoleClient, "c1"))
	assert.True(t, hub.IsOnline(ctx, "client-1"))
}
