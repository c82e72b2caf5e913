package session

import (
	"context"
	"sync"
	"testing"

	"github.com/mindwell/messaging/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageEvent(msg *sdk.MessageInfo) *sdk.PushEvent {
	return &sdk.PushEvent{Type: sdk.EventTypeMessage, Message: msg}
}

func TestHandleRealtimeOpenAppendsAndReads(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(store, RoleClient)
	defer s.Close()

	_, err := s.OpenConversation(context.Background(), "spec-1")
	require.NoError(t, err)
	waitMarkRead(t, store, "spec-1")

	s.HandleRealtime(messageEvent(&sdk.MessageInfo{
		Id: "1", SenderId: "spec-1", RecipientId: "me", Content: "hello",
	}))

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].Content)
	assert.Zero(t, s.Counter("spec-1"))

	// The arriving message is read immediately.
	waitMarkRead(t, store, "spec-1")
}

func TestHandleRealtimeDeduplicates(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(store, RoleClient)
	defer s.Close()

	_, err := s.OpenConversation(context.Background(), "spec-1")
	require.NoError(t, err)

	msg := &sdk.MessageInfo{Id: "1", SenderId: "spec-1", RecipientId: "me", Content: "hello"}
	s.HandleRealtime(messageEvent(msg))

	// Second delivery of the same message refreshes in place.
	updated := &sdk.MessageInfo{Id: "1", SenderId: "spec-1", RecipientId: "me", Content: "hello", Read: true}
	s.HandleRealtime(messageEvent(updated))

	history := s.History()
	require.Len(t, history, 1)
	assert.True(t, history[0].Read)
}

func TestHandleRealtimeClosedCountsAndNotifies(t *testing.T) {
	store := newFakeStore()
	var mu sync.Mutex
	var notified []string
	s := NewSession(store, "me", RoleClient,
		WithReconcileDelay(testReconcileDelay),
		WithNotifier(NotifierFunc(func(key string, msg *sdk.MessageInfo) {
			mu.Lock()
			notified = append(notified, key)
			mu.Unlock()
		})))
	defer s.Close()

	s.HandleRealtime(messageEvent(&sdk.MessageInfo{
		Id: "1", SenderId: "spec-1", RecipientId: "me", Content: "hello",
	}))
	s.HandleRealtime(messageEvent(&sdk.MessageInfo{
		Id: "2", SenderId: "spec-1", RecipientId: "me", Content: "there?",
	}))

	assert.EqualValues(t, 2, s.Counter("spec-1"))
	mu.Lock()
	assert.Equal(t, []string{"spec-1", "spec-1"}, notified)
	mu.Unlock()
}

func TestHandleRealtimeOwnEchoDoesNotCount(t *testing.T) {
	store := newFakeStore()
	var mu sync.Mutex
	notifies := 0
	s := NewSession(store, "me", RoleClient,
		WithReconcileDelay(testReconcileDelay),
		WithNotifier(NotifierFunc(func(key string, msg *sdk.MessageInfo) {
			mu.Lock()
			notifies++
			mu.Unlock()
		})))
	defer s.Close()

	// Echo of a message sent from another device of the same identity.
	s.HandleRealtime(messageEvent(&sdk.MessageInfo{
		Id: "1", SenderId: "me", RecipientId: "spec-1", Content: "from my phone",
	}))

	assert.Zero(t, s.Counter("spec-1"))
	mu.Lock()
	assert.Zero(t, notifies)
	mu.Unlock()
}

func TestHandleRealtimeIgnoresOtherFrames(t *testing.T) {
	s := newTestSession(newFakeStore(), RoleClient)
	defer s.Close()

	s.HandleRealtime(nil)
	s.HandleRealtime(&sdk.PushEvent{Type: "ping"})
	s.HandleRealtime(&sdk.PushEvent{Type: sdk.EventTypeMessage})

	assert.Empty(t, s.Counters())
}

func TestConversationKeyPerRole(t *testing.T) {
	poolMsg := &sdk.MessageInfo{Id: "1", SenderId: "client-1", IsSupport: true}
	replyMsg := &sdk.MessageInfo{Id: "2", SenderId: "admin-2", RecipientId: "client-1", IsSupport: true}
	groupMsg := &sdk.MessageInfo{Id: "3", SenderId: "spec-1", GroupId: "g1"}
	directMsg := &sdk.MessageInfo{Id: "4", SenderId: "spec-1", RecipientId: "me"}

	client := newTestSession(newFakeStore(), RoleClient)
	defer client.Close()
	assert.Equal(t, sdk.SupportCounterpart, client.conversationKeyOf(replyMsg))
	assert.Equal(t, sdk.GroupKey("g1"), client.conversationKeyOf(groupMsg))
	assert.Equal(t, "spec-1", client.conversationKeyOf(directMsg))

	// Admins key the merged pool by the client, whichever direction the
	// message went.
	admin := newTestSession(newFakeStore(), RoleAdmin)
	defer admin.Close()
	assert.Equal(t, "client-1", admin.conversationKeyOf(poolMsg))
	assert.Equal(t, "client-1", admin.conversationKeyOf(replyMsg))
}

func TestEnrichAttachmentPatchesOpenConversation(t *testing.T) {
	store := newFakeStore()
	store.history["spec-1"] = []*sdk.MessageInfo{
		{Id: "1", SenderId: "spec-1", RecipientId: "me", Attachment: &sdk.AttachmentInfo{Path: "spec-1/a.png", Name: "a.png"}},
	}
	s := newTestSession(store, RoleClient)
	defer s.Close()

	_, err := s.OpenConversation(context.Background(), "spec-1")
	require.NoError(t, err)

	s.enrichAttachment("spec-1", "1", "spec-1/a.png")

	history := s.History()
	require.NotNil(t, history[0].Attachment)
	assert.Contains(t, history[0].Attachment.URL, "spec-1/a.png")
}

func TestEnrichAttachmentSkipsStaleConversation(t *testing.T) {
	store := newFakeStore()
	store.history["spec-1"] = []*sdk.MessageInfo{
		{Id: "1", SenderId: "spec-1", RecipientId: "me", Attachment: &sdk.AttachmentInfo{Path: "spec-1/a.png", Name: "a.png"}},
	}
	s := newTestSession(store, RoleClient)
	defer s.Close()

	_, err := s.OpenConversation(context.Background(), "spec-1")
	require.NoError(t, err)
	before := s.History()

	// User switched threads before the signed URL came back.
	_, err = s.OpenConversation(context.Background(), "client-2")
	require.NoError(t, err)

	s.enrichAttachment("spec-1", "1", "spec-1/a.png")
	assert.Empty(t, before[0].Attachment.URL)
}
