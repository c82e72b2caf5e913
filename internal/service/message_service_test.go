package service

import (
	"context"
	"testing"

	"github.com/mindwell/messaging/internal/entity"
	"github.com/mindwell/messaging/pkg/constant"
	"github.com/mindwell/messaging/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIdentities() *fakeIdentityStore {
	return newFakeIdentityStore(
		&entity.Identity{Id: "client-1", DisplayName: "Dana", Role: constant.RoleClient},
		&entity.Identity{Id: "client-2", DisplayName: "Noa", Role: constant.RoleClient},
		&entity.Identity{Id: "spec-1", DisplayName: "Dr. Levi", Role: constant.RoleSpecialist, Headline: "Child psychologist"},
		&entity.Identity{Id: "admin-1", DisplayName: "Maya", Role: constant.RoleAdmin},
	)
}

func newTestMessageService() (*MessageService, *fakeMsgStore, *fakeGroupStore, *fakeBlobStore, *fakePusher) {
	msgs := newFakeMsgStore()
	groups := newFakeGroupStore()
	blobs := newFakeBlobStore()
	pusher := &fakePusher{}
	svc := &MessageService{
		msgRepo:      msgs,
		identityRepo: newTestIdentities(),
		groupRepo:    groups,
		blobs:        blobs,
		pusher:       pusher,
	}
	return svc, msgs, groups, blobs, pusher
}

func TestSendMessageRejectsEmpty(t *testing.T) {
	svc, msgs, _, _, _ := newTestMessageService()

	_, err := svc.SendMessage(context.Background(), "client-1", &SendMessageRequest{
		RecipientId: "spec-1",
		Content:     "   ",
	})
	require.ErrorIs(t, err, errcode.ErrValidation)
	assert.Empty(t, msgs.created)
}

func TestSendMessageDirect(t *testing.T) {
	svc, msgs, _, _, pusher := newTestMessageService()

	msg, err := svc.SendMessage(context.Background(), "client-1", &SendMessageRequest{
		RecipientId: "spec-1",
		Content:     "hello",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.Id)
	assert.Equal(t, "client-1", msg.SenderId)
	assert.Equal(t, "spec-1", msg.RecipientId)
	assert.False(t, msg.IsSupport)
	require.Len(t, msgs.created, 1)
	require.Len(t, pusher.pushed, 1)
	assert.Equal(t, msg.Id, pusher.pushed[0].Id)
}

func TestSendMessageToSupportPool(t *testing.T) {
	svc, _, _, _, _ := newTestMessageService()

	msg, err := svc.SendMessage(context.Background(), "client-1", &SendMessageRequest{
		RecipientId: constant.SupportCounterpart,
		Content:     "I need help",
	})
	require.NoError(t, err)
	assert.True(t, msg.IsSupport)
	assert.Empty(t, msg.RecipientId)
}

func TestSendMessageAdminReplyIsSupport(t *testing.T) {
	svc, _, _, _, _ := newTestMessageService()

	msg, err := svc.SendMessage(context.Background(), "admin-1", &SendMessageRequest{
		RecipientId: "client-1",
		Content:     "happy to help",
	})
	require.NoError(t, err)
	assert.True(t, msg.IsSupport)
	assert.Equal(t, "client-1", msg.RecipientId)
}

func TestSendMessageToAdminRejected(t *testing.T) {
	svc, msgs, _, _, _ := newTestMessageService()

	// The support team is only reachable through the pool sentinel.
	_, err := svc.SendMessage(context.Background(), "client-1", &SendMessageRequest{
		RecipientId: "admin-1",
		Content:     "hi",
	})
	require.ErrorIs(t, err, errcode.ErrNotAuthorized)
	assert.Empty(t, msgs.created)
}

func TestSendMessageUnknownRecipient(t *testing.T) {
	svc, _, _, _, _ := newTestMessageService()

	_, err := svc.SendMessage(context.Background(), "client-1", &SendMessageRequest{
		RecipientId: "nobody",
		Content:     "hi",
	})
	require.ErrorIs(t, err, errcode.ErrIdentityUnknown)
}

func TestSendMessageGroupRequiresMembership(t *testing.T) {
	svc, _, groups, _, _ := newTestMessageService()
	groups.groups["g1"] = &entity.ChatGroup{Id: "g1", Name: "Care team"}
	groups.members["g1"] = []string{"spec-1", "client-1"}

	msg, err := svc.SendMessage(context.Background(), "client-1", &SendMessageRequest{
		GroupId: "g1",
		Content: "hi team",
	})
	require.NoError(t, err)
	assert.Equal(t, "g1", msg.GroupId)

	_, err = svc.SendMessage(context.Background(), "client-2", &SendMessageRequest{
		GroupId: "g1",
		Content: "let me in",
	})
	require.ErrorIs(t, err, errcode.ErrNotGroupMember)
}

func TestSendMessageGroupKeyAsRecipient(t *testing.T) {
	svc, _, groups, _, _ := newTestMessageService()
	groups.groups["g1"] = &entity.ChatGroup{Id: "g1", Name: "Care team"}
	groups.members["g1"] = []string{"client-1"}

	msg, err := svc.SendMessage(context.Background(), "client-1", &SendMessageRequest{
		RecipientId: constant.GroupKey("g1"),
		Content:     "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "g1", msg.GroupId)
	assert.Empty(t, msg.RecipientId)
}

func TestSendMessageOversizedAttachment(t *testing.T) {
	svc, msgs, _, blobs, _ := newTestMessageService()

	_, err := svc.SendMessage(context.Background(), "client-1", &SendMessageRequest{
		RecipientId: "spec-1",
		Attachment: &entity.AttachmentInfo{
			Path: "client-1/big.pdf",
			Name: "big.pdf",
			Size: constant.MaxAttachmentBytes + 1,
		},
	})
	require.ErrorIs(t, err, errcode.ErrPayloadTooLarge)
	assert.Empty(t, msgs.created)
	assert.Zero(t, blobs.putCalls)
}

func TestSendMessageDanglingAttachment(t *testing.T) {
	svc, _, _, _, _ := newTestMessageService()

	// Path references a blob that never finished uploading.
	_, err := svc.SendMessage(context.Background(), "client-1", &SendMessageRequest{
		RecipientId: "spec-1",
		Attachment: &entity.AttachmentInfo{
			Path: "client-1/missing.png",
			Name: "missing.png",
			Size: 512,
		},
	})
	require.ErrorIs(t, err, errcode.ErrUpload)
}

func TestSendMessageWithUploadedAttachment(t *testing.T) {
	svc, _, _, blobs, _ := newTestMessageService()
	blobs.blobs["spec-1/photo.png"] = []byte("png")

	msg, err := svc.SendMessage(context.Background(), "client-1", &SendMessageRequest{
		RecipientId: "spec-1",
		Attachment: &entity.AttachmentInfo{
			Path:     "spec-1/photo.png",
			Name:     "photo.png",
			MimeType: "image/png",
			Size:     3,
		},
	})
	require.NoError(t, err)
	assert.True(t, msg.HasAttachment())
	assert.True(t, msg.IsValid())
}

func TestLoadHistorySupportRouting(t *testing.T) {
	svc, msgs, _, _, _ := newTestMessageService()
	thread := []*entity.Message{
		{Id: "1", SenderId: "client-1", IsSupport: true, Content: "help"},
		{Id: "2", SenderId: "admin-1", RecipientId: "client-1", IsSupport: true, Content: "sure"},
	}
	msgs.support["client-1"] = thread

	// Client addresses the merged thread by the sentinel.
	got, err := svc.LoadHistory(context.Background(), "client-1", constant.SupportCounterpart)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Admin addresses the same thread by the client id.
	got, err = svc.LoadHistory(context.Background(), "admin-1", "client-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLoadHistoryGroupNonMember(t *testing.T) {
	svc, _, groups, _, _ := newTestMessageService()
	groups.groups["g1"] = &entity.ChatGroup{Id: "g1"}
	groups.members["g1"] = []string{"spec-1"}

	_, err := svc.LoadHistory(context.Background(), "client-1", constant.GroupKey("g1"))
	require.ErrorIs(t, err, errcode.ErrNotGroupMember)
}

func TestLoadHistoryDirectToAdminRejected(t *testing.T) {
	svc, _, _, _, _ := newTestMessageService()

	_, err := svc.LoadHistory(context.Background(), "client-1", "admin-1")
	require.ErrorIs(t, err, errcode.ErrNotAuthorized)
}

func TestMarkReadRouting(t *testing.T) {
	svc, msgs, groups, _, _ := newTestMessageService()
	groups.groups["g1"] = &entity.ChatGroup{Id: "g1"}
	groups.members["g1"] = []string{"client-1"}

	_, err := svc.MarkRead(context.Background(), "client-1", "spec-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"client-1|spec-1"}, msgs.markDirectCalls)

	_, err = svc.MarkRead(context.Background(), "client-1", constant.SupportCounterpart)
	require.NoError(t, err)
	assert.Equal(t, []string{"client-1"}, msgs.markClientCalls)

	// Admin reads on behalf of the whole pool.
	_, err = svc.MarkRead(context.Background(), "admin-1", "client-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"client-1"}, msgs.markPoolCalls)

	_, err = svc.MarkRead(context.Background(), "client-1", constant.GroupKey("g1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"g1|client-1"}, groups.watermarks)
}

func TestMarkReadIdempotent(t *testing.T) {
	svc, msgs, _, _, _ := newTestMessageService()
	msgs.unread["direct:client-1|spec-1"] = 3

	n, err := svc.MarkRead(context.Background(), "client-1", "spec-1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = svc.MarkRead(context.Background(), "client-1", "spec-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
