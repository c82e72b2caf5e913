package service

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mindwell/messaging/internal/entity"
	"github.com/mindwell/messaging/pkg/constant"
	"github.com/mindwell/messaging/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAttachmentService(blobs *fakeBlobStore) *AttachmentService {
	return &AttachmentService{
		blobs:      blobs,
		signSecret: []byte("test-secret"),
		publicBase: "http://localhost:8080",
		ttl:        time.Minute,
	}
}

func TestUploadStoresBlobUnderConversationScope(t *testing.T) {
	blobs := newFakeBlobStore()
	svc := newTestAttachmentService(blobs)

	info, err := svc.Upload(context.Background(), "client-1", "spec-1", "report.pdf", "application/pdf", []byte("pdf-bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(info.Path, "spec-1/"))
	assert.True(t, strings.HasSuffix(info.Path, ".pdf"))
	assert.Equal(t, "report.pdf", info.Name)
	assert.Equal(t, "application/pdf", info.MimeType)
	assert.EqualValues(t, len("pdf-bytes"), info.Size)
	assert.Equal(t, []byte("pdf-bytes"), blobs.blobs[info.Path])
}

func TestUploadFallsBackToOwnerScope(t *testing.T) {
	blobs := newFakeBlobStore()
	svc := newTestAttachmentService(blobs)

	info, err := svc.Upload(context.Background(), "client-1", "", "note.txt", "", []byte("hi"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(info.Path, "client-1/"))
	assert.Equal(t, "application/octet-stream", info.MimeType)
}

func TestUploadRejectsOversizedBeforeStore(t *testing.T) {
	blobs := newFakeBlobStore()
	svc := newTestAttachmentService(blobs)

	big := bytes.Repeat([]byte{0x1}, constant.MaxAttachmentBytes+1)
	_, err := svc.Upload(context.Background(), "client-1", "spec-1", "huge.bin", "", big)
	require.ErrorIs(t, err, errcode.ErrPayloadTooLarge)
	assert.Zero(t, blobs.putCalls)
}

func TestUploadRejectsEmpty(t *testing.T) {
	svc := newTestAttachmentService(newFakeBlobStore())

	_, err := svc.Upload(context.Background(), "client-1", "", "", "", []byte("x"))
	require.ErrorIs(t, err, errcode.ErrInvalidParam)

	_, err = svc.Upload(context.Background(), "client-1", "", "empty.txt", "", nil)
	require.ErrorIs(t, err, errcode.ErrInvalidParam)
}

func TestUploadWrapsStoreFailure(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.putErr = assert.AnError
	svc := newTestAttachmentService(blobs)

	_, err := svc.Upload(context.Background(), "client-1", "", "a.txt", "", []byte("x"))
	require.ErrorIs(t, err, errcode.ErrUpload)
}

func TestSignURLRoundTrip(t *testing.T) {
	svc := newTestAttachmentService(newFakeBlobStore())

	signed, err := svc.SignURL("spec-1/abc.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed, "http://localhost:8080/api/attachments?token="))

	u, err := url.Parse(signed)
	require.NoError(t, err)
	path, err := svc.VerifyToken(u.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "spec-1/abc.png", path)
}

func TestVerifyTokenRejectsTampered(t *testing.T) {
	svc := newTestAttachmentService(newFakeBlobStore())

	signed, err := svc.SignURL("spec-1/abc.png")
	require.NoError(t, err)
	u, _ := url.Parse(signed)
	token := u.Query().Get("token")

	_, err = svc.VerifyToken(token + "x")
	assert.ErrorIs(t, err, errcode.ErrSignatureInvalid)

	_, err = svc.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, errcode.ErrSignatureInvalid)

	// Signed under a different secret.
	other := newTestAttachmentService(newFakeBlobStore())
	other.signSecret = []byte("other-secret")
	foreign, err := other.SignURL("spec-1/abc.png")
	require.NoError(t, err)
	fu, _ := url.Parse(foreign)
	_, err = svc.VerifyToken(fu.Query().Get("token"))
	assert.ErrorIs(t, err, errcode.ErrSignatureInvalid)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	svc := newTestAttachmentService(newFakeBlobStore())
	svc.ttl = -time.Minute

	signed, err := svc.SignURL("spec-1/abc.png")
	require.NoError(t, err)
	u, _ := url.Parse(signed)

	_, err = svc.VerifyToken(u.Query().Get("token"))
	assert.ErrorIs(t, err, errcode.ErrSignatureInvalid)
}

func TestFetchMissingBlob(t *testing.T) {
	svc := newTestAttachmentService(newFakeBlobStore())

	_, _, err := svc.Fetch(context.Background(), "spec-1/gone.png")
	assert.ErrorIs(t, err, errcode.ErrBlobNotFound)
}

func TestDecorateMessagesSignsAttachments(t *testing.T) {
	svc := newTestAttachmentService(newFakeBlobStore())

	infos := []*entity.MessageInfo{
		{Id: "1", Content: "plain"},
		{Id: "2", Attachment: &entity.AttachmentInfo{Path: "spec-1/a.png", Name: "a.png"}},
	}
	svc.DecorateMessages(context.Background(), infos)

	assert.Nil(t, infos[0].Attachment)
	require.NotEmpty(t, infos[1].Attachment.URL)

	u, err := url.Parse(infos[1].Attachment.URL)
	require.NoError(t, err)
	path, err := svc.VerifyToken(u.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "spec-1/a.png", path)
}
