package handler

import (
	"context"
	"io"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/mindwell/messaging/internal/middleware"
	"github.com/mindwell/messaging/internal/service"
	"github.com/mindwell/messaging/pkg/constant"
	"github.com/mindwell/messaging/pkg/errcode"
	"github.com/mindwell/messaging/pkg/response"
)

// AttachmentHandler handles attachment upload and download requests
type AttachmentHandler struct {
	attService *service.AttachmentService
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(attService *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attService: attService}
}

// Upload handles attachment upload request (multipart form, field "file").
func (h *AttachmentHandler) Upload(ctx context.Context, c *app.RequestContext) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Unauthorized(ctx, c, "")
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}
	// Reject before buffering anything.
	if header.Size > constant.MaxAttachmentBytes {
		response.ErrorWithCode(ctx, c, errcode.ErrPayloadTooLarge)
		return
	}

	file, err := header.Open()
	if err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrUpload)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrUpload)
		return
	}

	counterpartId := c.FormValue("counterpart_id")
	mimeType := header.Header.Get("Content-Type")

	info, err := h.attService.Upload(ctx, identity.Id, string(counterpartId), header.Filename, mimeType, data)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, info)
}

// Sign mints a fresh signed URL for a blob path. Used by clients to
// decorate realtime-delivered messages, which arrive without URLs.
func (h *AttachmentHandler) Sign(ctx context.Context, c *app.RequestContext) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Unauthorized(ctx, c, "")
		return
	}

	blobPath := c.Query("path")
	if blobPath == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	signed, err := h.attService.SignURL(blobPath)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{
		"url": signed,
	})
}

// Download serves an attachment blob behind a signed token.
func (h *AttachmentHandler) Download(ctx context.Context, c *app.RequestContext) {
	token := c.Query("token")
	if token == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrSignatureInvalid)
		return
	}

	blobPath, err := h.attService.VerifyToken(token)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	data, contentType, err := h.attService.Fetch(ctx, blobPath)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	c.Data(consts.StatusOK, contentType, data)
}
