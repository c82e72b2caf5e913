package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/mindwell/messaging/internal/entity"
	"github.com/mindwell/messaging/internal/middleware"
	"github.com/mindwell/messaging/internal/service"
	"github.com/mindwell/messaging/pkg/errcode"
	"github.com/mindwell/messaging/pkg/response"
)

// MessageHandler handles message-related requests
type MessageHandler struct {
	msgService *service.MessageService
	attService *service.AttachmentService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(msgService *service.MessageService, attService *service.AttachmentService) *MessageHandler {
	return &MessageHandler{msgService: msgService, attService: attService}
}

// SendMessage handles send message request
func (h *MessageHandler) SendMessage(ctx context.Context, c *app.RequestContext) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Unauthorized(ctx, c, "")
		return
	}

	var req service.SendMessageRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	msg, err := h.msgService.SendMessage(ctx, identity.Id, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	info := msg.ToMessageInfo()
	h.attService.DecorateMessages(ctx, []*entity.MessageInfo{info})
	response.Success(ctx, c, info)
}

// LoadHistory handles load conversation history request
func (h *MessageHandler) LoadHistory(ctx context.Context, c *app.RequestContext) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Unauthorized(ctx, c, "")
		return
	}

	counterpartId := c.Query("counterpart_id")
	if counterpartId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	messages, err := h.msgService.LoadHistory(ctx, identity.Id, counterpartId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	infos := make([]*entity.MessageInfo, 0, len(messages))
	for _, msg := range messages {
		infos = append(infos, msg.ToMessageInfo())
	}
	h.attService.DecorateMessages(ctx, infos)

	response.Success(ctx, c, map[string]interface{}{
		"messages": infos,
	})
}

// MarkReadRequest represents mark read request
type MarkReadRequest struct {
	CounterpartId string `json:"counterpart_id"`
}

// MarkRead handles mark conversation as read request
func (h *MessageHandler) MarkRead(ctx context.Context, c *app.RequestContext) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Unauthorized(ctx, c, "")
		return
	}

	var req MarkReadRequest
	if err := c.BindAndValidate(&req); err != nil || req.CounterpartId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	marked, err := h.msgService.MarkRead(ctx, identity.Id, req.CounterpartId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{
		"marked": marked,
	})
}
