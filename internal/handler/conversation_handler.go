package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/mindwell/messaging/internal/middleware"
	"github.com/mindwell/messaging/internal/service"
	"github.com/mindwell/messaging/pkg/constant"
	"github.com/mindwell/messaging/pkg/response"
)

// ConversationHandler handles conversation-related requests
type ConversationHandler struct {
	convService *service.ConversationService
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(convService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

// GetConversationList handles get conversation list request. Clients get
// the split listing with the support entry separated out; other roles get
// the flat page.
func (h *ConversationHandler) GetConversationList(ctx context.Context, c *app.RequestContext) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Unauthorized(ctx, c, "")
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	if identity.Role == constant.RoleClient {
		list, err := h.convService.ListForClient(ctx, identity.Id, page, pageSize)
		if err != nil {
			response.Error(ctx, c, err)
			return
		}
		response.Success(ctx, c, list)
		return
	}

	pageResp, err := h.convService.ListConversations(ctx, identity.Id, page, pageSize)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, pageResp)
}
