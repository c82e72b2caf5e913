package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/mindwell/messaging/internal/middleware"
	"github.com/mindwell/messaging/internal/service"
	"github.com/mindwell/messaging/pkg/errcode"
	"github.com/mindwell/messaging/pkg/response"
)

// GroupHandler handles group-related requests
type GroupHandler struct {
	groupService *service.GroupService
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// CreateGroup handles create group request
func (h *GroupHandler) CreateGroup(ctx context.Context, c *app.RequestContext) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Unauthorized(ctx, c, "")
		return
	}

	var req service.CreateGroupRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	info, err := h.groupService.CreateGroup(ctx, identity.Id, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, info)
}

// GetGroupInfo handles get group info request
func (h *GroupHandler) GetGroupInfo(ctx context.Context, c *app.RequestContext) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Unauthorized(ctx, c, "")
		return
	}

	groupId := c.Query("group_id")
	if groupId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	info, err := h.groupService.GetGroup(ctx, identity.Id, groupId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, info)
}

// ListGroups handles list groups request
func (h *GroupHandler) ListGroups(ctx context.Context, c *app.RequestContext) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Unauthorized(ctx, c, "")
		return
	}

	infos, err := h.groupService.ListGroups(ctx, identity.Id)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{
		"groups": infos,
	})
}
