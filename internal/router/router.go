package router

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/websocket"
	"github.com/mindwell/messaging/internal/config"
	"github.com/mindwell/messaging/internal/handler"
	"github.com/mindwell/messaging/internal/middleware"
	"github.com/mindwell/messaging/internal/realtime"
	"github.com/mindwell/messaging/internal/repository"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	Message      *handler.MessageHandler
	Conversation *handler.ConversationHandler
	Attachment   *handler.AttachmentHandler
	Group        *handler.GroupHandler
}

// SetupRouter sets up all routes
func SetupRouter(h *server.Hertz, handlers *Handlers, gateway *realtime.Gateway, repos *repository.Repositories) {
	cfg := config.GlobalConfig

	h.Use(middleware.CORS())

	// Health check
	h.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
	})

	identity := middleware.Identity(repos.Identity)

	// Attachment download is authorized by its signed token alone: the
	// URL must work from plain <img>/<a> tags without headers.
	h.GET("/api/attachments", handlers.Attachment.Download)

	api := h.Group("/api", identity)
	{
		api.POST("/messages", handlers.Message.SendMessage)
		api.GET("/messages/history", handlers.Message.LoadHistory)
		api.POST("/messages/mark_read", handlers.Message.MarkRead)

		api.GET("/conversations", handlers.Conversation.GetConversationList)

		api.POST("/attachments", handlers.Attachment.Upload)
		api.GET("/attachments/sign", handlers.Attachment.Sign)

		api.POST("/groups", handlers.Group.CreateGroup)
		api.GET("/groups", handlers.Group.ListGroups)
		api.GET("/groups/info", handlers.Group.GetGroupInfo)
	}

	// WebSocket route with origin validation
	allowedOrigins := cfg.Server.AllowedOrigins
	upgrader := &websocket.HertzUpgrader{
		CheckOrigin: func(ctx *app.RequestContext) bool {
			return checkOrigin(ctx, allowedOrigins)
		},
	}

	h.GET("/ws", identity, func(ctx context.Context, c *app.RequestContext) {
		gateway.HandleConnection(ctx, c, upgrader)
	})
}

// checkOrigin validates the Origin header against allowed origins
func checkOrigin(ctx *app.RequestContext, allowedOrigins []string) bool {
	origin := string(ctx.Request.Header.Peek("Origin"))

	// No origin header: same-origin request or non-browser client.
	if origin == "" {
		return true
	}

	if len(allowedOrigins) == 0 {
		return false
	}

	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			return true
		}
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}

	return false
}
