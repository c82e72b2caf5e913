package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/mbeoliero/kit/log"
	"github.com/mindwell/messaging/internal/config"
	"github.com/mindwell/messaging/internal/handler"
	"github.com/mindwell/messaging/internal/realtime"
	"github.com/mindwell/messaging/internal/repository"
	"github.com/mindwell/messaging/internal/router"
	"github.com/mindwell/messaging/internal/service"
	"github.com/mindwell/messaging/internal/storage"
	"github.com/mindwell/messaging/pkg/constant"
)

func main() {
	ctx := context.TODO()

	// Load configuration
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.CtxError(ctx, "failed to load config: %v", err)
		panic(err)
	}

	log.CtxInfo(ctx, "config loaded: mode=%s", cfg.Server.Mode)

	// Initialize Redis key prefix
	constant.InitRedisKeyPrefix(cfg.Redis.KeyPrefix)
	log.CtxInfo(ctx, "redis key prefix: %s", constant.GetRedisKeyPrefix())

	// Initialize repositories
	repos, err := repository.NewRepositories(cfg)
	if err != nil {
		log.CtxError(ctx, "failed to initialize repositories: %v", err)
		panic(err)
	}
	defer repos.Close()

	if err := repos.CheckConnection(ctx); err != nil {
		log.CtxError(ctx, "database connection check failed: %v", err)
		panic(err)
	}
	log.CtxInfo(ctx, "database connection established")

	// Initialize blob store
	blobs, err := newBlobStore(cfg)
	if err != nil {
		log.CtxError(ctx, "failed to initialize blob store: %v", err)
		panic(err)
	}

	// Initialize services
	msgService := service.NewMessageService(repos, blobs)
	convService := service.NewConversationService(repos)
	attService := service.NewAttachmentService(&cfg.Storage, blobs)
	groupService := service.NewGroupService(repos)

	// Initialize realtime delivery
	bridge := realtime.NewBridge(repos.Redis)
	hub := realtime.NewHub(repos.Redis)
	gateway := realtime.NewGateway(cfg, hub, bridge, repos.Group)

	msgService.SetPusher(bridge)

	gateway.Run(ctx)
	log.CtxInfo(ctx, "realtime gateway started")

	// Initialize handlers
	handlers := &router.Handlers{
		Message:      handler.NewMessageHandler(msgService, attService),
		Conversation: handler.NewConversationHandler(convService),
		Attachment:   handler.NewAttachmentHandler(attService),
		Group:        handler.NewGroupHandler(groupService),
	}

	// Create Hertz server
	h := server.Default(
		server.WithHostPorts(fmt.Sprintf(":%d", cfg.Server.HTTPPort)),
	)

	router.SetupRouter(h, handlers, gateway, repos)

	log.CtxInfo(ctx, "server starting on port %d", cfg.Server.HTTPPort)

	go func() {
		h.Spin()
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.CtxInfo(ctx, "shutting down server...")

	if err := h.Shutdown(ctx); err != nil {
		log.CtxError(ctx, "server shutdown error: %v", err)
	}

	log.CtxInfo(ctx, "server stopped")
}

// newBlobStore builds the configured attachment backend.
func newBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "bucket":
		return storage.NewBucketStore(cfg.Storage.BucketURL, cfg.Storage.BucketName, cfg.Storage.BucketKey)
	default:
		return storage.NewDiskStore(cfg.Storage.Root), nil
	}
}
