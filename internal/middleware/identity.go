package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/mbeoliero/kit/log"
	"github.com/mindwell/messaging/internal/entity"
	"github.com/mindwell/messaging/internal/repository"
	"github.com/mindwell/messaging/pkg/constant"
	"github.com/mindwell/messaging/pkg/response"
)

// HeaderIdentityId names the platform identity forwarded by the edge.
// Authentication happens upstream; this service trusts the header.
const HeaderIdentityId = "X-Identity-Id"

// Identity resolves the calling identity and aborts unknown callers.
func Identity(identityRepo *repository.IdentityRepo) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		id := string(c.GetHeader(HeaderIdentityId))
		if id == "" {
			response.Unauthorized(ctx, c, "missing identity header")
			c.Abort()
			return
		}

		identity, err := identityRepo.GetById(ctx, id)
		if err != nil {
			log.CtxError(ctx, "resolve identity failed: id=%s, err=%v", id, err)
			response.Unauthorized(ctx, c, "")
			c.Abort()
			return
		}
		if identity == nil {
			response.Unauthorized(ctx, c, "unknown identity")
			c.Abort()
			return
		}

		c.Set(constant.CtxIdentityKey, identity)
		c.Next(ctx)
	}
}

// GetIdentity returns the authenticated identity, nil when absent.
func GetIdentity(c *app.RequestContext) *entity.Identity {
	value, exists := c.Get(constant.CtxIdentityKey)
	if !exists {
		return nil
	}
	identity, ok := value.(*entity.Identity)
	if !ok {
		return nil
	}
	return identity
}
