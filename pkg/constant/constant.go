package constant

import (
	"strings"
	"time"
)

// Identity roles
const (
	RoleClient     = "client"
	RoleSpecialist = "specialist"
	RoleAdmin      = "admin"
)

// RoleHeadline returns the default sub-label shown under a counterpart name.
func RoleHeadline(role string) string {
	switch role {
	case RoleClient:
		return "Family"
	case RoleSpecialist:
		return "Specialist"
	case RoleAdmin:
		return "Support team"
	default:
		return ""
	}
}

// CtxIdentityKey is the request context key holding the authenticated
// *entity.Identity, set by the identity middleware.
const CtxIdentityKey = "identity"

// SupportCounterpart is the reserved counterpart id for the merged support
// pool. Any admin may read and answer on behalf of it.
const SupportCounterpart = "support"

// GroupKeyPrefix marks a conversation key that refers to a chat group.
const GroupKeyPrefix = "grp_"

// IsGroupKey checks whether a conversation key addresses a chat group.
func IsGroupKey(key string) bool {
	return len(key) > len(GroupKeyPrefix) && key[:len(GroupKeyPrefix)] == GroupKeyPrefix
}

// GroupIdFromKey strips the group prefix from a conversation key.
func GroupIdFromKey(key string) string {
	if !IsGroupKey(key) {
		return ""
	}
	return key[len(GroupKeyPrefix):]
}

// GroupKey builds the conversation key for a group id.
func GroupKey(groupId string) string {
	return GroupKeyPrefix + groupId
}

// Limits
const (
	// MaxAttachmentBytes is the upload ceiling for a single attachment.
	MaxAttachmentBytes = 10 << 20

	// DefaultPageSize is the conversation list page size when the caller
	// does not override it.
	DefaultPageSize = 20

	// MaxPageSize caps caller-supplied page sizes.
	MaxPageSize = 100

	// ReconcileDebounce is the delay used to coalesce unread-counter
	// reconciliation triggers.
	ReconcileDebounce = 2 * time.Second

	// SignedURLTTL is the lifetime of a signed attachment access URL.
	SignedURLTTL = 15 * time.Minute
)

// Redis key/channel patterns (without prefix, use the getters for full keys)
const (
	redisKeyOnline      = "online:%s"   // online:{identity_id}
	redisChannelUser    = "rt:user:%s"  // rt:user:{identity_id}
	redisChannelSupport = "rt:support"  // merged support pool
	redisChannelGroup   = "rt:group:%s" // rt:group:{group_id}
	redisChannelAll     = "rt:*"        // pattern covering every push channel
)

// redisKeyPrefix is the global prefix for all Redis keys and channels.
var redisKeyPrefix = "mindwell:"

// InitRedisKeyPrefix initializes the Redis key prefix from config.
func InitRedisKeyPrefix(prefix string) {
	if prefix != "" {
		redisKeyPrefix = prefix
	}
}

// GetRedisKeyPrefix returns the current Redis key prefix.
func GetRedisKeyPrefix() string {
	return redisKeyPrefix
}

// Channel kinds parsed out of a full channel name.
const (
	ChannelKindUser    = "user"
	ChannelKindSupport = "support"
	ChannelKindGroup   = "group"
)

// ParseChannel splits a full channel name into its kind and the addressed
// id (identity id or group id; empty for the support pool). Unknown
// channels yield an empty kind.
func ParseChannel(channel string) (kind, id string) {
	channel = strings.TrimPrefix(channel, redisKeyPrefix)
	switch {
	case strings.HasPrefix(channel, "rt:user:"):
		return ChannelKindUser, strings.TrimPrefix(channel, "rt:user:")
	case channel == redisChannelSupport:
		return ChannelKindSupport, ""
	case strings.HasPrefix(channel, "rt:group:"):
		return ChannelKindGroup, strings.TrimPrefix(channel, "rt:group:")
	default:
		return "", ""
	}
}

func RedisKeyOnline() string    { return redisKeyPrefix + redisKeyOnline }
func ChannelUser() string       { return redisKeyPrefix + redisChannelUser }
func ChannelSupport() string    { return redisKeyPrefix + redisChannelSupport }
func ChannelGroup() string      { return redisKeyPrefix + redisChannelGroup }
func ChannelAllPattern() string { return redisKeyPrefix + redisChannelAll }
