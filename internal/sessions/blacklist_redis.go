package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// package-level Redis client used for the revoked-token blacklist (optional)
var blacklistClient *redis.Client

// SetBlacklistClient configures the Redis client used for blacklist operations.
// Safe to call with nil to disable blacklist features.
func SetBlacklistClient(c *redis.Client) {
	blacklistClient = c
}

func blacklistKey(sid string) string { return "blacklist:admin:" + sid }

// RevokeSession blacklists an admin session id until its token would have
// expired anyway. Without a Redis client this is a no-op.
func RevokeSession(ctx context.Context, sid string, ttl time.Duration) error {
	if blacklistClient == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return blacklistClient.Set(ctx, blacklistKey(sid), "1", ttl).Err()
}

// IsSessionRevoked reports whether the session id was blacklisted.
// Without a Redis client it returns (false, nil).
func IsSessionRevoked(ctx context.Context, sid string) (bool, error) {
	if blacklistClient == nil {
		return false, nil
	}
	exists, err := blacklistClient.Exists(ctx, blacklistKey(sid)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
