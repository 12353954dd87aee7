package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix    = "user:%d"
	RevokedKeyPrefix = "revoked:%s"
)

const (
	UserTTL = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func RevokedKey(tokenID string) string {
	return fmt.Sprintf(RevokedKeyPrefix, tokenID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// RevokeToken blacklists a token ID until the token would have expired anyway.
func RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if client == nil || tokenID == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return client.Set(ctx, RevokedKey(tokenID), 1, ttl).Err()
}

// IsRevoked reports whether tokenID was revoked. Without Redis nothing is revoked.
func IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if client == nil || tokenID == "" {
		return false, nil
	}
	n, err := client.Exists(ctx, RevokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
