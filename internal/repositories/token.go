package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-catalog/internal/logger"
)

const revokedTokenPrefix = "revoked_token:"

// TokenDenylistRepository keeps ids of logged-out tokens in Redis until they expire
type TokenDenylistRepository struct {
	client *redis.Client
}

// NewTokenDenylistRepository creates a new repository instance
func NewTokenDenylistRepository(client *redis.Client) *TokenDenylistRepository {
	return &TokenDenylistRepository{client: client}
}

// Revoke marks the token id as revoked for ttl. Non-positive ttl is a no-op,
// the token is already unusable.
func (r *TokenDenylistRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	key := revokedTokenPrefix + tokenID
	err := r.client.Set(ctx, key, "1", ttl).Err()

	logger.Log.Infow(
		"key", key,
		"ttl", ttl,
		"error", err,
	)

	return err
}

// IsRevoked reports whether the token id was revoked.
func (r *TokenDenylistRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := revokedTokenPrefix + tokenID
	err := r.client.Get(ctx, key).Err()

	logger.Log.Infow(
		"key", key,
		"error", err,
	)

	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
