package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestTokenDenylistRepository(t *testing.T) {
	ctx := context.Background()
	mr, rdb := setupRedis(t)
	repo := NewTokenDenylistRepository(rdb)

	t.Run("unknown token is not revoked", func(t *testing.T) {
		revoked, err := repo.IsRevoked(ctx, "jti-unknown")
		assert.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("revoked token", func(t *testing.T) {
		assert.NoError(t, repo.Revoke(ctx, "jti-1", time.Hour))

		revoked, err := repo.IsRevoked(ctx, "jti-1")
		assert.NoError(t, err)
		assert.True(t, revoked)
		assert.Equal(t, time.Hour, mr.TTL("revoked_token:jti-1"))
	})

	t.Run("entry expires with the token", func(t *testing.T) {
		assert.NoError(t, repo.Revoke(ctx, "jti-2", time.Minute))
		mr.FastForward(2 * time.Minute)

		revoked, err := repo.IsRevoked(ctx, "jti-2")
		assert.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("non-positive ttl is ignored", func(t *testing.T) {
		assert.NoError(t, repo.Revoke(ctx, "jti-3", 0))
		assert.False(t, mr.Exists("revoked_token:jti-3"))
	})

	t.Run("redis down", func(t *testing.T) {
		mr.Close()
		_, err := repo.IsRevoked(ctx, "jti-1")
		assert.Error(t, err)
	})
}
