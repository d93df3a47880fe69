package data

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis starts an in-process miniredis and returns a client bound to it.
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisCacheRepo_SetGetDelete(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewRedisCacheRepo(client)
	ctx := context.Background()

	t.Run("round trip with TTL", func(t *testing.T) {
		key := "report_result:job-1"
		value := []byte(`{"job_id":"job-1"}`)

		require.NoError(t, repo.Set(ctx, key, value, 5*time.Minute))

		got, err := repo.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, value, got)

		ttl := client.TTL(ctx, key).Val()
		assert.True(t, ttl > 0 && ttl <= 5*time.Minute)
	})

	t.Run("miss returns nil without error", func(t *testing.T) {
		got, err := repo.Get(ctx, "report_result:nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("expired key reads as a miss", func(t *testing.T) {
		key := "report_result:job-2"
		require.NoError(t, repo.Set(ctx, key, []byte("x"), time.Minute))

		mr.FastForward(2 * time.Minute)

		got, err := repo.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete existing key", func(t *testing.T) {
		key := "report_result:job-3"
		require.NoError(t, repo.Set(ctx, key, []byte("x"), time.Minute))

		deleted, err := repo.Delete(ctx, key)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, key)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		assert.Error(t, repo.Set(ctx, "", []byte("x"), 0))
		_, err := repo.Get(ctx, "")
		assert.Error(t, err)
		_, err = repo.Delete(ctx, "")
		assert.Error(t, err)
	})

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, repo.Health(ctx))
	})
}

func TestNopCacheRepo(t *testing.T) {
	repo := NopCacheRepo{}
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got, "nop cache never stores anything")

	deleted, err := repo.Delete(ctx, "k")
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.NoError(t, repo.Health(ctx))
}
