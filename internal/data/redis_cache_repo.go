package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCacheRepo backs core.CacheRepository with Redis. The report pipeline
// uses it to cache rendered result payloads so repeated result fetches do not
// re-read artifacts from disk.
type RedisCacheRepo struct {
	client redis.UniversalClient
}

// NewRedisCacheRepo wraps an already-connected Redis client.
func NewRedisCacheRepo(client redis.UniversalClient) *RedisCacheRepo {
	return &RedisCacheRepo{client: client}
}

var errEmptyCacheKey = errors.New("cache key is empty")

// Set writes value under key. A zero ttl stores the key without expiry.
func (r *RedisCacheRepo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errEmptyCacheKey
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get returns the cached value, or nil when the key is absent or expired.
func (r *RedisCacheRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errEmptyCacheKey
	}
	b, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return b, nil
	case errors.Is(err, redis.Nil):
		return nil, nil
	default:
		return nil, fmt.Errorf("redis get: %w", err)
	}
}

// Delete removes key and reports whether it existed.
func (r *RedisCacheRepo) Delete(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errEmptyCacheKey
	}
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}

// Health pings the connection.
func (r *RedisCacheRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// NopCacheRepo is a CacheRepository that caches nothing. It stands in when
// result caching is disabled so callers never need a nil check.
type NopCacheRepo struct{}

// Set discards the value.
func (NopCacheRepo) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Get always misses.
func (NopCacheRepo) Get(context.Context, string) ([]byte, error) { return nil, nil }

// Delete reports no key deleted.
func (NopCacheRepo) Delete(context.Context, string) (bool, error) { return false, nil }

// Health always succeeds.
func (NopCacheRepo) Health(context.Context) error { return nil }
