// Package cache provides an optional read-through cache for statistics responses.
package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Store caches rendered response bodies. Implementations must treat every
// failure as a miss: caching is an optimisation, never a correctness concern.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// Noop is the disabled-cache implementation.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }

// Set discards the value.
func (Noop) Set(context.Context, string, []byte) {}

// RedisStore caches bodies in Redis with a fixed TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached body, or a miss on absence or any Redis failure.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return value, true
}

// Set stores the body best-effort.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) {
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}
