package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pashinov/nexus/internal/repository"
)

// RedisStore implements repository.StateStore backed by Redis. The
// go-redis client handles pooling and reconnection internally, so a single
// shared instance serves all requests.
type RedisStore struct {
	client redis.UniversalClient
}

var _ repository.StateStore = (*RedisStore)(nil)

// NewRedisStore constructs a Redis-backed ephemeral store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Put writes key if absent with the given TTL.
func (s *RedisStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.SetNX(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("store put %q: %w", key, err)
	}
	return nil
}

// Delete removes key and reports whether it existed. Redis DEL is atomic,
// so concurrent deletes of the same key see "existed" at most once.
func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	deleted, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("store delete %q: %w", key, err)
	}
	return deleted > 0, nil
}

// Exists reports whether key is present.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("store exists %q: %w", key, err)
	}
	return n > 0, nil
}
