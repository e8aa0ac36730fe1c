package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/solana-tokenlist/utl-aggregator/internal/adapter"
	"github.com/solana-tokenlist/utl-aggregator/internal/domain"
)

// RedisStore persists blobs in Redis so the cache can be shared between
// scheduled runs on different hosts. Entries are written without TTL;
// the batcher applies its own freshness rules.
type RedisStore struct {
	client *redis.Client
	json   adapter.JSON
	prefix string
}

// NewRedisStore creates a Redis-backed store. All keys are namespaced
// with prefix to keep them apart from other users of the instance.
func NewRedisStore(client *redis.Client, json adapter.JSON, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		json:   json,
		prefix: prefix,
	}
}

func (s *RedisStore) redisKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Get reads the JSON blob stored under key into value
func (s *RedisStore) Get(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return domain.ErrEmptyCacheKey
	}

	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrCacheMiss
		}
		return fmt.Errorf("failed to read cache %q: %w", key, err)
	}

	if err := s.json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("failed to decode cache %q: %w", key, err)
	}

	return nil
}

// Set writes value as a JSON blob under key
func (s *RedisStore) Set(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return domain.ErrEmptyCacheKey
	}

	data, err := s.json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache %q: %w", key, err)
	}

	if err := s.client.Set(ctx, s.redisKey(key), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write cache %q: %w", key, err)
	}

	return nil
}

// Delete removes the blob stored under key
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return domain.ErrEmptyCacheKey
	}

	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to remove cache %q: %w", key, err)
	}

	return nil
}
