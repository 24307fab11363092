package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisOpTimeout bounds a single Redis round trip.
const redisOpTimeout = 3 * time.Second

func tokenKey(server string) string { return fmt.Sprintf("mcpman:oauth:%s", server) }

// RedisStore is an optional TokenStore backend that persists the per-server
// OAuth record across process restarts as a keyed JSON blob. It is not
// required by the core: the default wiring is InMemoryStore, and a caller
// opts into RedisStore explicitly.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore wraps an existing redis.Client as a TokenStore.
func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func (s *RedisStore) Get(ctx context.Context, server string) (*TokenRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	raw, err := s.client.Get(ctx, tokenKey(server)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get token record for %q: %w", server, err)
	}

	var record TokenRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode token record for %q: %w", server, err)
	}
	return &record, nil
}

func (s *RedisStore) Set(ctx context.Context, server string, record *TokenRecord) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode token record for %q: %w", server, err)
	}
	if err := s.client.Set(ctx, tokenKey(server), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set token record for %q: %w", server, err)
	}
	s.logger.Debug("stored oauth token record", zap.String("server", server))
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, server string) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	if err := s.client.Del(ctx, tokenKey(server)).Err(); err != nil {
		return fmt.Errorf("redis delete token record for %q: %w", server, err)
	}
	return nil
}
