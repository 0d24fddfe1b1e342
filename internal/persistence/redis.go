package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"storefront/internal/logging"
)

const defaultKeyPrefix = "storefront"

// RedisAdapter keeps session records in Redis with a sliding TTL.
type RedisAdapter struct {
	codec
	client *redis.Client
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to redisURL and verifies it with a ping.
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.Logger) (*RedisAdapter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisWithClient(client, ttl, logger), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisAdapter {
	return &RedisAdapter{
		codec: codec{
			store:  &redisStore{client: client, ttl: ttl},
			prefix: defaultKeyPrefix,
			logger: logging.OrNop(logger).Named("persistence"),
		},
		client: client,
	}
}

// Ping reports whether Redis is reachable.
func (a *RedisAdapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (a *RedisAdapter) Close() error {
	return a.client.Close()
}

func (s *redisStore) get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *redisStore) set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, s.ttl).Err()
}

func (s *redisStore) del(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
