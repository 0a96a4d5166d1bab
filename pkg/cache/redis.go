package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultRedisAddr is the Redis address used when none is configured.
const DefaultRedisAddr = "127.0.0.1:6379"

// RedisStore handles caching operations with Redis backend.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a new store with Redis backend.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis: redisClient,
	}
}

// DialRedis creates a Redis-backed store and checks the connection eagerly.
//
// The returned store is always usable. If the ping fails the error is logged
// and returned as well; lookups against an unreachable server fail with an
// error rather than a miss until the server comes back.
func DialRedis(ctx context.Context, opts *redis.Options, logger zerolog.Logger) (*RedisStore, error) {
	if opts == nil {
		opts = &redis.Options{}
	}
	if opts.Addr == "" {
		opts.Addr = DefaultRedisAddr
	}

	store := NewRedisStore(redis.NewClient(opts))
	if err := store.Ping(ctx); err != nil {
		logger.Error().
			Err(err).
			Str("addr", opts.Addr).
			Msg("Redis cache connection error")
		return store, err
	}

	logger.Debug().Str("addr", opts.Addr).Msg("Connected to Redis")
	return store, nil
}

// Ping checks that the Redis server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// GetValue retrieves the raw value stored under key.
func (s *RedisStore) GetValue(ctx context.Context, key string) (string, error) {
	value, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			cacheMisses.WithLabelValues(BackendRedis).Inc()
			return "", ErrCacheMiss
		}
		cacheErrors.WithLabelValues(BackendRedis, "get").Inc()
		return "", fmt.Errorf("redis get: %w", err)
	}

	cacheHits.WithLabelValues(BackendRedis).Inc()
	return value, nil
}

// SetValue stores value under key with the given TTL (SETEX).
// Redis removes the entry automatically once it expires.
func (s *RedisStore) SetValue(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	if err := s.redis.SetEx(ctx, key, value, ttl).Err(); err != nil {
		cacheErrors.WithLabelValues(BackendRedis, "set").Inc()
		return fmt.Errorf("redis setex: %w", err)
	}

	recordWrite(BackendRedis, len(value))
	return nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.redis.Close()
}
