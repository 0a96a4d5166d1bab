package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/jsonreq/pkg/cache"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// setupTestRedis starts an in-memory Redis server and returns a store on it.
func setupTestRedis(t *testing.T) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		redisClient.Close()
	})

	return cache.NewRedisStore(redisClient), mr
}

// spyStore records every store call and can inject errors.
type spyStore struct {
	mu sync.Mutex

	inner  cache.Store
	getErr error
	setErr error

	gets    []string
	sets    []string
	lastTTL time.Duration
}

func newSpyStore(t *testing.T) *spyStore {
	t.Helper()

	inner, err := cache.NewMemoryStore(100, 2*DefaultCacheTTL)
	if err != nil {
		t.Fatalf("NewMemoryStore failed: %v", err)
	}
	return &spyStore{inner: inner}
}

func (s *spyStore) GetValue(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	s.gets = append(s.gets, key)
	getErr := s.getErr
	s.mu.Unlock()

	if getErr != nil {
		return "", getErr
	}
	return s.inner.GetValue(ctx, key)
}

func (s *spyStore) SetValue(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	s.sets = append(s.sets, key)
	s.lastTTL = ttl
	setErr := s.setErr
	s.mu.Unlock()

	if setErr != nil {
		return setErr
	}
	return s.inner.SetValue(ctx, key, value, ttl)
}

func (s *spyStore) calls() (gets, sets int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.gets), len(s.sets)
}

// newTestClient creates a client on store with a silent logger.
func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()

	logger := zerolog.Nop()
	cfg.Logger = &logger

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}
