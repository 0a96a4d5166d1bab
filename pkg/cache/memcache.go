package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// DefaultMemcacheAddr is the memcached address used when none is configured.
const DefaultMemcacheAddr = "127.0.0.1:11211"

// memcached interprets expirations above 30 days as absolute unix timestamps.
const maxRelativeExpiration = 30 * 24 * time.Hour

// memcached rejects keys longer than 250 bytes.
const maxMemcacheKeyLength = 250

// MemcacheStore handles caching operations with a memcached backend.
type MemcacheStore struct {
	mc *memcache.Client
}

// NewMemcacheStore creates a store talking to the given memcached servers.
// With no servers DefaultMemcacheAddr is used.
func NewMemcacheStore(servers ...string) *MemcacheStore {
	if len(servers) == 0 {
		servers = []string{DefaultMemcacheAddr}
	}
	return &MemcacheStore{mc: memcache.New(servers...)}
}

// Ping checks that every memcached server is reachable.
func (s *MemcacheStore) Ping(_ context.Context) error {
	if err := s.mc.Ping(); err != nil {
		return fmt.Errorf("memcache ping: %w", err)
	}
	return nil
}

// GetValue retrieves the raw value stored under key.
func (s *MemcacheStore) GetValue(_ context.Context, key string) (string, error) {
	item, err := s.mc.Get(memcacheKey(key))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			cacheMisses.WithLabelValues(BackendMemcache).Inc()
			return "", ErrCacheMiss
		}
		cacheErrors.WithLabelValues(BackendMemcache, "get").Inc()
		return "", fmt.Errorf("memcache get: %w", err)
	}

	cacheHits.WithLabelValues(BackendMemcache).Inc()
	return string(item.Value), nil
}

// SetValue stores value under key with the given TTL.
func (s *MemcacheStore) SetValue(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	err := s.mc.Set(&memcache.Item{
		Key:        memcacheKey(key),
		Value:      []byte(value),
		Expiration: memcacheExpiration(ttl, time.Now()),
	})
	if err != nil {
		cacheErrors.WithLabelValues(BackendMemcache, "set").Inc()
		return fmt.Errorf("memcache set: %w", err)
	}

	recordWrite(BackendMemcache, len(value))
	return nil
}

// memcacheKey returns key unchanged when memcached accepts it, otherwise a
// stable SHA-256 digest of it. URLs with long query strings exceed the key
// length limit.
func memcacheKey(key string) string {
	if len(key) <= maxMemcacheKeyLength && legalMemcacheKey(key) {
		return key
	}
	sum := sha256.Sum256([]byte(key))
	return "sha256:" + hex.EncodeToString(sum[:])
}

func legalMemcacheKey(key string) bool {
	for i := 0; i < len(key); i++ {
		if key[i] <= ' ' || key[i] == 0x7f {
			return false
		}
	}
	return key != ""
}

// memcacheExpiration converts ttl to memcached's expiration field, rounding
// up to whole seconds.
func memcacheExpiration(ttl time.Duration, now time.Time) int32 {
	if ttl > maxRelativeExpiration {
		return int32(now.Add(ttl).Unix())
	}
	return int32(math.Ceil(ttl.Seconds()))
}
