package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter/v2"
)

// DefaultMemorySize is the entry limit used when none is configured.
const DefaultMemorySize = 10000

// memoryEntry wraps a cached value with its expiration time.
type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is an in-process W-TinyLFU store backed by otter.
//
// Entries are evicted after maxTTL at the latest; shorter per-entry TTLs are
// checked on read.
type MemoryStore struct {
	cache *otter.Cache[string, memoryEntry]
}

// NewMemoryStore creates an in-memory store with the given max entry count
// and upper bound on entry lifetime.
func NewMemoryStore(maxSize int, maxTTL time.Duration) (*MemoryStore, error) {
	if maxSize <= 0 {
		maxSize = DefaultMemorySize
	}
	if maxTTL <= 0 {
		return nil, ErrInvalidTTL
	}

	c, err := otter.New[string, memoryEntry](&otter.Options[string, memoryEntry]{
		MaximumSize:      maxSize,
		ExpiryCalculator: otter.ExpiryWriting[string, memoryEntry](maxTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("create memory cache: %w", err)
	}
	return &MemoryStore{cache: c}, nil
}

// GetValue retrieves a value if present and not expired.
func (s *MemoryStore) GetValue(_ context.Context, key string) (string, error) {
	e, ok := s.cache.GetIfPresent(key)
	if !ok {
		cacheMisses.WithLabelValues(BackendMemory).Inc()
		return "", ErrCacheMiss
	}
	if time.Now().After(e.expiresAt) {
		s.cache.Invalidate(key)
		cacheMisses.WithLabelValues(BackendMemory).Inc()
		return "", ErrCacheMiss
	}

	cacheHits.WithLabelValues(BackendMemory).Inc()
	return e.value, nil
}

// SetValue stores a value with per-entry TTL.
func (s *MemoryStore) SetValue(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	s.cache.Set(key, memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	})
	recordWrite(BackendMemory, len(value))
	return nil
}

// Purge removes all values from the store.
func (s *MemoryStore) Purge() {
	s.cache.InvalidateAll()
}
