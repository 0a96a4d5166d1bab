package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidTTL indicates a non-positive expiry was passed to SetValue
	ErrInvalidTTL = errors.New("ttl must be positive")
)

// Backend names used as metric labels.
const (
	BackendRedis    = "redis"
	BackendMemcache = "memcache"
	BackendMemory   = "memory"
)

// Store is a key/value store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Store interface {
	// SetValue stores value under key. The entry expires after ttl.
	SetValue(ctx context.Context, key, value string, ttl time.Duration) error

	// GetValue returns the value stored under key.
	// Returns ErrCacheMiss if the key doesn't exist or has expired.
	GetValue(ctx context.Context, key string) (string, error)
}
