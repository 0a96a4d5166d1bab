// Package cache provides the key/value stores used to cache GET responses.
//
// A Store is a narrow capability surface: SetValue writes a raw value with an
// expiry, GetValue reads it back. Three backends are available:
//
//   - RedisStore: Redis via go-redis (SETEX / GET)
//   - MemcacheStore: memcached via gomemcache
//   - MemoryStore: in-process W-TinyLFU cache via otter
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "127.0.0.1:6379",
//	})
//
//	store := cache.NewRedisStore(redisClient)
//
//	if err := store.SetValue(ctx, "https://api.example.com/posts?id=22", body, time.Hour); err != nil {
//		return err
//	}
//
//	value, err := store.GetValue(ctx, "https://api.example.com/posts?id=22")
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Cache miss - fetch from origin
//	}
//
// # Eager Connect
//
// DialRedis connects and pings immediately. A failed ping is logged and
// returned together with a usable store, so the caller decides whether to
// run with a degraded cache or to abort.
//
// # Metrics
//
// Every backend exports Prometheus metrics labelled by backend:
//
//   - jsonreq_cache_hits_total{backend}
//   - jsonreq_cache_misses_total{backend}
//   - jsonreq_cache_writes_total{backend}
//   - jsonreq_cache_written_bytes_total{backend}
//   - jsonreq_cache_errors_total{backend,operation}
package cache
