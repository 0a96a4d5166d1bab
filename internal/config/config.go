// Package config loads the jsonreq YAML configuration with environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/jsonreq/pkg/cache"
	"github.com/Sternrassler/jsonreq/pkg/client"
	"github.com/Sternrassler/jsonreq/pkg/logging"
)

// Environment variables overriding the file configuration.
const (
	EnvCacheBackend = "JSONREQ_CACHE_BACKEND"
	EnvRedisAddr    = "JSONREQ_REDIS_ADDR"
	EnvMemcacheAddr = "JSONREQ_MEMCACHE_ADDR"
	EnvLogLevel     = "JSONREQ_LOG_LEVEL"
	EnvMaxAttempts  = "JSONREQ_MAX_ATTEMPTS"
)

// Config represents the application configuration
type Config struct {
	Cache CacheConfig `yaml:"cache"`
	HTTP  HTTPConfig  `yaml:"http"`
	Log   LogConfig   `yaml:"log"`
}

// CacheConfig selects and configures the response cache store
type CacheConfig struct {
	Backend  string         `yaml:"backend"` // "redis", "memcache" or "memory"
	TTL      time.Duration  `yaml:"ttl"`
	Redis    RedisConfig    `yaml:"redis"`
	Memcache MemcacheConfig `yaml:"memcache"`
	Memory   MemoryConfig   `yaml:"memory"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MemcacheConfig contains memcached server addresses
type MemcacheConfig struct {
	Addrs []string `yaml:"addrs"`
}

// MemoryConfig contains in-process cache settings
type MemoryConfig struct {
	MaxSize int `yaml:"max_size"`
}

// HTTPConfig contains outbound request settings
type HTTPConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	UserAgent      string        `yaml:"user_agent"`
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// LogConfig contains logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used without a config file: Redis on
// 127.0.0.1:6379 and a one hour TTL.
func Default() *Config {
	retry := client.DefaultRetryConfig()
	return &Config{
		Cache: CacheConfig{
			Backend: cache.BackendRedis,
			TTL:     client.DefaultCacheTTL,
			Redis: RedisConfig{
				Addr: cache.DefaultRedisAddr,
			},
			Memcache: MemcacheConfig{
				Addrs: []string{cache.DefaultMemcacheAddr},
			},
			Memory: MemoryConfig{
				MaxSize: cache.DefaultMemorySize,
			},
		},
		HTTP: HTTPConfig{
			Timeout:        client.DefaultTimeout,
			MaxAttempts:    retry.MaxAttempts,
			InitialBackoff: retry.InitialBackoff,
			MaxBackoff:     retry.MaxBackoff,
		},
		Log: LogConfig{
			Level: string(logging.LevelInfo),
		},
	}
}

// Load loads configuration from a YAML file, applies environment overrides
// and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	}

	if err := config.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvCacheBackend); ok && v != "" {
		c.Cache.Backend = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Cache.Redis.Addr = v
	}
	if v, ok := lookup(EnvMemcacheAddr); ok && v != "" {
		c.Cache.Memcache.Addrs = strings.Split(v, ",")
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvMaxAttempts); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxAttempts, err)
		}
		c.HTTP.MaxAttempts = n
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))

	switch c.Cache.Backend {
	case cache.BackendRedis:
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis backend")
		}
	case cache.BackendMemcache:
		if len(c.Cache.Memcache.Addrs) == 0 {
			return fmt.Errorf("cache.memcache.addrs is required for the memcache backend")
		}
	case cache.BackendMemory:
		if c.Cache.Memory.MaxSize < 0 {
			return fmt.Errorf("invalid cache.memory.max_size: %d", c.Cache.Memory.MaxSize)
		}
	default:
		return fmt.Errorf("invalid cache backend %q (must be redis, memcache or memory)", c.Cache.Backend)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive (got %s)", c.Cache.TTL)
	}

	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative (got %s)", c.HTTP.Timeout)
	}

	if c.HTTP.MaxAttempts < 1 {
		return fmt.Errorf("http.max_attempts must be >= 1 (got %d)", c.HTTP.MaxAttempts)
	}

	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}

	return nil
}
