package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "jsonreq.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Cache.Backend != "redis" {
		t.Errorf("Backend = %q, want redis", cfg.Cache.Backend)
	}
	if cfg.Cache.Redis.Addr != "127.0.0.1:6379" {
		t.Errorf("Redis addr = %q, want 127.0.0.1:6379", cfg.Cache.Redis.Addr)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("TTL = %v, want 1h", cfg.Cache.TTL)
	}
	if cfg.HTTP.MaxAttempts != 1 {
		t.Errorf("MaxAttempts = %d, want 1", cfg.HTTP.MaxAttempts)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
cache:
  backend: memcache
  ttl: 10m
  memcache:
    addrs: ["cache-1:11211", "cache-2:11211"]
http:
  timeout: 5s
  user_agent: "jsonreq-test/1.0"
  max_attempts: 3
log:
  level: debug
  pretty: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Cache.Backend != "memcache" {
		t.Errorf("Backend = %q, want memcache", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("TTL = %v, want 10m", cfg.Cache.TTL)
	}
	wantAddrs := []string{"cache-1:11211", "cache-2:11211"}
	if !reflect.DeepEqual(cfg.Cache.Memcache.Addrs, wantAddrs) {
		t.Errorf("Memcache addrs = %v, want %v", cfg.Cache.Memcache.Addrs, wantAddrs)
	}
	if cfg.HTTP.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.UserAgent != "jsonreq-test/1.0" {
		t.Errorf("UserAgent = %q", cfg.HTTP.UserAgent)
	}
	if cfg.HTTP.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.HTTP.MaxAttempts)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Pretty {
		t.Errorf("Log = %+v, want debug/pretty", cfg.Log)
	}
	// Unset fields keep their defaults.
	if cfg.Cache.Redis.Addr != "127.0.0.1:6379" {
		t.Errorf("Redis addr = %q, want default", cfg.Cache.Redis.Addr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading config file") {
		t.Errorf("Expected read error, got %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "cache: [unclosed")

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parsing config YAML") {
		t.Errorf("Expected parse error, got %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvCacheBackend, "memory")
	t.Setenv(EnvRedisAddr, "redis.internal:6380")
	t.Setenv(EnvMemcacheAddr, "a:11211,b:11211")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvMaxAttempts, "4")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Cache.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", cfg.Cache.Backend)
	}
	if cfg.Cache.Redis.Addr != "redis.internal:6380" {
		t.Errorf("Redis addr = %q", cfg.Cache.Redis.Addr)
	}
	if !reflect.DeepEqual(cfg.Cache.Memcache.Addrs, []string{"a:11211", "b:11211"}) {
		t.Errorf("Memcache addrs = %v", cfg.Cache.Memcache.Addrs)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log level = %q, want warn", cfg.Log.Level)
	}
	if cfg.HTTP.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d, want 4", cfg.HTTP.MaxAttempts)
	}
}

func TestLoad_InvalidEnvMaxAttempts(t *testing.T) {
	t.Setenv(EnvMaxAttempts, "many")

	if _, err := Load(""); err == nil {
		t.Error("Expected error for non-numeric max attempts")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			modify: func(c *Config) {},
		},
		{
			name:   "backend case insensitive",
			modify: func(c *Config) { c.Cache.Backend = " Memory " },
		},
		{
			name:    "unknown backend",
			modify:  func(c *Config) { c.Cache.Backend = "etcd" },
			wantErr: `invalid cache backend "etcd"`,
		},
		{
			name:    "zero ttl",
			modify:  func(c *Config) { c.Cache.TTL = 0 },
			wantErr: "cache.ttl must be positive",
		},
		{
			name:    "missing redis addr",
			modify:  func(c *Config) { c.Cache.Redis.Addr = "" },
			wantErr: "cache.redis.addr is required",
		},
		{
			name: "missing memcache addrs",
			modify: func(c *Config) {
				c.Cache.Backend = "memcache"
				c.Cache.Memcache.Addrs = nil
			},
			wantErr: "cache.memcache.addrs is required",
		},
		{
			name:    "max attempts zero",
			modify:  func(c *Config) { c.HTTP.MaxAttempts = 0 },
			wantErr: "http.max_attempts must be >= 1",
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.HTTP.Timeout = -time.Second },
			wantErr: "http.timeout must not be negative",
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Log.Level = "chatty" },
			wantErr: `invalid log.level "chatty"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
