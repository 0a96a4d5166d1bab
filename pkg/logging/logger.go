// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// levels maps each LogLevel to its zerolog level.
var levels = map[LogLevel]zerolog.Level{
	LevelDebug: zerolog.DebugLevel,
	LevelInfo:  zerolog.InfoLevel,
	LevelWarn:  zerolog.WarnLevel,
	LevelError: zerolog.ErrorLevel,
}

// DefaultConfig returns JSON output at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// NewConfig starts from DefaultConfig and applies a level name (as found in
// config files and flags), the pretty flag and an output. An empty level
// keeps the default; a nil output keeps stderr.
func NewConfig(level string, pretty bool, output io.Writer) (Config, error) {
	cfg := DefaultConfig()
	if level != "" {
		parsed, ok := ParseLevel(level)
		if !ok {
			return cfg, fmt.Errorf("unknown log level %q", level)
		}
		cfg.Level = parsed
	}
	cfg.Pretty = pretty
	if output != nil {
		cfg.Output = output
	}
	return cfg, nil
}

// Setup installs a logger built from cfg as the global zerolog logger and
// returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	return log.Logger
}

// ParseLevel converts a level name to LogLevel. Names are case-insensitive
// and "warning" is accepted for LevelWarn. Unknown names map to LevelInfo
// with ok false.
func ParseLevel(name string) (level LogLevel, ok bool) {
	level = LogLevel(strings.ToLower(strings.TrimSpace(name)))
	if level == "warning" {
		level = LevelWarn
	}
	if _, ok := levels[level]; !ok {
		return LevelInfo, false
	}
	return level, true
}

func parseLevel(level LogLevel) zerolog.Level {
	parsed, _ := ParseLevel(string(level))
	return levels[parsed]
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache operations (hit/miss, key, TTL)
//   - Request dispatch (method, url)
//   - Store connection established
//
// Info: Normal operation events
//   - Requests that succeeded after a retry
//   - CLI startup
//
// Warn: Warning conditions that don't prevent operation
//   - Cache get/set errors (request falls through to the network)
//   - Non-2xx responses
//   - Retries exhausted or cancelled
//
// Error: Error conditions requiring attention
//   - Cache store connection failures
//   - Transport failures
//   - Configuration errors
//
// Context Fields:
//   - method: HTTP method
//   - url: request URL including the query string (also the cache key)
//   - status_code: HTTP status code
//   - error_class: Error classification (client, server, network)
//   - cache_hit: Boolean indicating cache hit
//   - ttl: Cache entry TTL
//   - addr: cache store address
//   - backend: cache store backend
