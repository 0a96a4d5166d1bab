// Command jsonreq sends a JSON HTTP request and prints the decoded response.
// GET responses are cached in the configured store for one hour.
//
//	jsonreq [flags] METHOD URL [key=value ...]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/Sternrassler/jsonreq/internal/config"
	"github.com/Sternrassler/jsonreq/pkg/cache"
	"github.com/Sternrassler/jsonreq/pkg/client"
	"github.com/Sternrassler/jsonreq/pkg/logging"
	"github.com/Sternrassler/jsonreq/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("jsonreq", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: jsonreq [flags] METHOD URL [key=value ...]")
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "path to YAML config file")
	data := fs.String("data", "", "JSON request body")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	pretty := fs.Bool("pretty", false, "human-readable log output")
	dumpMetrics := fs.Bool("metrics", false, "print Prometheus metrics to stderr after the request")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintln(stdout, "jsonreq", version)
		return nil
	}

	if fs.NArg() < 2 {
		fs.Usage()
		return errors.New("METHOD and URL are required")
	}

	method := strings.ToUpper(fs.Arg(0))
	target := fs.Arg(1)

	params, err := parseParams(fs.Args()[2:])
	if err != nil {
		return err
	}

	var body any
	if *data != "" {
		if !json.Valid([]byte(*data)) {
			return fmt.Errorf("-data is not valid JSON")
		}
		body = json.RawMessage(*data)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *pretty {
		cfg.Log.Pretty = true
	}

	logCfg, err := logging.NewConfig(cfg.Log.Level, cfg.Log.Pretty, stderr)
	if err != nil {
		return err
	}
	logging.Setup(logCfg)
	logger := logging.NewLogger("jsonreq")

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	c, err := client.New(client.Config{
		Store:          store,
		HTTPClient:     &http.Client{Timeout: cfg.HTTP.Timeout},
		CacheTTL:       cfg.Cache.TTL,
		UserAgent:      cfg.HTTP.UserAgent,
		MaxAttempts:    cfg.HTTP.MaxAttempts,
		InitialBackoff: cfg.HTTP.InitialBackoff,
		MaxBackoff:     cfg.HTTP.MaxBackoff,
		Logger:         &logger,
	})
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	result, err := dispatch(ctx, c, method, target, params, body)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	if *dumpMetrics {
		if err := metrics.WriteText(stderr); err != nil {
			logger.Warn().Err(err).Msg("Failed to write metrics")
		}
	}

	return nil
}

// openStore builds the configured cache store. An unreachable Redis or
// memcached server is logged and the request proceeds without a working cache.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (cache.Store, func(), error) {
	switch cfg.Cache.Backend {
	case cache.BackendRedis:
		store, err := cache.DialRedis(ctx, &redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		}, logger)
		if err != nil {
			logger.Warn().Str("backend", cache.BackendRedis).Msg("Continuing without a working cache")
		}
		return store, func() { store.Close() }, nil

	case cache.BackendMemcache:
		store := cache.NewMemcacheStore(cfg.Cache.Memcache.Addrs...)
		if err := store.Ping(ctx); err != nil {
			logger.Error().
				Err(err).
				Strs("addrs", cfg.Cache.Memcache.Addrs).
				Msg("Memcache connection error")
			logger.Warn().Str("backend", cache.BackendMemcache).Msg("Continuing without a working cache")
		}
		return store, func() {}, nil

	case cache.BackendMemory:
		store, err := cache.NewMemoryStore(cfg.Cache.Memory.MaxSize, cfg.Cache.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("create memory store: %w", err)
		}
		return store, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// dispatch calls the client method matching method.
func dispatch(ctx context.Context, c *client.Client, method, target string, params client.Params, body any) (any, error) {
	switch method {
	case http.MethodGet:
		if body != nil {
			return nil, errors.New("GET does not take a request body")
		}
		return c.Get(ctx, target, params)
	case http.MethodPost:
		return c.Post(ctx, target, params, body)
	case http.MethodPut:
		return c.Put(ctx, target, params, body)
	case http.MethodPatch:
		return c.Patch(ctx, target, params, body)
	case http.MethodDelete:
		return c.Delete(ctx, target, params, body)
	default:
		return nil, fmt.Errorf("unsupported method %q", method)
	}
}

// parseParams converts key=value arguments into query parameters.
// Repeated keys become multi-valued parameters.
func parseParams(args []string) (client.Params, error) {
	if len(args) == 0 {
		return nil, nil
	}

	params := make(client.Params, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (want key=value)", arg)
		}

		switch existing := params[key].(type) {
		case nil:
			params[key] = value
		case string:
			params[key] = []string{existing, value}
		case []string:
			params[key] = append(existing, value)
		}
	}
	return params, nil
}
