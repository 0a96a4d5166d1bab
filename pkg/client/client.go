// Package client provides a JSON HTTP client that caches GET responses in a
// key/value store.
//
// Only GET requests read from or write to the cache. The cache key is the
// full request URL including the encoded query string, and successful GET
// responses are stored for Config.CacheTTL (one hour by default). All other
// methods always go to the network.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/jsonreq/pkg/cache"
	"github.com/Sternrassler/jsonreq/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultCacheTTL is how long a successful GET response stays cached.
const DefaultCacheTTL = 3600 * time.Second

// DefaultTimeout is the timeout of the HTTP client created by New.
const DefaultTimeout = 30 * time.Second

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jsonreq_requests_total",
		Help: "Total requests by method and status",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jsonreq_request_duration_seconds",
		Help:    "Request duration in seconds by method, including cache lookups",
		Buckets: []float64{0.005, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"method"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jsonreq_errors_total",
		Help: "Total request errors by class",
	}, []string{"class"})
)

// Client dispatches JSON requests and caches GET responses.
// A Client holds no mutable state and may be shared between goroutines.
type Client struct {
	httpClient *http.Client
	store      cache.Store
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Store caches GET responses (REQUIRED)
	Store cache.Store

	// HTTPClient sends requests (default: http.Client with DefaultTimeout)
	HTTPClient *http.Client

	// CacheTTL is the expiry of cached GET responses (default: DefaultCacheTTL)
	CacheTTL time.Duration

	// UserAgent is sent when non-empty
	UserAgent string

	// Retry for idempotent methods on network and 5xx errors.
	// MaxAttempts 1 sends every request exactly once.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Logger (default: component logger from pkg/logging)
	Logger *zerolog.Logger
}

// DefaultConfig returns the default configuration for store.
func DefaultConfig(store cache.Store) Config {
	retry := DefaultRetryConfig()
	return Config{
		Store:          store,
		CacheTTL:       DefaultCacheTTL,
		MaxAttempts:    retry.MaxAttempts,
		InitialBackoff: retry.InitialBackoff,
		MaxBackoff:     retry.MaxBackoff,
	}
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.Store == nil {
		return nil, ErrStoreRequired
	}

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.CacheTTL < 0 {
		return nil, fmt.Errorf("cache_ttl must be positive (got %s)", cfg.CacheTTL)
	}

	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.MaxAttempts < 0 {
		return nil, fmt.Errorf("max_attempts must be >= 1 (got %d)", cfg.MaxAttempts)
	}

	defaults := DefaultRetryConfig()
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaults.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaults.MaxBackoff
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	logger := logging.NewLogger("jsonreq-client")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Client{
		httpClient: httpClient,
		store:      cfg.Store,
		config:     cfg,
		logger:     logger,
	}, nil
}

// Get performs a GET request, answering from the cache when possible.
func (c *Client) Get(ctx context.Context, rawURL string, params Params) (any, error) {
	return c.decoded(ctx, Request{Method: http.MethodGet, URL: rawURL, Params: params})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, rawURL string, params Params, body any) (any, error) {
	return c.decoded(ctx, Request{Method: http.MethodPost, URL: rawURL, Params: params, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, rawURL string, params Params, body any) (any, error) {
	return c.decoded(ctx, Request{Method: http.MethodPut, URL: rawURL, Params: params, Body: body})
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, rawURL string, params Params, body any) (any, error) {
	return c.decoded(ctx, Request{Method: http.MethodPatch, URL: rawURL, Params: params, Body: body})
}

// Delete performs a DELETE request. body may be nil.
func (c *Client) Delete(ctx context.Context, rawURL string, params Params, body any) (any, error) {
	return c.decoded(ctx, Request{Method: http.MethodDelete, URL: rawURL, Params: params, Body: body})
}

// GetInto performs a GET request and decodes the JSON result into out.
func (c *Client) GetInto(ctx context.Context, rawURL string, params Params, out any) error {
	return c.DoInto(ctx, Request{Method: http.MethodGet, URL: rawURL, Params: params}, out)
}

// DoInto dispatches req and decodes the JSON result into out.
// An empty response body leaves out untouched.
func (c *Client) DoInto(ctx context.Context, req Request, out any) error {
	data, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return decode(data, out)
}

func (c *Client) decoded(ctx context.Context, req Request) (any, error) {
	var result any
	if err := c.DoInto(ctx, req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func decode(data []byte, out any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecodeResponse, err)
	}
	return nil
}

// Do dispatches req and returns the raw response body.
//
// This is the core request method:
//  1. Encode params into the URL
//  2. GET only: return the cached body on a hit
//  3. Send the request
//  4. GET only: cache a successful non-empty body for CacheTTL
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	target, err := BuildURL(req.URL, req.Params)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(method).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check Cache
	if method == http.MethodGet {
		if data, ok := c.lookup(ctx, target); ok {
			requestsTotal.WithLabelValues(method, "cache_hit").Inc()
			return data, nil
		}
	}

	// Step 2: Encode Body
	var payload []byte
	if !isNilBody(req.Body) {
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncodeBody, err)
		}
	}

	// Step 3: Execute HTTP Request
	c.logger.Debug().
		Str("method", method).
		Str("url", target).
		Msg("Executing request")

	retry := RetryConfig{
		MaxAttempts:       1,
		InitialBackoff:    c.config.InitialBackoff,
		MaxBackoff:        c.config.MaxBackoff,
		BackoffMultiplier: 2.0,
	}
	if idempotent(method) {
		retry.MaxAttempts = c.config.MaxAttempts
	}

	var body []byte
	err = retryWithBackoff(ctx, retry, c.logger, func() error {
		var sendErr error
		body, sendErr = c.send(ctx, method, target, payload)
		return sendErr
	})
	if err != nil {
		return nil, err
	}

	// Step 4: Update Cache on success
	if method == http.MethodGet && len(body) > 0 {
		c.save(ctx, target, body)
	}

	return body, nil
}

// isNilBody reports whether body is nil or a typed nil (nil pointer, slice,
// map or interface). Such bodies are not sent.
func isNilBody(body any) bool {
	if body == nil {
		return true
	}
	v := reflect.ValueOf(body)
	switch v.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// lookup returns the cached body for key. Store errors are logged and
// treated as a miss.
func (c *Client) lookup(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.store.GetValue(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Debug().Str("url", key).Bool("cache_hit", false).Msg("Cache miss")
		} else {
			c.logger.Warn().Err(err).Str("url", key).Msg("Cache get error")
		}
		return nil, false
	}

	if value == "" {
		return nil, false
	}

	c.logger.Debug().Str("url", key).Bool("cache_hit", true).Msg("Serving response from cache")
	return []byte(value), true
}

// save writes body to the store. Failures are logged, the response is still
// returned to the caller.
func (c *Client) save(ctx context.Context, key string, body []byte) {
	if err := c.store.SetValue(ctx, key, string(body), c.config.CacheTTL); err != nil {
		c.logger.Warn().Err(err).Str("url", key).Msg("Failed to cache response")
		return
	}

	c.logger.Debug().
		Str("url", key).
		Dur("ttl", c.config.CacheTTL).
		Msg("Cached response")
}

// send performs a single HTTP round trip.
func (c *Client) send(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("url", target).Msg("HTTP request failed")
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(method, "network_error").Inc()
		return nil, &RequestError{
			Method:     method,
			URL:        target,
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(method, "network_error").Inc()
		return nil, &RequestError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errClass := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(errClass)).Inc()

		c.logger.Warn().
			Str("method", method).
			Str("url", target).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Request error")

		return nil, &RequestError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
			Body:       body,
		}
	}

	return body, nil
}
