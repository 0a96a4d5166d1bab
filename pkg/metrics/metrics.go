// Package metrics provides the Prometheus registry used by jsonreq.
// All metrics are defined in their respective packages (cache, client)
// to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Registry is the default Prometheus registry used by jsonreq.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects the metrics registered with Registry.
var Gatherer = prometheus.DefaultGatherer

// WriteText writes every gathered metric family to w in the Prometheus
// text exposition format.
func WriteText(w io.Writer) error {
	families, err := Gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - jsonreq_cache_hits_total{backend} (Counter): Cache hits by backend (redis, memcache, memory)
//   - jsonreq_cache_misses_total{backend} (Counter): Cache misses by backend
//   - jsonreq_cache_writes_total{backend} (Counter): Values written
//   - jsonreq_cache_written_bytes_total{backend} (Counter): Bytes written
//   - jsonreq_cache_errors_total{backend, operation} (Counter): Store errors by operation (get, set)
//
// Request Metrics (pkg/client):
//   - jsonreq_requests_total{method, status} (Counter): Requests by method and HTTP status,
//     "cache_hit" for GETs answered from the cache, "network_error" for transport failures
//   - jsonreq_request_duration_seconds{method} (Histogram): Dispatch duration by method
//   - jsonreq_errors_total{class} (Counter): Errors by class (client, server, network)
//
// Retry Metrics (pkg/client):
//   - jsonreq_retries_total{error_class} (Counter): Retry attempts by error class
//   - jsonreq_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - jsonreq_retry_exhausted_total{error_class} (Counter): Requests that exhausted max attempts
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(jsonreq_cache_hits_total[5m])) /
//   (sum(rate(jsonreq_cache_hits_total[5m])) + sum(rate(jsonreq_cache_misses_total[5m])))
//
//   # Store Error Rate
//   sum by (backend) (rate(jsonreq_cache_errors_total[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(jsonreq_request_duration_seconds_bucket[5m]))
