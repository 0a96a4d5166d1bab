package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks cache hits by backend
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jsonreq_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"backend"},
	)

	// cacheMisses tracks cache misses by backend
	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jsonreq_cache_misses_total",
			Help: "Total number of response cache misses",
		},
		[]string{"backend"},
	)

	cacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jsonreq_cache_writes_total",
			Help: "Total number of values written to the response cache",
		},
		[]string{"backend"},
	)

	cacheWrittenBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jsonreq_cache_written_bytes_total",
			Help: "Total number of bytes written to the response cache",
		},
		[]string{"backend"},
	)

	// cacheErrors tracks cache operation errors
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jsonreq_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"backend", "operation"}, // "get", "set"
	)
)

func recordWrite(backend string, size int) {
	cacheWrites.WithLabelValues(backend).Inc()
	cacheWrittenBytes.WithLabelValues(backend).Add(float64(size))
}
