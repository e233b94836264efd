// Package metrics provides Prometheus instrumentation for the AISHE client.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "aishe"

var (
	// RequestLatency tracks end-to-end Ask/CheckHealth latency in seconds.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_latency_seconds",
			Help:      "End-to-end request latency in seconds.",
			Buckets:   []float64{0.005, 0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation", "cache_status"}, // cache_status: "hit", "miss", "bypass"
	)

	// RequestsTotal tracks completed requests by outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of requests by operation and outcome.",
		},
		[]string{"operation", "outcome"}, // "success", "cache_hit", "client", "service", "unreachable"
	)

	// ActiveRequests tracks the number of currently in-flight requests.
	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_requests",
			Help:      "Number of currently in-flight requests.",
		},
	)

	// CacheLookupsTotal tracks cache lookups per strategy.
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Total number of cache lookups.",
		},
		[]string{"strategy"},
	)

	// CacheHitsTotal tracks cache hits per strategy.
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits.",
		},
		[]string{"strategy"},
	)

	// CacheWriteFailuresTotal tracks answers that could not be cached.
	CacheWriteFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_write_failures_total",
			Help:      "Total number of failed cache writes.",
		},
		[]string{"strategy"},
	)

	// CacheHitRatio is hits / lookups across all strategies, recomputed on
	// every lookup.
	CacheHitRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_hit_ratio",
			Help:      "Current cache hit ratio (hits / lookups).",
		},
	)

	// RemoteHealthy is 1 when the last health probe reported a healthy
	// server, 0 otherwise.
	RemoteHealthy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remote_healthy",
			Help:      "Whether the last health probe reported a healthy server.",
		},
	)

	ratioMu      sync.Mutex
	totalHits    float64
	totalLookups float64
)

// RecordCacheLookup records a cache lookup and updates the hit ratio.
func RecordCacheLookup(strategy string, hit bool) {
	CacheLookupsTotal.WithLabelValues(strategy).Inc()
	if hit {
		CacheHitsTotal.WithLabelValues(strategy).Inc()
	}

	ratioMu.Lock()
	defer ratioMu.Unlock()
	totalLookups++
	if hit {
		totalHits++
	}
	CacheHitRatio.Set(totalHits / totalLookups)
}

// RecordCacheWriteFailure counts an answer that could not be cached.
func RecordCacheWriteFailure(strategy string) {
	CacheWriteFailuresTotal.WithLabelValues(strategy).Inc()
}

// RecordHealth sets the remote health gauge.
func RecordHealth(healthy bool) {
	if healthy {
		RemoteHealthy.Set(1)
		return
	}
	RemoteHealthy.Set(0)
}
