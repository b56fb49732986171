// internal/pkg/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics records response cache activity
type CacheMetrics struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	expirations prometheus.Counter
	entries     prometheus.Gauge
}

// NewCacheMetrics registers the cache metrics on the provided registerer
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	m := &CacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "response_cache_hits_total",
			Help: "Cache lookups that found a live entry.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "response_cache_misses_total",
			Help: "Cache lookups that found nothing or an expired entry.",
		}),
		expirations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "response_cache_expirations_total",
			Help: "Entries dropped because they were read after expiry.",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "response_cache_entries",
			Help: "Entries currently held, expired or not.",
		}),
	}
	reg.MustRegister(m.hits, m.misses, m.expirations, m.entries)
	return m
}

// IncHit counts a cache hit
func (m *CacheMetrics) IncHit() {
	if m == nil || m.hits == nil {
		return
	}
	m.hits.Inc()
}

// IncMiss counts a cache miss
func (m *CacheMetrics) IncMiss() {
	if m == nil || m.misses == nil {
		return
	}
	m.misses.Inc()
}

// IncExpiration counts an entry dropped on read after expiry
func (m *CacheMetrics) IncExpiration() {
	if m == nil || m.expirations == nil {
		return
	}
	m.expirations.Inc()
}

// SetEntries records the number of held entries
func (m *CacheMetrics) SetEntries(n int) {
	if m == nil || m.entries == nil {
		return
	}
	m.entries.Set(float64(n))
}

// HTTPMetrics records request counts and latencies per route
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
	reg.MustRegister(requests, duration)
	return &HTTPMetrics{
		requests: requests,
		duration: duration,
	}
}

// Observe records one finished request
func (m *HTTPMetrics) Observe(route, method string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func normalizeLabel(route string) string {
	if route == "" {
		return "unmatched"
	}
	return route
}
