package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the page-acquisition pipeline.
//
// Metrics are constructed against an explicit registry so tests can use a
// fresh instance per case and assert counts deterministically.
type Metrics struct {
	FetchesTotal      *prometheus.CounterVec
	FetchDuration     *prometheus.HistogramVec
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	ConnsOpened       prometheus.Counter
	ConnsReused       prometheus.Counter
	RedirectsFollowed prometheus.Counter
	BytesDecoded      prometheus.Counter

	registry *prometheus.Registry
}

// New creates metrics registered on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "browser_fetches_total",
			Help: "Total page fetches by scheme and status",
		}, []string{"scheme", "status"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "browser_fetch_duration_seconds",
			Help:    "Fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"scheme"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "browser_response_cache_hits_total",
			Help: "Fresh response cache hits served without network I/O",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "browser_response_cache_misses_total",
			Help: "Response cache misses and expired entries",
		}),
		ConnsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "browser_connections_opened_total",
			Help: "New transport connections dialed",
		}),
		ConnsReused: factory.NewCounter(prometheus.CounterOpts{
			Name: "browser_connections_reused_total",
			Help: "Keep-alive connections reused from the pool",
		}),
		RedirectsFollowed: factory.NewCounter(prometheus.CounterOpts{
			Name: "browser_redirects_followed_total",
			Help: "3xx redirects followed",
		}),
		BytesDecoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "browser_body_bytes_decoded_total",
			Help: "Response body bytes after transfer and content decoding",
		}),
		registry: registry,
	}
}

// Registry exposes the underlying registry for scrape handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
