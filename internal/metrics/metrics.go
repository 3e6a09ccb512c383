// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricHTTPRequestsTotal    = "watchlist_http_requests_total"
	MetricHTTPRequestDuration  = "watchlist_http_request_duration_seconds"
	MetricTMDBRequestsTotal    = "watchlist_tmdb_requests_total"
	MetricTMDBRequestDuration  = "watchlist_tmdb_request_duration_seconds"
	MetricCacheHitsTotal       = "watchlist_search_cache_hits_total"
	MetricCacheMissesTotal     = "watchlist_search_cache_misses_total"
	MetricRankedResultsTotal   = "watchlist_ranked_results_total"
	MetricRejectedResultsTotal = "watchlist_rejected_results_total"
	MetricRateLimitedTotal     = "watchlist_rate_limited_total"
)

// Metrics contains the server's Prometheus collectors. All methods are safe
// for concurrent use and tolerate a nil receiver, so callers that run without
// metrics can pass nil.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	tmdbRequestsTotal   *prometheus.CounterVec
	tmdbRequestDuration prometheus.Histogram
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	rankedResults       *prometheus.CounterVec
	rejectedResults     prometheus.Counter
	rateLimited         *prometheus.CounterVec
}

// NewMetrics creates the collectors. They are not registered; call Register.
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0},
			},
			[]string{"method", "route"},
		),
		tmdbRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricTMDBRequestsTotal,
				Help: "Total number of requests sent to The Movie Database by outcome",
			},
			[]string{"outcome"},
		),
		tmdbRequestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricTMDBRequestDuration,
				Help:    "Latency of The Movie Database requests in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCacheHitsTotal,
			Help: "Search responses served from the cache",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCacheMissesTotal,
			Help: "Search requests that missed the cache",
		}),
		rankedResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRankedResultsTotal,
				Help: "Search results returned after ranking, by media type",
			},
			[]string{"media_type"},
		),
		rejectedResults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRejectedResultsTotal,
			Help: "Upstream search results dropped because they failed validation",
		}),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRateLimitedTotal,
				Help: "Requests rejected by the inbound rate limiter",
			},
			[]string{"route"},
		),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.tmdbRequestsTotal,
		m.tmdbRequestDuration,
		m.cacheHits,
		m.cacheMisses,
		m.rankedResults,
		m.rejectedResults,
		m.rateLimited,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveHTTPRequest records one served HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveTMDBRequest records one upstream request. outcome is "ok" or an error class.
func (m *Metrics) ObserveTMDBRequest(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.tmdbRequestsTotal.WithLabelValues(outcome).Inc()
	m.tmdbRequestDuration.Observe(elapsed.Seconds())
}

// IncCacheHit counts a search cache hit.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// IncCacheMiss counts a search cache miss.
func (m *Metrics) IncCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// IncRankedResults adds n ranked results of the given media type.
func (m *Metrics) IncRankedResults(mediaType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rankedResults.WithLabelValues(mediaType).Add(float64(n))
}

// IncRejectedResults adds n results dropped by validation.
func (m *Metrics) IncRejectedResults(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rejectedResults.Add(float64(n))
}

// IncRateLimited counts a request rejected by the inbound limiter.
func (m *Metrics) IncRateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(route).Inc()
}
