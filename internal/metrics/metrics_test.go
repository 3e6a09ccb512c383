package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	require.NoError(t, m.Register(reg))

	// Registering the same collectors twice fails.
	assert.Error(t, m.Register(reg))
}

func TestObserveHTTPRequest(t *testing.T) {
	m := NewMetrics()
	m.ObserveHTTPRequest("GET", "/api/v1/lists", 200, 10*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/api/v1/lists", 200, 20*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/api/v1/lists", 404, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/v1/lists", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/v1/lists", "404")))
}

func TestSearchCounters(t *testing.T) {
	m := NewMetrics()
	m.IncCacheHit()
	m.IncCacheMiss()
	m.IncCacheMiss()
	m.IncRankedResults("movie", 3)
	m.IncRankedResults("tv", 0)
	m.IncRejectedResults(2)
	m.ObserveTMDBRequest("ok", 100*time.Millisecond)
	m.IncRateLimited("/api/v1/auth/login")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheMisses))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.rankedResults.WithLabelValues("movie")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rejectedResults))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tmdbRequestsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited.WithLabelValues("/api/v1/auth/login")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
		m.ObserveTMDBRequest("ok", time.Millisecond)
		m.IncCacheHit()
		m.IncCacheMiss()
		m.IncRankedResults("movie", 1)
		m.IncRejectedResults(1)
		m.IncRateLimited("/")
	})
}
