package providers

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"

	"github.com/listenupapp/watchlist-server/internal/config"
	"github.com/listenupapp/watchlist-server/internal/logger"
	"github.com/listenupapp/watchlist-server/internal/metrics"
	"github.com/listenupapp/watchlist-server/internal/tracing"
)

// MetricsHandle holds the server's collectors and the registry they are exposed from.
type MetricsHandle struct {
	*metrics.Metrics
	Registry *prometheus.Registry
}

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(i do.Injector) (*MetricsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	m := metrics.NewMetrics()
	reg := prometheus.NewRegistry()
	if !cfg.Metrics.Enabled {
		return &MetricsHandle{Metrics: m, Registry: reg}, nil
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := m.Register(reg); err != nil {
		return nil, err
	}
	return &MetricsHandle{Metrics: m, Registry: reg}, nil
}

// TracingHandle wraps the tracer provider with shutdown capability.
type TracingHandle struct {
	*tracing.Provider
}

// Shutdown implements do.Shutdownable.
func (h *TracingHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Provider.Shutdown(ctx)
}

// ProvideTracing installs the OpenTelemetry tracer provider.
func ProvideTracing(i do.Injector) (*TracingHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	provider, err := tracing.NewProvider(tracing.Config{
		ServiceName:    "watchlist-server",
		ServiceVersion: Version,
		Environment:    cfg.App.Environment,
		Enabled:        cfg.Tracing.Enabled,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		InsecureMode:   cfg.Tracing.Insecure,
	}, log.Logger)
	if err != nil {
		return nil, err
	}
	return &TracingHandle{Provider: provider}, nil
}
