// Package api provides the HTTP API server and handlers for the Watchlist server.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/listenupapp/watchlist-server/internal/http/response"
	"github.com/listenupapp/watchlist-server/internal/metrics"
	"github.com/listenupapp/watchlist-server/internal/store"
)

// authPathPrefix is rate limited per client IP.
const authPathPrefix = "/api/v1/auth/"

// Config holds the HTTP-facing settings of the server.
type Config struct {
	Name    string
	Version string

	// CORSOrigins lists allowed browser origins. Empty disables CORS headers.
	CORSOrigins []string

	// MetricsPath serves Prometheus metrics from Gatherer. Empty disables it.
	MetricsPath string
	Gatherer    prometheus.Gatherer

	AuthRatePerMinute int
	AuthRateBurst     int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Store
	services        *Services
	router          *chi.Mux
	api             huma.API
	handler         http.Handler
	metrics         *metrics.Metrics
	logger          *slog.Logger
	authRateLimiter *RateLimiter
	version         string
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Server {
	if cfg.AuthRatePerMinute <= 0 {
		cfg.AuthRatePerMinute = 20
	}
	if cfg.AuthRateBurst <= 0 {
		cfg.AuthRateBurst = 5
	}

	s := &Server{
		store:           st,
		services:        services,
		router:          chi.NewRouter(),
		metrics:         m,
		logger:          logger,
		authRateLimiter: NewRateLimiter(cfg.AuthRatePerMinute, time.Minute, cfg.AuthRateBurst),
		version:         cfg.Version,
	}

	s.setupMiddleware(cfg)

	humaConfig := huma.DefaultConfig(cfg.Name+" API", cfg.Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(logger)

	s.registerRoutes()

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, "method not allowed", s.logger)
	})

	if cfg.MetricsPath != "" && cfg.Gatherer != nil {
		s.router.Handle(cfg.MetricsPath, promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	s.handler = otelhttp.NewHandler(s.router, "watchlist-api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// API returns the huma API, e.g. for exporting the OpenAPI document.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

func (s *Server) setupMiddleware(cfg Config) {
	s.router.Use(requestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(metricsMiddleware(s.metrics))

	if len(cfg.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{
				http.MethodGet, http.MethodPost, http.MethodPut,
				http.MethodPatch, http.MethodDelete, http.MethodOptions,
			},
			AllowedHeaders: []string{"Authorization", "Content-Type", RequestIDHeader},
			ExposedHeaders: []string{RequestIDHeader},
			MaxAge:         300,
		}))
	}

	s.router.Use(RateLimitMiddleware(s.authRateLimiter, authPathPrefix, s.metrics, s.logger))
	s.router.Use(authMiddleware(s.services.Auth, s.logger))
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerListRoutes()
	s.registerItemRoutes()
	s.registerSearchRoutes()
}
