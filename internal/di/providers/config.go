// Package providers contains dependency injection providers for the Watchlist server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/watchlist-server/internal/config"
	"github.com/listenupapp/watchlist-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Watchlist Server",
		"version", Version,
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
	)
	if cfg.TMDB.APIKey == "" {
		log.Warn("THE_MOVIE_DB_API_KEY is not set; catalog search will fail until it is configured")
	}

	return log, nil
}
