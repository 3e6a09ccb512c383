package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/watchlist-server/internal/config"
	"github.com/listenupapp/watchlist-server/internal/logger"
	"github.com/listenupapp/watchlist-server/internal/metadata/tmdb"
)

// TMDBClientHandle wraps the TMDB client with shutdown capability.
type TMDBClientHandle struct {
	*tmdb.Client
}

// Shutdown implements do.Shutdownable.
func (h *TMDBClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideTMDBClient provides the rate-limited TMDB client.
func ProvideTMDBClient(i do.Injector) (*TMDBClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*MetricsHandle](i)

	client := tmdb.New(tmdb.Options{
		APIKey:       cfg.TMDB.APIKey,
		BaseURL:      cfg.TMDB.BaseURL,
		RPS:          cfg.TMDB.RPS,
		Burst:        cfg.TMDB.Burst,
		Timeout:      cfg.TMDB.Timeout,
		IncludeAdult: cfg.TMDB.IncludeAdult,
		Logger:       log.Logger,
		Metrics:      m.Metrics,
	})

	log.Info("TMDB client ready",
		"base_url", cfg.TMDB.BaseURL,
		"configured", client.Configured(),
		"rps", cfg.TMDB.RPS,
	)

	return &TMDBClientHandle{Client: client}, nil
}
