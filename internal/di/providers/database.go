package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/watchlist-server/internal/cache"
	"github.com/listenupapp/watchlist-server/internal/config"
	"github.com/listenupapp/watchlist-server/internal/logger"
	"github.com/listenupapp/watchlist-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.Data.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// CacheHandle wraps the catalog response cache. Cache is nil when caching is disabled.
type CacheHandle struct {
	*cache.Cache
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	if h.Cache == nil {
		return nil
	}
	h.cancel()
	return h.Close()
}

// ProvideCache provides the Badger-backed catalog cache and starts its GC loop.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Cache.Enabled {
		log.Info("Catalog cache disabled by configuration")
		return &CacheHandle{}, nil
	}

	c, err := cache.Open(cache.Options{Dir: cfg.Cache.Path, Logger: log.Logger})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go c.RunGC(ctx, cacheGCInterval)

	log.Info("Catalog cache initialized", "path", cfg.Cache.Path, "ttl", cfg.Cache.TTL)

	return &CacheHandle{Cache: c, cancel: cancel}, nil
}
