package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/watchlist-server/internal/config"
	"github.com/listenupapp/watchlist-server/internal/logger"
	"github.com/listenupapp/watchlist-server/internal/search"
	"github.com/listenupapp/watchlist-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve index over list items.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.SearchPath(),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideSearchService provides the catalog and list search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	tmdbHandle := do.MustInvoke[*TMDBClientHandle](i)
	m := do.MustInvoke[*MetricsHandle](i)

	return service.NewSearchService(service.SearchServiceOptions{
		Catalog:  tmdbHandle.Client,
		Cache:    cacheHandle.Cache,
		CacheTTL: cfg.Cache.TTL,
		Index:    indexHandle.SearchIndex,
		Store:    storeHandle.Store,
		Metrics:  m.Metrics,
		Logger:   log.Logger,
	}), nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when it
// was recreated on open, or is empty while the database holds items.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	searchService := do.MustInvoke[*service.SearchService](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx := context.Background()
	if !indexHandle.NeedsReindex() {
		docCount, _ := searchService.DocumentCount()
		if docCount > 0 {
			return
		}
		items, err := storeHandle.ListAllItems(ctx)
		if err != nil || len(items) == 0 {
			return
		}
		log.Info("Search index is empty but items exist, triggering reindex", "item_count", len(items))
	}

	go func() {
		if _, err := searchService.ReindexAll(ctx); err != nil {
			log.Error("Initial search reindex failed", "error", err)
		}
	}()
}
