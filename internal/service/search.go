package service

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/listenupapp/watchlist-server/internal/cache"
	"github.com/listenupapp/watchlist-server/internal/catalog"
	domainerrors "github.com/listenupapp/watchlist-server/internal/errors"
	"github.com/listenupapp/watchlist-server/internal/metadata/tmdb"
	"github.com/listenupapp/watchlist-server/internal/metrics"
	"github.com/listenupapp/watchlist-server/internal/normalize"
	"github.com/listenupapp/watchlist-server/internal/search"
	"github.com/listenupapp/watchlist-server/internal/store"
	"github.com/listenupapp/watchlist-server/internal/tracing"
)

// CatalogSearcher queries the external media catalog.
type CatalogSearcher interface {
	SearchMulti(ctx context.Context, query string, page int) (*tmdb.SearchPage, error)
}

// SearchService serves catalog searches and full-text search over lists.
type SearchService struct {
	catalog  CatalogSearcher
	cache    *cache.Cache // nil disables caching
	cacheTTL time.Duration
	index    *search.SearchIndex
	store    store.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger

	group singleflight.Group
}

// SearchServiceOptions holds the collaborators of a SearchService.
type SearchServiceOptions struct {
	Catalog  CatalogSearcher
	Cache    *cache.Cache
	CacheTTL time.Duration
	Index    *search.SearchIndex
	Store    store.Store
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(opts SearchServiceOptions) *SearchService {
	return &SearchService{
		catalog:  opts.Catalog,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		index:    opts.Index,
		store:    opts.Store,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
}

// CatalogResults is a ranked page of catalog search results.
type CatalogResults struct {
	Query        string
	Page         int
	TotalPages   int
	TotalResults int
	Results      []catalog.DisplayItem
	Rejected     int
	Cached       bool
}

// SearchCatalog runs a multi-search and ranks the results for display.
// People and malformed entries are dropped. A blank query returns an empty
// first page without reaching the catalog.
func (s *SearchService) SearchCatalog(ctx context.Context, query string, page int) (_ *CatalogResults, err error) {
	key := normalize.Query(query)
	if key == "" {
		return &CatalogResults{Page: 1, Results: []catalog.DisplayItem{}}, nil
	}
	if page < 1 {
		page = 1
	}

	ctx, end := tracing.StartSpan(ctx, "search.catalog",
		attribute.String("search.query", key),
		attribute.Int("search.page", page),
	)
	defer func() { end(err) }()

	cacheKey := "tmdb:multi:" + key + ":" + strconv.Itoa(page)

	tmdbPage, cached, err := s.cachedPage(cacheKey)
	if err != nil {
		return nil, err
	}
	if tmdbPage == nil {
		// Concurrent identical searches share one upstream request.
		v, err, _ := s.group.Do(cacheKey, func() (any, error) {
			return s.fetchPage(ctx, cacheKey, strings.Join(strings.Fields(query), " "), page)
		})
		if err != nil {
			return nil, err
		}
		tmdbPage = v.(*tmdb.SearchPage)
	}

	results, rejected := catalog.ParseResults(tmdbPage.Results)
	if rejected > 0 {
		s.logger.Debug("Dropped malformed search results", "query", key, "rejected", rejected)
		s.metrics.IncRejectedResults(rejected)
	}

	ranked := catalog.Rank(results)
	for mediaType, n := range countByType(ranked) {
		s.metrics.IncRankedResults(mediaType, n)
	}

	return &CatalogResults{
		Query:        key,
		Page:         tmdbPage.Page,
		TotalPages:   tmdbPage.TotalPages,
		TotalResults: tmdbPage.TotalResults,
		Results:      ranked,
		Rejected:     rejected,
		Cached:       cached,
	}, nil
}

// cachedPage returns the cached page for key, or nil on a miss.
func (s *SearchService) cachedPage(key string) (*tmdb.SearchPage, bool, error) {
	if s.cache == nil {
		return nil, false, nil
	}

	data, err := s.cache.Get(key)
	if errors.Is(err, cache.ErrMiss) {
		s.metrics.IncCacheMiss()
		return nil, false, nil
	}
	if err != nil {
		s.logger.Warn("Search cache read failed", "key", key, "error", err)
		return nil, false, nil
	}

	var page tmdb.SearchPage
	if err := json.Unmarshal(data, &page); err != nil {
		s.logger.Warn("Discarding corrupt cache entry", "key", key, "error", err)
		_ = s.cache.Delete(key)
		s.metrics.IncCacheMiss()
		return nil, false, nil
	}

	s.metrics.IncCacheHit()
	return &page, true, nil
}

func (s *SearchService) fetchPage(ctx context.Context, cacheKey, query string, page int) (*tmdb.SearchPage, error) {
	result, err := s.catalog.SearchMulti(ctx, query, page)
	if err != nil {
		switch {
		case errors.Is(err, tmdb.ErrRateLimited):
			return nil, domainerrors.RateLimited("catalog rate limit reached, try again shortly").WithCause(err)
		case errors.Is(err, tmdb.ErrNoAPIKey):
			return nil, domainerrors.Upstream("catalog search is not configured", err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			return nil, domainerrors.Upstream("catalog search failed", err)
		}
	}

	if s.cache != nil {
		data, err := json.Marshal(result)
		if err == nil {
			err = s.cache.Set(cacheKey, data, s.cacheTTL)
		}
		if err != nil {
			s.logger.Warn("Search cache write failed", "key", cacheKey, "error", err)
		}
	}

	return result, nil
}

func countByType(items []catalog.DisplayItem) map[string]int {
	counts := make(map[string]int, 2)
	for _, item := range items {
		counts[string(item.MediaType())]++
	}
	return counts
}

// ListSearchRequest is a full-text search over the caller's lists.
type ListSearchRequest struct {
	Query      string   `json:"query" validate:"max=200"`
	MediaTypes []string `json:"media_types" validate:"omitempty,dive,oneof=movie tv"`
	Limit      int      `json:"limit" validate:"gte=0,lte=100"`
	Offset     int      `json:"offset" validate:"gte=0"`
}

// SearchMyLists searches the items of every list userID owns or has joined.
func (s *SearchService) SearchMyLists(ctx context.Context, userID string, req ListSearchRequest) (*search.Result, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if s.index == nil {
		return nil, domainerrors.Internal("search index is not available")
	}

	lists, err := s.store.ListListsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	listIDs := make([]string, len(lists))
	for i, l := range lists {
		listIDs[i] = l.ID
	}

	result, err := s.index.Search(ctx, search.Params{
		Query:      req.Query,
		ListIDs:    listIDs,
		MediaTypes: req.MediaTypes,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("search lists: %w", err)
	}
	return result, nil
}

// ReindexAll rebuilds the list item index from the database.
func (s *SearchService) ReindexAll(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, domainerrors.Internal("search index is not available")
	}

	start := time.Now()
	items, err := s.store.ListAllItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("list items: %w", err)
	}

	if err := s.index.Rebuild(); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}

	docs := make([]*search.ItemDocument, 0, len(items))
	for _, item := range items {
		result, err := catalog.ParseListable(item.ItemJSON)
		if err != nil {
			s.logger.Warn("Skipping unreadable item", "item_id", item.ID, "error", err)
			continue
		}
		docs = append(docs, search.NewItemDocument(item, result))
	}

	if err := s.index.IndexDocuments(docs); err != nil {
		return 0, fmt.Errorf("index items: %w", err)
	}

	s.logger.Info("Search index rebuilt", "documents", len(docs), "elapsed", time.Since(start))
	return len(docs), nil
}

// DocumentCount reports how many items are in the list index.
func (s *SearchService) DocumentCount() (uint64, error) {
	if s.index == nil {
		return 0, errors.New("search index is not available")
	}
	return s.index.DocumentCount()
}

// CacheEnabled reports whether catalog pages are cached.
func (s *SearchService) CacheEnabled() bool {
	return s.cache != nil
}

// PingCache checks that the catalog cache is open.
func (s *SearchService) PingCache() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Ping()
}

// PurgeCache drops every cached catalog page.
func (s *SearchService) PurgeCache() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Purge()
}
