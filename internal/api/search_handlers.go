package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/watchlist-server/internal/search"
	"github.com/listenupapp/watchlist-server/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search catalog",
		Description: "Searches movies and TV shows. Results are ranked movies first, then by popularity, vote count and vote average. People are never returned.",
		Tags:        []string{"Search"},
	}, s.handleSearchCatalog)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchMyLists",
		Method:      http.MethodGet,
		Path:        "/api/v1/search/lists",
		Summary:     "Search my lists",
		Description: "Full-text search over the items of every list the caller owns or has joined",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchMyLists)
}

// === DTOs ===

// CatalogSearchInput contains parameters for a catalog search.
type CatalogSearchInput struct {
	Query string `query:"q" maxLength:"200" doc:"Search query. Blank returns no results."`
	Page  int    `query:"page" minimum:"0" maximum:"500" doc:"Result page (default 1)"`
}

// SearchResultItem is one ranked catalog result.
type SearchResultItem struct {
	Label     string `json:"label" doc:"Movie title or show name"`
	Value     string `json:"value" doc:"Catalog ID"`
	Group     string `json:"group" doc:"Display group: Movies or TV Shows"`
	MediaType string `json:"media_type" enum:"movie,tv" doc:"Media type"`
	Payload   any    `json:"payload" doc:"The full search result. Send it unchanged to add the item to a list."`
}

// CatalogSearchResponse is a ranked page of catalog results.
type CatalogSearchResponse struct {
	Query        string             `json:"query" doc:"The query as received"`
	Page         int                `json:"page" doc:"Result page"`
	TotalPages   int                `json:"total_pages" doc:"Pages available upstream"`
	TotalResults int                `json:"total_results" doc:"Results available upstream"`
	Results      []SearchResultItem `json:"results" doc:"Ranked movies and TV shows"`
}

// CatalogSearchOutput wraps the catalog search response for Huma.
type CatalogSearchOutput struct {
	Body CatalogSearchResponse
}

// ListSearchInput contains parameters for searching the caller's lists.
type ListSearchInput struct {
	Query      string `query:"q" maxLength:"200" doc:"Search query. Blank matches every item."`
	MediaTypes string `query:"media_type" maxLength:"20" doc:"Comma-separated media types (movie,tv). Omit for all."`
	Limit      int    `query:"limit" minimum:"0" maximum:"100" doc:"Max hits (default 20)"`
	Offset     int    `query:"offset" minimum:"0" doc:"Pagination offset"`
}

// ListSearchOutput wraps the list search response for Huma.
type ListSearchOutput struct {
	Body *search.Result
}

// === Handlers ===

func (s *Server) handleSearchCatalog(ctx context.Context, input *CatalogSearchInput) (*CatalogSearchOutput, error) {
	res, err := s.services.Search.SearchCatalog(ctx, input.Query, input.Page)
	if err != nil {
		return nil, err
	}

	// A blank query is echoed as empty.
	query := input.Query
	if strings.TrimSpace(query) == "" {
		query = ""
	}

	items := make([]SearchResultItem, len(res.Results))
	for i, r := range res.Results {
		items[i] = SearchResultItem{
			Label:     r.Label,
			Value:     r.Value,
			Group:     r.Group,
			MediaType: string(r.MediaType()),
			Payload:   r.Payload,
		}
	}

	return &CatalogSearchOutput{
		Body: CatalogSearchResponse{
			Query:        query,
			Page:         res.Page,
			TotalPages:   res.TotalPages,
			TotalResults: res.TotalResults,
			Results:      items,
		},
	}, nil
}

func (s *Server) handleSearchMyLists(ctx context.Context, input *ListSearchInput) (*ListSearchOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Search.SearchMyLists(ctx, userID, service.ListSearchRequest{
		Query:      input.Query,
		MediaTypes: splitCSV(input.MediaTypes),
		Limit:      input.Limit,
		Offset:     input.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &ListSearchOutput{Body: result}, nil
}

// === Helpers ===

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
