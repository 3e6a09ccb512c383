package tmdb

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/listenupapp/watchlist-server/internal/tracing"
)

// MaxPage is the highest page TMDB serves for search endpoints.
const MaxPage = 500

// SearchPage is one page of /search/multi results. Results are left raw so the
// caller can validate each entry against its media type.
type SearchPage struct {
	Page         int              `json:"page"`
	TotalPages   int              `json:"total_pages"`
	TotalResults int              `json:"total_results"`
	Results      []jsontext.Value `json:"results"`
}

// SearchMulti searches movies, TV shows and people in one request.
// A blank query returns an empty first page without contacting TMDB.
func (c *Client) SearchMulti(ctx context.Context, query string, page int) (_ *SearchPage, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &SearchPage{Page: 1, Results: []jsontext.Value{}}, nil
	}
	page = clampPage(page)

	ctx, end := tracing.StartSpan(ctx, "tmdb.search_multi",
		attribute.String("tmdb.query", query),
		attribute.Int("tmdb.page", page),
	)
	defer func() { end(err) }()

	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", strconv.FormatBool(c.includeAdult))
	params.Set("page", strconv.Itoa(page))

	body, err := c.doRequest(ctx, "/search/multi", params)
	if err != nil {
		return nil, wrapError("searchMulti", query, err)
	}

	var resp SearchPage
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("searchMulti", query, fmt.Errorf("parse response: %w", err))
	}
	if resp.Results == nil {
		resp.Results = []jsontext.Value{}
	}

	return &resp, nil
}

func clampPage(page int) int {
	switch {
	case page < 1:
		return 1
	case page > MaxPage:
		return MaxPage
	default:
		return page
	}
}
