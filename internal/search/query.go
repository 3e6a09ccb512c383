package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Params configures a search query.
type Params struct {
	Query string
	// ListIDs scopes the search. An empty slice matches nothing.
	ListIDs    []string
	MediaTypes []string // empty = all

	Limit  int
	Offset int
}

// Result holds one page of hits.
type Result struct {
	Query      string       `json:"query"`
	Total      uint64       `json:"total"`
	TookMs     int64        `json:"took_ms"`
	Hits       []Hit        `json:"hits"`
	MediaTypes []FacetCount `json:"media_types,omitempty"`
}

// Hit is a single matching item.
type Hit struct {
	ID        string  `json:"id"`
	ListID    string  `json:"list_id"`
	MediaType string  `json:"media_type"`
	Title     string  `json:"title"`
	Year      int     `json:"year,omitempty"`
	Score     float64 `json:"score"`
}

// FacetCount is a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search runs params against the index.
func (s *SearchIndex) Search(ctx context.Context, params Params) (*Result, error) {
	params.Query = strings.TrimSpace(params.Query)
	result := &Result{Query: params.Query, Hits: []Hit{}}
	if len(params.ListIDs) == 0 {
		return result, nil
	}

	switch {
	case params.Limit <= 0:
		params.Limit = defaultLimit
	case params.Limit > maxLimit:
		params.Limit = maxLimit
	}
	params.Offset = max(params.Offset, 0)

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	if params.Query == "" {
		req.SortBy([]string{"-added_at"})
	} else {
		req.SortBy([]string{"-_score", "-added_at"})
	}
	req.AddFacet("media_type", bleve.NewFacetRequest("media_type", 5))
	req.Fields = []string{"list_id", "media_type", "title", "year"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result.Total = res.Total
	result.TookMs = res.Took.Milliseconds()
	for _, hit := range res.Hits {
		h := Hit{ID: hit.ID, Score: hit.Score}
		if v, ok := hit.Fields["list_id"].(string); ok {
			h.ListID = v
		}
		if v, ok := hit.Fields["media_type"].(string); ok {
			h.MediaType = v
		}
		if v, ok := hit.Fields["title"].(string); ok {
			h.Title = v
		}
		if v, ok := hit.Fields["year"].(float64); ok {
			h.Year = int(v)
		}
		result.Hits = append(result.Hits, h)
	}

	if facet, ok := res.Facets["media_type"]; ok && facet.Terms != nil {
		for _, term := range facet.Terms.Terms() {
			result.MediaTypes = append(result.MediaTypes, FacetCount{Value: term.Term, Count: term.Count})
		}
	}

	return result, nil
}

// buildSearchQuery ANDs the text query with the list and media type filters.
func buildSearchQuery(params Params) query.Query {
	queries := []query.Query{termsQuery("list_id", params.ListIDs)}

	if len(params.MediaTypes) > 0 {
		queries = append(queries, termsQuery("media_type", params.MediaTypes))
	}

	if params.Query != "" {
		lower := strings.ToLower(params.Query)

		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		originalMatch := bleve.NewMatchQuery(params.Query)
		originalMatch.SetField("original_title")
		originalMatch.SetBoost(2.0)

		// Typo tolerance on title.
		fuzzy := bleve.NewFuzzyQuery(lower)
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)

		overviewMatch := bleve.NewMatchQuery(params.Query)
		overviewMatch.SetField("overview")
		overviewMatch.SetBoost(0.5)

		textQueries := []query.Query{titleMatch, originalMatch, fuzzy, overviewMatch}

		if len(lower) >= 2 {
			prefix := bleve.NewPrefixQuery(lower)
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

func termsQuery(field string, values []string) query.Query {
	terms := make([]query.Query, len(values))
	for i, v := range values {
		tq := bleve.NewTermQuery(v)
		tq.SetField(field)
		terms[i] = tq
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return bleve.NewDisjunctionQuery(terms...)
}
