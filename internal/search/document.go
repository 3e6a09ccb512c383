// Package search provides full-text search over list items using Bleve.
// Every query is scoped to a set of list ids so callers only ever see items
// from lists they are allowed to view.
package search

import (
	"strconv"
	"time"

	"github.com/listenupapp/watchlist-server/internal/catalog"
	"github.com/listenupapp/watchlist-server/internal/domain"
	"github.com/listenupapp/watchlist-server/internal/normalize"
)

// ItemDocument is the indexed form of a list item. The catalog payload is
// flattened so movies and TV shows share one set of fields.
type ItemDocument struct {
	ID            string `json:"id"`
	ListID        string `json:"list_id"`
	MediaType     string `json:"media_type"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title,omitempty"`
	Overview      string `json:"overview,omitempty"`
	Year          int    `json:"year,omitempty"`
	Language      string `json:"language,omitempty"`
	AddedAt       int64  `json:"added_at"` // Unix seconds
}

// NewItemDocument builds the document for item from its parsed payload.
func NewItemDocument(item *domain.Item, result catalog.Result) *ItemDocument {
	doc := &ItemDocument{
		ID:        item.ID,
		ListID:    item.ListID,
		MediaType: item.ItemType,
		AddedAt:   item.CreatedAt.Unix(),
	}

	var year, lang string
	switch r := result.(type) {
	case *catalog.Movie:
		doc.Title = r.Title
		doc.OriginalTitle = r.OriginalTitle
		doc.Overview = r.Overview
		year, lang = r.Year(), r.OriginalLanguage
	case *catalog.TVShow:
		doc.Title = r.Name
		doc.OriginalTitle = r.OriginalName
		doc.Overview = r.Overview
		year, lang = r.Year(), r.OriginalLanguage
	}

	if doc.OriginalTitle == doc.Title {
		doc.OriginalTitle = ""
	}
	if y, err := strconv.Atoi(year); err == nil {
		doc.Year = y
	}
	doc.Language = normalize.LanguageCode(lang)

	return doc
}

// ToMap converts the document to the field names used by the mapping.
func (d *ItemDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"list_id":    d.ListID,
		"media_type": d.MediaType,
		"title":      d.Title,
		"added_at":   float64(d.AddedAt),
	}
	if d.OriginalTitle != "" {
		m["original_title"] = d.OriginalTitle
	}
	if d.Overview != "" {
		m["overview"] = d.Overview
	}
	if d.Year > 0 {
		m["year"] = float64(d.Year)
	}
	if d.Language != "" {
		m["language"] = d.Language
	}
	return m
}

// AddedTime returns AddedAt as a time.
func (d *ItemDocument) AddedTime() time.Time {
	return time.Unix(d.AddedAt, 0).UTC()
}
