package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/watchlist-server/internal/domain"
	"github.com/listenupapp/watchlist-server/internal/service"
)

// maxItemPayload bounds the search result body accepted by addItem.
const maxItemPayload = 64 << 10

func (s *Server) registerItemRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "addItem",
		Method:        http.MethodPost,
		Path:          "/api/v1/lists/{slug}/items",
		Summary:       "Add item",
		Description:   "Adds a movie or TV show to a list. The body is a search result exactly as returned by the search endpoint's payload field.",
		Tags:          []string{"Items"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  maxItemPayload,
	}, s.handleAddItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeItem",
		Method:      http.MethodDelete,
		Path:        "/api/v1/lists/{slug}/items/{itemId}",
		Summary:     "Remove item",
		Description: "Removes an item from a list",
		Tags:        []string{"Items"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "rateItem",
		Method:      http.MethodPut,
		Path:        "/api/v1/lists/{slug}/items/{itemId}/rating",
		Summary:     "Rate item",
		Description: "Sets the caller's rating (0-10) and watched flag for an item. Omitted fields keep their value.",
		Tags:        []string{"Items"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRateItem)
}

// === DTOs ===

// ItemResponse is a stored item with its search result and ratings.
type ItemResponse struct {
	ID        string           `json:"id" doc:"Item ID"`
	ListID    string           `json:"list_id" doc:"List ID"`
	ItemType  string           `json:"item_type" enum:"movie,tv" doc:"Media type"`
	Title     string           `json:"title" doc:"Movie title or show name"`
	Year      string           `json:"year,omitempty" doc:"Release or first air year"`
	AddedBy   string           `json:"added_by" doc:"User who added the item"`
	CreatedAt time.Time        `json:"created_at" doc:"When the item was added"`
	Payload   any              `json:"payload" doc:"The search result the item was created from"`
	Ratings   []RatingResponse `json:"ratings" doc:"Ratings by list members"`
}

// RatingResponse is one user's rating of an item.
type RatingResponse struct {
	ItemID    string    `json:"item_id" doc:"Item ID"`
	UserID    string    `json:"user_id" doc:"User ID"`
	Rating    int       `json:"rating" doc:"Score from 0 to 10"`
	Watched   bool      `json:"watched" doc:"Whether the user has watched it"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last change"`
}

// AddItemInput carries a raw search result payload.
type AddItemInput struct {
	Slug    string `path:"slug" minLength:"1" maxLength:"32" doc:"List slug"`
	RawBody []byte
}

// ItemPathInput identifies an item within a list.
type ItemPathInput struct {
	Slug   string `path:"slug" minLength:"1" maxLength:"32" doc:"List slug"`
	ItemID string `path:"itemId" minLength:"1" maxLength:"64" doc:"Item ID"`
}

// RateItemInput wraps the rating request for Huma.
type RateItemInput struct {
	Slug   string `path:"slug" minLength:"1" maxLength:"32" doc:"List slug"`
	ItemID string `path:"itemId" minLength:"1" maxLength:"64" doc:"Item ID"`
	Body   struct {
		Rating  *int  `json:"rating,omitempty" required:"false" doc:"Score from 0 to 10"`
		Watched *bool `json:"watched,omitempty" required:"false" doc:"Watched flag"`
	}
}

// ItemOutput wraps an item for Huma.
type ItemOutput struct {
	Body ItemResponse
}

// RatingOutput wraps a rating for Huma.
type RatingOutput struct {
	Body RatingResponse
}

// === Handlers ===

func (s *Server) handleAddItem(ctx context.Context, input *AddItemInput) (*ItemOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Lists.AddItem(ctx, input.Slug, userID, input.RawBody)
	if err != nil {
		return nil, err
	}
	return &ItemOutput{Body: mapItem(*view)}, nil
}

func (s *Server) handleRemoveItem(ctx context.Context, input *ItemPathInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Lists.RemoveItem(ctx, input.Slug, userID, input.ItemID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Item removed"}}, nil
}

func (s *Server) handleRateItem(ctx context.Context, input *RateItemInput) (*RatingOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	rating, err := s.services.Lists.RateItem(ctx, input.Slug, userID, input.ItemID, service.RateItemRequest{
		Rating:  input.Body.Rating,
		Watched: input.Body.Watched,
	})
	if err != nil {
		return nil, err
	}
	return &RatingOutput{Body: mapRating(rating)}, nil
}

// === Helpers ===

type yearer interface {
	Year() string
}

func mapItem(v service.ItemView) ItemResponse {
	resp := ItemResponse{
		ID:        v.Item.ID,
		ListID:    v.Item.ListID,
		ItemType:  v.Item.ItemType,
		Title:     v.Result.DisplayName(),
		AddedBy:   v.Item.AddedBy,
		CreatedAt: v.Item.CreatedAt,
		Payload:   json.RawMessage(v.Item.ItemJSON),
		Ratings:   make([]RatingResponse, len(v.Ratings)),
	}
	if y, ok := v.Result.(yearer); ok {
		resp.Year = y.Year()
	}
	for i, r := range v.Ratings {
		resp.Ratings[i] = mapRating(r)
	}
	return resp
}

func mapRating(r *domain.Rating) RatingResponse {
	return RatingResponse{
		ItemID:    r.ItemID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Watched:   r.Watched,
		UpdatedAt: r.UpdatedAt,
	}
}
