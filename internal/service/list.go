package service

import (
	"context"
	"encoding/json/jsontext"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/listenupapp/watchlist-server/internal/catalog"
	"github.com/listenupapp/watchlist-server/internal/domain"
	domainerrors "github.com/listenupapp/watchlist-server/internal/errors"
	"github.com/listenupapp/watchlist-server/internal/id"
	"github.com/listenupapp/watchlist-server/internal/search"
	"github.com/listenupapp/watchlist-server/internal/store"
)

// slugAttempts bounds retries when a freshly generated slug is already taken.
const slugAttempts = 5

// ItemIndexer keeps the full-text index in step with stored items.
type ItemIndexer interface {
	IndexDocument(doc *search.ItemDocument) error
	DeleteDocument(id string) error
	DeleteByList(listID string) (int, error)
}

// ListService manages lists, their members, items and ratings.
type ListService struct {
	store  store.Store
	index  ItemIndexer
	logger *slog.Logger
}

// NewListService creates a new list service. index may be nil.
func NewListService(store store.Store, index ItemIndexer, logger *slog.Logger) *ListService {
	return &ListService{
		store:  store,
		index:  index,
		logger: logger,
	}
}

// CreateListRequest contains the fields for a new list.
type CreateListRequest struct {
	Name   string `json:"name" validate:"required,notblank,min=3,max=100"`
	Public bool   `json:"public"`
}

// UpdateListRequest contains optional list updates. Nil fields are left alone.
type UpdateListRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,notblank,min=3,max=100"`
	Public *bool   `json:"public,omitempty"`
}

// RateItemRequest sets a user's rating and watched flag. Nil fields keep
// their stored value.
type RateItemRequest struct {
	Rating  *int  `json:"rating,omitempty" validate:"omitempty,gte=0,lte=10"`
	Watched *bool `json:"watched,omitempty"`
}

// ItemView is a stored item with its decoded search result and ratings.
type ItemView struct {
	Item    *domain.Item
	Result  catalog.Result
	Ratings []*domain.Rating
}

// ListView is everything a viewer sees on a list page.
type ListView struct {
	List     *domain.List
	Members  []*domain.ListMember
	Items    []ItemView
	IsOwner  bool
	IsMember bool
}

// CanEdit reports whether the viewer may change the list's items.
func (v *ListView) CanEdit() bool {
	return v.IsOwner || v.IsMember
}

// ListSummary is a list as shown in the caller's overview.
type ListSummary struct {
	List      *domain.List
	ItemCount int
	Role      string // "owner" or "member"
}

// CreateList creates a list owned by userID.
func (s *ListService) CreateList(ctx context.Context, userID string, req CreateListRequest) (*domain.List, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	listID, err := id.Generate("list")
	if err != nil {
		return nil, fmt.Errorf("generate list ID: %w", err)
	}

	now := time.Now()
	list := &domain.List{
		ID:        listID,
		Name:      strings.TrimSpace(req.Name),
		OwnerID:   userID,
		Public:    req.Public,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for attempt := 1; ; attempt++ {
		list.Slug, err = id.GenerateSlug()
		if err != nil {
			return nil, err
		}
		err = s.store.CreateList(ctx, list)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return nil, fmt.Errorf("create list: %w", err)
		}
		if attempt == slugAttempts {
			return nil, domainerrors.Internal("could not allocate a unique slug").WithCause(err)
		}
		s.logger.Debug("Slug collision, retrying", "slug", list.Slug, "attempt", attempt)
	}

	s.logger.Info("List created", "list_id", list.ID, "slug", list.Slug, "owner_id", userID)
	return list, nil
}

// GetList returns the list with slug as seen by userID. userID may be empty
// for anonymous callers. Lists the caller may not view are reported as not found.
func (s *ListService) GetList(ctx context.Context, slug, userID string) (*ListView, error) {
	list, isMember, err := s.viewableList(ctx, slug, userID)
	if err != nil {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx, list.ID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	items, err := s.store.ListItems(ctx, list.ID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	ratings, err := s.store.ListRatingsForList(ctx, list.ID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	byItem := make(map[string][]*domain.Rating, len(items))
	for _, r := range ratings {
		byItem[r.ItemID] = append(byItem[r.ItemID], r)
	}

	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		result, err := catalog.ParseListable(item.ItemJSON)
		if err != nil {
			// Stored payloads were validated on insert; skip rather than fail the page.
			s.logger.Warn("Skipping unreadable item", "item_id", item.ID, "error", err)
			continue
		}
		views = append(views, ItemView{Item: item, Result: result, Ratings: byItem[item.ID]})
	}

	return &ListView{
		List:     list,
		Members:  members,
		Items:    views,
		IsOwner:  list.IsOwner(userID),
		IsMember: isMember,
	}, nil
}

// ListMyLists returns the lists userID owns or has joined.
func (s *ListService) ListMyLists(ctx context.Context, userID string) ([]ListSummary, error) {
	lists, err := s.store.ListListsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}

	summaries := make([]ListSummary, 0, len(lists))
	for _, list := range lists {
		count, err := s.store.CountItems(ctx, list.ID)
		if err != nil {
			return nil, fmt.Errorf("count items: %w", err)
		}
		role := "member"
		if list.IsOwner(userID) {
			role = "owner"
		}
		summaries = append(summaries, ListSummary{List: list, ItemCount: count, Role: role})
	}
	return summaries, nil
}

// ListIDsForUser returns the ids of lists userID owns or has joined.
func (s *ListService) ListIDsForUser(ctx context.Context, userID string) ([]string, error) {
	lists, err := s.store.ListListsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	ids := make([]string, len(lists))
	for i, l := range lists {
		ids[i] = l.ID
	}
	return ids, nil
}

// UpdateList renames a list or changes its visibility. Owner only.
func (s *ListService) UpdateList(ctx context.Context, slug, userID string, req UpdateListRequest) (*domain.List, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	list, err := s.ownedList(ctx, slug, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		list.Name = strings.TrimSpace(*req.Name)
	}
	if req.Public != nil {
		list.Public = *req.Public
	}
	list.UpdatedAt = time.Now()

	if err := s.store.UpdateList(ctx, list); err != nil {
		return nil, fmt.Errorf("update list: %w", err)
	}

	s.logger.Info("List updated", "list_id", list.ID, "public", list.Public)
	return list, nil
}

// DeleteList removes a list with its members, items and ratings. Owner only.
func (s *ListService) DeleteList(ctx context.Context, slug, userID string) error {
	list, err := s.ownedList(ctx, slug, userID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteList(ctx, list.ID); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}

	if s.index != nil {
		if _, err := s.index.DeleteByList(list.ID); err != nil {
			s.logger.Warn("Failed to remove list from search index", "list_id", list.ID, "error", err)
		}
	}

	s.logger.Info("List deleted", "list_id", list.ID, "slug", slug)
	return nil
}

// JoinList makes userID a member of a list they can already view.
func (s *ListService) JoinList(ctx context.Context, slug, userID string) (*domain.ListMember, error) {
	list, isMember, err := s.viewableList(ctx, slug, userID)
	if err != nil {
		return nil, err
	}
	if list.IsOwner(userID) {
		return nil, domainerrors.Conflict("owners cannot join their own list")
	}
	if isMember {
		return nil, domainerrors.AlreadyExists("already a member of this list")
	}

	member := &domain.ListMember{
		ListID:    list.ID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	if err := s.store.AddListMember(ctx, member); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("already a member of this list")
		}
		return nil, fmt.Errorf("add member: %w", err)
	}

	s.logger.Info("Member joined list", "list_id", list.ID, "user_id", userID)
	return member, nil
}

// LeaveList removes userID from a list's members.
func (s *ListService) LeaveList(ctx context.Context, slug, userID string) error {
	list, isMember, err := s.viewableList(ctx, slug, userID)
	if err != nil {
		return err
	}
	if list.IsOwner(userID) {
		return domainerrors.Conflict("owners cannot leave their own list")
	}
	if !isMember {
		return domainerrors.NotFound("not a member of this list")
	}

	if err := s.store.RemoveListMember(ctx, list.ID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("not a member of this list")
		}
		return fmt.Errorf("remove member: %w", err)
	}

	s.logger.Info("Member left list", "list_id", list.ID, "user_id", userID)
	return nil
}

// AddItem stores a search result payload in a list. Only movies and TV shows
// are accepted; the item type is taken from the payload's media_type.
func (s *ListService) AddItem(ctx context.Context, slug, userID string, payload []byte) (*ItemView, error) {
	list, err := s.editableList(ctx, slug, userID)
	if err != nil {
		return nil, err
	}

	result, err := catalog.ParseListable(payload)
	if err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			return nil, domainerrors.ValidationWithDetails(verr.Error(), verr)
		}
		return nil, domainerrors.Validation(err.Error())
	}

	// The payload is kept as submitted; only whitespace is dropped.
	stored := jsontext.Value(slices.Clone(payload))
	if err := stored.Compact(); err != nil {
		return nil, domainerrors.Validation("payload is not valid JSON")
	}

	itemID, err := id.Generate("item")
	if err != nil {
		return nil, fmt.Errorf("generate item ID: %w", err)
	}

	item := &domain.Item{
		ID:        itemID,
		ListID:    list.ID,
		ItemType:  string(result.MediaType()),
		ItemJSON:  stored,
		AddedBy:   userID,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	if s.index != nil {
		if err := s.index.IndexDocument(search.NewItemDocument(item, result)); err != nil {
			s.logger.Warn("Failed to index item", "item_id", item.ID, "error", err)
		}
	}

	s.logger.Info("Item added", "list_id", list.ID, "item_id", item.ID, "type", item.ItemType, "title", result.DisplayName())
	return &ItemView{Item: item, Result: result}, nil
}

// RemoveItem deletes an item from a list.
func (s *ListService) RemoveItem(ctx context.Context, slug, userID, itemID string) error {
	list, err := s.editableList(ctx, slug, userID)
	if err != nil {
		return err
	}
	item, err := s.listItem(ctx, list, itemID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteItem(ctx, item.ID); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	if s.index != nil {
		if err := s.index.DeleteDocument(item.ID); err != nil {
			s.logger.Warn("Failed to remove item from search index", "item_id", item.ID, "error", err)
		}
	}

	s.logger.Info("Item removed", "list_id", list.ID, "item_id", item.ID)
	return nil
}

// RateItem records userID's rating and watched flag for an item.
func (s *ListService) RateItem(ctx context.Context, slug, userID, itemID string, req RateItemRequest) (*domain.Rating, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if req.Rating == nil && req.Watched == nil {
		return nil, domainerrors.Validation("rating or watched is required")
	}

	list, err := s.editableList(ctx, slug, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.listItem(ctx, list, itemID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rating, err := s.store.GetRating(ctx, item.ID, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		rating = &domain.Rating{ItemID: item.ID, UserID: userID, CreatedAt: now}
	case err != nil:
		return nil, fmt.Errorf("get rating: %w", err)
	}

	if req.Rating != nil {
		rating.Rating = *req.Rating
	}
	if req.Watched != nil {
		rating.Watched = *req.Watched
	}
	rating.UpdatedAt = now

	if err := s.store.UpsertRating(ctx, rating); err != nil {
		return nil, fmt.Errorf("save rating: %w", err)
	}
	return rating, nil
}

// === Helpers ===

// viewableList loads a list and applies the access guard.
func (s *ListService) viewableList(ctx context.Context, slug, userID string) (*domain.List, bool, error) {
	list, err := s.store.GetListBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, domainerrors.NotFound("list not found")
		}
		return nil, false, fmt.Errorf("get list: %w", err)
	}

	isMember := false
	if userID != "" && !list.IsOwner(userID) {
		isMember, err = s.store.IsListMember(ctx, list.ID, userID)
		if err != nil {
			return nil, false, fmt.Errorf("check membership: %w", err)
		}
	}

	if !domain.CanView(list, userID, isMember) {
		return nil, false, domainerrors.NotFound("list not found")
	}
	return list, isMember, nil
}

func (s *ListService) editableList(ctx context.Context, slug, userID string) (*domain.List, error) {
	list, isMember, err := s.viewableList(ctx, slug, userID)
	if err != nil {
		return nil, err
	}
	if !domain.CanEditItems(list, userID, isMember) {
		return nil, domainerrors.Forbidden("join this list to change its items")
	}
	return list, nil
}

func (s *ListService) ownedList(ctx context.Context, slug, userID string) (*domain.List, error) {
	list, _, err := s.viewableList(ctx, slug, userID)
	if err != nil {
		return nil, err
	}
	if !list.IsOwner(userID) {
		return nil, domainerrors.Forbidden("only the owner can change this list")
	}
	return list, nil
}

func (s *ListService) listItem(ctx context.Context, list *domain.List, itemID string) (*domain.Item, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("item not found")
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	if item.ListID != list.ID {
		return nil, domainerrors.NotFound("item not found")
	}
	return item, nil
}
