package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/watchlist-server/internal/domain"
	"github.com/listenupapp/watchlist-server/internal/service"
)

func (s *Server) registerListRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listMyLists",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists",
		Summary:     "List my lists",
		Description: "Returns the lists the caller owns or has joined",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMyLists)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createList",
		Method:        http.MethodPost,
		Path:          "/api/v1/lists",
		Summary:       "Create list",
		Description:   "Creates a list owned by the caller. The slug is generated and never changes.",
		Tags:          []string{"Lists"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateList)

	huma.Register(s.api, huma.Operation{
		OperationID: "getList",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists/{slug}",
		Summary:     "Get list",
		Description: "Returns a list with its members, items and ratings. Private lists are only visible to the owner and members; anyone else gets 404.",
		Tags:        []string{"Lists"},
	}, s.handleGetList)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateList",
		Method:      http.MethodPatch,
		Path:        "/api/v1/lists/{slug}",
		Summary:     "Update list",
		Description: "Renames a list or changes its visibility. Owner only.",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateList)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteList",
		Method:      http.MethodDelete,
		Path:        "/api/v1/lists/{slug}",
		Summary:     "Delete list",
		Description: "Deletes a list with its items, ratings and memberships. Owner only.",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteList)

	huma.Register(s.api, huma.Operation{
		OperationID:   "joinList",
		Method:        http.MethodPost,
		Path:          "/api/v1/lists/{slug}/members",
		Summary:       "Join list",
		Description:   "Makes the caller a member of a list they can view",
		Tags:          []string{"Members"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleJoinList)

	huma.Register(s.api, huma.Operation{
		OperationID: "leaveList",
		Method:      http.MethodDelete,
		Path:        "/api/v1/lists/{slug}/members/me",
		Summary:     "Leave list",
		Description: "Removes the caller from a list's members",
		Tags:        []string{"Members"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLeaveList)
}

// === DTOs ===

// ListResponse is a list without its contents.
type ListResponse struct {
	ID        string    `json:"id" doc:"List ID"`
	Slug      string    `json:"slug" doc:"Public identifier used in URLs"`
	Name      string    `json:"name" doc:"List name"`
	OwnerID   string    `json:"owner_id" doc:"Owner user ID"`
	Public    bool      `json:"public" doc:"Whether anyone can view the list"`
	CreatedAt time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update timestamp"`
}

// ListSummaryResponse is a list in the caller's overview.
type ListSummaryResponse struct {
	ListResponse
	ItemCount int    `json:"item_count" doc:"Number of items"`
	Role      string `json:"role" enum:"owner,member" doc:"Caller's role in the list"`
}

// MemberResponse is a list member.
type MemberResponse struct {
	UserID   string    `json:"user_id" doc:"Member user ID"`
	Username string    `json:"username,omitempty" doc:"Member username"`
	JoinedAt time.Time `json:"joined_at" doc:"When the member joined"`
}

// ListDetailResponse is a list as seen by one viewer.
type ListDetailResponse struct {
	List     ListResponse     `json:"list" doc:"The list"`
	Members  []MemberResponse `json:"members" doc:"Members other than the owner"`
	Items    []ItemResponse   `json:"items" doc:"Items in the order they were added"`
	IsOwner  bool             `json:"is_owner" doc:"Caller owns the list"`
	IsMember bool             `json:"is_member" doc:"Caller is a member"`
	CanEdit  bool             `json:"can_edit" doc:"Caller may add, remove and rate items"`
}

// SlugInput identifies a list by slug.
type SlugInput struct {
	Slug string `path:"slug" minLength:"1" maxLength:"32" doc:"List slug"`
}

// ListsOutput wraps the caller's lists for Huma.
type ListsOutput struct {
	Body struct {
		Lists []ListSummaryResponse `json:"lists" doc:"Lists owned or joined"`
	}
}

// CreateListInput wraps the create request for Huma.
type CreateListInput struct {
	Body struct {
		Name   string `json:"name" maxLength:"100" doc:"List name (3-100 characters)"`
		Public bool   `json:"public,omitempty" required:"false" doc:"Visible to everyone"`
	}
}

// UpdateListInput wraps the update request for Huma.
type UpdateListInput struct {
	Slug string `path:"slug" minLength:"1" maxLength:"32" doc:"List slug"`
	Body struct {
		Name   *string `json:"name,omitempty" required:"false" maxLength:"100" doc:"New name"`
		Public *bool   `json:"public,omitempty" required:"false" doc:"New visibility"`
	}
}

// ListOutput wraps a list for Huma.
type ListOutput struct {
	Body ListResponse
}

// ListDetailOutput wraps a list view for Huma.
type ListDetailOutput struct {
	Body ListDetailResponse
}

// MemberOutput wraps a membership for Huma.
type MemberOutput struct {
	Body MemberResponse
}

// === Handlers ===

func (s *Server) handleListMyLists(ctx context.Context, _ *struct{}) (*ListsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	summaries, err := s.services.Lists.ListMyLists(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &ListsOutput{}
	out.Body.Lists = make([]ListSummaryResponse, len(summaries))
	for i, sum := range summaries {
		out.Body.Lists[i] = ListSummaryResponse{
			ListResponse: mapList(sum.List),
			ItemCount:    sum.ItemCount,
			Role:         sum.Role,
		}
	}
	return out, nil
}

func (s *Server) handleCreateList(ctx context.Context, input *CreateListInput) (*ListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.services.Lists.CreateList(ctx, userID, service.CreateListRequest{
		Name:   input.Body.Name,
		Public: input.Body.Public,
	})
	if err != nil {
		return nil, err
	}
	return &ListOutput{Body: mapList(list)}, nil
}

func (s *Server) handleGetList(ctx context.Context, input *SlugInput) (*ListDetailOutput, error) {
	view, err := s.services.Lists.GetList(ctx, input.Slug, OptionalUserID(ctx))
	if err != nil {
		return nil, err
	}

	resp := ListDetailResponse{
		List:     mapList(view.List),
		Members:  make([]MemberResponse, len(view.Members)),
		Items:    make([]ItemResponse, len(view.Items)),
		IsOwner:  view.IsOwner,
		IsMember: view.IsMember,
		CanEdit:  view.CanEdit(),
	}
	for i, m := range view.Members {
		resp.Members[i] = mapMember(m)
	}
	for i, item := range view.Items {
		resp.Items[i] = mapItem(item)
	}
	return &ListDetailOutput{Body: resp}, nil
}

func (s *Server) handleUpdateList(ctx context.Context, input *UpdateListInput) (*ListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.services.Lists.UpdateList(ctx, input.Slug, userID, service.UpdateListRequest{
		Name:   input.Body.Name,
		Public: input.Body.Public,
	})
	if err != nil {
		return nil, err
	}
	return &ListOutput{Body: mapList(list)}, nil
}

func (s *Server) handleDeleteList(ctx context.Context, input *SlugInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Lists.DeleteList(ctx, input.Slug, userID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "List deleted"}}, nil
}

func (s *Server) handleJoinList(ctx context.Context, input *SlugInput) (*MemberOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	member, err := s.services.Lists.JoinList(ctx, input.Slug, user.ID)
	if err != nil {
		return nil, err
	}
	member.Username = user.Username
	return &MemberOutput{Body: mapMember(member)}, nil
}

func (s *Server) handleLeaveList(ctx context.Context, input *SlugInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Lists.LeaveList(ctx, input.Slug, userID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Left list"}}, nil
}

// === Helpers ===

func mapList(l *domain.List) ListResponse {
	return ListResponse{
		ID:        l.ID,
		Slug:      l.Slug,
		Name:      l.Name,
		OwnerID:   l.OwnerID,
		Public:    l.Public,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func mapMember(m *domain.ListMember) MemberResponse {
	return MemberResponse{
		UserID:   m.UserID,
		Username: m.Username,
		JoinedAt: m.CreatedAt,
	}
}
