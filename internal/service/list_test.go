package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/watchlist-server/internal/catalog"
	domainerrors "github.com/listenupapp/watchlist-server/internal/errors"
	"github.com/listenupapp/watchlist-server/internal/search"
)

func TestListService_CreateList(t *testing.T) {
	env := setupServices(t)
	owner := env.join(t, "ada")

	list, err := env.lists.CreateList(context.Background(), owner.ID, CreateListRequest{Name: "  Friday Films  ", Public: true})
	require.NoError(t, err)

	assert.Equal(t, "Friday Films", list.Name)
	assert.Len(t, list.Slug, 4)
	assert.True(t, list.Public)
	assert.Equal(t, owner.ID, list.OwnerID)
}

func TestListService_CreateList_Validation(t *testing.T) {
	env := setupServices(t)
	owner := env.join(t, "ada")

	for _, name := range []string{"", "   ", "ab", strings.Repeat("a", 101)} {
		_, err := env.lists.CreateList(context.Background(), owner.ID, CreateListRequest{Name: name})
		assertCode(t, err, domainerrors.CodeValidation)
	}
}

func TestListService_GetList_Visibility(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	owner := env.join(t, "ada")
	stranger := env.join(t, "bob")

	public := env.createList(t, owner, "Public picks", true)
	private := env.createList(t, owner, "Secret picks", false)

	tests := []struct {
		name    string
		slug    string
		userID  string
		visible bool
	}{
		{"public anonymous", public.Slug, "", true},
		{"public stranger", public.Slug, stranger.ID, true},
		{"private owner", private.Slug, owner.ID, true},
		{"private stranger", private.Slug, stranger.ID, false},
		{"private anonymous", private.Slug, "", false},
		{"unknown slug", "zzzz", owner.ID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := env.lists.GetList(ctx, tt.slug, tt.userID)
			if tt.visible {
				require.NoError(t, err)
				assert.Equal(t, tt.slug, view.List.Slug)
				return
			}
			assertCode(t, err, domainerrors.CodeNotFound)
		})
	}
}

func TestListService_JoinList(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	owner := env.join(t, "ada")
	friend := env.join(t, "bob")
	public := env.createList(t, owner, "Public picks", true)
	private := env.createList(t, owner, "Secret picks", false)

	member, err := env.lists.JoinList(ctx, public.Slug, friend.ID)
	require.NoError(t, err)
	assert.Equal(t, public.ID, member.ListID)

	_, err = env.lists.JoinList(ctx, public.Slug, friend.ID)
	assertCode(t, err, domainerrors.CodeAlreadyExists)

	_, err = env.lists.JoinList(ctx, public.Slug, owner.ID)
	assertCode(t, err, domainerrors.CodeConflict)

	// A private list cannot be joined from outside.
	_, err = env.lists.JoinList(ctx, private.Slug, friend.ID)
	assertCode(t, err, domainerrors.CodeNotFound)

	view, err := env.lists.GetList(ctx, public.Slug, friend.ID)
	require.NoError(t, err)
	assert.True(t, view.IsMember)
	assert.False(t, view.IsOwner)
	assert.True(t, view.CanEdit())
	require.Len(t, view.Members, 1)
	assert.Equal(t, friend.ID, view.Members[0].UserID)
}

func TestListService_MemberSeesPrivateList(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	owner := env.join(t, "ada")
	friend := env.join(t, "bob")
	list := env.createList(t, owner, "Secret picks", true)

	_, err := env.lists.JoinList(ctx, list.Slug, friend.ID)
	require.NoError(t, err)

	_, err = env.lists.UpdateList(ctx, list.Slug, owner.ID, UpdateListRequest{Public: ptr(false)})
	require.NoError(t, err)

	_, err = env.lists.GetList(ctx, list.Slug, friend.ID)
	assert.NoError(t, err)
}

func TestListService_LeaveList(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	owner := env.join(t, "ada")
	friend := env.join(t, "bob")
	list := env.createList(t, owner, "Public picks", true)

	err := env.lists.LeaveList(ctx, list.Slug, friend.ID)
	assertCode(t, err, domainerrors.CodeNotFound)

	_, err = env.lists.JoinList(ctx, list.Slug, friend.ID)
	require.NoError(t, err)
	require.NoError(t, env.lists.LeaveList(ctx, list.Slug, friend.ID))

	err = env.lists.LeaveList(ctx, list.Slug, owner.ID)
	assertCode(t, err, domainerrors.CodeConflict)
}

func TestListService_UpdateList(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	owner := env.join(t, "ada")
	stranger := env.join(t, "bob")
	list := env.createList(t, owner, "Friday Films", false)

	updated, err := env.lists.UpdateList(ctx, list.Slug, owner.ID, UpdateListRequest{Name: ptr("Saturday Films"), Public: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "Saturday Films", updated.Name)
	assert.True(t, updated.Public)
	assert.Equal(t, list.Slug, updated.Slug)

	// Now public, so the stranger can see it but not change it.
	_, err = env.lists.UpdateList(ctx, list.Slug, stranger.ID, UpdateListRequest{Name: ptr("Mine now")})
	assertCode(t, err, domainerrors.CodeForbidden)

	_, err = env.lists.UpdateList(ctx, list.Slug, owner.ID, UpdateListRequest{Name: ptr("x")})
	assertCode(t, err, domainerrors.CodeValidation)
}

func TestListService_DeleteList(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	owner := env.join(t, "ada")
	stranger := env.join(t, "bob")
	list := env.createList(t, owner, "Friday Films", false)

	_, err := env.lists.AddItem(ctx, list.Slug, owner.ID, []byte(matrixJSON))
	require.NoError(t, err)

	err = env.lists.DeleteList(ctx, list.Slug, stranger.ID)
	assertCode(t, err, domainerrors.CodeNotFound)

	require.NoError(t, env.lists.DeleteList(ctx, list.Slug, owner.ID))

	_, err = env.lists.GetList(ctx, list.Slug, owner.ID)
	assertCode(t, err, domainerrors.CodeNotFound)

	count, err := env.index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListService_AddItem(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	owner := env.join(t, "ada")
	list := env.createList(t, owner, "Friday Films", false)

	movie, err := env.lists.AddItem(ctx, list.Slug, owner.ID, []byte(matrixJSON))
	require.NoError(t, err)
	assert.Equal(t, "movie", movie.Item.ItemType)
	assert.Equal(t, "The Matrix", movie.Result.DisplayName())

	show, err := env.lists.AddItem(ctx, list.Slug, owner.ID, []byte(severanceJSON))
	require.NoError(t, err)
	assert.Equal(t, "tv", show.Item.ItemType)

	view, err := env.lists.GetList(ctx, list.Slug, owner.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	for _, item := range view.Items {
		assert.Equal(t, item.Item.ItemType, string(item.Result.MediaType()))
	}

	res, err := env.index.Search(ctx, search.Params{Query: "matrix", ListIDs: []string{list.ID}})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, movie.Item.ID, res.Hits[0].ID)
}

func TestListService_AddItem_KeepsSubmittedFields(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	owner := env.join(t, "ada")
	list := env.createList(t, owner, "Friday Films", false)

	payload := `{
		"media_type": "movie", "id": 603, "title": "The Matrix", "overview": "A hacker learns the truth.",
		"popularity": 80.5, "vote_count": 25000, "vote_average": 8.2,
		"video": false, "genre_ids": [28, 878]
	}`
	added, err := env.lists.AddItem(ctx, list.Slug, owner.ID, []byte(payload))
	require.NoError(t, err)

	stored, err := env.store.GetItem(ctx, added.Item.ID)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(stored.ItemJSON))
	assert.NotContains(t, string(stored.ItemJSON), "\n", "whitespace is compacted")
	assert.NotContains(t, string(stored.ItemJSON), "\t")
}

func TestListService_AddItem_RejectsInvalidPayloads(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	owner := env.join(t, "ada")
	list := env.createList(t, owner, "Friday Films", false)

	tests := []struct {
		name    string
		payload string
	}{
		{"person", personJSON},
		{"missing title", `{"media_type":"movie","id":1,"overview":"","popularity":1,"vote_count":1,"vote_average":1}`},
		{"unknown type", `{"media_type":"podcast","id":1}`},
		{"not json", `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.lists.AddItem(ctx, list.Slug, owner.ID, []byte(tt.payload))
			assertCode(t, err, domainerrors.CodeValidation)
		})
	}
}

func TestListService_AddItem_RequiresMembership(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	owner := env.join(t, "ada")
	stranger := env.join(t, "bob")
	public := env.createList(t, owner, "Public picks", true)
	private := env.createList(t, owner, "Secret picks", false)

	_, err := env.lists.AddItem(ctx, public.Slug, stranger.ID, []byte(matrixJSON))
	assertCode(t, err, domainerrors.CodeForbidden)

	_, err = env.lists.AddItem(ctx, private.Slug, stranger.ID, []byte(matrixJSON))
	assertCode(t, err, domainerrors.CodeNotFound)

	_, err = env.lists.JoinList(ctx, public.Slug, stranger.ID)
	require.NoError(t, err)
	_, err = env.lists.AddItem(ctx, public.Slug, stranger.ID, []byte(matrixJSON))
	assert.NoError(t, err)
}

func TestListService_RemoveItem(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	owner := env.join(t, "ada")
	list := env.createList(t, owner, "Friday Films", false)
	other := env.createList(t, owner, "Other Films", false)

	item, err := env.lists.AddItem(ctx, list.Slug, owner.ID, []byte(matrixJSON))
	require.NoError(t, err)

	// The item belongs to a different list.
	err = env.lists.RemoveItem(ctx, other.Slug, owner.ID, item.Item.ID)
	assertCode(t, err, domainerrors.CodeNotFound)

	require.NoError(t, env.lists.RemoveItem(ctx, list.Slug, owner.ID, item.Item.ID))

	err = env.lists.RemoveItem(ctx, list.Slug, owner.ID, item.Item.ID)
	assertCode(t, err, domainerrors.CodeNotFound)

	count, err := env.index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListService_RateItem(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	owner := env.join(t, "ada")
	list := env.createList(t, owner, "Friday Films", false)

	item, err := env.lists.AddItem(ctx, list.Slug, owner.ID, []byte(matrixJSON))
	require.NoError(t, err)

	rating, err := env.lists.RateItem(ctx, list.Slug, owner.ID, item.Item.ID, RateItemRequest{Rating: ptr(8)})
	require.NoError(t, err)
	assert.Equal(t, 8, rating.Rating)
	assert.False(t, rating.Watched)

	// Watched alone keeps the earlier score.
	rating, err = env.lists.RateItem(ctx, list.Slug, owner.ID, item.Item.ID, RateItemRequest{Watched: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 8, rating.Rating)
	assert.True(t, rating.Watched)

	view, err := env.lists.GetList(ctx, list.Slug, owner.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Len(t, view.Items[0].Ratings, 1)
	assert.Equal(t, 8, view.Items[0].Ratings[0].Rating)
}

func TestListService_RateItem_Validation(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	owner := env.join(t, "ada")
	list := env.createList(t, owner, "Friday Films", false)
	item, err := env.lists.AddItem(ctx, list.Slug, owner.ID, []byte(matrixJSON))
	require.NoError(t, err)

	for _, req := range []RateItemRequest{{Rating: ptr(11)}, {Rating: ptr(-1)}, {}} {
		_, err := env.lists.RateItem(ctx, list.Slug, owner.ID, item.Item.ID, req)
		assertCode(t, err, domainerrors.CodeValidation)
	}
}

func TestListService_ListMyLists(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	owner := env.join(t, "ada")
	friend := env.join(t, "bob")

	mine := env.createList(t, owner, "Friday Films", false)
	theirs := env.createList(t, friend, "Bob's Shows", true)
	_ = env.createList(t, friend, "Bob's Secrets", false)

	_, err := env.lists.AddItem(ctx, mine.Slug, owner.ID, []byte(matrixJSON))
	require.NoError(t, err)
	_, err = env.lists.JoinList(ctx, theirs.Slug, owner.ID)
	require.NoError(t, err)

	summaries, err := env.lists.ListMyLists(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	roles := map[string]ListSummary{}
	for _, s := range summaries {
		roles[s.List.Slug] = s
	}
	assert.Equal(t, "owner", roles[mine.Slug].Role)
	assert.Equal(t, 1, roles[mine.Slug].ItemCount)
	assert.Equal(t, "member", roles[theirs.Slug].Role)

	ids, err := env.lists.ListIDsForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{mine.ID, theirs.ID}, ids)
}

func TestListService_NilIndex(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	lists := NewListService(env.store, nil, env.logger)
	owner := env.join(t, "ada")

	list, err := lists.CreateList(ctx, owner.ID, CreateListRequest{Name: "No Index"})
	require.NoError(t, err)
	item, err := lists.AddItem(ctx, list.Slug, owner.ID, []byte(severanceJSON))
	require.NoError(t, err)
	assert.Equal(t, catalog.MediaTV, item.Result.MediaType())
	require.NoError(t, lists.RemoveItem(ctx, list.Slug, owner.ID, item.Item.ID))
	require.NoError(t, lists.DeleteList(ctx, list.Slug, owner.ID))
}
