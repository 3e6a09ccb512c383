package service

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/watchlist-server/internal/auth"
	"github.com/listenupapp/watchlist-server/internal/domain"
	"github.com/listenupapp/watchlist-server/internal/search"
	"github.com/listenupapp/watchlist-server/internal/store/sqlite"
)

const (
	matrixJSON    = `{"media_type":"movie","id":603,"title":"The Matrix","overview":"A hacker learns the truth.","poster_path":null,"backdrop_path":null,"release_date":"1999-03-31","popularity":80.5,"vote_count":25000,"vote_average":8.2}`
	severanceJSON = `{"media_type":"tv","id":95396,"name":"Severance","overview":"Office workers split their memories.","poster_path":"/s.jpg","backdrop_path":null,"first_air_date":"2022-02-17","popularity":120,"vote_count":3000,"vote_average":8.4}`
	personJSON    = `{"media_type":"person","id":6384,"name":"Keanu Reeves","popularity":50}`
)

type testEnv struct {
	store    *sqlite.Store
	index    *search.SearchIndex
	tokens   *auth.TokenService
	sessions *SessionService
	auth     *AuthService
	lists    *ListService
	logger   *slog.Logger
}

// setupServices wires the services over a temporary database and index.
func setupServices(t *testing.T) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	index, err := search.NewSearchIndex(search.Options{DataPath: filepath.Join(tmpDir, "search"), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(hex.EncodeToString(authKey), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	sessionService := NewSessionService(s, tokenService, logger)

	return &testEnv{
		store:    s,
		index:    index,
		tokens:   tokenService,
		sessions: sessionService,
		auth:     NewAuthService(s, tokenService, sessionService, logger),
		lists:    NewListService(s, index, logger),
		logger:   logger,
	}
}

// join registers a user and returns it.
func (e *testEnv) join(t *testing.T, username string) *domain.User {
	t.Helper()
	resp, err := e.auth.Join(context.Background(), JoinRequest{
		Email:    username + "@example.com",
		Username: username,
		Password: "password123",
	})
	require.NoError(t, err)
	return resp.User
}

// createList creates a list owned by owner.
func (e *testEnv) createList(t *testing.T, owner *domain.User, name string, public bool) *domain.List {
	t.Helper()
	list, err := e.lists.CreateList(context.Background(), owner.ID, CreateListRequest{Name: name, Public: public})
	require.NoError(t, err)
	return list
}

func ptr[T any](v T) *T { return &v }
