package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"encoding/json/jsontext"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/watchlist-server/internal/auth"
	"github.com/listenupapp/watchlist-server/internal/cache"
	"github.com/listenupapp/watchlist-server/internal/metadata/tmdb"
	"github.com/listenupapp/watchlist-server/internal/metrics"
	"github.com/listenupapp/watchlist-server/internal/search"
	"github.com/listenupapp/watchlist-server/internal/service"
	"github.com/listenupapp/watchlist-server/internal/store/sqlite"
)

const (
	matrixJSON    = `{"media_type":"movie","id":603,"title":"The Matrix","overview":"A hacker learns the truth.","poster_path":null,"backdrop_path":null,"release_date":"1999-03-31","popularity":80.5,"vote_count":25000,"vote_average":8.2}`
	severanceJSON = `{"media_type":"tv","id":95396,"name":"Severance","overview":"Office workers split their memories.","poster_path":"/s.jpg","backdrop_path":null,"first_air_date":"2022-02-17","popularity":120,"vote_count":3000,"vote_average":8.4}`
	personJSON    = `{"media_type":"person","id":6384,"name":"Keanu Reeves","popularity":50}`
)

// testEnvelope decodes the response envelope around a payload of type T.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// fakeCatalog serves canned multi-search results.
type fakeCatalog struct {
	mu      sync.Mutex
	calls   int
	results []string
	err     error
}

func (f *fakeCatalog) SearchMulti(_ context.Context, _ string, page int) (*tmdb.SearchPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	raws := make([]jsontext.Value, len(f.results))
	for i, r := range f.results {
		raws[i] = jsontext.Value(r)
	}
	return &tmdb.SearchPage{Page: page, TotalPages: 3, TotalResults: 42, Results: raws}, nil
}

type testServer struct {
	*Server
	api      humatest.TestAPI
	services *Services
	catalog  *fakeCatalog
	registry *prometheus.Registry
	authKey  []byte
}

// setupTestServer creates a server over a temporary database, index and
// in-memory cache.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWithConfig(t, Config{AuthRatePerMinute: 600, AuthRateBurst: 100})
}

func setupTestServerWithConfig(t *testing.T, cfg Config) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{DataPath: filepath.Join(tmpDir, "search"), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	c, err := cache.Open(cache.Options{InMemory: true, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokenService, err := auth.NewTokenService(hex.EncodeToString(authKey), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	m := metrics.NewMetrics()
	registry := prometheus.NewRegistry()
	require.NoError(t, m.Register(registry))

	fake := &fakeCatalog{}
	sessionService := service.NewSessionService(st, tokenService, logger)
	services := &Services{
		Auth:     service.NewAuthService(st, tokenService, sessionService, logger),
		Sessions: sessionService,
		Lists:    service.NewListService(st, index, logger),
		Search: service.NewSearchService(service.SearchServiceOptions{
			Catalog:  fake,
			Cache:    c,
			CacheTTL: time.Hour,
			Index:    index,
			Store:    st,
			Metrics:  m,
			Logger:   logger,
		}),
	}

	if cfg.Name == "" {
		cfg.Name = "Watchlist Test"
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	cfg.Gatherer = registry

	server := NewServer(st, services, cfg, m, logger)
	t.Cleanup(server.Close)

	return &testServer{
		Server:   server,
		api:      humatest.Wrap(t, server.API()),
		services: services,
		catalog:  fake,
		registry: registry,
		authKey:  authKey,
	}
}

// createUser registers a user through the service layer and returns an access token.
func (ts *testServer) createUser(t *testing.T, username string) (userID, token string) {
	t.Helper()
	resp, err := ts.services.Auth.Join(context.Background(), service.JoinRequest{
		Email:    username + "@example.com",
		Username: username,
		Password: "password123",
	})
	require.NoError(t, err)
	return resp.User.ID, resp.AccessToken
}

// createList creates a list over HTTP and returns its slug.
func (ts *testServer) createList(t *testing.T, token, name string, public bool) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/lists", "Authorization: Bearer "+token, map[string]any{
		"name":   name,
		"public": public,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var envelope testEnvelope[ListResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data.Slug
}

// addItem adds payload to the list and returns the new item.
func (ts *testServer) addItem(t *testing.T, token, slug, payload string) ItemResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/lists/"+slug+"/items",
		"Authorization: Bearer "+token,
		"Content-Type: application/json",
		strings.NewReader(payload),
	)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var envelope testEnvelope[ItemResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

func TestServer_RequestIDHeader(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.NotEmpty(t, resp.Header().Get(RequestIDHeader))

	const incoming = "5f0c6f4e-1d5a-4f43-9f6e-6a1f1f7d2b11"
	resp = ts.api.Get("/health", RequestIDHeader+": "+incoming)
	assert.Equal(t, incoming, resp.Header().Get(RequestIDHeader))

	resp = ts.api.Get("/health", RequestIDHeader+": not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", resp.Header().Get(RequestIDHeader))
}

func TestServer_MetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	ts.api.Get("/health")

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "watchlist_http_requests_total")
}

func TestServer_OpenAPIDocument(t *testing.T) {
	ts := setupTestServer(t)

	doc := ts.API().OpenAPI()
	require.NotNil(t, doc)
	assert.Equal(t, "Watchlist Test API", doc.Info.Title)
	for _, path := range []string{
		"/api/v1/auth/join",
		"/api/v1/lists/{slug}",
		"/api/v1/lists/{slug}/items/{itemId}/rating",
		"/api/v1/search",
	} {
		assert.Contains(t, doc.Paths, path)
	}
}

func TestServer_CORS(t *testing.T) {
	ts := setupTestServerWithConfig(t, Config{CORSOrigins: []string{"https://watch.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/lists", nil)
	req.Header.Set("Origin", "https://watch.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, "https://watch.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_UnknownRouteUsesEnvelope(t *testing.T) {
	ts := setupTestServer(t)

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var env testEnvelope[any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
}
