package api

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/watchlist-server/internal/auth"
	"github.com/listenupapp/watchlist-server/internal/domain"
)

func TestJoin_Success(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/join", map[string]any{
		"email":    "alice@example.com",
		"username": "alice",
		"password": "password123",
		"device_info": map[string]any{
			"device_type": "mobile",
			"platform":    "iOS",
		},
	})

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.NotEmpty(t, envelope.Data.RefreshToken)
	assert.NotEmpty(t, envelope.Data.SessionID)
	assert.Equal(t, "Bearer", envelope.Data.TokenType)
	assert.Equal(t, "alice@example.com", envelope.Data.User.Email)
	assert.Equal(t, "alice", envelope.Data.User.Username)
	assert.Positive(t, envelope.Data.ExpiresIn)
}

func TestJoin_Duplicate(t *testing.T) {
	ts := setupTestServer(t)
	ts.createUser(t, "alice")

	resp := ts.api.Post("/api/v1/auth/join", map[string]any{
		"email":    "alice@example.com",
		"username": "alice2",
		"password": "password123",
	})

	assert.Equal(t, http.StatusConflict, resp.Code)

	var envelope testEnvelope[any]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "ALREADY_EXISTS", envelope.Code)
}

func TestJoin_ValidationErrors(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{
			name:       "missing email",
			body:       map[string]any{"username": "alice", "password": "password123"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "missing password",
			body:       map[string]any{"email": "alice@example.com", "username": "alice"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "invalid email",
			body:       map[string]any{"email": "not-an-email", "username": "alice", "password": "password123"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "short password",
			body:       map[string]any{"email": "alice@example.com", "username": "alice", "password": "short"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad username",
			body:       map[string]any{"email": "alice@example.com", "username": "a b", "password": "password123"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/auth/join", tt.body)
			assert.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())

			var envelope testEnvelope[any]
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
			assert.False(t, envelope.Success)
			assert.Equal(t, "VALIDATION", envelope.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	ts := setupTestServer(t)
	ts.createUser(t, "alice")

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{"by email", map[string]any{"email": "alice@example.com", "password": "password123"}, http.StatusOK},
		{"by username", map[string]any{"username": "alice", "password": "password123"}, http.StatusOK},
		{"wrong password", map[string]any{"email": "alice@example.com", "password": "wrong-password"}, http.StatusUnauthorized},
		{"unknown user", map[string]any{"username": "nobody", "password": "password123"}, http.StatusUnauthorized},
		{"no identifier", map[string]any{"password": "password123"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/auth/login", tt.body)
			assert.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
		})
	}
}

func TestLogin_InvalidCredentialsCode(t *testing.T) {
	ts := setupTestServer(t)
	ts.createUser(t, "alice")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	var envelope testEnvelope[any]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "INVALID_CREDENTIALS", envelope.Code)
	assert.Equal(t, "invalid credentials", envelope.Error)
}

func TestRefresh_RotatesToken(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/join", map[string]any{
		"email":    "alice@example.com",
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	var joined testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &joined))

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": joined.Data.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var refreshed testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &refreshed))
	assert.NotEqual(t, joined.Data.RefreshToken, refreshed.Data.RefreshToken)
	assert.Equal(t, joined.Data.SessionID, refreshed.Data.SessionID)

	// The old token is spent.
	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": joined.Data.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogout(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/join", map[string]any{
		"email":    "alice@example.com",
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	var joined testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &joined))
	token := joined.Data.AccessToken

	t.Run("requires auth", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/logout", map[string]any{"session_id": joined.Data.SessionID})
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/logout", bearer(token), map[string]any{"session_id": "session-missing"})
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("revokes session", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/logout", bearer(token), map[string]any{"session_id": joined.Data.SessionID})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{"refresh_token": joined.Data.RefreshToken})
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestGetCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	userID, token := ts.createUser(t, "alice")

	resp := ts.api.Get("/api/v1/users/me", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, userID, envelope.Data.ID)
	assert.Equal(t, "alice", envelope.Data.Username)

	t.Run("anonymous", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/users/me")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/users/me", bearer("v4.local.garbage"))
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestListMySessions(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.createUser(t, "alice")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{"username": "alice", "password": "password123"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/users/me/sessions", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[struct {
		Sessions []SessionResponse `json:"sessions"`
	}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Sessions, 2)
}

func TestAuthMiddleware_RejectsBadTokens(t *testing.T) {
	ts := setupTestServer(t)
	ownerID, token := ts.createUser(t, "alice")
	slug := ts.createList(t, token, "Private picks", false)

	resp := ts.api.Get("/api/v1/lists/"+slug, bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	t.Run("tampered token on private list", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/lists/"+slug, bearer(token+"x"))
		require.Equal(t, http.StatusUnauthorized, resp.Code, resp.Body.String())

		var envelope testEnvelope[any]
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
		assert.False(t, envelope.Success)
		assert.Equal(t, "UNAUTHORIZED", envelope.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		shortLived, err := auth.NewTokenService(hex.EncodeToString(ts.authKey), time.Nanosecond, time.Hour)
		require.NoError(t, err)
		expired, err := shortLived.GenerateAccessToken(&domain.User{ID: ownerID, Username: "alice"})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)

		resp := ts.api.Get("/api/v1/lists/"+slug, bearer(expired))
		require.Equal(t, http.StatusUnauthorized, resp.Code, resp.Body.String())

		var envelope testEnvelope[any]
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
		assert.Equal(t, "TOKEN_EXPIRED", envelope.Code)
	})

	t.Run("no token stays anonymous", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/lists/" + slug)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("credential endpoints ignore stale tokens", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/login", bearer(token+"x"), map[string]any{
			"username": "alice",
			"password": "password123",
		})
		assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	})
}
