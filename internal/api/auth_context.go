package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/watchlist-server/internal/auth"
	"github.com/listenupapp/watchlist-server/internal/domain"
	domainerrors "github.com/listenupapp/watchlist-server/internal/errors"
	"github.com/listenupapp/watchlist-server/internal/http/response"
	"github.com/listenupapp/watchlist-server/internal/service"
)

// credentialPaths ignore the Authorization header. Callers reach them while
// still holding a stale access token.
var credentialPaths = map[string]bool{
	"/api/v1/auth/join":    true,
	"/api/v1/auth/login":   true,
	"/api/v1/auth/refresh": true,
}

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// userIDKey is the context key for the authenticated user ID.
const userIDKey ctxKey = "userID"

// GetUserID returns the authenticated user ID from context.
// Returns 401 error if user is not authenticated.
func GetUserID(ctx context.Context) (string, error) {
	userID := OptionalUserID(ctx)
	if userID == "" {
		return "", huma.Error401Unauthorized("Authentication required")
	}
	return userID, nil
}

// OptionalUserID returns the authenticated user ID, or "" for anonymous callers.
func OptionalUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// setUserID stores the user ID in context.
func setUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// authMiddleware returns a middleware that validates Bearer tokens and stores user ID in context.
// Requests without a token continue anonymously; handlers use GetUserID to
// require authentication. A token that fails verification is rejected with
// 401, coded TOKEN_EXPIRED or UNAUTHORIZED.
func authMiddleware(authService *service.AuthService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || credentialPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			user, _, err := authService.VerifyAccessToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					response.Unauthorized(w, domainerrors.CodeTokenExpired, "Access token expired", logger)
					return
				}
				response.Unauthorized(w, domainerrors.CodeUnauthorized, "Invalid access token", logger)
				return
			}

			ctx := setUserID(r.Context(), user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser returns the authenticated user from context, fetching from store.
// Returns 401 if not authenticated, 401 if user not found.
func (s *Server) RequireUser(ctx context.Context) (*domain.User, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, huma.Error401Unauthorized("User not found")
	}

	return user, nil
}
