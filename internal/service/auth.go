package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/listenupapp/watchlist-server/internal/auth"
	"github.com/listenupapp/watchlist-server/internal/domain"
	domainerrors "github.com/listenupapp/watchlist-server/internal/errors"
	"github.com/listenupapp/watchlist-server/internal/id"
	"github.com/listenupapp/watchlist-server/internal/store"
)

// defaultDevice is recorded for sessions whose client sent no device info.
var defaultDevice = auth.DeviceInfo{
	DeviceType:    "web",
	Platform:      "Web",
	ClientName:    "Watchlist Web",
	ClientVersion: "1.0.0",
}

// AuthService handles accounts and authentication. Session management is
// delegated to SessionService.
type AuthService struct {
	store          store.Store
	tokenService   *auth.TokenService
	sessionService *SessionService
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:          store,
		tokenService:   tokenService,
		sessionService: sessionService,
		logger:         logger,
	}
}

// JoinRequest contains the data for creating an account.
type JoinRequest struct {
	Email      string          `json:"email" validate:"required,email,max=254"`
	Username   string          `json:"username" validate:"required,min=3,max=32,username"`
	Password   string          `json:"password" validate:"required,min=8,max=1024"`
	DeviceInfo auth.DeviceInfo `json:"device_info"`
	IPAddress  string          `json:"-"` // Extracted from request by handler
}

// LoginRequest contains user credentials. Either email or username identifies the account.
type LoginRequest struct {
	Email      string          `json:"email,omitempty" validate:"required_without=Username,omitempty,email"`
	Username   string          `json:"username,omitempty" validate:"required_without=Email"`
	Password   string          `json:"password" validate:"required,max=1024"`
	DeviceInfo auth.DeviceInfo `json:"device_info"`
	IPAddress  string          `json:"-"`
}

// RefreshRequest contains the refresh token and updated device info.
type RefreshRequest struct {
	RefreshToken string          `json:"refresh_token" validate:"required"`
	DeviceInfo   auth.DeviceInfo `json:"device_info"` // Optional updates
	IPAddress    string          `json:"-"`
}

// CreateUserRequest is used by the admin CLI to provision accounts.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,min=3,max=32,username"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

// Join creates an account and signs it in.
func (s *AuthService) Join(ctx context.Context, req JoinRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, deviceOrDefault(req.DeviceInfo), req.IPAddress)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("User joined", "user_id", user.ID, "username", user.Username)

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// CreateUser provisions an account without creating a session.
func (s *AuthService) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	user, err := s.createUser(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, email, username, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, domainerrors.AlreadyExists("email already in use")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return nil, domainerrors.AlreadyExists("username already in use")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup username: %w", err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           userID,
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent join.
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email or username already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and creates a new session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	var user *domain.User
	var err error
	if req.Email != "" {
		user, err = s.store.GetUserByEmail(ctx, req.Email)
	} else {
		user, err = s.store.GetUserByUsername(ctx, req.Username)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't leak whether the account exists.
			return nil, domainerrors.InvalidCredentials("invalid credentials")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid credentials")
	}

	// Hashes made under older settings are upgraded while the plaintext is at hand.
	if auth.NeedsRehash(user.PasswordHash, auth.DefaultPasswordParams) {
		if rehashed, err := auth.HashPassword(req.Password); err == nil {
			user.PasswordHash = rehashed
		} else {
			s.logger.Warn("Failed to rehash password", "user_id", user.ID, "error", err)
		}
	}

	user.LastLoginAt = time.Now()
	user.UpdatedAt = user.LastLoginAt
	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.logger.Warn("Failed to update last login time", "user_id", user.ID, "error", err)
	}

	device := deviceOrDefault(req.DeviceInfo)
	sessionResp, err := s.sessionService.CreateSession(ctx, user, device, req.IPAddress)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID, "device", device.Platform)

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// RefreshTokens issues new tokens for a refresh token and invalidates the old one.
func (s *AuthService) RefreshTokens(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	sessionResp, user, err := s.sessionService.RefreshSession(ctx, req.RefreshToken, req.DeviceInfo, req.IPAddress)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// Logout revokes a session. userID must own it.
func (s *AuthService) Logout(ctx context.Context, userID, sessionID string) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("session not found")
		}
		return fmt.Errorf("get session: %w", err)
	}
	if session.UserID != userID {
		return domainerrors.NotFound("session not found")
	}
	return s.sessionService.DeleteSession(ctx, sessionID)
}

// VerifyAccessToken validates a token and returns the associated user.
// Used by authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid token: %w", err)
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, errors.New("user not found")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	return user, claims, nil
}

// GetCurrentUser returns the user with the given id.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsers returns every account, for the admin CLI.
func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUserByEmail removes an account and, through cascading deletes, its
// sessions, lists and memberships.
func (s *AuthService) DeleteUserByEmail(ctx context.Context, email string) error {
	if err := s.store.DeleteUserByEmail(ctx, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("no user with email %s", email)
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("User deleted", "email", email)
	return nil
}

func deviceOrDefault(info auth.DeviceInfo) auth.DeviceInfo {
	if info.IsValid() {
		return info
	}
	return defaultDevice
}
