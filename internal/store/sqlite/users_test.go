package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/listenupapp/watchlist-server/internal/domain"
	"github.com/listenupapp/watchlist-server/internal/store"
)

func makeTestUser(id, email, username string) *domain.User {
	now := time.Now()
	return &domain.User{
		ID:           id,
		Email:        email,
		Username:     username,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$fake$fake",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func mustCreateUser(t *testing.T, s *Store, id string) *domain.User {
	t.Helper()
	u := makeTestUser(id, id+"@example.com", id)
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", id, err)
	}
	return u
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := makeTestUser("user-1", "Alice@Example.com", "Alice")
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "Alice@Example.com" {
		t.Errorf("Email: got %q", got.Email)
	}
	if got.Username != "Alice" {
		t.Errorf("Username: got %q", got.Username)
	}
	if !got.LastLoginAt.IsZero() {
		t.Errorf("LastLoginAt: expected zero, got %v", got.LastLoginAt)
	}

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != "user-1" {
		t.Errorf("GetUserByEmail: got %q", byEmail.ID)
	}

	byName, err := s.GetUserByUsername(ctx, "ALICE")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if byName.ID != "user-1" {
		t.Errorf("GetUserByUsername: got %q", byName.ID)
	}
}

func TestCreateUser_DuplicateEmailOrUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, makeTestUser("user-1", "a@example.com", "alpha")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	err := s.CreateUser(ctx, makeTestUser("user-2", "A@EXAMPLE.COM", "beta"))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("duplicate email: expected ErrAlreadyExists, got %v", err)
	}

	err = s.CreateUser(ctx, makeTestUser("user-3", "c@example.com", "Alpha"))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("duplicate username: expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUser(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := mustCreateUser(t, s, "user-1")
	u.LastLoginAt = time.Now()
	u.UpdatedAt = time.Now()
	if err := s.UpdateUser(ctx, u); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.LastLoginAt.IsZero() {
		t.Error("LastLoginAt should be set")
	}

	missing := makeTestUser("nobody", "nobody@example.com", "nobody")
	if err := s.UpdateUser(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUserByEmail_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := mustCreateUser(t, s, "owner")
	list := makeTestList("list-1", "abcd", owner.ID, false)
	if err := s.CreateList(ctx, list); err != nil {
		t.Fatalf("CreateList: %v", err)
	}

	if err := s.DeleteUserByEmail(ctx, "OWNER@example.com"); err != nil {
		t.Fatalf("DeleteUserByEmail: %v", err)
	}

	if _, err := s.GetList(ctx, "list-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("list should be deleted with its owner, got %v", err)
	}

	if err := s.DeleteUserByEmail(ctx, "owner@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	s := newTestStore(t)

	mustCreateUser(t, s, "user-a")
	mustCreateUser(t, s, "user-b")

	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}
}
