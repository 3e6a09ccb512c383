// Package store defines the persistence interface for the Watchlist server.
package store

import (
	"context"

	"github.com/listenupapp/watchlist-server/internal/domain"
)

// Store is the data-access interface handed to services.
type Store interface {
	// Lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUserByEmail(ctx context.Context, email string) error
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// Auth Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	ListUserSessions(ctx context.Context, userID string) ([]*domain.Session, error)
	DeleteExpiredSessions(ctx context.Context) (int, error)

	// Lists
	CreateList(ctx context.Context, list *domain.List) error
	GetList(ctx context.Context, id string) (*domain.List, error)
	GetListBySlug(ctx context.Context, slug string) (*domain.List, error)
	UpdateList(ctx context.Context, list *domain.List) error
	DeleteList(ctx context.Context, id string) error
	ListListsForUser(ctx context.Context, userID string) ([]*domain.List, error)
	ListAllLists(ctx context.Context) ([]*domain.List, error)

	// List Members
	AddListMember(ctx context.Context, member *domain.ListMember) error
	RemoveListMember(ctx context.Context, listID, userID string) error
	IsListMember(ctx context.Context, listID, userID string) (bool, error)
	ListMembers(ctx context.Context, listID string) ([]*domain.ListMember, error)

	// Items
	CreateItem(ctx context.Context, item *domain.Item) error
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	DeleteItem(ctx context.Context, id string) error
	ListItems(ctx context.Context, listID string) ([]*domain.Item, error)
	CountItems(ctx context.Context, listID string) (int, error)
	ListAllItems(ctx context.Context) ([]*domain.Item, error)

	// Ratings
	UpsertRating(ctx context.Context, rating *domain.Rating) error
	GetRating(ctx context.Context, itemID, userID string) (*domain.Rating, error)
	ListRatingsForList(ctx context.Context, listID string) ([]*domain.Rating, error)
}
