package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/listenupapp/watchlist-server/internal/domain"
	"github.com/listenupapp/watchlist-server/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, email, username, password_hash, created_at, updated_at, last_login_at`

func scanUser(row scanner) (*domain.User, error) {
	var (
		u           domain.User
		createdAt   string
		updatedAt   string
		lastLoginAt sql.NullString
	)

	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &createdAt, &updatedAt, &lastLoginAt)
	if err != nil {
		return nil, err
	}

	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if u.LastLoginAt, err = parseOptionalTime(lastLoginAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CreateUser inserts a new user.
// Returns store.ErrAlreadyExists if the id, email or username is taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, email_lower, username, username_lower, password_hash, created_at, updated_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		fold(user.Email),
		user.Username,
		fold(user.Username),
		user.PasswordHash,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
		nullTime(user.LastLoginAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("user already exists")
	}
	return err
}

func (s *Store) getUserWhere(ctx context.Context, where string, arg any) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("user not found")
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByEmail retrieves a user by case-insensitive email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUserWhere(ctx, "email_lower = ?", fold(email))
}

// GetUserByUsername retrieves a user by case-insensitive username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUserWhere(ctx, "username_lower = ?", fold(username))
}

// UpdateUser performs a full row update.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			email = ?, email_lower = ?, username = ?, username_lower = ?,
			password_hash = ?, updated_at = ?, last_login_at = ?
		WHERE id = ?`,
		user.Email,
		fold(user.Email),
		user.Username,
		fold(user.Username),
		user.PasswordHash,
		formatTime(user.UpdatedAt),
		nullTime(user.LastLoginAt),
		user.ID,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("email or username already in use")
	}
	if err != nil {
		return err
	}
	return requireAffected(result, store.ErrNotFound.WithMessage("user not found"))
}

// DeleteUserByEmail removes a user and, through cascades, their lists,
// memberships, sessions and ratings.
func (s *Store) DeleteUserByEmail(ctx context.Context, email string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE email_lower = ?`, fold(email))
	if err != nil {
		return err
	}
	return requireAffected(result, store.ErrNotFound.WithMessage("user not found"))
}

// ListUsers returns all users ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUser)
}
