package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/listenupapp/watchlist-server/internal/domain"
	"github.com/listenupapp/watchlist-server/internal/store"
)

// listColumns must match the scan order in scanList.
const listColumns = `l.id, l.slug, l.name, l.owner_id, l.public, l.created_at, l.updated_at`

var errListNotFound = store.ErrNotFound.WithMessage("list not found")

func scanList(row scanner) (*domain.List, error) {
	var (
		l         domain.List
		public    int
		createdAt string
		updatedAt string
	)

	if err := row.Scan(&l.ID, &l.Slug, &l.Name, &l.OwnerID, &public, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	l.Public = public != 0
	return &l, nil
}

// CreateList inserts a new list.
// Returns store.ErrAlreadyExists when the id or slug is taken.
func (s *Store) CreateList(ctx context.Context, list *domain.List) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lists (id, slug, name, owner_id, public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		list.ID,
		list.Slug,
		list.Name,
		list.OwnerID,
		boolToInt(list.Public),
		formatTime(list.CreatedAt),
		formatTime(list.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("list slug already exists")
	}
	if isForeignKeyViolation(err) {
		return store.ErrInvalidInput.WithMessage("list owner does not exist")
	}
	return err
}

func (s *Store) getListWhere(ctx context.Context, where string, arg any) (*domain.List, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listColumns+` FROM lists l WHERE `+where, arg)

	l, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errListNotFound
	}
	return l, err
}

// GetList retrieves a list by ID.
func (s *Store) GetList(ctx context.Context, id string) (*domain.List, error) {
	return s.getListWhere(ctx, "l.id = ?", id)
}

// GetListBySlug retrieves a list by its public slug.
func (s *Store) GetListBySlug(ctx context.Context, slug string) (*domain.List, error) {
	return s.getListWhere(ctx, "l.slug = ?", slug)
}

// UpdateList updates the mutable fields of a list. The slug never changes.
func (s *Store) UpdateList(ctx context.Context, list *domain.List) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE lists SET name = ?, public = ?, updated_at = ? WHERE id = ?`,
		list.Name, boolToInt(list.Public), formatTime(list.UpdatedAt), list.ID)
	if err != nil {
		return err
	}
	return requireAffected(result, errListNotFound)
}

// DeleteList removes a list with its members, items and ratings.
func (s *Store) DeleteList(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM lists WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result, errListNotFound)
}

// ListListsForUser returns the lists userID owns or has joined, most recently
// updated first.
func (s *Store) ListListsForUser(ctx context.Context, userID string) ([]*domain.List, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+listColumns+` FROM lists l
		WHERE l.owner_id = ?
		   OR EXISTS (SELECT 1 FROM list_members m WHERE m.list_id = l.id AND m.user_id = ?)
		ORDER BY l.updated_at DESC, l.id ASC`,
		userID, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanList)
}

// ListAllLists returns every list.
func (s *Store) ListAllLists(ctx context.Context) ([]*domain.List, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+listColumns+` FROM lists l ORDER BY l.created_at ASC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanList)
}
