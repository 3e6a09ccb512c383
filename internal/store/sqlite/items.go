package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/listenupapp/watchlist-server/internal/domain"
	"github.com/listenupapp/watchlist-server/internal/store"
)

// itemColumns must match the scan order in scanItem.
const itemColumns = `id, list_id, item_type, item_json, added_by, created_at`

var errItemNotFound = store.ErrNotFound.WithMessage("item not found")

func scanItem(row scanner) (*domain.Item, error) {
	var (
		it        domain.Item
		itemJSON  string
		addedBy   sql.NullString
		createdAt string
	)

	if err := row.Scan(&it.ID, &it.ListID, &it.ItemType, &itemJSON, &addedBy, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if it.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	it.ItemJSON = []byte(itemJSON)
	it.AddedBy = addedBy.String
	return &it, nil
}

// CreateItem inserts an item into a list.
func (s *Store) CreateItem(ctx context.Context, item *domain.Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.ListID,
		item.ItemType,
		string(item.ItemJSON),
		nullString(item.AddedBy),
		formatTime(item.CreatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("item already exists")
	}
	if isForeignKeyViolation(err) {
		return errListNotFound
	}
	return err
}

// GetItem retrieves an item by ID.
func (s *Store) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)

	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errItemNotFound
	}
	return it, err
}

// DeleteItem removes an item and its ratings.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result, errItemNotFound)
}

// ListItems returns a list's items in the order they were added.
func (s *Store) ListItems(ctx context.Context, listID string) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE list_id = ? ORDER BY created_at ASC, id ASC`, listID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanItem)
}

// CountItems returns the number of items in a list.
func (s *Store) CountItems(ctx context.Context, listID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE list_id = ?`, listID).Scan(&n)
	return n, err
}

// ListAllItems returns every item across all lists. Used to rebuild the search index.
func (s *Store) ListAllItems(ctx context.Context) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanItem)
}
