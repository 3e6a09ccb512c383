package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/listenupapp/watchlist-server/internal/domain"
	"github.com/listenupapp/watchlist-server/internal/store"
)

const ratingColumns = `r.item_id, r.user_id, r.watched, r.rating, r.created_at, r.updated_at`

func scanRating(row scanner) (*domain.Rating, error) {
	var (
		r         domain.Rating
		watched   int
		createdAt string
		updatedAt string
	)

	if err := row.Scan(&r.ItemID, &r.UserID, &watched, &r.Rating, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	r.Watched = watched != 0
	return &r, nil
}

// UpsertRating creates or replaces a user's rating of an item.
// CreatedAt is kept from the first rating.
func (s *Store) UpsertRating(ctx context.Context, rating *domain.Rating) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ratings (item_id, user_id, watched, rating, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (item_id, user_id) DO UPDATE SET
			watched = excluded.watched,
			rating = excluded.rating,
			updated_at = excluded.updated_at`,
		rating.ItemID,
		rating.UserID,
		boolToInt(rating.Watched),
		rating.Rating,
		formatTime(rating.CreatedAt),
		formatTime(rating.UpdatedAt),
	)
	if isForeignKeyViolation(err) {
		return errItemNotFound
	}
	return err
}

// GetRating retrieves one user's rating of an item.
func (s *Store) GetRating(ctx context.Context, itemID, userID string) (*domain.Rating, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ratingColumns+` FROM ratings r WHERE r.item_id = ? AND r.user_id = ?`, itemID, userID)

	r, err := scanRating(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("rating not found")
	}
	return r, err
}

// ListRatingsForList returns every rating on every item of a list.
func (s *Store) ListRatingsForList(ctx context.Context, listID string) ([]*domain.Rating, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ratingColumns+` FROM ratings r
		JOIN items i ON i.id = r.item_id
		WHERE i.list_id = ?
		ORDER BY r.updated_at DESC`, listID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanRating)
}
