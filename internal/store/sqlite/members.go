package sqlite

import (
	"context"

	"github.com/listenupapp/watchlist-server/internal/domain"
	"github.com/listenupapp/watchlist-server/internal/store"
)

// AddListMember records that a user joined a list.
// Returns store.ErrAlreadyExists if the user is already a member.
func (s *Store) AddListMember(ctx context.Context, member *domain.ListMember) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO list_members (list_id, user_id, created_at) VALUES (?, ?, ?)`,
		member.ListID, member.UserID, formatTime(member.CreatedAt))
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage("already a member of this list")
	}
	if isForeignKeyViolation(err) {
		return store.ErrNotFound.WithMessage("list or user not found")
	}
	return err
}

// RemoveListMember deletes a membership.
func (s *Store) RemoveListMember(ctx context.Context, listID, userID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM list_members WHERE list_id = ? AND user_id = ?`, listID, userID)
	if err != nil {
		return err
	}
	return requireAffected(result, store.ErrNotFound.WithMessage("not a member of this list"))
}

// IsListMember reports whether userID has joined listID.
func (s *Store) IsListMember(ctx context.Context, listID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM list_members WHERE list_id = ? AND user_id = ?)`,
		listID, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

// ListMembers returns the members of a list with their usernames, in join order.
func (s *Store) ListMembers(ctx context.Context, listID string) ([]*domain.ListMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.list_id, m.user_id, u.username, m.created_at
		FROM list_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.list_id = ?
		ORDER BY m.created_at ASC`, listID)
	if err != nil {
		return nil, err
	}

	return collect(rows, func(row scanner) (*domain.ListMember, error) {
		var (
			m         domain.ListMember
			createdAt string
		)
		if err := row.Scan(&m.ListID, &m.UserID, &m.Username, &createdAt); err != nil {
			return nil, err
		}
		var err error
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		return &m, nil
	})
}
