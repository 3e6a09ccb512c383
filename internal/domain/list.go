package domain

import "time"

// List is a named, ownable collection of movies and TV shows.
// The slug is the public identifier and never changes after creation.
type List struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	Public    bool      `json:"public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOwner reports whether userID owns the list.
func (l *List) IsOwner(userID string) bool {
	return userID != "" && l.OwnerID == userID
}

// ListMember grants a user access to a list they do not own.
type ListMember struct {
	ListID    string    `json:"list_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Item is a movie or TV show stored in a list.
// ItemJSON is the serialized search result the item was created from; its
// media_type always equals ItemType.
type Item struct {
	ID        string    `json:"id"`
	ListID    string    `json:"list_id"`
	ItemType  string    `json:"item_type"`
	ItemJSON  []byte    `json:"-"`
	AddedBy   string    `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Rating is one user's verdict on an item.
type Rating struct {
	ItemID    string    `json:"item_id"`
	UserID    string    `json:"user_id"`
	Watched   bool      `json:"watched"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rating bounds.
const (
	MinRating = 0
	MaxRating = 10
)
