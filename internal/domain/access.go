package domain

// CanView reports whether userID may see list.
//
// Public lists are visible to everyone, including anonymous callers. Private
// lists are visible to the owner and to members. isMember comes from a
// membership lookup keyed by (list.ID, userID).
//
// Callers answer a false result with not-found rather than forbidden so a
// private list's existence is never confirmed.
func CanView(list *List, userID string, isMember bool) bool {
	if list == nil {
		return false
	}
	if list.Public {
		return true
	}
	return list.IsOwner(userID) || isMember
}

// CanEditItems reports whether userID may add, remove or rate items in list.
// Viewing a public list is not enough; the caller must be owner or member.
func CanEditItems(list *List, userID string, isMember bool) bool {
	if list == nil || userID == "" {
		return false
	}
	return list.IsOwner(userID) || isMember
}
