package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanView_PublicListVisibleToAnyone(t *testing.T) {
	list := &List{ID: "list-1", OwnerID: "owner", Public: true}

	for _, userID := range []string{"", "owner", "stranger"} {
		for _, member := range []bool{true, false} {
			assert.True(t, CanView(list, userID, member), "user=%q member=%v", userID, member)
		}
	}
}

func TestCanView_PrivateList(t *testing.T) {
	list := &List{ID: "list-1", OwnerID: "owner", Public: false}

	tests := []struct {
		name     string
		userID   string
		isMember bool
		want     bool
	}{
		{"owner", "owner", false, true},
		{"owner and member", "owner", true, true},
		{"member", "friend", true, true},
		{"stranger", "stranger", false, false},
		{"anonymous", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanView(list, tt.userID, tt.isMember))
		})
	}
}

func TestCanView_NilList(t *testing.T) {
	assert.False(t, CanView(nil, "owner", true))
}

func TestCanView_EmptyOwnerDoesNotMatchAnonymous(t *testing.T) {
	list := &List{ID: "list-1", OwnerID: ""}
	assert.False(t, CanView(list, "", false))
}

func TestCanEditItems(t *testing.T) {
	public := &List{ID: "list-1", OwnerID: "owner", Public: true}

	assert.True(t, CanEditItems(public, "owner", false))
	assert.True(t, CanEditItems(public, "friend", true))
	assert.False(t, CanEditItems(public, "stranger", false))
	assert.False(t, CanEditItems(public, "", true))
	assert.False(t, CanEditItems(nil, "owner", true))
}
