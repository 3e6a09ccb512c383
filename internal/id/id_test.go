package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isURLSafe(r rune) bool {
	return (r >= 'A' && r <= 'Z') ||
		(r >= 'a' && r <= 'z') ||
		(r >= '0' && r <= '9') ||
		r == '_' || r == '-'
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{"user", "list", "item", "sess", "token"} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, prefix+"-"))
			assert.Len(t, id, len(prefix)+1+21)

			for _, r := range strings.TrimPrefix(id, prefix+"-") {
				assert.True(t, isURLSafe(r), "character %c should be URL-safe", r)
			}
		})
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id, err := Generate("test")
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestMustGenerate(t *testing.T) {
	id := MustGenerate("item")
	assert.True(t, strings.HasPrefix(id, "item-"))
}

func TestGenerateSlug(t *testing.T) {
	for range 200 {
		slug, err := GenerateSlug()
		require.NoError(t, err)
		require.Len(t, slug, SlugLength)
		for _, r := range slug {
			assert.True(t, isURLSafe(r), "character %c should be URL-safe", r)
		}
	}
}
