package auth

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/listenupapp/watchlist-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T, access time.Duration) *TokenService {
	t.Helper()
	key, err := LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)

	ts, err := NewTokenService(hex.EncodeToString(key), access, 24*time.Hour)
	require.NoError(t, err)
	return ts
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	ok, err := VerifyPassword(hash, "correct horse battery")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "wrong password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_Limits(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)

	_, err = HashPassword(strings.Repeat("a", MaxPasswordLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	ok, err := VerifyPassword("not-a-hash", "password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordWithParams(t *testing.T) {
	cheap := PasswordParams{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

	hash, err := HashPasswordWithParams("correct horse battery", cheap)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))

	ok, err := VerifyPassword(hash, "correct horse battery")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = HashPasswordWithParams("password", PasswordParams{})
	assert.Error(t, err)
}

func TestNeedsRehash(t *testing.T) {
	cheap := PasswordParams{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

	current, err := HashPassword("password123")
	require.NoError(t, err)
	assert.False(t, NeedsRehash(current, DefaultPasswordParams))
	assert.True(t, NeedsRehash(current, cheap))

	old, err := HashPasswordWithParams("password123", cheap)
	require.NoError(t, err)
	assert.True(t, NeedsRehash(old, DefaultPasswordParams))
	assert.False(t, NeedsRehash(old, cheap))

	assert.False(t, NeedsRehash("not-a-hash", DefaultPasswordParams))
}

func TestLoadOrGenerateKey_Persists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	first, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, first, 32)

	info, err := os.Stat(filepath.Join(dir, "auth.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadOrGenerateKey_RejectsCorruptKey(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.key"), []byte("short"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.Error(t, err)
}

func TestNewTokenService_InvalidKey(t *testing.T) {
	_, err := NewTokenService("abc", time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(strings.Repeat("zz", 32), time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t, 15*time.Minute)
	user := &domain.User{ID: "user-1", Email: "a@example.com", Username: "alice"}

	token, err := ts.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := ts.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "watchlist-server", claims.Issuer)
	assert.True(t, strings.HasPrefix(claims.TokenID, "token-"))
}

func TestAccessToken_RejectsForeignKey(t *testing.T) {
	issuer := newTestTokenService(t, time.Minute)
	other := newTestTokenService(t, time.Minute)

	token, err := issuer.GenerateAccessToken(&domain.User{ID: "user-1"})
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestAccessToken_Expired(t *testing.T) {
	ts := newTestTokenService(t, time.Nanosecond)

	token, err := ts.GenerateAccessToken(&domain.User{ID: "user-1"})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = ts.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAccessToken_TamperedIsNotExpired(t *testing.T) {
	ts := newTestTokenService(t, time.Minute)

	token, err := ts.GenerateAccessToken(&domain.User{ID: "user-1"})
	require.NoError(t, err)

	_, err = ts.VerifyAccessToken(token + "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshToken(t *testing.T) {
	ts := newTestTokenService(t, time.Minute)

	a, err := ts.GenerateRefreshToken()
	require.NoError(t, err)
	b, err := ts.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	assert.Equal(t, HashRefreshToken(a), HashRefreshToken(a))
	assert.NotEqual(t, HashRefreshToken(a), HashRefreshToken(b))
	assert.Len(t, HashRefreshToken(a), 64)
}

func TestDeviceInfo_IsValid(t *testing.T) {
	assert.True(t, DeviceInfo{DeviceType: "web", Platform: "Web"}.IsValid())
	assert.False(t, DeviceInfo{DeviceType: "web"}.IsValid())
	assert.False(t, DeviceInfo{}.IsValid())
}
