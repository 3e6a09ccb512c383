package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// PasswordParams are the Argon2id cost settings used when hashing.
// Verification always uses the settings encoded in the stored hash, so
// changing these only affects new hashes.
type PasswordParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultPasswordParams are sensible settings for a small self-hosted
// server: 64 MiB, 3 passes, 4 lanes. Nobody is storing state secrets in
// a shared watchlist.
var DefaultPasswordParams = PasswordParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// MaxPasswordLength keeps a huge password from tying up CPU and memory
// while hashing. Generous for any real password, it just stops casual abuse.
const MaxPasswordLength = 1024

// ErrPasswordTooLong is returned for inputs over MaxPasswordLength.
var ErrPasswordTooLong = errors.New("password exceeds maximum length")

// HashPassword hashes password with DefaultPasswordParams.
func HashPassword(password string) (string, error) {
	return HashPasswordWithParams(password, DefaultPasswordParams)
}

// HashPasswordWithParams creates an Argon2id hash of password and returns
// it in PHC string format.
func HashPasswordWithParams(password string, p PasswordParams) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 || p.SaltLength == 0 || p.KeyLength == 0 {
		return "", errors.New("argon2 parameters must be non-zero")
	}

	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword reports whether password matches encodedHash.
// A malformed hash simply doesn't match; it is not an error.
func VerifyPassword(encodedHash, password string) (bool, error) {
	if len(password) > MaxPasswordLength {
		return false, nil
	}

	salt, hash, p, err := decodeHash(encodedHash)
	if err != nil {
		//nolint:nilerr // malformed hashes never verify
		return false, nil
	}

	testHash := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	// Constant time so a mismatch doesn't leak how many bytes matched.
	return subtle.ConstantTimeCompare(hash, testHash) == 1, nil
}

// NeedsRehash reports whether encodedHash was made with settings other
// than p. Callers rehash after a successful login so stored hashes follow
// the current settings over time. Malformed hashes report false, since
// they can never verify in the first place.
func NeedsRehash(encodedHash string, p PasswordParams) bool {
	salt, _, got, err := decodeHash(encodedHash)
	if err != nil {
		return false
	}
	//nolint:gosec // salt length is bounded by the encoded string
	got.SaltLength = uint32(len(salt))
	return got != p
}

// decodeHash parses "$argon2id$v=19$m=..,t=..,p=..$salt$hash".
// The returned params carry the key length but not the salt length.
func decodeHash(encodedHash string) (salt, hash []byte, p PasswordParams, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, nil, p, errors.New("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return nil, nil, p, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, p, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, p, fmt.Errorf("incompatible version: %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return nil, nil, p, fmt.Errorf("invalid parameters: %w", err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, p, fmt.Errorf("invalid salt encoding: %w", err)
	}

	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, p, fmt.Errorf("invalid hash encoding: %w", err)
	}

	//nolint:gosec // hash length is bounded by the encoded string
	p.KeyLength = uint32(len(hash))

	return salt, hash, p, nil
}
