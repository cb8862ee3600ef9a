package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/argon2"

	"autoblog/internal/store"
)

var (
	// ErrUsernameTaken is returned when the username already exists
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned for unknown usernames and wrong
	// passwords alike, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidHash is returned when a stored digest cannot be parsed
	ErrInvalidHash = errors.New("invalid hash format")
)

// argon2Params holds the argon2id cost parameters baked into each
// encoded digest, so they can be tuned without invalidating stored
// hashes.
type argon2Params struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

var defaultParams = argon2Params{
	memory:      64 * 1024,
	iterations:  3,
	parallelism: 2,
	saltLength:  16,
	keyLength:   32,
}

// CredentialStore hashes and verifies the administrative account's
// password and owns the one-time setup gate. Passwords are stored as
// salted argon2id digests in PHC string format.
type CredentialStore struct {
	users  *store.UserRepository
	params argon2Params
	logger *slog.Logger
}

// NewCredentialStore creates a credential store over the user repository
func NewCredentialStore(users *store.UserRepository, logger *slog.Logger) *CredentialStore {
	return &CredentialStore{
		users:  users,
		params: defaultParams,
		logger: logger.With(slog.String("component", "credentials")),
	}
}

// HashPassword derives a salted argon2id digest and encodes it as a
// PHC string: $argon2id$v=19$m=...,t=...,p=...$salt$key
func (c *CredentialStore) HashPassword(password string) (string, error) {
	salt := make([]byte, c.params.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt,
		c.params.iterations, c.params.memory, c.params.parallelism, c.params.keyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, c.params.memory, c.params.iterations, c.params.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))

	return encoded, nil
}

// VerifyPassword recomputes the digest with the stored salt and
// parameters and compares in constant time.
func (c *CredentialStore) VerifyPassword(password, encoded string) (bool, error) {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt,
		params.iterations, params.memory, params.parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

// CreateUser creates the administrative account. Returns
// ErrUsernameTaken when the username exists.
func (c *CredentialStore) CreateUser(ctx context.Context, username, password string) (*store.User, error) {
	hash, err := c.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := c.users.Create(ctx, username, hash)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "user created",
		slog.String("username", username),
		slog.Int64("user_id", user.ID))

	return user, nil
}

// Authenticate looks up the user and checks the password. Unknown
// username and wrong password both return ErrInvalidCredentials.
func (c *CredentialStore) Authenticate(ctx context.Context, username, password string) (*store.User, error) {
	user, err := c.users.GetByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := c.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// IsFirstTimeSetup reports whether setup has never run: true iff zero
// users exist. Once any user exists setup is permanently disabled.
func (c *CredentialStore) IsFirstTimeSetup(ctx context.Context) (bool, error) {
	n, err := c.users.Count(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func decodeHash(encoded string) (argon2Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return argon2Params{}, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return argon2Params{}, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return argon2Params{}, nil, nil, fmt.Errorf("%w: incompatible argon2 version %d", ErrInvalidHash, version)
	}

	var params argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&params.memory, &params.iterations, &params.parallelism); err != nil {
		return argon2Params{}, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argon2Params{}, nil, nil, ErrInvalidHash
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argon2Params{}, nil, nil, ErrInvalidHash
	}

	return params, salt, key, nil
}
