package auth

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoblog/internal/store"
)

func newTestStore(t *testing.T) *CredentialStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.sqlite")
	s, err := store.Open(context.Background(), path, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return NewCredentialStore(s.Users, slog.Default())
}

func TestHashAndVerifyPassword(t *testing.T) {
	cs := newTestStore(t)

	hash, err := cs.HashPassword("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := cs.VerifyPassword("secret1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cs.VerifyPassword("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordIsSalted(t *testing.T) {
	cs := newTestStore(t)

	h1, err := cs.HashPassword("same-password")
	require.NoError(t, err)
	h2, err := cs.HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "per-user salt must make digests differ")

	for _, h := range []string{h1, h2} {
		ok, err := cs.VerifyPassword("same-password", h)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	cs := newTestStore(t)

	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"plain sha256 hex", "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$a2V5"},
		{"truncated", "$argon2id$v=19$m=65536"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cs.VerifyPassword("anything", tt.encoded)
			assert.ErrorIs(t, err, ErrInvalidHash)
		})
	}
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	cs := newTestStore(t)
	ctx := context.Background()

	firstTime, err := cs.IsFirstTimeSetup(ctx)
	require.NoError(t, err)
	assert.True(t, firstTime)

	user, err := cs.CreateUser(ctx, "admin", "secret1")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	firstTime, err = cs.IsFirstTimeSetup(ctx)
	require.NoError(t, err)
	assert.False(t, firstTime, "setup is permanently disabled once a user exists")

	_, err = cs.CreateUser(ctx, "admin", "other")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	got, err := cs.Authenticate(ctx, "admin", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// Unknown user and wrong password are indistinguishable
	_, err = cs.Authenticate(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = cs.Authenticate(ctx, "ghost", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
