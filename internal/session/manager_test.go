package session

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	return NewManager(ttl, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestManager_CreateAndGet(t *testing.T) {
	m := newTestManager(t, 30*24*time.Hour)

	token, err := m.Create(1, "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	s, ok := m.Get(token)
	require.True(t, ok)
	assert.Equal(t, int64(1), s.UserID)
	assert.Equal(t, "admin", s.Username)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), s.ExpiresAt, time.Minute)
}

func TestManager_TokenUniqueness(t *testing.T) {
	m := newTestManager(t, time.Hour)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		token, err := m.Create(1, "admin")
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup, "duplicate token issued")
		seen[token] = struct{}{}
	}
}

func TestManager_GetUnknownToken(t *testing.T) {
	m := newTestManager(t, time.Hour)

	_, ok := m.Get("no-such-token")
	assert.False(t, ok)
}

func TestManager_ExpiredSessionRemovedOnLookup(t *testing.T) {
	m := newTestManager(t, time.Hour)

	token, err := m.Create(1, "admin")
	require.NoError(t, err)
	require.Equal(t, 1, m.Count())

	// Move the clock past the expiry.
	m.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })

	_, ok := m.Get(token)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Count(), "expired entry should be reaped on lookup")
}

func TestManager_ExpiryIsFixedWindow(t *testing.T) {
	m := newTestManager(t, time.Hour)
	base := time.Now()
	m.SetClock(func() time.Time { return base })

	token, err := m.Create(1, "admin")
	require.NoError(t, err)

	// Repeated lookups must not push the expiry out.
	m.SetClock(func() time.Time { return base.Add(59 * time.Minute) })
	_, ok := m.Get(token)
	require.True(t, ok)

	m.SetClock(func() time.Time { return base.Add(61 * time.Minute) })
	_, ok = m.Get(token)
	assert.False(t, ok)
}

func TestManager_DestroyIsIdempotent(t *testing.T) {
	m := newTestManager(t, time.Hour)

	token, err := m.Create(1, "admin")
	require.NoError(t, err)

	m.Destroy(token)
	_, ok := m.Get(token)
	assert.False(t, ok)

	// Second destroy of the same token must not panic or error.
	m.Destroy(token)
	m.Destroy("never-issued")
	assert.Equal(t, 0, m.Count())
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := newTestManager(t, time.Hour)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				token, err := m.Create(1, "admin")
				if err != nil {
					t.Error(err)
					return
				}
				if _, ok := m.Get(token); !ok {
					t.Error("freshly created session not found")
					return
				}
				m.Destroy(token)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	assert.Equal(t, 0, m.Count())
}
