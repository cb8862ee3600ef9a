package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// tokenBytes gives 256 bits of entropy per token
const tokenBytes = 32

// Session is the identity attached to a bearer token
type Session struct {
	UserID    int64
	Username  string
	ExpiresAt time.Time
}

// Manager owns the in-memory session table. Sessions are deliberately
// not persisted: a server restart invalidates every token and forces a
// re-login. Expiry is lazy; an expired entry is reclaimed on the first
// lookup that touches it. With a single local user the table stays
// tiny, so no background sweep runs.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]Session

	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewManager creates a session manager with the given token lifetime
func NewManager(ttl time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "sessions")),
	}
}

// Create issues a fresh unguessable token for the user and records the
// session. The expiry is a fixed window from now; it is not renewed on
// use.
func (m *Manager) Create(userID int64, username string) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	m.mu.Lock()
	m.sessions[token] = Session{
		UserID:    userID,
		Username:  username,
		ExpiresAt: m.now().Add(m.ttl),
	}
	m.mu.Unlock()

	m.logger.Debug("session created",
		slog.Int64("user_id", userID),
		slog.String("username", username))

	return token, nil
}

// Get returns the session for the token. An expired entry is deleted
// as a side effect of the lookup and reported as absent.
func (m *Manager) Get(token string) (Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[token]
	now := m.now()
	m.mu.RUnlock()

	if !ok {
		return Session{}, false
	}

	if s.ExpiresAt.Before(now) {
		m.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// replaced the entry between the two lock acquisitions.
		if cur, ok := m.sessions[token]; ok && cur.ExpiresAt.Before(m.now()) {
			delete(m.sessions, token)
		}
		m.mu.Unlock()
		return Session{}, false
	}

	return s, true
}

// Destroy removes the session. Destroying an unknown token is a no-op.
func (m *Manager) Destroy(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Count returns the number of entries in the table, including
// expired-but-unreaped ones. Used by health reporting and tests.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SetClock replaces the time source. Tests use this to simulate expiry.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}
