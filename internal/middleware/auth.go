package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"autoblog/internal/errors"
	"autoblog/internal/session"
)

type identityKey struct{}

// Authenticator gates routes behind a valid bearer session token
type Authenticator struct {
	sessions *session.Manager
	logger   *slog.Logger
}

// NewAuthenticator creates session authentication middleware
func NewAuthenticator(sessions *session.Manager, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "auth_middleware")),
	}
}

// Handler rejects requests without a valid `Authorization: Bearer <token>`
// header. Missing or malformed headers and unknown or expired tokens both
// produce 401; the two cases carry distinct error codes so the client can
// tell "log in" apart from "session lapsed".
func (a *Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, ok := bearerToken(r)
		if !ok {
			a.logger.DebugContext(ctx, "request without bearer token",
				slog.String("path", r.URL.Path))
			render.Render(w, r, errors.ErrUnauthenticated)
			return
		}

		sess, ok := a.sessions.Get(token)
		if !ok {
			a.logger.DebugContext(ctx, "rejected invalid or expired session",
				slog.String("path", r.URL.Path))
			render.Render(w, r, errors.ErrInvalidSession)
			return
		}

		ctx = context.WithValue(ctx, identityKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from the Authorization header. The
// scheme comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// SessionFromContext returns the authenticated session placed in the
// context by the Authenticator. The bool is false on routes that did
// not pass through it.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(identityKey{}).(session.Session)
	return sess, ok
}

// TokenFromRequest exposes the raw bearer token, used by logout to
// destroy the presented session.
func TokenFromRequest(r *http.Request) (string, bool) {
	return bearerToken(r)
}
