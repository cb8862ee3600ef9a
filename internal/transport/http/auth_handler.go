package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"autoblog/internal/auth"
	apierrors "autoblog/internal/errors"
	"autoblog/internal/middleware"
	"autoblog/internal/session"
)

// AuthHandler serves first-run setup, login, and logout
type AuthHandler struct {
	credentials *auth.CredentialStore
	sessions    *session.Manager
	validator   *middleware.Validator
	logger      *slog.Logger
}

// NewAuthHandler creates the auth handler
func NewAuthHandler(credentials *auth.CredentialStore, sessions *session.Manager, validator *middleware.Validator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		sessions:    sessions,
		validator:   validator,
		logger:      logger.With(slog.String("handler", "auth")),
	}
}

// SetupRequest is the first-run account creation payload
type SetupRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SetupStatus handles GET /api/setup/status
func (h *AuthHandler) SetupStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	needsSetup, err := h.credentials.IsFirstTimeSetup(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check setup state", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	render.JSON(w, r, map[string]bool{"needsSetup": needsSetup})
}

// Setup handles POST /api/setup. It only works once: after the admin
// account exists the endpoint permanently answers 400.
func (h *AuthHandler) Setup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SetupRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if verr := h.validator.ValidateStruct(&req); verr != nil {
		render.Render(w, r, verr)
		return
	}

	needsSetup, err := h.credentials.IsFirstTimeSetup(ctx)
	if err != nil {
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}
	if !needsSetup {
		render.Render(w, r, apierrors.ErrSetupCompleted)
		return
	}

	user, err := h.credentials.CreateUser(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			render.Render(w, r, apierrors.ConflictError("Username already exists"))
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	h.logger.InfoContext(ctx, "setup completed", slog.String("username", user.Username))
	render.JSON(w, r, map[string]any{
		"success": true,
		"userId":  user.ID,
	})
}

// Login handles POST /api/login. Unknown username and wrong password
// produce the identical 401 so accounts cannot be enumerated.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if verr := h.validator.ValidateStruct(&req); verr != nil {
		render.Render(w, r, verr)
		return
	}

	user, err := h.credentials.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			render.Render(w, r, apierrors.ErrInvalidLogin)
			return
		}
		h.logger.ErrorContext(ctx, "login failed", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	token, err := h.sessions.Create(user.ID, user.Username)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create session", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	h.logger.InfoContext(ctx, "login succeeded", slog.String("username", user.Username))
	render.JSON(w, r, map[string]any{
		"success":  true,
		"userId":   user.ID,
		"username": user.Username,
		"token":    token,
	})
}

// Logout handles POST /api/logout. The route sits behind the session
// gate, so the token is present and valid here; destroying it again is
// harmless either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.TokenFromRequest(r); ok {
		h.sessions.Destroy(token)
	}
	render.JSON(w, r, map[string]bool{"success": true})
}
