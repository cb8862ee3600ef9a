package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	apierrors "autoblog/internal/errors"
	"autoblog/internal/middleware"
	"autoblog/internal/services"
	"autoblog/internal/store"
)

// maskedSecret replaces stored credentials in API responses
const maskedSecret = "***"

// SettingsHandler serves the website profile settings
type SettingsHandler struct {
	blog      *services.BlogService
	validator *middleware.Validator
	logger    *slog.Logger
}

// NewSettingsHandler creates the settings handler
func NewSettingsHandler(blog *services.BlogService, validator *middleware.Validator, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		blog:      blog,
		validator: validator,
		logger:    logger.With(slog.String("handler", "settings")),
	}
}

// SettingsRequest is the settings save payload
type SettingsRequest struct {
	WebsiteURL           string `json:"websiteUrl" validate:"required,url"`
	OpenAIAPIKey         string `json:"openaiApiKey" validate:"required,min=10"`
	Industry             string `json:"industry,omitempty"`
	BlogTone             string `json:"blogTone,omitempty"`
	PublishMethod        string `json:"publishMethod,omitempty"`
	WordpressURL         string `json:"wordpressUrl,omitempty"`
	WordpressUsername    string `json:"wordpressUsername,omitempty"`
	WordpressAppPassword string `json:"wordpressAppPassword,omitempty"`
}

// settingsResponse is the settings shape with secrets masked
type settingsResponse struct {
	ID                   int64     `json:"id"`
	WebsiteURL           string    `json:"websiteUrl"`
	OpenAIAPIKey         string    `json:"openaiApiKey"`
	Industry             string    `json:"industry,omitempty"`
	BlogTone             string    `json:"blogTone,omitempty"`
	PublishMethod        string    `json:"publishMethod,omitempty"`
	WordpressURL         string    `json:"wordpressUrl,omitempty"`
	WordpressUsername    string    `json:"wordpressUsername,omitempty"`
	WordpressAppPassword string    `json:"wordpressAppPassword,omitempty"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func maskSettings(s *store.Settings) settingsResponse {
	resp := settingsResponse{
		ID:                s.ID,
		WebsiteURL:        s.WebsiteURL,
		Industry:          s.Industry,
		BlogTone:          s.BlogTone,
		PublishMethod:     s.PublishMethod,
		WordpressURL:      s.WordpressURL,
		WordpressUsername: s.WordpressUsername,
		UpdatedAt:         s.UpdatedAt,
	}
	if s.AIAPIKey != "" {
		resp.OpenAIAPIKey = maskedSecret
	}
	if s.WordpressAppPassword != "" {
		resp.WordpressAppPassword = maskedSecret
	}
	return resp
}

// Get handles GET /api/settings. Stored secrets never leave the server;
// they come back as a mask the client renders as "configured". Before
// the first save the body is a JSON null, which the client treats as
// "not configured yet".
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := h.blog.GetSettings(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			render.JSON(w, r, nil)
			return
		}
		h.logger.ErrorContext(ctx, "failed to load settings", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	render.JSON(w, r, maskSettings(settings))
}

// Save handles POST /api/settings as a singleton upsert
func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SettingsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if verr := h.validator.ValidateStruct(&req); verr != nil {
		render.Render(w, r, verr)
		return
	}

	saved, err := h.blog.SaveSettings(ctx, &store.Settings{
		WebsiteURL:           req.WebsiteURL,
		AIAPIKey:             req.OpenAIAPIKey,
		Industry:             req.Industry,
		BlogTone:             req.BlogTone,
		PublishMethod:        req.PublishMethod,
		WordpressURL:         req.WordpressURL,
		WordpressUsername:    req.WordpressUsername,
		WordpressAppPassword: req.WordpressAppPassword,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to save settings", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	render.JSON(w, r, maskSettings(saved))
}
