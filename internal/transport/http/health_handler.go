package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"autoblog/internal/services"
)

// HealthHandler answers liveness probes from the desktop shell
type HealthHandler struct {
	health *services.HealthService
	logger *slog.Logger
}

// NewHealthHandler creates the health handler
func NewHealthHandler(health *services.HealthService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		health: health,
		logger: logger.With(slog.String("handler", "health")),
	}
}

// Health handles GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.health.Health(r.Context())
	if status.Status != "healthy" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}

// Version handles GET /api/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.health.Version())
}
