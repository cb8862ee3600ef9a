package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apierrors "autoblog/internal/errors"
	"autoblog/internal/license"
	"autoblog/internal/middleware"
)

// LicenseHandler serves license status and activation
type LicenseHandler struct {
	service   *license.Service
	validator *middleware.Validator
	logger    *slog.Logger
}

// NewLicenseHandler creates the license handler
func NewLicenseHandler(service *license.Service, validator *middleware.Validator, logger *slog.Logger) *LicenseHandler {
	return &LicenseHandler{
		service:   service,
		validator: validator,
		logger:    logger.With(slog.String("handler", "license")),
	}
}

// ActivationRequest is the license activation payload
type ActivationRequest struct {
	Email      string `json:"email" validate:"required,email"`
	LicenseKey string `json:"licenseKey" validate:"required"`
}

// Routes returns the license subrouter
func (h *LicenseHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status", h.GetStatus)
	r.Post("/activate", h.Activate)
	return r
}

// GetStatus handles GET /api/license/status
func (h *LicenseHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := h.service.GetStatus(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read license status", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	render.JSON(w, r, map[string]bool{
		"hasLicense": status.HasLicense,
		"isActive":   status.IsActive,
	})
}

// Activate handles POST /api/license/activate. A rejection by the sales
// platform comes back as 400 carrying the platform's own message; a
// platform we cannot reach is a 500.
func (h *LicenseHandler) Activate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("license-handler")

	ctx, span := tracer.Start(ctx, "license_handler.activate",
		trace.WithAttributes(
			attribute.String("http.route", "/api/license/activate"),
		),
	)
	defer span.End()

	var req ActivationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if verr := h.validator.ValidateStruct(&req); verr != nil {
		render.Render(w, r, verr)
		return
	}

	if err := h.service.Activate(ctx, req.Email, req.LicenseKey); err != nil {
		span.RecordError(err)

		var verr *license.ValidationError
		if errors.As(err, &verr) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]any{
				"success": false,
				"message": verr.Message,
			})
			return
		}

		h.logger.ErrorContext(ctx, "license activation failed", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.UpstreamError(err))
		return
	}

	span.SetAttributes(attribute.Bool("license.activated", true))
	render.JSON(w, r, map[string]any{
		"success": true,
		"message": "License activated successfully",
	})
}
