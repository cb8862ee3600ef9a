package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apierrors "autoblog/internal/errors"
	"autoblog/internal/middleware"
	"autoblog/internal/services"
	"autoblog/internal/store"
)

// BlogHandler serves content generation, the post lifecycle, and the
// public widget feed
type BlogHandler struct {
	blog      *services.BlogService
	validator *middleware.Validator
	logger    *slog.Logger
}

// NewBlogHandler creates the blog handler
func NewBlogHandler(blog *services.BlogService, validator *middleware.Validator, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{
		blog:      blog,
		validator: validator,
		logger:    logger.With(slog.String("handler", "blog")),
	}
}

// AnalyzeRequest is the website analysis payload
type AnalyzeRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// GenerateRequest is the post generation payload
type GenerateRequest struct {
	Topic string `json:"topic" validate:"required,min=1"`
}

// CreatePostRequest is the manual post creation payload
type CreatePostRequest struct {
	Title        string   `json:"title" validate:"required"`
	Content      string   `json:"content" validate:"required"`
	Excerpt      string   `json:"excerpt,omitempty"`
	Status       string   `json:"status,omitempty" validate:"omitempty,oneof=draft scheduled published"`
	ScheduledFor string   `json:"scheduledFor,omitempty"`
	Topic        string   `json:"topic,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
}

// UpdatePostRequest is the partial update payload; absent fields keep
// their stored values
type UpdatePostRequest struct {
	Title        *string  `json:"title,omitempty"`
	Content      *string  `json:"content,omitempty"`
	Excerpt      *string  `json:"excerpt,omitempty"`
	Status       *string  `json:"status,omitempty" validate:"omitempty,oneof=draft scheduled published"`
	ScheduledFor *string  `json:"scheduledFor,omitempty"`
	Topic        *string  `json:"topic,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
}

// postResponse is the API shape of a post; keywords come back as the
// decoded array rather than the stored JSON string
type postResponse struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Excerpt      string     `json:"excerpt,omitempty"`
	Status       string     `json:"status"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	Topic        string     `json:"topic,omitempty"`
	Keywords     []string   `json:"keywords,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func toPostResponse(p *store.BlogPost) postResponse {
	return postResponse{
		ID:           p.ID,
		Title:        p.Title,
		Content:      p.Content,
		Excerpt:      p.Excerpt,
		Status:       p.Status,
		ScheduledFor: p.ScheduledFor,
		PublishedAt:  p.PublishedAt,
		Topic:        p.Topic,
		Keywords:     services.DecodeKeywords(p.Keywords),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// PostRoutes returns the /api/posts subrouter
func (h *BlogHandler) PostRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListPosts)
	r.Post("/", h.CreatePost)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetPost)
		r.Patch("/", h.UpdatePost)
		r.Delete("/", h.DeletePost)
		r.Post("/publish", h.PublishPost)
	})
	return r
}

// AnalyzeWebsite handles POST /api/analyze-website
func (h *BlogHandler) AnalyzeWebsite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AnalyzeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if verr := h.validator.ValidateStruct(&req); verr != nil {
		render.Render(w, r, verr)
		return
	}

	analysis, err := h.blog.AnalyzeWebsite(ctx, req.URL)
	if err != nil {
		h.renderBlogError(w, r, err, "website analysis failed")
		return
	}

	render.JSON(w, r, analysis)
}

// GeneratePost handles POST /api/generate-post
func (h *BlogHandler) GeneratePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("blog-handler")

	var req GenerateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if verr := h.validator.ValidateStruct(&req); verr != nil {
		render.Render(w, r, verr)
		return
	}

	ctx, span := tracer.Start(ctx, "blog_handler.generate_post",
		trace.WithAttributes(attribute.String("topic", req.Topic)))
	defer span.End()

	post, err := h.blog.GeneratePost(ctx, req.Topic)
	if err != nil {
		span.RecordError(err)
		h.renderBlogError(w, r, err, "post generation failed")
		return
	}

	render.JSON(w, r, post)
}

// ListPosts handles GET /api/posts
func (h *BlogHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	posts, err := h.blog.ListPosts(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list posts", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	render.JSON(w, r, out)
}

// CreatePost handles POST /api/posts
func (h *BlogHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreatePostRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if verr := h.validator.ValidateStruct(&req); verr != nil {
		render.Render(w, r, verr)
		return
	}

	scheduledFor, ok := parseOptionalTime(w, r, req.ScheduledFor)
	if !ok {
		return
	}

	post, err := h.blog.CreatePost(ctx, &services.PostInput{
		Title:        req.Title,
		Content:      req.Content,
		Excerpt:      req.Excerpt,
		Status:       req.Status,
		ScheduledFor: scheduledFor,
		Topic:        req.Topic,
		Keywords:     req.Keywords,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create post", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toPostResponse(post))
}

// GetPost handles GET /api/posts/{id}
func (h *BlogHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, err := h.blog.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			render.Render(w, r, apierrors.NotFoundError("Post"))
			return
		}
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	render.JSON(w, r, toPostResponse(post))
}

// UpdatePost handles PATCH /api/posts/{id}
func (h *BlogHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := postID(w, r)
	if !ok {
		return
	}

	var req UpdatePostRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if verr := h.validator.ValidateStruct(&req); verr != nil {
		render.Render(w, r, verr)
		return
	}

	patch := &services.PostPatch{
		Title:    req.Title,
		Content:  req.Content,
		Excerpt:  req.Excerpt,
		Status:   req.Status,
		Topic:    req.Topic,
		Keywords: req.Keywords,
	}
	if req.ScheduledFor != nil {
		scheduledFor, ok := parseOptionalTime(w, r, *req.ScheduledFor)
		if !ok {
			return
		}
		patch.ScheduledFor = scheduledFor
	}

	post, err := h.blog.UpdatePost(ctx, id, patch)
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			render.Render(w, r, apierrors.NotFoundError("Post"))
			return
		}
		h.logger.ErrorContext(ctx, "failed to update post", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	render.JSON(w, r, toPostResponse(post))
}

// DeletePost handles DELETE /api/posts/{id}
func (h *BlogHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	if err := h.blog.DeletePost(r.Context(), id); err != nil {
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	render.JSON(w, r, map[string]bool{"success": true})
}

// PublishPost handles POST /api/posts/{id}/publish
func (h *BlogHandler) PublishPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := postID(w, r)
	if !ok {
		return
	}

	result, err := h.blog.PublishPost(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPostNotFound):
			render.Render(w, r, apierrors.NotFoundError("Post"))
		case errors.Is(err, services.ErrWordPressNotConfigured):
			render.Render(w, r, apierrors.ErrValidation("publishMethod", err.Error()))
		default:
			h.logger.ErrorContext(ctx, "publish failed",
				slog.Int64("post_id", id),
				slog.String("error", err.Error()))
			render.Render(w, r, apierrors.UpstreamError(err))
		}
		return
	}

	render.JSON(w, r, map[string]any{
		"success": true,
		"postUrl": result.PostURL,
	})
}

// GenerationHistory handles GET /api/generation-history
func (h *BlogHandler) GenerationHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, ok := limitParam(w, r, 50)
	if !ok {
		return
	}

	history, err := h.blog.GenerationHistory(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list generation history", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	if history == nil {
		history = []*store.GenerationHistory{}
	}
	render.JSON(w, r, history)
}

// WidgetPosts handles GET /api/widget/posts, the only public content
// endpoint. It serves published posts in a trimmed shape.
func (h *BlogHandler) WidgetPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, ok := limitParam(w, r, 10)
	if !ok {
		return
	}

	feed, err := h.blog.WidgetPosts(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build widget feed", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	render.JSON(w, r, feed)
}

// renderBlogError maps service errors: configuration gaps are the
// user's to fix (400), everything else is an upstream failure (500).
func (h *BlogHandler) renderBlogError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	if errors.Is(err, services.ErrAIKeyNotConfigured) {
		render.Render(w, r, apierrors.ErrValidation("openaiApiKey", err.Error()))
		return
	}
	h.logger.ErrorContext(r.Context(), logMsg, slog.String("error", err.Error()))
	render.Render(w, r, apierrors.UpstreamError(err))
}

func postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Render(w, r, apierrors.ErrValidation("id", "id must be an integer"))
		return 0, false
	}
	return id, true
}

func limitParam(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		render.Render(w, r, apierrors.ErrValidation("limit", "limit must be a positive integer"))
		return 0, false
	}
	return limit, true
}

func parseOptionalTime(w http.ResponseWriter, r *http.Request, raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		render.Render(w, r, apierrors.ErrValidation("scheduledFor", "scheduledFor must be an RFC 3339 timestamp"))
		return nil, false
	}
	return &t, true
}
