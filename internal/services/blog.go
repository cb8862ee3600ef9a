package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"autoblog/internal/ai"
	"autoblog/internal/store"
	"autoblog/internal/wordpress"
)

// Configuration errors surfaced as 400s at the boundary
var (
	ErrAIKeyNotConfigured     = errors.New("OpenAI API key not configured")
	ErrWordPressNotConfigured = errors.New("WordPress not configured")
	ErrPostNotFound           = errors.New("post not found")
)

// defaultHistoryLimit bounds the history listing when the client does
// not ask for a specific size
const defaultHistoryLimit = 50

// defaultWidgetLimit bounds the public widget feed
const defaultWidgetLimit = 10

// WidgetPost is the trimmed public shape served to embedded widgets.
// Content is deliberately omitted; the widget links back to the site.
type WidgetPost struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// PostInput carries a post create request with decoded keywords
type PostInput struct {
	Title        string
	Content      string
	Excerpt      string
	Status       string
	ScheduledFor *time.Time
	Topic        string
	Keywords     []string
}

// PostPatch carries a partial post update; nil means leave unchanged
type PostPatch struct {
	Title        *string
	Content      *string
	Excerpt      *string
	Status       *string
	ScheduledFor *time.Time
	Topic        *string
	Keywords     []string
}

// BlogService owns the content workflow: settings, AI analysis and
// generation, the post lifecycle, publishing, and the public widget
// feed.
type BlogService struct {
	settings  *store.SettingsRepository
	posts     *store.PostRepository
	history   *store.HistoryRepository
	ai        *ai.Client
	wordpress *wordpress.Client
	logger    *slog.Logger
}

// NewBlogService creates the blog service
func NewBlogService(
	settings *store.SettingsRepository,
	posts *store.PostRepository,
	history *store.HistoryRepository,
	aiClient *ai.Client,
	wpClient *wordpress.Client,
	logger *slog.Logger,
) *BlogService {
	return &BlogService{
		settings:  settings,
		posts:     posts,
		history:   history,
		ai:        aiClient,
		wordpress: wpClient,
		logger:    logger.With(slog.String("component", "blog")),
	}
}

// GetSettings returns the stored settings, or ErrNotFound before the
// first save. Masking of secrets happens at the transport boundary.
func (s *BlogService) GetSettings(ctx context.Context) (*store.Settings, error) {
	return s.settings.Get(ctx)
}

// SaveSettings upserts the singleton settings row
func (s *BlogService) SaveSettings(ctx context.Context, settings *store.Settings) (*store.Settings, error) {
	saved, err := s.settings.Save(ctx, settings)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "settings saved",
		slog.String("website_url", saved.WebsiteURL),
		slog.String("publish_method", saved.PublishMethod))
	return saved, nil
}

// AnalyzeWebsite asks the model to profile the site. Requires a stored
// API key; returns ErrAIKeyNotConfigured otherwise.
func (s *BlogService) AnalyzeWebsite(ctx context.Context, url string) (*ai.Analysis, error) {
	settings, err := s.settingsWithAIKey(ctx)
	if err != nil {
		return nil, err
	}
	return s.ai.AnalyzeWebsite(ctx, settings.AIAPIKey, url)
}

// GeneratePost writes an article on the topic using the stored industry
// and tone, falling back to "General"/"professional". Every attempt is
// recorded in generation history, failures included.
func (s *BlogService) GeneratePost(ctx context.Context, topic string) (*ai.GeneratedPost, error) {
	settings, err := s.settingsWithAIKey(ctx)
	if err != nil {
		return nil, err
	}

	industry := settings.Industry
	if industry == "" {
		industry = "General"
	}
	tone := settings.BlogTone
	if tone == "" {
		tone = "professional"
	}

	prompt := fmt.Sprintf("Topic: %s, Industry: %s, Tone: %s", topic, industry, tone)

	post, usage, err := s.ai.GeneratePost(ctx, settings.AIAPIKey, topic, industry, tone)
	if err != nil {
		s.recordGeneration(ctx, &store.GenerationHistory{
			Topic:        topic,
			Prompt:       prompt,
			Status:       store.GenerationStatusError,
			ErrorMessage: err.Error(),
		}, usage)
		return nil, err
	}

	s.recordGeneration(ctx, &store.GenerationHistory{
		Topic:  topic,
		Prompt: prompt,
		Status: store.GenerationStatusSuccess,
	}, usage)

	return post, nil
}

// recordGeneration appends a history row. History is advisory; a write
// failure is logged but never fails the generation itself.
func (s *BlogService) recordGeneration(ctx context.Context, row *store.GenerationHistory, usage *ai.Usage) {
	if usage != nil {
		row.TokensUsed = usage.TokensUsed
		row.Cost = usage.Cost
		row.Response = usage.Response
	}
	if _, err := s.history.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to record generation history",
			slog.String("topic", row.Topic),
			slog.String("error", err.Error()))
	}
}

// CreatePost stores a new post; status defaults to draft
func (s *BlogService) CreatePost(ctx context.Context, input *PostInput) (*store.BlogPost, error) {
	status := input.Status
	if status == "" {
		status = store.PostStatusDraft
	}

	keywords, err := encodeKeywords(input.Keywords)
	if err != nil {
		return nil, err
	}

	return s.posts.Create(ctx, &store.BlogPost{
		Title:        input.Title,
		Content:      input.Content,
		Excerpt:      input.Excerpt,
		Status:       status,
		ScheduledFor: input.ScheduledFor,
		Topic:        input.Topic,
		Keywords:     keywords,
	})
}

// GetPost returns one post, or ErrPostNotFound
func (s *BlogService) GetPost(ctx context.Context, id int64) (*store.BlogPost, error) {
	post, err := s.posts.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	return post, err
}

// ListPosts returns all posts, newest first
func (s *BlogService) ListPosts(ctx context.Context) ([]*store.BlogPost, error) {
	return s.posts.List(ctx)
}

// UpdatePost applies a partial update, or ErrPostNotFound
func (s *BlogService) UpdatePost(ctx context.Context, id int64, patch *PostPatch) (*store.BlogPost, error) {
	upd := &store.PostUpdate{
		Title:        patch.Title,
		Content:      patch.Content,
		Excerpt:      patch.Excerpt,
		Status:       patch.Status,
		ScheduledFor: patch.ScheduledFor,
		Topic:        patch.Topic,
	}
	if patch.Keywords != nil {
		keywords, err := encodeKeywords(patch.Keywords)
		if err != nil {
			return nil, err
		}
		upd.Keywords = &keywords
	}

	post, err := s.posts.Update(ctx, id, upd)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	return post, err
}

// DeletePost removes a post; deleting an unknown id succeeds
func (s *BlogService) DeletePost(ctx context.Context, id int64) error {
	return s.posts.Delete(ctx, id)
}

// PublishPost pushes the post to the configured WordPress site and, on
// success only, marks it published and stamps publishedAt.
func (s *BlogService) PublishPost(ctx context.Context, id int64) (*wordpress.Result, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if settings == nil || settings.PublishMethod != "wordpress" || settings.WordpressURL == "" {
		return nil, ErrWordPressNotConfigured
	}

	result, err := s.wordpress.Publish(ctx, settings.WordpressURL,
		settings.WordpressUsername, settings.WordpressAppPassword,
		post.Title, post.Content, post.Excerpt)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	status := store.PostStatusPublished
	if _, err := s.posts.Update(ctx, id, &store.PostUpdate{
		Status:      &status,
		PublishedAt: &now,
	}); err != nil {
		return nil, fmt.Errorf("published to wordpress but failed to mark post: %w", err)
	}

	s.logger.InfoContext(ctx, "post published",
		slog.Int64("post_id", id),
		slog.String("url", result.PostURL))
	return result, nil
}

// GenerationHistory lists recent generation attempts, newest first
func (s *BlogService) GenerationHistory(ctx context.Context, limit int) ([]*store.GenerationHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.history.ListRecent(ctx, limit)
}

// WidgetPosts returns published posts in the trimmed public shape
func (s *BlogService) WidgetPosts(ctx context.Context, limit int) ([]WidgetPost, error) {
	if limit <= 0 {
		limit = defaultWidgetLimit
	}

	published, err := s.posts.ListByStatus(ctx, store.PostStatusPublished)
	if err != nil {
		return nil, err
	}

	if len(published) > limit {
		published = published[:limit]
	}

	feed := make([]WidgetPost, 0, len(published))
	for _, post := range published {
		feed = append(feed, WidgetPost{
			ID:          post.ID,
			Title:       post.Title,
			Excerpt:     post.Excerpt,
			PublishedAt: post.PublishedAt,
		})
	}
	return feed, nil
}

// settingsWithAIKey loads settings and insists on a stored API key
func (s *BlogService) settingsWithAIKey(ctx context.Context) (*store.Settings, error) {
	settings, err := s.settings.Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAIKeyNotConfigured
	}
	if err != nil {
		return nil, err
	}
	if settings.AIAPIKey == "" {
		return nil, ErrAIKeyNotConfigured
	}
	return settings, nil
}

// encodeKeywords stores the keyword list as a JSON array string
func encodeKeywords(keywords []string) (string, error) {
	if len(keywords) == 0 {
		return "", nil
	}
	encoded, err := json.Marshal(keywords)
	if err != nil {
		return "", fmt.Errorf("failed to encode keywords: %w", err)
	}
	return string(encoded), nil
}

// DecodeKeywords turns the stored JSON array back into a slice. An
// empty column yields nil.
func DecodeKeywords(stored string) []string {
	if stored == "" {
		return nil
	}
	var keywords []string
	if err := json.Unmarshal([]byte(stored), &keywords); err != nil {
		return nil
	}
	return keywords
}
