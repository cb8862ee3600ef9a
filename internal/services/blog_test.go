package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoblog/internal/ai"
	"autoblog/internal/store"
	"autoblog/internal/wordpress"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBlogService(t *testing.T, aiURL string) (*BlogService, *store.Store) {
	t.Helper()

	logger := testLogger()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.sqlite"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	aiClient := ai.NewClient(aiURL, "gpt-4o-mini", "gpt-4o", 5*time.Second, logger)
	wpClient := wordpress.NewClient(5*time.Second, logger)
	svc := NewBlogService(st.Settings, st.Posts, st.History, aiClient, wpClient, logger)
	return svc, st
}

func saveTestSettings(t *testing.T, st *store.Store, mutate func(*store.Settings)) {
	t.Helper()
	settings := &store.Settings{
		WebsiteURL: "https://example.com",
		AIAPIKey:   "sk-test",
		Industry:   "Legal",
		BlogTone:   "professional",
	}
	if mutate != nil {
		mutate(settings)
	}
	_, err := st.Settings.Save(context.Background(), settings)
	require.NoError(t, err)
}

func aiCompletion(content string, tokens int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
			"usage": map[string]any{"total_tokens": tokens},
		})
	}
}

func TestBlogService_SettingsRoundTrip(t *testing.T) {
	svc, _ := newTestBlogService(t, "http://localhost:0")
	ctx := context.Background()

	_, err := svc.GetSettings(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	saved, err := svc.SaveSettings(ctx, &store.Settings{
		WebsiteURL: "https://example.com",
		AIAPIKey:   "sk-test",
	})
	require.NoError(t, err)

	again, err := svc.SaveSettings(ctx, &store.Settings{
		WebsiteURL: "https://other.example.com",
		AIAPIKey:   "sk-test-2",
	})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID, "settings must stay a single row")

	got, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com", got.WebsiteURL)
}

func TestBlogService_AnalyzeWebsiteRequiresKey(t *testing.T) {
	svc, st := newTestBlogService(t, "http://localhost:0")
	ctx := context.Background()

	_, err := svc.AnalyzeWebsite(ctx, "https://example.com")
	assert.ErrorIs(t, err, ErrAIKeyNotConfigured)

	saveTestSettings(t, st, func(s *store.Settings) { s.AIAPIKey = "" })
	_, err = svc.AnalyzeWebsite(ctx, "https://example.com")
	assert.ErrorIs(t, err, ErrAIKeyNotConfigured)
}

func TestBlogService_GeneratePostRecordsHistory(t *testing.T) {
	srv := httptest.NewServer(aiCompletion(`{"title":"T","content":"<p>C</p>","excerpt":"E","keywords":["k1","k2"]}`, 1200))
	defer srv.Close()

	svc, st := newTestBlogService(t, srv.URL)
	saveTestSettings(t, st, nil)
	ctx := context.Background()

	post, err := svc.GeneratePost(ctx, "Estate planning")
	require.NoError(t, err)
	assert.Equal(t, "T", post.Title)

	history, err := svc.GenerationHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, store.GenerationStatusSuccess, history[0].Status)
	assert.Equal(t, "Estate planning", history[0].Topic)
	assert.Equal(t, "Topic: Estate planning, Industry: Legal, Tone: professional", history[0].Prompt)
	assert.Equal(t, int64(1200), history[0].TokensUsed)
	assert.Equal(t, "0.0024", history[0].Cost)
}

func TestBlogService_GenerateFailureStillRecordsHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Rate limit reached"},
		})
	}))
	defer srv.Close()

	svc, st := newTestBlogService(t, srv.URL)
	saveTestSettings(t, st, nil)
	ctx := context.Background()

	_, err := svc.GeneratePost(ctx, "Some topic")
	require.Error(t, err)

	history, err := svc.GenerationHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, store.GenerationStatusError, history[0].Status)
	assert.Contains(t, history[0].ErrorMessage, "Rate limit reached")
}

func TestBlogService_PostLifecycle(t *testing.T) {
	svc, _ := newTestBlogService(t, "http://localhost:0")
	ctx := context.Background()

	created, err := svc.CreatePost(ctx, &PostInput{
		Title:    "First",
		Content:  "<p>Body</p>",
		Keywords: []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, store.PostStatusDraft, created.Status, "status defaults to draft")
	assert.Equal(t, []string{"a", "b"}, DecodeKeywords(created.Keywords))

	newTitle := "First (edited)"
	updated, err := svc.UpdatePost(ctx, created.ID, &PostPatch{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "First (edited)", updated.Title)
	assert.Equal(t, "<p>Body</p>", updated.Content, "untouched fields survive a patch")

	_, err = svc.UpdatePost(ctx, 9999, &PostPatch{Title: &newTitle})
	assert.ErrorIs(t, err, ErrPostNotFound)

	require.NoError(t, svc.DeletePost(ctx, created.ID))
	_, err = svc.GetPost(ctx, created.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestBlogService_PublishPost(t *testing.T) {
	wp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wp-json/wp/v2/posts", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"link": "https://blog.example.com/?p=7"})
	}))
	defer wp.Close()

	svc, st := newTestBlogService(t, "http://localhost:0")
	saveTestSettings(t, st, func(s *store.Settings) {
		s.PublishMethod = "wordpress"
		s.WordpressURL = wp.URL
		s.WordpressUsername = "admin"
		s.WordpressAppPassword = "pw"
	})
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, &PostInput{Title: "Go live", Content: "<p>Hi</p>"})
	require.NoError(t, err)

	result, err := svc.PublishPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://blog.example.com/?p=7", result.PostURL)

	published, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, store.PostStatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
	assert.WithinDuration(t, time.Now(), *published.PublishedAt, time.Minute)
}

func TestBlogService_PublishRequiresWordPressConfig(t *testing.T) {
	svc, st := newTestBlogService(t, "http://localhost:0")
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, &PostInput{Title: "Draft", Content: "c"})
	require.NoError(t, err)

	_, err = svc.PublishPost(ctx, post.ID)
	assert.ErrorIs(t, err, ErrWordPressNotConfigured)

	saveTestSettings(t, st, func(s *store.Settings) { s.PublishMethod = "manual" })
	_, err = svc.PublishPost(ctx, post.ID)
	assert.ErrorIs(t, err, ErrWordPressNotConfigured)
}

func TestBlogService_PublishFailureLeavesPostUntouched(t *testing.T) {
	wp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"incorrect_password"}`))
	}))
	defer wp.Close()

	svc, st := newTestBlogService(t, "http://localhost:0")
	saveTestSettings(t, st, func(s *store.Settings) {
		s.PublishMethod = "wordpress"
		s.WordpressURL = wp.URL
	})
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, &PostInput{Title: "Draft", Content: "c"})
	require.NoError(t, err)

	_, err = svc.PublishPost(ctx, post.ID)
	require.Error(t, err)

	unchanged, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, store.PostStatusDraft, unchanged.Status)
	assert.Nil(t, unchanged.PublishedAt)
}

func TestBlogService_WidgetFeed(t *testing.T) {
	svc, _ := newTestBlogService(t, "http://localhost:0")
	ctx := context.Background()

	draft, err := svc.CreatePost(ctx, &PostInput{Title: "Draft", Content: "hidden"})
	require.NoError(t, err)
	_ = draft

	for i := 0; i < 3; i++ {
		now := time.Now()
		published := store.PostStatusPublished
		post, err := svc.CreatePost(ctx, &PostInput{Title: "Public", Content: "secret body", Excerpt: "teaser"})
		require.NoError(t, err)
		_, err = svc.UpdatePost(ctx, post.ID, &PostPatch{Status: &published, ScheduledFor: nil})
		require.NoError(t, err)
		_, err = svc.posts.Update(ctx, post.ID, &store.PostUpdate{PublishedAt: &now})
		require.NoError(t, err)
	}

	feed, err := svc.WidgetPosts(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, feed, 2, "limit applies")
	for _, item := range feed {
		assert.Equal(t, "Public", item.Title)
		assert.Equal(t, "teaser", item.Excerpt)
		assert.NotNil(t, item.PublishedAt)
	}

	full, err := svc.WidgetPosts(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, full, 3, "drafts never leak into the feed")
}

func TestHealthService(t *testing.T) {
	logger := testLogger()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.sqlite"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := NewHealthService("1.0.0", st)
	health := svc.Health(context.Background())
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "ok", health.Database)
	assert.Equal(t, "1.0.0", svc.Version().Version)
}
