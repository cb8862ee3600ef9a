package ai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(url, "gpt-4o-mini", "gpt-4o", 5*time.Second, logger)
}

func completionBody(content string, tokens int64) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
		"usage": map[string]any{"total_tokens": tokens},
	}
}

func TestClient_AnalyzeWebsite(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(completionBody(`{"industry":"Legal","description":"A law firm site"}`, 150))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	analysis, err := client.AnalyzeWebsite(context.Background(), "sk-test", "https://example-law.com")
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_object", gotReq.ResponseFormat.Type)
	assert.Equal(t, "Legal", analysis.Industry)
	assert.Equal(t, "A law firm site", analysis.Description)
}

func TestClient_AnalyzeWebsiteDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionBody(`{}`, 10))
	}))
	defer srv.Close()

	analysis, err := newTestClient(srv.URL).AnalyzeWebsite(context.Background(), "sk-test", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "General", analysis.Industry)
	assert.Equal(t, "Website analysis", analysis.Description)
}

func TestClient_GeneratePost(t *testing.T) {
	var gotReq chatRequest
	raw := `{"title":"Estate Planning Basics","content":"<h2>Why plan</h2><p>...</p>","excerpt":"A primer.","keywords":["estate","planning","wills"]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(completionBody(raw, 1500))
	}))
	defer srv.Close()

	post, usage, err := newTestClient(srv.URL).GeneratePost(context.Background(), "sk-test", "Estate planning", "Legal", "professional")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Contains(t, gotReq.Messages[0].Content, "Legal industry")
	assert.Contains(t, gotReq.Messages[0].Content, "professional tone")
	assert.Contains(t, gotReq.Messages[1].Content, "Estate planning")

	assert.Equal(t, "Estate Planning Basics", post.Title)
	assert.Equal(t, []string{"estate", "planning", "wills"}, post.Keywords)

	require.NotNil(t, usage)
	assert.Equal(t, int64(1500), usage.TokensUsed)
	assert.Equal(t, "0.0030", usage.Cost)
	assert.Equal(t, raw, usage.Response)
}

func TestClient_GeneratePostFallbackTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionBody(`{"content":"<p>body</p>"}`, 100))
	}))
	defer srv.Close()

	post, _, err := newTestClient(srv.URL).GeneratePost(context.Background(), "sk-test", "SEO tips", "Marketing", "casual")
	require.NoError(t, err)
	assert.Equal(t, "Blog Post: SEO tips", post.Title)
}

func TestClient_UpstreamErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "Incorrect API key provided"},
		})
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv.URL).GeneratePost(context.Background(), "sk-bad", "topic", "General", "neutral")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestClient_MalformedContentReturnsUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionBody(`not json at all`, 42))
	}))
	defer srv.Close()

	_, usage, err := newTestClient(srv.URL).GeneratePost(context.Background(), "sk-test", "topic", "General", "neutral")
	require.Error(t, err)
	// The tokens were still spent, so the history row can record them.
	require.NotNil(t, usage)
	assert.Equal(t, int64(42), usage.TokensUsed)
}
