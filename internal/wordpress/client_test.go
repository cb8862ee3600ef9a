package wordpress

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

func newTestClient() *Client {
	return NewClient(5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Publish(t *testing.T) {
	var gotAuth string
	var gotPost Post
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/wp-json/wp/v2/posts", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPost))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 42, "link": "https://blog.example.com/?p=42"})
	}))
	defer srv.Close()

	result, err := newTestClient().Publish(context.Background(), srv.URL, "admin", "xxxx yyyy zzzz",
		"Hello", "<p>World</p>", "Greeting")
	require.NoError(t, err)

	// Basic auth over the application password.
	assert.Equal(t, "Basic YWRtaW46eHh4eCB5eXl5IHp6eno=", gotAuth)
	assert.Equal(t, "Hello", gotPost.Title)
	assert.Equal(t, "publish", gotPost.Status)
	assert.Equal(t, "https://blog.example.com/?p=42", result.PostURL)
}

func TestClient_PublishTrimsTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wp-json/wp/v2/posts", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"link": "https://blog.example.com/?p=1"})
	}))
	defer srv.Close()

	_, err := newTestClient().Publish(context.Background(), srv.URL+"/", "admin", "pw", "T", "C", "E")
	require.NoError(t, err)
}

func TestClient_PublishSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"incorrect_password","message":"The password you entered is incorrect."}`))
	}))
	defer srv.Close()

	_, err := newTestClient().Publish(context.Background(), srv.URL, "admin", "bad", "T", "C", "E")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WordPress API error")
	assert.Contains(t, err.Error(), "incorrect_password")
}

func TestClient_PublishUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestClient().Publish(context.Background(), srv.URL, "admin", "pw", "T", "C", "E")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}
