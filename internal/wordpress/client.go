// Package wordpress publishes articles to a WordPress site through its
// REST API using application-password authentication.
package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Post is the article payload sent to WordPress
type Post struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
	Status  string `json:"status"`
}

// Result reports the outcome of a publish call
type Result struct {
	PostURL string
}

// Client posts to a WordPress site's REST API. Credentials arrive per
// call because they live in user settings.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a WordPress client
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "wordpress")),
	}
}

// Publish creates the post with status publish and returns its public
// link. A non-2xx answer surfaces the WordPress error body.
func (c *Client) Publish(ctx context.Context, siteURL, username, appPassword string, title, content, excerpt string) (*Result, error) {
	payload := Post{
		Title:   title,
		Content: content,
		Excerpt: excerpt,
		Status:  "publish",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode post: %w", err)
	}

	url := strings.TrimRight(siteURL, "/") + "/wp-json/wp/v2/posts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build publish request: %w", err)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(username + ":" + appPassword))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")

	c.logger.InfoContext(ctx, "publishing to wordpress",
		slog.String("site", siteURL),
		slog.String("title", title))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wordpress unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read wordpress response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("WordPress API error: %s", strings.TrimSpace(string(raw)))
	}

	var created struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("failed to decode wordpress response: %w", err)
	}

	return &Result{PostURL: created.Link}, nil
}
