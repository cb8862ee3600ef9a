// Package ai wraps the chat-completions API used for website analysis
// and blog post generation. The API key is supplied per call because it
// lives in user settings, not server configuration.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// perThousandTokenCost is the blended rate used for the rough cost
// estimate shown in generation history
const perThousandTokenCost = 0.002

// Analysis is the inferred website profile
type Analysis struct {
	Industry    string `json:"industry"`
	Description string `json:"description"`
}

// GeneratedPost is the model's article output
type GeneratedPost struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Excerpt  string   `json:"excerpt"`
	Keywords []string `json:"keywords"`
}

// Usage reports what a generation cost, for the history log
type Usage struct {
	TokensUsed int64
	Cost       string
	Response   string
}

// Client calls the chat-completions endpoint
type Client struct {
	baseURL       string
	analyzeModel  string
	generateModel string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewClient creates an AI client. baseURL is the API root, e.g.
// https://api.openai.com/v1.
func NewClient(baseURL, analyzeModel, generateModel string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		analyzeModel:  analyzeModel,
		generateModel: generateModel,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger.With(slog.String("component", "ai")),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int64 `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// AnalyzeWebsite infers the industry and a short description from the
// site URL alone; the page itself is not fetched.
func (c *Client) AnalyzeWebsite(ctx context.Context, apiKey, url string) (*Analysis, error) {
	req := chatRequest{
		Model: c.analyzeModel,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: "You are a website analyzer. Based on the website URL, determine the industry and provide a brief description. Respond in JSON format with 'industry' and 'description' fields.",
			},
			{
				Role:    "user",
				Content: fmt.Sprintf("Analyze this website URL and determine its industry: %s", url),
			},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		Temperature:    0.7,
	}

	content, _, err := c.complete(ctx, apiKey, req)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze website: %w", err)
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	if analysis.Industry == "" {
		analysis.Industry = "General"
	}
	if analysis.Description == "" {
		analysis.Description = "Website analysis"
	}
	return &analysis, nil
}

// GeneratePost writes a full article on the topic. Usage is returned
// even though the caller only records it, so the history row carries
// the token count and the raw model output.
func (c *Client) GeneratePost(ctx context.Context, apiKey, topic, industry, tone string) (*GeneratedPost, *Usage, error) {
	req := chatRequest{
		Model: c.generateModel,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: fmt.Sprintf("You are an expert blog writer for the %s industry. Write engaging, SEO-optimized blog posts in a %s tone. Respond in JSON format with 'title', 'content' (in HTML format), 'excerpt', and 'keywords' (array of 5-10 keywords) fields.", industry, tone),
			},
			{
				Role:    "user",
				Content: fmt.Sprintf("Write a comprehensive blog post about: %s\n\nMake it informative, engaging, and optimized for SEO. Include proper HTML formatting with headings, paragraphs, and lists where appropriate. The content should be 800-1200 words.", topic),
			},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		Temperature:    0.8,
	}

	content, tokens, err := c.complete(ctx, apiKey, req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate blog post: %w", err)
	}

	usage := &Usage{
		TokensUsed: tokens,
		Cost:       fmt.Sprintf("%.4f", float64(tokens)/1000*perThousandTokenCost),
		Response:   content,
	}

	var post GeneratedPost
	if err := json.Unmarshal([]byte(content), &post); err != nil {
		return nil, usage, fmt.Errorf("failed to decode generated post: %w", err)
	}
	if post.Title == "" {
		post.Title = fmt.Sprintf("Blog Post: %s", topic)
	}
	return &post, usage, nil
}

// complete performs one chat-completions round trip and returns the
// first choice's content plus the total token count.
func (c *Client) complete(ctx context.Context, apiKey string, payload chatRequest) (string, int64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", 0, fmt.Errorf("failed to read response: %w", err)
	}

	var result chatResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", 0, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		message := fmt.Sprintf("completion failed with status %d", resp.StatusCode)
		if result.Error != nil && result.Error.Message != "" {
			message = result.Error.Message
		}
		return "", 0, fmt.Errorf("%s", message)
	}
	if len(result.Choices) == 0 {
		return "", 0, fmt.Errorf("completion returned no choices")
	}

	c.logger.InfoContext(ctx, "completion finished",
		slog.String("model", payload.Model),
		slog.Int64("tokens", result.Usage.TotalTokens),
		slog.Duration("duration", time.Since(start)))

	return result.Choices[0].Message.Content, result.Usage.TotalTokens, nil
}
