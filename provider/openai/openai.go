package openai_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Options configures the OpenAI-backed client.
type Options struct {
	APIKey          string
	BaseURL         string
	CompletionModel string
	VisionModel     string
	EmbeddingModel  string
	Temperature     float64
	MaxTokens       int
	Timeout         time.Duration
	MaxRetries      int
}

// Client implements the provider interface using OpenAI's API
type Client struct {
	opts       Options
	httpClient *http.Client
}

// message is a chat-completions message. Content is either a plain
// string or a list of content parts (for vision requests).
type message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// transientError marks a failure worth retrying (network error or 5xx).
type transientError struct{ err error }

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

// NewClient creates a new OpenAI client
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

// Complete sends a system+user message pair to the completion model
func (c *Client) Complete(ctx context.Context, system string, user string) (string, error) {
	messages := []message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	return c.sendChat(ctx, c.opts.CompletionModel, messages)
}

// CompleteVision sends a prompt plus an image data URL to the vision model
func (c *Client) CompleteVision(ctx context.Context, prompt string, url string) (string, error) {
	messages := []message{
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &imageURL{URL: url}},
		}},
	}
	return c.sendChat(ctx, c.opts.VisionModel, messages)
}

// CreateEmbedding generates an embedding for the given texts
func (c *Client) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	requestBody := map[string]interface{}{
		"model": c.opts.EmbeddingModel,
		"input": texts,
	}

	var embResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := c.post(ctx, "/embeddings", requestBody, &embResp); err != nil {
		return nil, err
	}

	vecs := make([][]float32, len(embResp.Data))
	for i, d := range embResp.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}

// sendChat sends a chat-completions request and returns the first choice
func (c *Client) sendChat(ctx context.Context, model string, messages []message) (string, error) {
	requestBody := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}

	var chatResp chatResponse
	if err := c.post(ctx, "/chat/completions", requestBody, &chatResp); err != nil {
		return "", err
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// post issues a JSON POST with bounded retries on transient failures.
func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, "POST", c.opts.BaseURL+path, bytes.NewBuffer(jsonData))
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return transientError{fmt.Errorf("failed to send request: %w", err)}
			}
			defer resp.Body.Close()

			if resp.StatusCode >= http.StatusInternalServerError {
				return transientError{fmt.Errorf("API returned status: %d", resp.StatusCode)}
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("API returned status: %d", resp.StatusCode)
			}

			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.opts.MaxRetries)),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			_, ok := err.(transientError)
			return ok
		}),
	)
}
