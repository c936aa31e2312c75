package anthropic_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"newsagent/models"
)

const (
	anthropicAPIURL  = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// client implements the provider interface using Anthropic's messages API
type client struct {
	apiKey     string
	model      string
	maxTokens  int
	baseURL    string
	httpClient *http.Client
}

// request represents a request to the Anthropic messages API
type request struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	System    string           `json:"system,omitempty"`
	Messages  []models.Message `json:"messages"`
	Tools     []models.Tool    `json:"tools,omitempty"`
}

// response represents a response from the Anthropic messages API
type response struct {
	ID         string           `json:"id"`
	Role       string           `json:"role"`
	Content    []models.Content `json:"content"`
	StopReason string           `json:"stop_reason"`
}

// NewClient creates a new Anthropic client
func NewClient(apiKey, model string, maxTokens int, timeout time.Duration) *client {
	return &client{
		apiKey:     apiKey,
		model:      model,
		maxTokens:  maxTokens,
		baseURL:    anthropicAPIURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithBaseURL overrides the default API URL (useful for tests).
func (c *client) WithBaseURL(url string) *client {
	if url != "" {
		c.baseURL = url
	}
	return c
}

// CreateTurn sends the conversation and tool schema, returning the model's
// next turn with its stop signal.
func (c *client) CreateTurn(ctx context.Context, messages []models.Message, tools []models.Tool) (*models.Turn, error) {
	resp, err := c.sendRequest(ctx, request{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  messages,
		Tools:     tools,
	})
	if err != nil {
		return nil, err
	}
	return &models.Turn{
		StopReason: resp.StopReason,
		Message:    models.Message{Role: models.RoleAssistant, Content: resp.Content},
	}, nil
}

// Complete sends a single prompt without tools and returns the text response.
func (c *client) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.sendRequest(ctx, request{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  []models.Message{models.TextMessage(models.RoleUser, prompt)},
	})
	if err != nil {
		return "", err
	}
	return models.Message{Content: resp.Content}.Text(), nil
}

// sendRequest sends a request to the Anthropic messages API
func (c *client) sendRequest(ctx context.Context, body request) (*response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Anthropic-Version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &parsed, nil
}
