// Package llm - perplexity.go implements the OpenAI-compatible chat completion provider.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody limits how much of an error body is kept for operator logs.
const maxErrorBody = 512

// PerplexityClient implements Client over the chat completions endpoint
type PerplexityClient struct {
	config     *Config
	apiKey     string
	httpClient *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model           string        `json:"model"`
	Messages        []chatMessage `json:"messages"`
	ReturnCitations bool          `json:"return_citations"`
	Temperature     float32       `json:"temperature"`
	MaxTokens       int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Citations []string `json:"citations"`
	Choices   []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewPerplexityClient creates a new chat completion client
func NewPerplexityClient(config *Config, apiKey string) (*PerplexityClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultPerplexityConfig()
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &PerplexityClient{
		config:     config,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Search posts one prompt and returns the answer text with its citations
func (c *PerplexityClient) Search(ctx context.Context, req Request) (*Response, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return nil, fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	body, err := json.Marshal(chatRequest{
		Model:           modelName,
		Messages:        []chatMessage{{Role: "user", Content: req.Prompt}},
		ReturnCitations: true,
		Temperature:     c.config.Temperature,
		MaxTokens:       req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	baseURL := strings.TrimRight(c.config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultPerplexityBaseURL
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &APIError{Provider: ProviderPerplexity, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Provider: ProviderPerplexity, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Provider:   ProviderPerplexity,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(respBody), maxErrorBody),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &APIError{Provider: ProviderPerplexity, Message: "malformed response body", Cause: err}
	}

	result := &Response{Citations: parsed.Citations}
	if len(parsed.Choices) > 0 {
		result.Content = parsed.Choices[0].Message.Content
	}
	return result, nil
}

// GetModel returns the model name for a tier
func (c *PerplexityClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases idle connections
func (c *PerplexityClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
