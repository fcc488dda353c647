package llm

import (
	"context"
	"fmt"
)

// Client is an abstraction over AI search providers
type Client interface {
	// Search runs one search prompt and returns the model text plus its citations
	Search(ctx context.Context, req Request) (*Response, error)
	// GetModel returns the provider model used for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// Request is one search call.
type Request struct {
	// Query is the raw query variant; providers without prompting search for it directly.
	Query string
	// Prompt is the full user-role instruction sent to chat providers.
	Prompt    string
	Tier      ModelTier
	MaxTokens int
}

// Response is the provider-neutral search payload.
type Response struct {
	Citations []string
	Content   string
}

// APIError is a failed provider call. StatusCode is zero for transport failures.
type APIError struct {
	Provider   Provider
	StatusCode int
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s API error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// NewClient creates a new search client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	case ProviderCustomSearch:
		return NewCustomSearchClient(ctx, config, apiKey)
	default:
		return NewPerplexityClient(config, apiKey)
	}
}
