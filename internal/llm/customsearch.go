// Package llm - customsearch.go adapts Google Programmable Search to the Client interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// customSearchPageSize is the maximum number of items the API returns per call.
const customSearchPageSize = 10

// CustomSearchClient implements Client over the Programmable Search JSON API.
// It searches Request.Query directly; prompts are ignored.
type CustomSearchClient struct {
	svc    *customsearch.Service
	config *Config
}

// NewCustomSearchClient creates a Programmable Search client
func NewCustomSearchClient(ctx context.Context, config *Config, apiKey string, opts ...option.ClientOption) (*CustomSearchClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultCustomSearchConfig()
	}
	if config.SearchEngineID == "" {
		return nil, fmt.Errorf("search engine id is required")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	if config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(config.BaseURL))
	}

	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}

	return &CustomSearchClient{svc: svc, config: config}, nil
}

// Search lists result links as citations and renders "Title - URL" lines as content
// so the title resolver can match them the same way it matches model output.
func (c *CustomSearchClient) Search(ctx context.Context, req Request) (*Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	resp, err := c.svc.Cse.List().Cx(c.config.SearchEngineID).Q(query).Num(customSearchPageSize).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, &APIError{Provider: ProviderCustomSearch, StatusCode: apiErr.Code, Message: apiErr.Message, Cause: err}
		}
		return nil, &APIError{Provider: ProviderCustomSearch, Message: "request failed", Cause: err}
	}

	result := &Response{}
	var lines []string
	for _, item := range resp.Items {
		if item == nil || item.Link == "" {
			continue
		}
		result.Citations = append(result.Citations, item.Link)
		if title := strings.TrimSpace(item.Title); title != "" {
			lines = append(lines, fmt.Sprintf("%s - %s", title, item.Link))
		}
	}
	result.Content = strings.Join(lines, "\n")

	return result, nil
}

// GetModel returns the configured engine id; Programmable Search has no model tiers.
func (c *CustomSearchClient) GetModel(ModelTier) string {
	return c.config.SearchEngineID
}

// Close is a no-op; the service holds no closable resources
func (c *CustomSearchClient) Close() error {
	return nil
}
