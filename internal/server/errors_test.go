package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/getlisticled/internal/discovery"
	"github.com/stretchr/testify/assert"
)

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "query", Message: "is required"}
	assert.Equal(t, "validation error: query - is required", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
		message  string
	}{
		{
			name:     "ErrValidation",
			err:      &ErrValidation{Field: "query", Message: "too long"},
			expected: http.StatusBadRequest,
			message:  "validation error: query - too long",
		},
		{
			name:     "InvalidQueryError",
			err:      &discovery.InvalidQueryError{},
			expected: http.StatusBadRequest,
			message:  "invalid query: search query must be a non-empty string",
		},
		{
			name:     "ConfigurationError",
			err:      &discovery.ConfigurationError{Setting: "api_key", Message: "PERPLEXITY_API_KEY is not set"},
			expected: http.StatusInternalServerError,
			message:  "Search service is not configured.",
		},
		{
			name: "TotalFailureError",
			err: &discovery.TotalFailureError{Attempted: 3, Failures: []*discovery.SearchError{
				{Variant: "best kayaks", StatusCode: 502, Reason: "unexpected status"},
			}},
			expected: http.StatusServiceUnavailable,
			message:  discovery.UnavailableMessage,
		},
		{
			name:     "Wrapped TotalFailureError",
			err:      fmt.Errorf("search failed: %w", &discovery.TotalFailureError{Attempted: 1}),
			expected: http.StatusServiceUnavailable,
			message:  discovery.UnavailableMessage,
		},
		{
			name:     "Deadline",
			err:      context.DeadlineExceeded,
			expected: http.StatusServiceUnavailable,
			message:  discovery.UnavailableMessage,
		},
		{
			name:     "Unknown error",
			err:      assert.AnError,
			expected: http.StatusInternalServerError,
			message:  "Internal server error.",
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: http.StatusInternalServerError,
			message:  "Internal server error.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
			assert.Equal(t, tt.message, UserMessage(tt.err))
			assert.NotContains(t, UserMessage(tt.err), "502")
		})
	}
}
