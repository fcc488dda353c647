// Package discovery - errors.go defines the failure taxonomy of a discovery run.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// UnavailableMessage is the only text shown to users when upstream search fails.
const UnavailableMessage = "Search is temporarily unavailable. Please try again later."

// InvalidQueryError is returned before any network call for an empty query.
type InvalidQueryError struct {
	Query string
}

func (e *InvalidQueryError) Error() string {
	return "invalid query: search query must be a non-empty string"
}

// ConfigurationError indicates the service cannot run at all, e.g. a missing API key.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Message)
}

// SearchError is one variant's failed upstream call. It is logged and swallowed by
// the aggregator; the variant simply contributes no results.
type SearchError struct {
	Variant    string
	StatusCode int
	Reason     string
	Cause      error
}

func (e *SearchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("search for %q failed with status %d: %s", e.Variant, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("search for %q failed: %s", e.Variant, e.Reason)
}

func (e *SearchError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether a second attempt could plausibly succeed.
func (e *SearchError) Retryable() bool {
	if errors.Is(e.Cause, context.DeadlineExceeded) {
		return true
	}
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	case e.StatusCode == 0:
		return e.Reason == reasonTransport
	default:
		return false
	}
}

// TotalFailureError means no variant produced a usable response.
type TotalFailureError struct {
	Attempted int
	Failures  []*SearchError
}

func (e *TotalFailureError) Error() string {
	return fmt.Sprintf("all %d search requests failed", e.Attempted)
}

// UserMessage is the non-leaking message for API clients.
func (e *TotalFailureError) UserMessage() string {
	return UnavailableMessage
}

// IsInvalidQuery checks if an error is an InvalidQueryError
func IsInvalidQuery(err error) bool {
	var target *InvalidQueryError
	return errors.As(err, &target)
}

// IsConfiguration checks if an error is a ConfigurationError
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsTotalFailure checks if an error is a TotalFailureError
func IsTotalFailure(err error) bool {
	var target *TotalFailureError
	return errors.As(err, &target)
}
