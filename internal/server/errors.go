// Package server provides the HTTP REST API for listicle discovery.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/getlisticled/internal/discovery"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	switch {
	case errors.As(err, &validation), discovery.IsInvalidQuery(err):
		return http.StatusBadRequest
	case discovery.IsTotalFailure(err), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the message shown to API clients for err. Upstream status
// codes and response bodies never reach the client.
func UserMessage(err error) string {
	var validation *ErrValidation
	switch {
	case errors.As(err, &validation), discovery.IsInvalidQuery(err):
		return err.Error()
	case discovery.IsConfiguration(err):
		return "Search service is not configured."
	case discovery.IsTotalFailure(err), errors.Is(err, context.DeadlineExceeded):
		return discovery.UnavailableMessage
	default:
		return "Internal server error."
	}
}
