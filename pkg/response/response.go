// Package response centralizes HTTP response shapes and helpers.
// Handlers rely on it to keep controllers thin and uniform.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/config-grid-service/internal/service"
)

// ErrorPayload is the canonical error envelope returned by the API.
type ErrorPayload struct {
	Error       string               `json:"error"`
	Message     string               `json:"message,omitempty"`
	FieldErrors []service.FieldError `json:"field_errors,omitempty"`
}

// ErrNotImplemented marks routes that exist but carry no behavior yet.
var ErrNotImplemented = errors.New("not implemented")

// MapError converts an engine error into an HTTP status and payload.
// Backend causes are never echoed to clients.
func MapError(err error) (int, ErrorPayload) {
	if err == nil {
		return http.StatusOK, ErrorPayload{Error: "ok"}
	}

	switch {
	case errors.Is(err, service.ErrInvalidParameter):
		return http.StatusBadRequest, ErrorPayload{
			Error:       "invalid_parameter",
			Message:     "one or more parameters are invalid",
			FieldErrors: service.FieldErrors(err),
		}
	case errors.Is(err, service.ErrUnknownResource):
		return http.StatusNotFound, ErrorPayload{Error: "unknown_resource", Message: err.Error()}
	case errors.Is(err, service.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, ErrorPayload{Error: "backend_unavailable"}
	case errors.Is(err, ErrNotImplemented):
		return http.StatusNotImplemented, ErrorPayload{Error: "not_implemented"}
	default:
		return http.StatusInternalServerError, ErrorPayload{Error: "internal_error"}
	}
}

// WriteError writes an error response and aborts the context. The error is
// attached to the gin context so the request logger can report it.
func WriteError(c *gin.Context, err error) {
	status, payload := MapError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, payload)
}

// WriteData writes a successful JSON response.
func WriteData(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}
