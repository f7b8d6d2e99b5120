// Package service holds the list query engine: it turns raw grid parameters into
// validated requests, runs them against the resource's record accessor and shapes
// the result for the grid widget. It keeps no mutable state and does no logging;
// callers at the HTTP edge own both.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/maxviazov/config-grid-service/internal/model"
	"github.com/maxviazov/config-grid-service/internal/resource"
)

// Error taxonomy surfaced to the HTTP boundary.
var (
	// ErrUnknownResource means the resource name is not registered (client error).
	ErrUnknownResource = errors.New("unknown resource")
	// ErrInvalidParameter marks malformed or out-of-range grid input (client error).
	// Field-level details are retrieved via FieldErrors(err).
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrBackendUnavailable wraps any record accessor failure (server error).
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// FieldError describes a single offending request parameter.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidParameterError aggregates FieldErrors and unwraps to ErrInvalidParameter.
type invalidParameterError struct {
	fields []FieldError
}

func (e *invalidParameterError) Error() string {
	if len(e.fields) == 1 {
		return fmt.Sprintf("%s: %s %s", ErrInvalidParameter, e.fields[0].Field, e.fields[0].Message)
	}
	return fmt.Sprintf("%s: %d parameters rejected", ErrInvalidParameter, len(e.fields))
}
func (e *invalidParameterError) Unwrap() error        { return ErrInvalidParameter }
func (e *invalidParameterError) Fields() []FieldError { return e.fields }

// NewInvalidParameterError builds an aggregated validation error, or nil when fe is empty.
func NewInvalidParameterError(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidParameterError{fields: fe}
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	var v interface{ Fields() []FieldError }
	if errors.As(err, &v) && errors.Is(err, ErrInvalidParameter) {
		return v.Fields()
	}
	return nil
}

// backendError keeps the accessor's cause while matching ErrBackendUnavailable.
type backendError struct {
	resource string
	cause    error
}

func (e *backendError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrBackendUnavailable, e.resource, e.cause)
}
func (e *backendError) Unwrap() []error { return []error{ErrBackendUnavailable, e.cause} }

func unknownResource(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownResource, name)
}

// GridService is the list query engine contract used by the HTTP layer.
type GridService interface {
	// Describe returns the registered descriptor for a resource.
	Describe(resourceName string) (*resource.Descriptor, error)
	// BuildRequest validates raw grid parameters into a QueryRequest.
	BuildRequest(resourceName string, raw url.Values) (model.QueryRequest, error)
	// Execute runs the request and returns one page plus counts.
	Execute(ctx context.Context, req model.QueryRequest) (model.QueryResult, error)
	// Collect returns every matching row from the request's offset onwards, up to maxRows.
	Collect(ctx context.Context, req model.QueryRequest, maxRows int) (model.QueryResult, error)
	// Serialize shapes a result into the grid widget payload.
	Serialize(res model.QueryResult) model.GridPayload
}
