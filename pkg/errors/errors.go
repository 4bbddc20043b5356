// Package errors defines the error taxonomy of the catalog service. Every
// error that crosses the service boundary is one of the sentinel kinds below
// so the HTTP layer can choose the correct response code.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound means the entity is absent at both cache and backend.
	// A normal outcome, never cached and never logged as an error.
	ErrNotFound = errors.New("entity not found")

	// ErrBackendUnavailable means the search backend could not be reached
	// or returned a fault. Distinct from not-found, never cached.
	ErrBackendUnavailable = errors.New("search backend unavailable")

	// ErrMalformedDocument means a fetched document failed shape validation
	// after enrichment. Recovered internally by dropping the document.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrInvalidInput marks request parameters rejected at the boundary.
	ErrInvalidInput = errors.New("invalid input")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps a domain error onto the response code the boundary
// must return. Not-found and backend failures must never share a code.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
