// Package apperrors defines the error kinds the storytelling engine can
// surface to its callers. Handlers translate them to HTTP statuses; anything
// outside this taxonomy is reported as a generic internal error.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrPermission   = errors.New("permission denied")
	ErrInvalidState = errors.New("invalid state")
	ErrCapacity     = errors.New("capacity reached")
)

// HTTPStatus maps an engine error to the status code the HTTP surface uses.
// Unknown errors map to 500 so no storage detail leaks to clients.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidState), errors.Is(err, ErrCapacity):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
