package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the API failure classes callers branch on. Every
// *APIError unwraps to the sentinel matching its status, so
// errors.Is(err, ErrNotFound) works regardless of message.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrValidation   = errors.New("validation failed")
)

// APIError is a failure envelope returned by the Arena API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("arena: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("arena: %s (status %d)", e.Message, e.Status)
}

// Unwrap maps the HTTP status onto the sentinel for that failure class.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	}
	return nil
}
