package server

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidCredentials indicates the API refused the admin's credentials.
type ErrInvalidCredentials struct {
	Message string
}

func (e *ErrInvalidCredentials) Error() string {
	if e.Message == "" {
		return "invalid email or password"
	}
	return e.Message
}

// ErrNotFound indicates a record the admin asked for does not exist.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUpstream indicates the egresados API could not be reached or answered garbage.
type ErrUpstream struct {
	Op    string
	Cause error
}

func (e *ErrUpstream) Error() string {
	return fmt.Sprintf("%s: egresados api unavailable: %v", e.Op, e.Cause)
}

func (e *ErrUpstream) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		credErr     *ErrInvalidCredentials
		notFoundErr *ErrNotFound
		valErr      *ErrValidation
		upErr       *ErrUpstream
	)
	switch {
	case errors.As(err, &credErr):
		return http.StatusUnauthorized
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &valErr):
		return http.StatusBadRequest
	case errors.As(err, &upErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
