package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrInvalidCredentials(t *testing.T) {
	assert.Equal(t, "invalid email or password", (&ErrInvalidCredentials{}).Error())
	assert.Equal(t, "Bad credentials", (&ErrInvalidCredentials{Message: "Bad credentials"}).Error())
}

func TestErrNotFound(t *testing.T) {
	err := &ErrNotFound{Resource: "advertisement", ID: "A1"}
	assert.Equal(t, "advertisement not found: A1", err.Error())
}

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "tab", Message: "unknown tab"}
	assert.Equal(t, "validation error: tab - unknown tab", err.Error())
}

func TestErrUpstream_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ErrUpstream{Op: "login", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "login")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"ErrInvalidCredentials", &ErrInvalidCredentials{}, http.StatusUnauthorized},
		{"ErrNotFound", &ErrNotFound{Resource: "egresado", ID: "E9"}, http.StatusNotFound},
		{"ErrValidation", &ErrValidation{Field: "file"}, http.StatusBadRequest},
		{"ErrUpstream", &ErrUpstream{Op: "export"}, http.StatusBadGateway},
		{"wrapped", fmt.Errorf("render: %w", &ErrValidation{}), http.StatusBadRequest},
		{"generic", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
