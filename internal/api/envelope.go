package api

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/egresados-admin/internal/schemas"
	rootschemas "github.com/jonathan/egresados-admin/schemas"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// envelope is the wire shape of every API response.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message *string         `json:"message"`
}

// Result is a decoded envelope: either Ok with data or Err with the server's message.
type Result[T any] struct {
	ok      bool
	data    T
	message string
}

// Ok builds a successful result.
func Ok[T any](data T) Result[T] {
	return Result[T]{ok: true, data: data}
}

// Err builds a failed result.
func Err[T any](message string) Result[T] {
	return Result[T]{message: message}
}

// IsOk reports whether the envelope had status "success".
func (r Result[T]) IsOk() bool {
	return r.ok
}

// Data returns the payload; it is the zero value for Err results.
func (r Result[T]) Data() T {
	return r.data
}

// Message returns the server's message for Err results.
func (r Result[T]) Message() string {
	return r.message
}

// Unwrap converts the result into Go's (value, error) form.
func (r Result[T]) Unwrap(endpoint string) (T, error) {
	if r.ok {
		return r.data, nil
	}
	var zero T
	return zero, &EnvelopeError{Endpoint: endpoint, Message: r.message}
}

// decodeEnvelope checks body against the envelope schema and decodes it once.
func decodeEnvelope[T any](v *schemas.Validator, body []byte) (Result[T], error) {
	if err := v.Validate(rootschemas.Envelope, body); err != nil {
		return Result[T]{}, fmt.Errorf("malformed envelope: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Result[T]{}, fmt.Errorf("failed to decode envelope: %w", err)
	}

	if env.Status == StatusError {
		msg := ""
		if env.Message != nil {
			msg = *env.Message
		}
		return Err[T](msg), nil
	}

	var data T
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return Result[T]{}, fmt.Errorf("failed to decode data: %w", err)
		}
	}
	return Ok(data), nil
}
