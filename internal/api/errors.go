package api

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when an authenticated call finds no stored token.
// No request is sent.
var ErrUnauthenticated = errors.New("no session token")

// EnvelopeError is an envelope with status "error". On reads it means the session
// is no longer valid.
type EnvelopeError struct {
	Endpoint string
	Message  string
}

func (e *EnvelopeError) Error() string {
	return fmt.Sprintf("%s: api error: %s", e.Endpoint, e.Message)
}

// TransportError is a failure to obtain a well-formed envelope: network errors,
// non-JSON bodies, schema mismatches and failed binary downloads.
type TransportError struct {
	Op         string
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.URL, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Kind classifies an error returned by the client.
type Kind int

// Error kinds.
const (
	KindNone Kind = iota
	KindUnauthenticated
	KindSessionInvalid
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindSessionInvalid:
		return "session_invalid"
	case KindTransport:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// Classify maps err onto the console's error taxonomy. Errors the client does not
// produce are treated as transport failures.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrUnauthenticated) {
		return KindUnauthenticated
	}
	var envErr *EnvelopeError
	if errors.As(err, &envErr) {
		return KindSessionInvalid
	}
	return KindTransport
}

// UserMessage returns the text shown to the admin for a failed mutation:
// the server's message when there is one, otherwise the error itself.
func UserMessage(err error) string {
	var envErr *EnvelopeError
	if errors.As(err, &envErr) {
		return envErr.Message
	}
	var trErr *TransportError
	if errors.As(err, &trErr) {
		return fmt.Sprintf("Submission failed - %s", trErr.Message)
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
