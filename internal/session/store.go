// Package session holds the admin's bearer token for the lifetime of a browser session.
package session

import (
	"context"
	"errors"
	"fmt"
)

// Store persists one bearer token per browser session.
type Store interface {
	// Get returns the token for sid; ok is false when none is stored.
	Get(ctx context.Context, sid string) (token string, ok bool, err error)
	Set(ctx context.Context, sid, token string) error
	Clear(ctx context.Context, sid string) error
}

// ErrEmptySessionID is returned when a Session is built without an identifier.
var ErrEmptySessionID = errors.New("session id is empty")

// Session is the explicit handle on one browser session's token.
// It is passed to the API client and route loaders instead of an ambient lookup.
type Session struct {
	id    string
	store Store
}

// New binds a session identifier to a token store.
func New(id string, store Store) (*Session, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}
	if store == nil {
		return nil, fmt.Errorf("session %s: nil token store", id)
	}
	return &Session{id: id, store: store}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Token reads the current token. It is read from the store on every call.
func (s *Session) Token(ctx context.Context) (string, bool, error) {
	token, ok, err := s.store.Get(ctx, s.id)
	if err != nil {
		return "", false, fmt.Errorf("failed to read token: %w", err)
	}
	if token == "" {
		return "", false, nil
	}
	return token, ok, nil
}

// SetToken stores the token returned by a successful login.
func (s *Session) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("refusing to store an empty token")
	}
	if err := s.store.Set(ctx, s.id, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Clear destroys the token; used on logout and whenever the API rejects it.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx, s.id); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}
