package session

import (
	"context"
	"sync"
)

// MemoryStore keeps tokens in process memory. Tokens do not survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]string)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, sid string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	token, ok := m.tokens[sid]
	return token, ok, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, sid, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[sid] = token
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, sid)
	return nil
}

// Len returns the number of stored tokens.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tokens)
}
