package ads

import (
	"context"
	"slices"
	"sync"
)

// Store persists advertisements.
type Store interface {
	SaveAdvertisement(ctx context.Context, a Advertisement) error
	ListAdvertisements(ctx context.Context) ([]Advertisement, error)
	GetAdvertisement(ctx context.Context, id string) (Advertisement, error)
}

// MemoryStore keeps ads in process memory. It is the default when no database is configured.
type MemoryStore struct {
	mu  sync.RWMutex
	ads []Advertisement
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) SaveAdvertisement(_ context.Context, a Advertisement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.ads {
		if m.ads[i].ID == a.ID {
			m.ads[i] = a
			return nil
		}
	}
	m.ads = append(m.ads, a)
	return nil
}

// ListAdvertisements returns the ads, newest first.
func (m *MemoryStore) ListAdvertisements(_ context.Context) ([]Advertisement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Clone(m.ads)
	slices.SortStableFunc(out, func(a, b Advertisement) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) GetAdvertisement(_ context.Context, id string) (Advertisement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.ads {
		if a.ID == id {
			return a, nil
		}
	}
	return Advertisement{}, ErrNotFound
}
