// Package prefs persists the two user preferences of the organizer: the
// category registry and the theme.
package prefs

import (
	"context"
	"sync"
)

// Keys of the persisted preference records.
const (
	KeyCategories = "file-organizer-categories"
	KeyTheme      = "file-organizer-theme"
)

// Store is a small string-keyed load/save interface. Implementations must
// honour the supplied context for cancellation and timeouts.
type Store interface {
	// Load returns the value under key; ok is false when nothing is stored.
	Load(ctx context.Context, key string) (value string, ok bool, err error)

	// Save stores value under key, replacing any previous value.
	Save(ctx context.Context, key, value string) error
}

// MemoryStore keeps preferences for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Load(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Save(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
