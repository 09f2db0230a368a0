package snapshot

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// It stores the encoded form so every Load returns an independent copy.
type InMemoryRepository struct {
	mu    sync.RWMutex
	data  []byte
	saved bool
}

// NewInMemoryRepository creates a new in-memory snapshot repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Save replaces the stored snapshot.
func (r *InMemoryRepository) Save(_ context.Context, s *Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = data
	r.saved = true
	return nil
}

// Load returns the stored snapshot.
func (r *InMemoryRepository) Load(_ context.Context) (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.saved {
		return nil, ErrNotFound
	}
	return Unmarshal(r.data)
}

var _ Repository = (*InMemoryRepository)(nil)
