package snapshot

import "context"

// Repository defines the interface for snapshot persistence.
type Repository interface {
	// Save replaces the stored snapshot.
	Save(ctx context.Context, s *Snapshot) error

	// Load returns the stored snapshot.
	// Returns ErrNotFound if nothing has been saved.
	Load(ctx context.Context) (*Snapshot, error)
}
