package pin

import "context"

// Repo persists PIN records keyed by principal ID.
type Repo interface {
	// Create stores a new record. Fails with ErrConflict if the principal
	// already has one; setup is one-time per principal.
	Create(ctx context.Context, record *Record) error

	// Get retrieves the record for a principal, or ErrNotFound.
	Get(ctx context.Context, principalID int64) (*Record, error)

	// UpdateAttempts writes the attempt counter and lock flag together.
	UpdateAttempts(ctx context.Context, principalID int64, failedAttempts int, isLocked bool) error

	// Reset clears the counter and lock flag. Administrative escape hatch
	// for operator tooling; nothing in the service calls it.
	Reset(ctx context.Context, principalID int64) error
}
