package sessions

import "context"

// Repo persists refresh sessions keyed by principal ID. There is exactly one
// slot per principal; Upsert replaces whatever the slot held before.
type Repo interface {
	// Upsert creates or replaces the session for session.PrincipalID.
	Upsert(ctx context.Context, session *RefreshSession) error

	// Get retrieves the session for a principal, or ErrNotFound.
	Get(ctx context.Context, principalID int64) (*RefreshSession, error)

	// Delete removes the session for a principal. Deleting an absent
	// session is not an error.
	Delete(ctx context.Context, principalID int64) error
}
