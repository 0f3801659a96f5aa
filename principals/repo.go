package principals

import (
	"context"
	"errors"
)

// AmbiguousMatchErr is returned when a sign-in candidate string matches the
// username of one principal and the email of a different principal. The
// lookup is undefined in that case and must be rejected rather than guessed.
var AmbiguousMatchErr = errors.New("ambiguous principal match")

type Repo interface {
	// Create stores a new principal and assigns its ID.
	Create(ctx context.Context, principal *Principal) error

	// GetByID retrieves a principal by its numeric ID.
	GetByID(ctx context.Context, id int64) (*Principal, error)

	// GetByUsernameOrEmail resolves a single principal whose username or
	// email equals candidate. Returns AmbiguousMatchErr if the candidate
	// matches different principals on each field.
	GetByUsernameOrEmail(ctx context.Context, candidate string) (*Principal, error)

	// SetLastLogin records the time of the latest successful sign-in.
	SetLastLogin(ctx context.Context, id int64) error
}
