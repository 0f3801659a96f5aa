package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	apperrors "github.com/jrsteele09/go-session-service/internal/errors"
	"github.com/jrsteele09/go-session-service/sessions"
)

type SessionRepo struct {
	db *pgxpool.Pool
}

var _ sessions.Repo = (*SessionRepo)(nil)

func NewSessionRepo(db *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{db: db}
}

// Upsert replaces the principal's single session slot in one statement, so
// the slot never transiently holds two rows.
func (r *SessionRepo) Upsert(ctx context.Context, session *sessions.RefreshSession) error {
	query :=
		`INSERT INTO refresh_sessions (principal_id, token_hash, issued_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (principal_id)
		 DO UPDATE SET token_hash = EXCLUDED.token_hash, issued_at = EXCLUDED.issued_at
		 `

	_, err := r.db.Exec(ctx, query, session.PrincipalID, session.TokenHash, session.IssuedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, principalID int64) (*sessions.RefreshSession, error) {
	query :=
		`SELECT principal_id, token_hash, issued_at FROM refresh_sessions
		 WHERE principal_id = $1
		 `

	session := &sessions.RefreshSession{}
	err := r.db.QueryRow(ctx, query, principalID).
		Scan(&session.PrincipalID, &session.TokenHash, &session.IssuedAt)
	if err != nil {
		if apperrors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return session, nil
}

func (r *SessionRepo) Delete(ctx context.Context, principalID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_sessions WHERE principal_id = $1`, principalID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
