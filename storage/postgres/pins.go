package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	apperrors "github.com/jrsteele09/go-session-service/internal/errors"
	"github.com/jrsteele09/go-session-service/pin"
)

type PinRepo struct {
	db *pgxpool.Pool
}

var _ pin.Repo = (*PinRepo)(nil)

func NewPinRepo(db *pgxpool.Pool) *PinRepo {
	return &PinRepo{db: db}
}

func (r *PinRepo) Create(ctx context.Context, record *pin.Record) error {
	query :=
		`INSERT INTO pin_records (principal_id, hashed_pin, failed_attempts, is_locked, max_attempts, pin_length)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	_, err := r.db.Exec(ctx, query,
		record.PrincipalID,
		record.HashedPIN,
		record.FailedAttempts,
		record.IsLocked,
		record.MaxAttempts,
		record.PINLength,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if apperrors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PinRepo) Get(ctx context.Context, principalID int64) (*pin.Record, error) {
	query :=
		`SELECT principal_id, hashed_pin, failed_attempts, is_locked, max_attempts, pin_length
		 FROM pin_records
		 WHERE principal_id = $1
		 `

	record := &pin.Record{}
	err := r.db.QueryRow(ctx, query, principalID).Scan(
		&record.PrincipalID,
		&record.HashedPIN,
		&record.FailedAttempts,
		&record.IsLocked,
		&record.MaxAttempts,
		&record.PINLength,
	)
	if err != nil {
		if apperrors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return record, nil
}

// UpdateAttempts writes the failure counter and lock flag together so a
// lockout transition is never split across statements.
func (r *PinRepo) UpdateAttempts(ctx context.Context, principalID int64, failedAttempts int, isLocked bool) error {
	query :=
		`UPDATE pin_records SET failed_attempts = $2, is_locked = $3
		 WHERE principal_id = $1
		 `

	tag, err := r.db.Exec(ctx, query, principalID, failedAttempts, isLocked)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PinRepo) Reset(ctx context.Context, principalID int64) error {
	query :=
		`UPDATE pin_records SET failed_attempts = 0, is_locked = FALSE
		 WHERE principal_id = $1
		 `

	tag, err := r.db.Exec(ctx, query, principalID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
