package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	apperrors "github.com/jrsteele09/go-session-service/internal/errors"
	"github.com/jrsteele09/go-session-service/principals"
)

const uniqueViolationCode = "23505"

type PrincipalRepo struct {
	db *pgxpool.Pool
}

var _ principals.Repo = (*PrincipalRepo)(nil)

func NewPrincipalRepo(db *pgxpool.Pool) *PrincipalRepo {
	return &PrincipalRepo{db: db}
}

func (r *PrincipalRepo) Create(ctx context.Context, principal *principals.Principal) error {
	query :=
		`INSERT INTO principals (username, email, password_hash, first_name, last_name, date_joined)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	err := r.db.QueryRow(ctx, query,
		principal.Username, principal.Email, principal.PasswordHash,
		principal.FirstName, principal.LastName, principal.DateJoined,
	).Scan(&principal.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if apperrors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PrincipalRepo) GetByID(ctx context.Context, id int64) (*principals.Principal, error) {
	query :=
		`SELECT id, username, email, password_hash, first_name, last_name, date_joined, last_login
		 FROM principals
		 WHERE id = $1
		 `

	principal, err := scanPrincipal(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if apperrors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return principal, nil
}

// GetByUsernameOrEmail collapses the two lookups into one query. Two
// distinct rows mean the candidate matched one principal's username and a
// different principal's email; that lookup is undefined and rejected.
func (r *PrincipalRepo) GetByUsernameOrEmail(ctx context.Context, candidate string) (*principals.Principal, error) {
	query :=
		`SELECT id, username, email, password_hash, first_name, last_name, date_joined, last_login
		 FROM principals
		 WHERE lower(username) = lower($1) OR lower(email) = lower($1)
		 LIMIT 2
		 `

	rows, err := r.db.Query(ctx, query, candidate)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var matches []*principals.Principal
	for rows.Next() {
		principal, err := scanPrincipal(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		matches = append(matches, principal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, apperrors.ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return nil, principals.AmbiguousMatchErr
	}
}

func (r *PrincipalRepo) SetLastLogin(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE principals SET last_login = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row rowScanner) (*principals.Principal, error) {
	principal := &principals.Principal{}
	var lastLogin *time.Time

	err := row.Scan(
		&principal.ID, &principal.Username, &principal.Email, &principal.PasswordHash,
		&principal.FirstName, &principal.LastName, &principal.DateJoined, &lastLogin,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin != nil {
		principal.LastLogin = *lastLogin
	}
	return principal, nil
}
