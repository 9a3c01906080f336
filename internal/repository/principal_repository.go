package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/startline/auth-server/internal/domain"
)

const uniqueViolation = "23505"

type principalRepository struct {
	db DBTX
}

// NewPrincipalRepository returns a Postgres-backed implementation.
func NewPrincipalRepository(db DBTX) PrincipalRepository {
	return &principalRepository{db: db}
}

func (r *principalRepository) Create(ctx context.Context, principal *domain.Principal) error {
	const query = `
        INSERT INTO users (username, password_hash, nickname, enabled)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		principal.Username,
		principal.PasswordHash,
		principal.Nickname,
		principal.Enabled,
	).Scan(&principal.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateUsername, principal.Username)
		}
		return err
	}
	return nil
}

func (r *principalRepository) FindByUsername(ctx context.Context, username string) (*domain.Principal, error) {
	const query = `
        SELECT username, password_hash, nickname, enabled, created_at
        FROM users WHERE username=$1`

	var principal domain.Principal
	if err := r.db.QueryRow(ctx, query, username).Scan(
		&principal.Username,
		&principal.PasswordHash,
		&principal.Nickname,
		&principal.Enabled,
		&principal.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, err
	}

	authorities, err := NewAuthorityRepository(r.db).ListByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	for _, a := range authorities {
		principal.Authorities = append(principal.Authorities, a.Authority)
	}
	return &principal, nil
}

func (r *principalRepository) IsEnabled(ctx context.Context, username string) (bool, error) {
	const query = `SELECT enabled FROM users WHERE username=$1`

	var enabled bool
	if err := r.db.QueryRow(ctx, query, username).Scan(&enabled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrPrincipalNotFound
		}
		return false, err
	}
	return enabled, nil
}

func (r *principalRepository) SetEnabled(ctx context.Context, username string, enabled bool) error {
	const query = `UPDATE users SET enabled=$1 WHERE username=$2`

	cmd, err := r.db.Exec(ctx, query, enabled, username)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrPrincipalNotFound
	}
	return nil
}
