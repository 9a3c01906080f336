package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/startline/auth-server/internal/domain"
)

type refreshTokenRepository struct {
	db DBTX
}

// NewRefreshTokenRepository returns a Postgres-backed implementation.
func NewRefreshTokenRepository(db DBTX) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Save always inserts a fresh row; concurrent issuances never touch the same row.
func (r *refreshTokenRepository) Save(ctx context.Context, token *domain.RefreshToken) error {
	const query = `
        INSERT INTO refresh_tokens (id, token_value, username, expires_at)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`

	return r.db.QueryRow(ctx, query,
		token.ID,
		token.Token,
		token.Username,
		token.ExpiresAt,
	).Scan(&token.CreatedAt)
}

func (r *refreshTokenRepository) FindValid(ctx context.Context, token, owner string, now time.Time) (*domain.RefreshToken, error) {
	const query = `
        SELECT id, token_value, username, expires_at, created_at
        FROM refresh_tokens
        WHERE token_value=$1 AND username=$2 AND expires_at > $3
        ORDER BY created_at DESC
        LIMIT 1`

	var record domain.RefreshToken
	if err := r.db.QueryRow(ctx, query, token, owner, now).Scan(
		&record.ID,
		&record.Token,
		&record.Username,
		&record.ExpiresAt,
		&record.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
