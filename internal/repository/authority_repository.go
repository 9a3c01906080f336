package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/startline/auth-server/internal/domain"
)

const foreignKeyViolation = "23503"

type authorityRepository struct {
	db DBTX
}

// NewAuthorityRepository returns a Postgres-backed implementation.
func NewAuthorityRepository(db DBTX) AuthorityRepository {
	return &authorityRepository{db: db}
}

func (r *authorityRepository) Create(ctx context.Context, authority *domain.Authority) error {
	const query = `
        INSERT INTO user_authorities (username, authority)
        VALUES ($1, $2)
        RETURNING user_authorities_id, created_at`

	err := r.db.QueryRow(ctx, query, authority.Username, authority.Authority).
		Scan(&authority.ID, &authority.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return domain.ErrPrincipalNotFound
		}
		return err
	}
	return nil
}

func (r *authorityRepository) ListByUsername(ctx context.Context, username string) ([]domain.Authority, error) {
	const query = `
        SELECT user_authorities_id, username, authority, created_at
        FROM user_authorities WHERE username=$1
        ORDER BY user_authorities_id`

	rows, err := r.db.Query(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var authorities []domain.Authority
	for rows.Next() {
		var a domain.Authority
		if err := rows.Scan(&a.ID, &a.Username, &a.Authority, &a.CreatedAt); err != nil {
			return nil, err
		}
		authorities = append(authorities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return authorities, nil
}
