package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/startline/auth-server/internal/domain"
)

// DBTX is the subset of pgx used by repositories. Both *pgxpool.Pool and pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PrincipalRepository defines persistence access for principals.
type PrincipalRepository interface {
	Create(ctx context.Context, principal *domain.Principal) error
	FindByUsername(ctx context.Context, username string) (*domain.Principal, error)
	IsEnabled(ctx context.Context, username string) (bool, error)
	SetEnabled(ctx context.Context, username string, enabled bool) error
}

// AuthorityRepository defines persistence access for authority grants.
type AuthorityRepository interface {
	Create(ctx context.Context, authority *domain.Authority) error
	ListByUsername(ctx context.Context, username string) ([]domain.Authority, error)
}

// RefreshTokenRepository persists refresh tokens. FindValid returns nil without
// error when no unexpired token matches.
type RefreshTokenRepository interface {
	Save(ctx context.Context, token *domain.RefreshToken) error
	FindValid(ctx context.Context, token, owner string, now time.Time) (*domain.RefreshToken, error)
}

// Store exposes repositories bound to one transaction.
type Store interface {
	Principals() PrincipalRepository
	Authorities() AuthorityRepository
	RefreshTokens() RefreshTokenRepository
}

// Transactor runs fn inside a serializable transaction. All writes made
// through store commit together or not at all.
type Transactor interface {
	WithinSerializable(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

type storeOptions struct {
	refreshTokens RefreshTokenRepository
	maxAttempts   int
}

// StoreOption customizes a Transactor.
type StoreOption func(*storeOptions)

// WithRefreshTokenStore routes refresh tokens to an external store such as Redis.
// Writes are held back until the surrounding transaction commits.
func WithRefreshTokenStore(repo RefreshTokenRepository) StoreOption {
	return func(o *storeOptions) {
		o.refreshTokens = repo
	}
}

// WithMaxAttempts bounds retries of transactions aborted by serialization failures.
func WithMaxAttempts(n int) StoreOption {
	return func(o *storeOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

func buildOptions(opts []StoreOption) storeOptions {
	o := storeOptions{maxAttempts: 3}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// pendingRefreshTokens buffers refresh token writes bound for an external
// store. A transaction that aborts or retries discards its buffer, so the
// external store only ever sees tokens issued by committed work.
type pendingRefreshTokens struct {
	target  RefreshTokenRepository
	pending []domain.RefreshToken
}

func newPendingRefreshTokens(target RefreshTokenRepository) *pendingRefreshTokens {
	if target == nil {
		return nil
	}
	return &pendingRefreshTokens{target: target}
}

func (p *pendingRefreshTokens) Save(_ context.Context, token *domain.RefreshToken) error {
	p.pending = append(p.pending, *token)
	return nil
}

func (p *pendingRefreshTokens) FindValid(ctx context.Context, token, owner string, now time.Time) (*domain.RefreshToken, error) {
	for i := len(p.pending) - 1; i >= 0; i-- {
		record := p.pending[i]
		if record.Token == token && record.Username == owner && !record.Expired(now) {
			return &record, nil
		}
	}
	return p.target.FindValid(ctx, token, owner, now)
}

// flush writes the buffered tokens once the transaction has committed.
func (p *pendingRefreshTokens) flush(ctx context.Context) error {
	if p == nil {
		return nil
	}
	for i := range p.pending {
		if err := p.target.Save(ctx, &p.pending[i]); err != nil {
			return fmt.Errorf("persist refresh token after commit: %w", err)
		}
	}
	p.pending = nil
	return nil
}
