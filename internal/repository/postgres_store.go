package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const serializationFailure = "40001"

// TxBeginner starts pgx transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type pgStore struct {
	db            DBTX
	refreshTokens *pendingRefreshTokens
}

func (s *pgStore) Principals() PrincipalRepository   { return NewPrincipalRepository(s.db) }
func (s *pgStore) Authorities() AuthorityRepository { return NewAuthorityRepository(s.db) }

func (s *pgStore) RefreshTokens() RefreshTokenRepository {
	if s.refreshTokens != nil {
		return s.refreshTokens
	}
	return NewRefreshTokenRepository(s.db)
}

// PostgresTransactor runs units of work in serializable pgx transactions.
type PostgresTransactor struct {
	db     TxBeginner
	opts   storeOptions
	logger *zap.Logger
}

// NewPostgresTransactor builds a transactor over the pool.
func NewPostgresTransactor(db TxBeginner, logger *zap.Logger, opts ...StoreOption) *PostgresTransactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresTransactor{db: db, opts: buildOptions(opts), logger: logger}
}

// WithinSerializable retries the whole unit of work when Postgres aborts it
// with a serialization failure.
func (t *PostgresTransactor) WithinSerializable(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	if t.db == nil {
		return errors.New("postgres pool not configured")
	}

	var err error
	for attempt := 1; attempt <= t.opts.maxAttempts; attempt++ {
		pending := newPendingRefreshTokens(t.opts.refreshTokens)
		err = t.withTx(ctx, fn, pending)
		if err == nil {
			return pending.flush(ctx)
		}
		if !isSerializationFailure(err) {
			return err
		}
		t.logger.Debug("serialization failure, retrying transaction", zap.Int("attempt", attempt))
	}
	return fmt.Errorf("transaction aborted after %d attempts: %w", t.opts.maxAttempts, err)
}

func (t *PostgresTransactor) withTx(ctx context.Context, fn func(ctx context.Context, store Store) error, pending *pendingRefreshTokens) (err error) {
	tx, err := t.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()

	return fn(ctx, &pgStore{db: tx, refreshTokens: pending})
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == serializationFailure
}
