// Package postgres implements persistence.Store on PostgreSQL through pgx.
// An exclusion constraint on (room_id, tstzrange) rejects overlapping
// reservations even when writers bypass the booking service.
package postgres

import (
	"context"
	_ "embed"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/persistence"
)

//go:embed schema.sql
var schema string

// PostgreSQL error codes the store translates.
const (
	codeExclusionViolation   = "23P01"
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeNotNullViolation     = "23502"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

const defaultMaxRetries = 3

// Store is a persistence.Store backed by a pgx connection pool.
type Store struct {
	pool       *pgxpool.Pool
	logger     *slog.Logger
	newID      func() string
	now        func() time.Time
	maxRetries int
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger used for retries.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator overrides uuid-based identifiers.
func WithIDGenerator(next func() string) Option {
	return func(s *Store) {
		if next != nil {
			s.newID = next
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

var _ persistence.Store = (*Store)(nil)

// Open creates a pool for dsn and verifies the connection.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errs.Wrap(err, "parse postgres dsn")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errs.Wrap(err, "create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.Wrap(err, "ping postgres")
	}
	return New(pool, opts...), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{
		pool:       pool,
		logger:     slog.Default(),
		newID:      uuid.NewString,
		now:        time.Now,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the schema when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return errs.Wrap(err, "apply postgres schema")
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// runInTx runs fn in a transaction and retries serialization failures and
// deadlocks with a linear backoff.
func runInTx[T any](ctx context.Context, s *Store, fn func(tx pgx.Tx) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, err := runOnce(ctx, s.pool, fn)
		if err == nil || !isRetryable(err) {
			return result, err
		}
		if attempt == s.maxRetries {
			return zero, errs.Wrapf(err, "transaction failed after %d attempts", attempt+1)
		}

		wait := time.Duration(attempt+1) * 100 * time.Millisecond
		s.logger.WarnContext(ctx, "retrying postgres transaction", "attempt", attempt+1, "wait_time", wait, "error", err)
		select {
		case <-ctx.Done():
			return zero, errs.Wrap(ctx.Err(), "waiting to retry transaction")
		case <-time.After(wait):
		}
	}
}

func runOnce[T any](ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) (T, error)) (T, error) {
	var zero T
	tx, err := pool.Begin(ctx)
	if err != nil {
		return zero, errs.Wrap(err, "begin transaction")
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errs.Is(rbErr, pgx.ErrTxClosed) {
			slog.WarnContext(ctx, "failed to rollback transaction", "error", rbErr)
		}
	}()

	result, err := fn(tx)
	if err != nil {
		return zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return zero, errs.Wrap(err, "commit transaction")
	}
	return result, nil
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errs.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
}

// mapError translates driver failures into persistence sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errs.Is(err, pgx.ErrNoRows) {
		return errs.Mark(err, persistence.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if !errs.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeExclusionViolation:
		return errs.Mark(err, persistence.ErrOverlap)
	case codeUniqueViolation:
		return errs.Mark(err, persistence.ErrDuplicate)
	case codeForeignKeyViolation, codeCheckViolation, codeNotNullViolation:
		return errs.Mark(err, persistence.ErrConstraintViolation)
	}
	return err
}
