// Package sqlite implements persistence.Store on an embedded SQLite database
// using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// timeLayout is fixed width so that TEXT comparison orders instants.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is a persistence.Store backed by SQLite.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
	retry  RetryConfig
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger used for migrations and retries.
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

// WithRetry overrides the retry policy for busy databases.
func WithRetry(cfg RetryConfig) Option {
	return func(s *Store) { s.retry = cfg }
}

var _ persistence.Store = (*Store)(nil)

// Open connects to the database described by cfg and verifies the connection.
// Call Migrate before first use.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	db, err := sqlx.Open("sqlite", cfg.DataSourceName())
	if err != nil {
		return nil, errs.Wrap(err, "open sqlite database")
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errs.Wrap(err, "ping sqlite database")
	}

	s := &Store{
		db:     db,
		logger: slog.Default(),
		newID:  uuid.NewString,
		now:    time.Now,
		retry:  DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewExecutor(s.db),
		s.logger,
	)
	return manager.Run(ctx)
}

// DB exposes the underlying handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// withTx runs fn in a transaction. It rolls back when fn fails or panics and
// retries the whole transaction while the database reports it is busy.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return s.withRetry(ctx, func() (err error) {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return errs.Wrap(err, "begin transaction")
		}

		defer func() {
			if p := recover(); p != nil {
				_ = tx.Rollback()
				panic(p)
			}
		}()

		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return errs.Wrapf(err, "rollback failed: %v", rbErr)
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			return errs.Wrap(err, "commit transaction")
		}
		return nil
	})
}

// mapError translates driver failures into persistence sentinels while
// keeping the driver message for logs.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errs.Is(err, sql.ErrNoRows) {
		return errs.Mark(err, persistence.ErrNotFound)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "reservation overlap"):
		return errs.Mark(err, persistence.ErrOverlap)
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return errs.Mark(err, persistence.ErrDuplicate)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "CHECK constraint failed"),
		strings.Contains(msg, "NOT NULL constraint failed"):
		return errs.Mark(err, persistence.ErrConstraintViolation)
	}
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, errs.Wrapf(err, "parse stored time %q", value)
	}
	return t, nil
}
