package migration

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/room-booking/internal/errs"
)

const versionTableDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL,
	checksum TEXT NOT NULL,
	execution_time_ms INTEGER NOT NULL
)`

// Executor applies migrations and records them in schema_migrations.
type Executor struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewExecutor returns an executor for db.
func NewExecutor(db *sqlx.DB) *Executor {
	return &Executor{db: db, now: time.Now}
}

// InitializeVersionTable creates schema_migrations when missing.
func (e *Executor) InitializeVersionTable(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, versionTableDDL); err != nil {
		return errs.Wrap(err, "create schema_migrations table")
	}
	return nil
}

// Apply runs the script and records it in one transaction, so a failed
// script leaves neither schema changes nor a version row behind. The driver
// executes every statement in the script, including trigger bodies.
func (e *Executor) Apply(ctx context.Context, m Migration) (err error) {
	started := e.now()

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return newMigrationError(m.Version, m.FilePath, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, m.SQL); err != nil {
		err = newMigrationError(m.Version, m.FilePath, "execute script", errs.Mark(err, ErrMigrationFailed))
		return
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`,
		m.Version, e.now().UTC().Format(time.RFC3339), m.Checksum, e.now().Sub(started).Milliseconds(),
	)
	if err != nil {
		err = newMigrationError(m.Version, m.FilePath, "record migration", err)
		return
	}

	if err = tx.Commit(); err != nil {
		err = newMigrationError(m.Version, m.FilePath, "commit", err)
	}
	return
}

type appliedRow struct {
	Version         int    `db:"version"`
	AppliedAt       string `db:"applied_at"`
	Checksum        string `db:"checksum"`
	ExecutionTimeMS int64  `db:"execution_time_ms"`
}

// Applied returns the recorded migrations in version order.
func (e *Executor) Applied(ctx context.Context) ([]AppliedMigration, error) {
	var rows []appliedRow
	err := e.db.SelectContext(ctx, &rows,
		`SELECT version, applied_at, checksum, execution_time_ms FROM schema_migrations ORDER BY version`)
	if err != nil && !errs.Is(err, sql.ErrNoRows) {
		return nil, errs.Wrap(err, "list applied migrations")
	}

	applied := make([]AppliedMigration, 0, len(rows))
	for _, row := range rows {
		appliedAt, parseErr := time.Parse(time.RFC3339, row.AppliedAt)
		if parseErr != nil {
			return nil, errs.Wrapf(parseErr, "parse applied_at of version %d", row.Version)
		}
		applied = append(applied, AppliedMigration{
			Version:       row.Version,
			AppliedAt:     appliedAt,
			ExecutionTime: time.Duration(row.ExecutionTimeMS) * time.Millisecond,
			Checksum:      row.Checksum,
		})
	}
	return applied, nil
}
