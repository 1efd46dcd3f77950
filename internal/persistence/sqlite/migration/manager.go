package migration

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/room-booking/internal/errs"
)

// Manager brings a database up to the newest scanned migration.
type Manager struct {
	scanner  *Scanner
	executor *Executor
	logger   *slog.Logger
}

// NewManager wires a scanner and executor together.
func NewManager(scanner *Scanner, executor *Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{scanner: scanner, executor: executor, logger: logger.With("component", "migration")}
}

// Run applies every pending migration in version order and stops at the
// first failure.
func (m *Manager) Run(ctx context.Context) error {
	started := time.Now()

	status, err := m.Status(ctx)
	if err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "checking database schema version",
		"current_version", status.CurrentVersion,
		"pending_count", len(status.Pending),
	)
	if len(status.Pending) == 0 {
		return nil
	}

	for i, migration := range status.Pending {
		logger := m.logger.With("version", migration.Version, "description", migration.Description)
		logger.InfoContext(ctx, "applying migration", "position", i+1, "total", len(status.Pending))

		stepStarted := time.Now()
		if err := m.executor.Apply(ctx, migration); err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return err
		}
		logger.InfoContext(ctx, "migration applied", "duration", time.Since(stepStarted))
	}

	m.logger.InfoContext(ctx, "database migrations completed",
		"applied_count", len(status.Pending),
		"duration", time.Since(started),
	)
	return nil
}

// Status compares scanned scripts with the version table. It fails when the
// scripts have gaps, when an applied version has no script, or when an
// applied script's checksum changed.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}

	available, err := m.scanner.Scan()
	if err != nil {
		return Status{}, err
	}
	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return Status{}, err
	}
	if err := validateSequence(available, applied); err != nil {
		return Status{}, err
	}

	appliedByVersion := make(map[int]AppliedMigration, len(applied))
	status := Status{Applied: applied}
	for _, a := range applied {
		appliedByVersion[a.Version] = a
		if a.Version > status.CurrentVersion {
			status.CurrentVersion = a.Version
		}
	}

	for _, migration := range available {
		record, done := appliedByVersion[migration.Version]
		if !done {
			status.Pending = append(status.Pending, migration)
			continue
		}
		if record.Checksum != migration.Checksum {
			return Status{}, newMigrationError(migration.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}
	return status, nil
}

func validateSequence(available []Migration, applied []AppliedMigration) error {
	known := make(map[int]bool, len(available))
	for i, migration := range available {
		known[migration.Version] = true
		if i > 0 && migration.Version != available[i-1].Version+1 {
			return errs.Wrapf(ErrVersionConflict, "missing migration version %03d", available[i-1].Version+1)
		}
	}
	for _, a := range applied {
		if !known[a.Version] {
			return errs.Wrapf(ErrVersionConflict, "applied migration %03d has no script", a.Version)
		}
	}
	return nil
}
