package migration

import (
	"fmt"

	"github.com/example/room-booking/internal/errs"
)

var (
	// ErrMigrationFailed indicates that a migration script could not be applied.
	ErrMigrationFailed = errs.New("migration: execution failed")
	// ErrInvalidMigrationFile indicates a malformed file name or an empty script.
	ErrInvalidMigrationFile = errs.New("migration: invalid migration file")
	// ErrDuplicateVersion indicates that two files share a version.
	ErrDuplicateVersion = errs.New("migration: duplicate version")
	// ErrVersionConflict indicates gaps or applied versions without a file.
	ErrVersionConflict = errs.New("migration: version conflict")
	// ErrChecksumMismatch indicates that an applied script was edited afterwards.
	ErrChecksumMismatch = errs.New("migration: checksum mismatch")
)

// MigrationError adds the failing version, file, and step to an error.
type MigrationError struct {
	Version   int
	FilePath  string
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *MigrationError) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("migration %03d (%s): %s: %v", e.Version, e.FilePath, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration (%s): %s: %v", e.FilePath, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *MigrationError) Unwrap() error {
	return e.Err
}

func newMigrationError(version int, filePath, operation string, err error) *MigrationError {
	return &MigrationError{Version: version, FilePath: filePath, Operation: operation, Err: err}
}
