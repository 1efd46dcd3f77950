package migration

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/example/room-booking/internal/errs"
)

const triggerScript = `-- Description: reject negative amounts
CREATE TRIGGER items_amount_guard
BEFORE INSERT ON items
WHEN NEW.amount < 0
BEGIN
	SELECT RAISE(ABORT, 'negative amount');
END;`

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "migration.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestManager(db *sqlx.DB, fsys fstest.MapFS) *Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(NewScanner(fsys, "."), NewExecutor(db), logger)
}

func TestManagerRunAppliesPendingInOrder(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"001_create_items.sql": {Data: []byte("CREATE TABLE items (name TEXT NOT NULL, amount INTEGER NOT NULL);")},
		"002_amount_guard.sql": {Data: []byte(triggerScript)},
	}
	manager := newTestManager(db, fsys)

	require.NoError(t, manager.Run(ctx))

	status, err := manager.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.CurrentVersion)
	assert.Empty(t, status.Pending)
	require.Len(t, status.Applied, 2)

	_, err = db.ExecContext(ctx, `INSERT INTO items (name, amount) VALUES ('ok', 1)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO items (name, amount) VALUES ('bad', -1)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative amount")

	// A second run is a no-op.
	require.NoError(t, manager.Run(ctx))
}

func TestManagerRunRollsBackFailedScript(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"001_create_items.sql": {Data: []byte("CREATE TABLE items (name TEXT);")},
		"002_broken.sql":       {Data: []byte("CREATE TABLE extra (id INTEGER);\nTHIS IS NOT SQL;")},
	}
	manager := newTestManager(db, fsys)

	err := manager.Run(ctx)
	require.Error(t, err)
	assert.True(t, errs.Is(err, ErrMigrationFailed))

	var migrationErr *MigrationError
	require.True(t, errs.As(err, &migrationErr))
	assert.Equal(t, 2, migrationErr.Version)

	status, err := manager.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.CurrentVersion)
	require.Len(t, status.Pending, 1)

	var count int
	require.NoError(t, db.GetContext(ctx, &count, `SELECT COUNT(*) FROM sqlite_master WHERE name = 'extra'`))
	assert.Zero(t, count)
}

func TestManagerStatusDetectsTampering(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	original := fstest.MapFS{"001_create_items.sql": {Data: []byte("CREATE TABLE items (name TEXT);")}}
	require.NoError(t, newTestManager(db, original).Run(ctx))

	t.Run("checksum changed", func(t *testing.T) {
		edited := fstest.MapFS{"001_create_items.sql": {Data: []byte("CREATE TABLE items (name TEXT, note TEXT);")}}
		_, err := newTestManager(db, edited).Status(ctx)
		assert.True(t, errs.Is(err, ErrChecksumMismatch), "got %v", err)
	})

	t.Run("applied script missing", func(t *testing.T) {
		renumbered := fstest.MapFS{"002_create_items.sql": {Data: []byte("CREATE TABLE items (name TEXT);")}}
		_, err := newTestManager(db, renumbered).Status(ctx)
		assert.True(t, errs.Is(err, ErrVersionConflict), "got %v", err)
	})

	t.Run("gap in sequence", func(t *testing.T) {
		gapped := fstest.MapFS{
			"001_create_items.sql": original["001_create_items.sql"],
			"003_later.sql":        {Data: []byte("SELECT 1;")},
		}
		_, err := newTestManager(db, gapped).Status(ctx)
		assert.True(t, errs.Is(err, ErrVersionConflict), "got %v", err)
	})
}
