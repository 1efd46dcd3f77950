package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/room-booking/internal/persistence/sqlite"
)

// NewSQLiteStore opens a migrated SQLite store in a temporary file. The store
// is closed when the test ends.
func NewSQLiteStore(tb testing.TB, opts ...sqlite.Option) *sqlite.Store {
	tb.Helper()

	cfg := sqlite.DefaultConfig(filepath.Join(tb.TempDir(), "booking.db"))
	opts = append([]sqlite.Option{sqlite.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)

	store, err := sqlite.Open(context.Background(), cfg, opts...)
	if err != nil {
		tb.Fatalf("failed to open sqlite store: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate sqlite store: %v", err)
	}
	return store
}
