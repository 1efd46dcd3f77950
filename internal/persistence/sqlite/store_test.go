package sqlite_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/sqlite"
	"github.com/example/room-booking/internal/persistence/storetest"
	"github.com/example/room-booking/internal/scheduler"
	"github.com/example/room-booking/internal/testfixtures"
)

func openStore(t *testing.T, cfg sqlite.Config) *sqlite.Store {
	t.Helper()
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	ids := testfixtures.NewIDGenerator("sql")

	store, err := sqlite.Open(context.Background(), cfg,
		sqlite.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		sqlite.WithClock(clock.NowFunc()),
		sqlite.WithIDGenerator(ids.NextFunc()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestStoreFile(t *testing.T) {
	storetest.Run(t, func(t *testing.T) persistence.Store {
		clock := testfixtures.NewClock(testfixtures.ReferenceTime())
		return testfixtures.NewSQLiteStore(t,
			sqlite.WithClock(clock.NowFunc()),
			sqlite.WithIDGenerator(testfixtures.NewIDGenerator("file").NextFunc()),
		)
	})
}

func TestStoreInMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) persistence.Store {
		return openStore(t, sqlite.InMemoryConfig())
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := openStore(t, sqlite.InMemoryConfig())
	require.NoError(t, store.Migrate(context.Background()))

	var version int
	require.NoError(t, store.DB().Get(&version, `SELECT MAX(version) FROM schema_migrations`))
	assert.Equal(t, 2, version)
}

func TestSchemaRejectsInvalidRows(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, sqlite.InMemoryConfig())

	_, err := store.CreateRoom(ctx, persistence.Room{
		Name:      "Backwards",
		Capacity:  4,
		OpenTime:  scheduler.MustTimeOfDay(18, 0),
		CloseTime: scheduler.MustTimeOfDay(9, 0),
	})
	assert.True(t, errs.Is(err, persistence.ErrConstraintViolation), "got %v", err)

	_, err = store.CreateRoom(ctx, persistence.Room{
		Name:      "Empty",
		Capacity:  0,
		OpenTime:  scheduler.MustTimeOfDay(9, 0),
		CloseTime: scheduler.MustTimeOfDay(18, 0),
	})
	assert.True(t, errs.Is(err, persistence.ErrConstraintViolation), "got %v", err)
}

func TestDataSourceName(t *testing.T) {
	cfg := sqlite.DefaultConfig("file:booking.db?cache=shared")
	dsn := cfg.DataSourceName()

	assert.Contains(t, dsn, "file:booking.db?cache=shared&")
	assert.Contains(t, dsn, "_pragma=foreign_keys(1)")
	assert.Contains(t, dsn, "_pragma=busy_timeout(30000)")
	assert.Contains(t, dsn, "_pragma=journal_mode(WAL)")

	assert.Equal(t, "plain.db", sqlite.Config{DSN: "plain.db"}.DataSourceName())
}
