package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/persistence/memory"
	"github.com/example/room-booking/internal/persistence/sqlite"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		store, err := OpenStore(ctx, config.Storage{Driver: config.DriverMemory}, discardLogger())
		require.NoError(t, err)
		assert.IsType(t, &memory.Storage{}, store)
	})

	t.Run("sqlite is migrated", func(t *testing.T) {
		t.Parallel()
		dsn := filepath.Join(t.TempDir(), "booking.db")
		store, err := OpenStore(ctx, config.Storage{Driver: config.DriverSQLite, SQLiteDSN: dsn}, discardLogger())
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		assert.IsType(t, &sqlite.Store{}, store)

		rooms, err := store.ListRooms(ctx)
		require.NoError(t, err)
		assert.Empty(t, rooms)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Parallel()
		_, err := OpenStore(ctx, config.Storage{Driver: "mysql"}, discardLogger())
		assert.Error(t, err)
	})
}

func TestNewRoomLocker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("local", func(t *testing.T) {
		t.Parallel()
		locker, closer, err := NewRoomLocker(ctx, config.Lock{Backend: config.LockBackendLocal, Timeout: time.Second}, config.Redis{}, discardLogger())
		require.NoError(t, err)
		assert.IsType(t, &application.LocalRoomLocker{}, locker)
		assert.NoError(t, closer.Close())

		unlock, err := locker.Lock(ctx, "room-1")
		require.NoError(t, err)
		unlock()
	})

	t.Run("unreachable redis", func(t *testing.T) {
		t.Parallel()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_, _, err := NewRoomLocker(pingCtx,
			config.Lock{Backend: config.LockBackendRedis, Timeout: time.Second, TTL: time.Second},
			config.Redis{Addr: "127.0.0.1:1"},
			discardLogger())
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()
		_, _, err := NewRoomLocker(ctx, config.Lock{Backend: "etcd"}, config.Redis{}, discardLogger())
		assert.Error(t, err)
	})
}
