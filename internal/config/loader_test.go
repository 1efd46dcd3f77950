package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booking/internal/errs"
)

var allKeys = []string{
	"HTTP_PORT", "HTTP_SHUTDOWN_TIMEOUT", "CORS_ALLOWED_ORIGINS",
	"STORAGE_DRIVER", "SQLITE_DSN", "POSTGRES_DSN",
	"LOCK_BACKEND", "LOCK_TIMEOUT", "LOCK_TTL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"LOG_LEVEL", "LOG_FORMAT", "TIMEZONE", "ROOM_CATALOG",
}

// clearEnv unsets every BOOKING_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range allKeys {
		k := key(name)
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func noDotenv(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load(noDotenv(t))
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.HTTP.Port)
		assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
		assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
		assert.Equal(t, "file:booking.db", cfg.Storage.SQLiteDSN)
		assert.Equal(t, LockBackendLocal, cfg.Lock.Backend)
		assert.Equal(t, 5*time.Second, cfg.Lock.Timeout)
		assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
		assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
		assert.Equal(t, "UTC", cfg.Catalog.Timezone)
		assert.Equal(t, time.UTC, cfg.Location())
		assert.Equal(t, ":8080", cfg.ListenAddr())
		assert.Empty(t, cfg.HTTP.CORSAllowedOrigins)
	})

	t.Run("parses duration, numeric and list fields", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKING_HTTP_PORT", "9090")
		t.Setenv("BOOKING_LOCK_TIMEOUT", "750ms")
		t.Setenv("BOOKING_REDIS_DB", "3")
		t.Setenv("BOOKING_CORS_ALLOWED_ORIGINS", "http://a.example,http://b.example")
		t.Setenv("BOOKING_TIMEZONE", "Asia/Tokyo")
		t.Setenv("BOOKING_STORAGE_DRIVER", "memory")

		cfg, err := Load(noDotenv(t))
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.HTTP.Port)
		assert.Equal(t, 750*time.Millisecond, cfg.Lock.Timeout)
		assert.Equal(t, 3, cfg.Redis.DB)
		assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.HTTP.CORSAllowedOrigins)
		assert.Equal(t, "Asia/Tokyo", cfg.Location().String())
		assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	})

	t.Run("errors when postgres driver has no dsn", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKING_STORAGE_DRIVER", "postgres")

		_, err := Load(noDotenv(t))
		require.Error(t, err)
		assert.True(t, errs.Is(err, ErrInvalidConfig))
		assert.Equal(t, "required environment variables are not set: BOOKING_POSTGRES_DSN", err.Error())
	})

	t.Run("reports every invalid value together", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKING_HTTP_PORT", "70000")
		t.Setenv("BOOKING_STORAGE_DRIVER", "mysql")
		t.Setenv("BOOKING_LOCK_BACKEND", "zookeeper")
		t.Setenv("BOOKING_TIMEZONE", "Mars/Olympus")
		t.Setenv("BOOKING_LOG_FORMAT", "xml")

		_, err := Load(noDotenv(t))
		require.Error(t, err)
		assert.True(t, errs.Is(err, ErrInvalidConfig))
		for _, name := range []string{"HTTP_PORT", "STORAGE_DRIVER", "LOCK_BACKEND", "TIMEZONE", "LOG_FORMAT"} {
			assert.Contains(t, err.Error(), key(name))
		}
	})

	t.Run("rejects unparsable values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKING_LOCK_TIMEOUT", "soon")

		_, err := Load(noDotenv(t))
		require.Error(t, err)
		assert.True(t, errs.Is(err, ErrInvalidConfig))
	})

	t.Run("redis backend requires positive ttl", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOOKING_LOCK_BACKEND", "redis")
		t.Setenv("BOOKING_LOCK_TTL", "0s")

		_, err := Load(noDotenv(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BOOKING_LOCK_TTL")
	})
}

func TestLoader_Dotenv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "test.env")
	content := strings.Join([]string{
		"BOOKING_HTTP_PORT=7070",
		"BOOKING_STORAGE_DRIVER=memory",
		"BOOKING_LOG_FORMAT=text",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Run("values from the file are applied", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 7070, cfg.HTTP.Port)
		assert.Equal(t, DriverMemory, cfg.Storage.Driver)
		assert.Equal(t, "text", cfg.Log.Format)
	})

	t.Run("process environment wins over the file", func(t *testing.T) {
		t.Setenv("BOOKING_HTTP_PORT", "6060")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 6060, cfg.HTTP.Port)
	})
}
