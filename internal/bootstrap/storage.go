package bootstrap

import (
	"context"
	"log/slog"

	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/memory"
	"github.com/example/room-booking/internal/persistence/postgres"
	"github.com/example/room-booking/internal/persistence/sqlite"
)

// OpenStore connects the configured storage driver and brings its schema up
// to date.
func OpenStore(ctx context.Context, cfg config.Storage, logger *slog.Logger) (persistence.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.WarnContext(ctx, "using in-memory storage; reservations are lost on restart")
		return memory.New(), nil

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.SQLiteDSN), sqlite.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, errs.Wrap(err, "migrate sqlite")
		}
		logger.InfoContext(ctx, "sqlite storage ready", "dsn", cfg.SQLiteDSN)
		return store, nil

	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN, postgres.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, errs.Wrap(err, "migrate postgres")
		}
		logger.InfoContext(ctx, "postgres storage ready")
		return store, nil
	}
	return nil, errs.Newf("unknown storage driver %q", cfg.Driver)
}
