// Package bootstrap assembles the booking service as fx modules. Storage and
// lock backends are chosen by configuration.
package bootstrap

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/catalog"
	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/errs"
	bookinghttp "github.com/example/room-booking/internal/http"
	"github.com/example/room-booking/internal/logging"
	"github.com/example/room-booking/internal/persistence"
)

// Module wires the whole service. It expects a config.Config to be supplied.
var Module = fx.Options(
	LoggerModule,
	StorageModule,
	LockModule,
	ServiceModule,
	HTTPModule,
)

var LoggerModule = fx.Module("logger",
	fx.Provide(NewLogger),
)

var StorageModule = fx.Module("storage",
	fx.Provide(
		NewStore,
		fx.Annotate(
			newRoomRepository,
			fx.As(new(application.RoomRepository)),
			fx.As(new(application.RoomCatalog)),
		),
		fx.Annotate(
			newReservationStore,
			fx.As(new(application.ReservationStore)),
		),
	),
)

var LockModule = fx.Module("lock",
	fx.Provide(NewLocker),
)

var ServiceModule = fx.Module("service",
	fx.Provide(
		application.NewRoomServiceWithLogger,
		application.NewBookingServiceWithLogger,
	),
	fx.Invoke(SeedCatalog),
)

var HTTPModule = fx.Module("http",
	fx.Provide(
		newRoomHandler,
		newReservationHandler,
		NewRouter,
		StartServer,
	),
	fx.Invoke(func(*ServerAddr) {}),
)

// NewLogger builds the process logger and makes it the slog default.
func NewLogger(cfg config.Config) *slog.Logger {
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	return logger
}

// NewStore opens the configured storage and closes it when the app stops.
func NewStore(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (persistence.Store, error) {
	store, err := OpenStore(context.Background(), cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

// NewLocker builds the room token backend and releases it when the app stops.
func NewLocker(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (application.RoomLocker, error) {
	locker, closer, err := NewRoomLocker(context.Background(), cfg.Lock, cfg.Redis, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return closer.Close()
		},
	})
	return locker, nil
}

func newRoomRepository(store persistence.Store) *RoomRepository {
	return NewRoomRepository(store)
}

func newReservationStore(store persistence.Store, cfg config.Config) *ReservationStore {
	return NewReservationStore(store, cfg.Location())
}

// SeedCatalog applies the room catalog file, when configured, before the
// server starts accepting requests.
func SeedCatalog(lc fx.Lifecycle, cfg config.Config, rooms *application.RoomService, logger *slog.Logger) {
	path := cfg.Catalog.RoomCatalog
	if path == "" {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			inputs, err := catalog.LoadFile(path)
			if err != nil {
				return err
			}
			seeded, err := rooms.SeedRooms(ctx, inputs)
			if err != nil {
				return errs.Wrap(err, "seed room catalog")
			}
			logger.InfoContext(ctx, "room catalog seeded", "path", path, "rooms", len(seeded))
			return nil
		},
	})
}

func newRoomHandler(service *application.RoomService, logger *slog.Logger) *bookinghttp.RoomHandler {
	return bookinghttp.NewRoomHandler(service, logger)
}

func newReservationHandler(service *application.BookingService, cfg config.Config, logger *slog.Logger) *bookinghttp.ReservationHandler {
	return bookinghttp.NewReservationHandler(service, cfg.Location(), logger)
}

// NewRouter builds the gin engine for the configured handlers.
func NewRouter(cfg config.Config, rooms *bookinghttp.RoomHandler, reservations *bookinghttp.ReservationHandler, store persistence.Store, logger *slog.Logger) *gin.Engine {
	return bookinghttp.NewRouter(bookinghttp.RouterConfig{
		Rooms:          rooms,
		Reservations:   reservations,
		Health:         store,
		Logger:         logger,
		AllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
	})
}

// ServerAddr is filled with the bound listen address once the server starts.
type ServerAddr struct {
	addr string
}

// String returns the bound address, or "" before start.
func (a *ServerAddr) String() string {
	if a == nil {
		return ""
	}
	return a.addr
}

// StartServer binds the listen address on start and drains in-flight
// requests on stop. A serve failure after start shuts the app down.
func StartServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, engine *gin.Engine, cfg config.Config, logger *slog.Logger) *ServerAddr {
	bound := &ServerAddr{}
	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return errs.Wrapf(err, "listen on %s", server.Addr)
			}
			bound.addr = ln.Addr().String()
			logger.InfoContext(ctx, "booking API listening", "addr", bound.addr, "mode", gin.Mode())
			go func() {
				if err := server.Serve(ln); err != nil && !errs.Is(err, http.ErrServerClosed) {
					logger.Error("server encountered error", "error", err)
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.InfoContext(ctx, "shutting down booking API")
			if err := server.Shutdown(ctx); err != nil && !errs.Is(err, http.ErrServerClosed) {
				return errs.Wrap(err, "shutdown server")
			}
			return nil
		},
	})
	return bound
}
