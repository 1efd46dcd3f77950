package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/example/room-booking/internal/bootstrap"
	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/errs"
)

func init() {
	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code, err := run(ctx)
	if err != nil {
		slog.Error("room booking API failed", "error", err)
	}
	os.Exit(code)
}

// appOptions is the full application graph for cfg.
func appOptions(cfg config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		bootstrap.Module,
	)
}

// eventLogger routes fx lifecycle events through the service logger.
func eventLogger() fx.Option {
	return fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
		l := &fxevent.SlogLogger{Logger: logger}
		l.UseLogLevel(slog.LevelDebug)
		return l
	})
}

// run starts the API and blocks until ctx is canceled or the app asks to
// shut down. The returned code is the process exit status.
func run(ctx context.Context, envFiles ...string) (int, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return 2, errs.Wrap(err, "load configuration")
	}

	app := fx.New(appOptions(cfg), eventLogger())
	if err := app.Err(); err != nil {
		return 1, errs.Wrap(err, "build application")
	}

	startCtx, cancelStart := context.WithTimeout(ctx, app.StartTimeout())
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		return 1, errs.Wrap(err, "start application")
	}

	code := 0
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		code = sig.ExitCode
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		return 1, errs.Wrap(err, "stop application")
	}
	return code, nil
}
