package http

import (
	"context"
	"log/slog"

	"github.com/example/room-booking/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// handlerLogger prefers the request-scoped logger installed by RequestLogger,
// so handler lines carry the request_id.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	logger = logger.With(slog.String("handler", handlerName))
	if operation != "" {
		logger = logger.With(slog.String("operation", operation))
	}
	if len(attrs) == 0 {
		return logger
	}
	return logger.With(attrs...)
}
