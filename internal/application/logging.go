package application

import (
	"context"
	"log/slog"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/logging"
)

const stackLines = 12

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// logFailure logs client errors at warn and everything else at error with a
// trimmed stack trace.
func logFailure(ctx context.Context, logger *slog.Logger, msg string, err error) {
	if isClientError(err) {
		logger.WarnContext(ctx, msg, "error", err, "error_kind", ErrorKind(err))
		return
	}
	logger.ErrorContext(ctx, msg, "error", err, "error_kind", ErrorKind(err), "stack", errs.StackLines(err, stackLines))
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errs.Is(err, ErrInvalidWindow):
		return "invalid_window"
	case errs.Is(err, ErrSpansMultipleDays):
		return "spans_multiple_days"
	case errs.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errs.Is(err, ErrOutsideOperatingHours):
		return "outside_operating_hours"
	case errs.Is(err, ErrRoomAlreadyReserved):
		return "room_already_reserved"
	case errs.Is(err, ErrRoomNotFound):
		return "room_not_found"
	case errs.Is(err, ErrReservationNotFound):
		return "reservation_not_found"
	case errs.Is(err, ErrBusy):
		return "busy"
	case errs.Is(err, ErrStorageFailure):
		return "storage_failure"
	case errs.Is(err, context.Canceled):
		return "canceled"
	}

	var vErr *ValidationError
	if errs.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
