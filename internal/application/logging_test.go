package application

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/logging"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Same(t, custom, defaultLogger(custom))
	assert.Same(t, slog.Default(), defaultLogger(nil))
}

func TestServiceLoggerPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	requestLogger := slog.New(slog.NewJSONHandler(&buf, nil)).With("request_id", "req-7")
	ctx := logging.ContextWithLogger(context.Background(), requestLogger)

	serviceLogger(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), "BookingService", "CreateReservation", "room_id", "r1").
		InfoContext(ctx, "hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-7", entry["request_id"])
	assert.Equal(t, "BookingService", entry["service"])
	assert.Equal(t, "CreateReservation", entry["operation"])
	assert.Equal(t, "r1", entry["room_id"])
}

func TestLogFailureLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantLevel string
		wantKind  string
		wantStack bool
	}{
		{"rejection", &RejectionError{Reason: ReasonCapacityExceeded}, "WARN", "capacity_exceeded", false},
		{"not found", errs.Wrap(ErrRoomNotFound, "room x"), "WARN", "room_not_found", false},
		{"storage", errs.Mark(errs.New("disk full"), ErrStorageFailure), "ERROR", "storage_failure", true},
		{"busy", errs.Mark(errs.New("still locked"), ErrBusy), "ERROR", "busy", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			logFailure(context.Background(), logger, "failed", tt.err)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantKind, entry["error_kind"])
			_, hasStack := entry["stack"]
			assert.Equal(t, tt.wantStack, hasStack)
		})
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, "invalid_window", ErrorKind(errs.Wrap(ErrInvalidWindow, "x")))
	assert.Equal(t, "spans_multiple_days", ErrorKind(&RejectionError{Reason: ReasonSpansMultipleDays}))
	assert.Equal(t, "outside_operating_hours", ErrorKind(ErrOutsideOperatingHours))
	assert.Equal(t, "room_already_reserved", ErrorKind(&RejectionError{Reason: ReasonRoomAlreadyReserved}))
	assert.Equal(t, "reservation_not_found", ErrorKind(ErrReservationNotFound))
	assert.Equal(t, "canceled", ErrorKind(errs.Wrap(context.Canceled, "wait")))
	assert.Equal(t, "validation", ErrorKind(&ValidationError{}))
	assert.Equal(t, "unexpected", ErrorKind(errs.New("boom")))
}
