package postgres

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/scheduler"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{codeExclusionViolation, persistence.ErrOverlap},
		{codeUniqueViolation, persistence.ErrDuplicate},
		{codeForeignKeyViolation, persistence.ErrConstraintViolation},
		{codeCheckViolation, persistence.ErrConstraintViolation},
		{codeNotNullViolation, persistence.ErrConstraintViolation},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.code, func(t *testing.T) {
			err := mapError(fmt.Errorf("exec: %w", &pgconn.PgError{Code: tt.code}))
			assert.True(t, errs.Is(err, tt.want), "got %v", err)
		})
	}

	assert.True(t, errs.Is(mapError(pgx.ErrNoRows), persistence.ErrNotFound))
	assert.Nil(t, mapError(nil))

	plain := errs.New("connection reset")
	assert.Equal(t, plain, mapError(plain))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&pgconn.PgError{Code: codeSerializationFailure}))
	assert.True(t, isRetryable(errs.Wrap(&pgconn.PgError{Code: codeDeadlockDetected}, "commit")))
	assert.False(t, isRetryable(&pgconn.PgError{Code: codeExclusionViolation}))
	assert.False(t, isRetryable(errs.New("boom")))
}

func TestPGTimeRoundTrip(t *testing.T) {
	tod := scheduler.MustTimeOfDay(17, 45)
	assert.Equal(t, tod, fromPGTime(toPGTime(tod)))
}
