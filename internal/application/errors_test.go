package application

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/room-booking/internal/errs"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	assert.Equal(t, "", err.Error())
	assert.Equal(t, "validation failed", (&ValidationError{}).Error())
	assert.Equal(t, "validation failed", (&ValidationError{FieldErrors: map[string]string{"field": "invalid"}}).Error())
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	assert.False(t, base.HasErrors())

	base.Add("first", "value")
	assert.True(t, base.HasErrors())

	base.merge("rooms[1].", &ValidationError{FieldErrors: map[string]string{"name": "name is required"}})
	base.merge("ignored.", nil)

	assert.Equal(t, map[string]string{
		"first":         "value",
		"rooms[1].name": "name is required",
	}, base.FieldErrors)
}

func TestRejectionErrorMatchesSentinel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		reason RejectionReason
		want   error
	}{
		{ReasonInvalidWindow, ErrInvalidWindow},
		{ReasonCapacityExceeded, ErrCapacityExceeded},
		{ReasonOutsideOperatingHours, ErrOutsideOperatingHours},
		{ReasonRoomAlreadyReserved, ErrRoomAlreadyReserved},
		{ReasonSpansMultipleDays, ErrSpansMultipleDays},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.reason), func(t *testing.T) {
			err := errs.Wrap(&RejectionError{Reason: tt.reason}, "create reservation")

			assert.True(t, errs.Is(err, tt.want))
			assert.True(t, errors.Is(err, tt.want))
			assert.Equal(t, "create reservation: "+tt.want.Error(), err.Error())

			reason, ok := ReasonOf(err)
			assert.True(t, ok)
			assert.Equal(t, tt.reason, reason)
			assert.True(t, isClientError(err))
		})
	}
}

func TestReasonOf(t *testing.T) {
	t.Parallel()

	reason, ok := ReasonOf(errs.Wrap(ErrInvalidWindow, "parse"))
	assert.True(t, ok)
	assert.Equal(t, ReasonInvalidWindow, reason)

	_, ok = ReasonOf(ErrBusy)
	assert.False(t, ok)

	unknown := &RejectionError{Reason: "SOMETHING_ELSE"}
	assert.Nil(t, unknown.Unwrap())
	assert.Contains(t, unknown.Error(), "SOMETHING_ELSE")
}

func TestIsClientError(t *testing.T) {
	t.Parallel()

	assert.True(t, isClientError(&ValidationError{FieldErrors: map[string]string{"a": "b"}}))
	assert.True(t, isClientError(errs.Wrap(ErrRoomNotFound, "room x")))
	assert.True(t, isClientError(errs.Wrap(ErrReservationNotFound, "reservation y")))
	assert.False(t, isClientError(errs.Mark(errs.New("disk full"), ErrStorageFailure)))
	assert.False(t, isClientError(ErrBusy))
}
