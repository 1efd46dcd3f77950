package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/scheduler"
)

var testDay = time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func window(startHour, startMinute, endHour, endMinute int) scheduler.TimeWindow {
	return scheduler.MustTimeWindow(at(startHour, startMinute), at(endHour, endMinute))
}

type finderStub struct {
	bookings []scheduler.Booking
	err      error

	calls   int
	queried scheduler.TimeWindow
}

func (f *finderStub) FindOverlapping(ctx context.Context, roomID string, w scheduler.TimeWindow) ([]scheduler.Booking, error) {
	f.calls++
	f.queried = w
	if f.err != nil {
		return nil, f.err
	}
	return f.bookings, nil
}

func standardRoom() Room {
	return Room{
		ID:        "orchid",
		Name:      "Orchid",
		Capacity:  10,
		OpenTime:  scheduler.MustTimeOfDay(9, 0),
		CloseTime: scheduler.MustTimeOfDay(18, 0),
	}
}

func TestValidationPipeline_CapacityBoundary(t *testing.T) {
	t.Parallel()
	pipeline := NewValidationPipeline(&finderStub{})

	decision, err := pipeline.Validate(context.Background(), standardRoom(), window(10, 0, 11, 0), 10, "")
	require.NoError(t, err)
	assert.True(t, decision.Admitted)
	assert.NoError(t, decision.Err())

	decision, err = pipeline.Validate(context.Background(), standardRoom(), window(10, 0, 11, 0), 11, "")
	require.NoError(t, err)
	assert.False(t, decision.Admitted)
	assert.Equal(t, ReasonCapacityExceeded, decision.Reason)
	assert.True(t, errs.Is(decision.Err(), ErrCapacityExceeded))
}

func TestValidationPipeline_HoursAreStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		window scheduler.TimeWindow
		admit  bool
	}{
		{"touches both edges", window(9, 0, 18, 0), false},
		{"starts at opening", window(9, 0, 10, 0), false},
		{"ends at closing", window(17, 0, 18, 0), false},
		{"starts before opening", window(8, 30, 10, 0), false},
		{"ends after closing", window(17, 0, 18, 30), false},
		{"strictly inside", window(9, 1, 17, 59), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			finder := &finderStub{}
			decision, err := NewValidationPipeline(finder).Validate(context.Background(), standardRoom(), tt.window, 1, "")
			require.NoError(t, err)
			assert.Equal(t, tt.admit, decision.Admitted)
			if !tt.admit {
				assert.Equal(t, ReasonOutsideOperatingHours, decision.Reason)
				assert.Zero(t, finder.calls, "conflicts are not fetched for an hours rejection")
			}
		})
	}
}

func TestValidationPipeline_RoomScenario(t *testing.T) {
	t.Parallel()

	a := scheduler.Booking{ID: "A", Window: window(10, 0, 12, 0)}
	pipeline := NewValidationPipeline(&finderStub{bookings: []scheduler.Booking{a}})
	ctx := context.Background()

	b, err := pipeline.Validate(ctx, standardRoom(), window(11, 0, 13, 0), 4, "")
	require.NoError(t, err)
	assert.Equal(t, ReasonRoomAlreadyReserved, b.Reason)
	require.Len(t, b.Conflicts, 1)
	assert.Equal(t, "A", b.Conflicts[0].WithReservationID)

	var rejection *RejectionError
	require.True(t, errs.As(b.Err(), &rejection))
	assert.Equal(t, []string{"A"}, rejection.ConflictingIDs)

	c, err := pipeline.Validate(ctx, standardRoom(), window(12, 0, 13, 0), 4, "")
	require.NoError(t, err)
	assert.True(t, c.Admitted, "adjacent windows do not conflict")

	contained, err := pipeline.Validate(ctx, standardRoom(), window(10, 30, 11, 0), 4, "")
	require.NoError(t, err)
	assert.Equal(t, ReasonRoomAlreadyReserved, contained.Reason, "a window inside an existing booking conflicts")
}

func TestValidationPipeline_MultiDayWindows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	overnight := scheduler.MustTimeWindow(at(13, 30), at(24+9, 30))

	decision, err := NewValidationPipeline(&finderStub{}).Validate(ctx, standardRoom(), overnight, 4, "")
	require.NoError(t, err)
	assert.Equal(t, ReasonSpansMultipleDays, decision.Reason)
	assert.True(t, errs.Is(decision.Err(), ErrSpansMultipleDays))

	nextMorning := scheduler.Booking{ID: "M", Window: scheduler.MustTimeWindow(at(24+9, 0), at(24+10, 0))}
	finder := &finderStub{bookings: []scheduler.Booking{nextMorning}}
	decision, err = NewValidationPipeline(finder).Validate(ctx, standardRoom(), overnight, 4, "")
	require.NoError(t, err)
	assert.Equal(t, ReasonRoomAlreadyReserved, decision.Reason, "conflicts are reported before the day span")
	assert.True(t, finder.queried.Start().Equal(testDay))
	assert.True(t, finder.queried.End().Equal(testDay.AddDate(0, 0, 2)))
}

func TestValidationPipeline_CheckOrder(t *testing.T) {
	t.Parallel()

	finder := &finderStub{bookings: []scheduler.Booking{{ID: "A", Window: window(7, 0, 20, 0)}}}
	decision, err := NewValidationPipeline(finder).Validate(context.Background(), standardRoom(), window(8, 0, 19, 0), 50, "")
	require.NoError(t, err)
	assert.Equal(t, ReasonCapacityExceeded, decision.Reason)
	assert.Zero(t, finder.calls)

	decision, err = NewValidationPipeline(&finderStub{}).Validate(context.Background(), standardRoom(), scheduler.TimeWindow{}, 1, "")
	require.NoError(t, err)
	assert.Equal(t, ReasonInvalidWindow, decision.Reason)
	assert.True(t, errs.Is(decision.Err(), ErrInvalidWindow))
}

func TestValidationPipeline_ExcludesOwnReservation(t *testing.T) {
	t.Parallel()

	own := scheduler.Booking{ID: "R", Window: window(10, 0, 11, 0)}
	pipeline := NewValidationPipeline(&finderStub{bookings: []scheduler.Booking{own}})

	decision, err := pipeline.Validate(context.Background(), standardRoom(), own.Window, 2, "R")
	require.NoError(t, err)
	assert.True(t, decision.Admitted)

	decision, err = pipeline.Validate(context.Background(), standardRoom(), own.Window, 2, "")
	require.NoError(t, err)
	assert.Equal(t, ReasonRoomAlreadyReserved, decision.Reason)
}

func TestValidationPipeline_IgnoresCoarseMatches(t *testing.T) {
	t.Parallel()

	superset := []scheduler.Booking{
		{ID: "early", Window: window(9, 30, 10, 0)},
		{ID: "late", Window: window(11, 0, 12, 0)},
	}
	decision, err := NewValidationPipeline(&finderStub{bookings: superset}).
		Validate(context.Background(), standardRoom(), window(10, 0, 11, 0), 2, "")
	require.NoError(t, err)
	assert.True(t, decision.Admitted)
}

func TestValidationPipeline_StorageFailure(t *testing.T) {
	t.Parallel()

	cause := errs.New("connection reset")
	_, err := NewValidationPipeline(&finderStub{err: cause}).
		Validate(context.Background(), standardRoom(), window(10, 0, 11, 0), 2, "")
	require.Error(t, err)
	assert.True(t, errs.Is(err, ErrStorageFailure))
	assert.True(t, errs.Is(err, cause))
	_, isRejection := ReasonOf(err)
	assert.False(t, isRejection)

	_, err = NewValidationPipeline(nil).Validate(context.Background(), standardRoom(), window(10, 0, 11, 0), 2, "")
	assert.True(t, errs.Is(err, ErrStorageFailure))
}

func TestSearchRangeCoversWholeDays(t *testing.T) {
	t.Parallel()

	jst := time.FixedZone("JST", 9*60*60)
	candidate := scheduler.MustTimeWindow(
		time.Date(2024, time.January, 2, 23, 0, 0, 0, jst),
		time.Date(2024, time.January, 2, 23, 30, 0, 0, jst),
	)

	r := SearchRange(candidate)
	assert.True(t, r.Start().Equal(time.Date(2024, time.January, 2, 0, 0, 0, 0, jst)))
	assert.True(t, r.End().Equal(time.Date(2024, time.January, 3, 0, 0, 0, 0, jst)))
}
