package testfixtures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	assert.True(t, NewClock(time.Time{}).Now().Equal(ReferenceTime()))
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, time.March, 14, 9, 26, 0, 0, time.UTC)
	clock := NewClock(start)
	now := clock.NowFunc()

	assert.True(t, clock.Advance(90*time.Minute).Equal(start.Add(90*time.Minute)))
	assert.True(t, now().Equal(start.Add(90*time.Minute)))

	clock.Set(start)
	assert.True(t, now().Equal(start))
}

func TestBookingDayRollsOver(t *testing.T) {
	assert.Equal(t, time.Date(2024, time.January, 2, 9, 30, 0, 0, time.UTC), BookingDay(9, 30))
	assert.Equal(t, time.Date(2024, time.January, 3, 1, 0, 0, 0, time.UTC), BookingDay(25, 0))
}
