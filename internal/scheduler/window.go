package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/room-booking/internal/errs"
)

var (
	// ErrInvalidWindow is returned when a window does not start strictly before it ends.
	ErrInvalidWindow = errors.New("scheduler: invalid time window")
	// ErrInvalidTimeOfDay is returned for clock readings outside 00:00–23:59.
	ErrInvalidTimeOfDay = errors.New("scheduler: invalid time of day")
)

// TimeWindow is a validated half-open interval [start, end).
type TimeWindow struct {
	start time.Time
	end   time.Time
}

// NewTimeWindow validates that start is strictly before end.
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if !start.Before(end) {
		return TimeWindow{}, errs.Wrapf(ErrInvalidWindow, "start %s is not before end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return TimeWindow{start: start, end: end}, nil
}

// MustTimeWindow is NewTimeWindow for literals known to be valid; it panics otherwise.
func MustTimeWindow(start, end time.Time) TimeWindow {
	w, err := NewTimeWindow(start, end)
	if err != nil {
		panic(err)
	}
	return w
}

// Start returns the first instant of the window.
func (w TimeWindow) Start() time.Time { return w.start }

// End returns the exclusive upper bound of the window.
func (w TimeWindow) End() time.Time { return w.end }

// Duration returns end minus start.
func (w TimeWindow) Duration() time.Duration { return w.end.Sub(w.start) }

// IsZero reports whether the window was never constructed.
func (w TimeWindow) IsZero() bool { return w.start.IsZero() && w.end.IsZero() }

// Overlaps reports whether both windows share at least one instant.
// Windows that only touch at an endpoint do not overlap.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.start.Before(other.end) && other.start.Before(w.end)
}

// SpansSingleDay reports whether start and end fall on the same calendar day
// in the window's location. A short window crossing midnight spans two days.
func (w TimeWindow) SpansSingleDay() bool {
	end := w.end.In(w.start.Location())
	return w.start.Year() == end.Year() && w.start.YearDay() == end.YearDay()
}

// IsWithin reports whether the window starts strictly after open and ends
// strictly before close. Touching either boundary is outside.
func (w TimeWindow) IsWithin(open, close TimeOfDay) bool {
	return TimeOfDayOf(w.start).After(open) && TimeOfDayOf(w.end).Before(close)
}

// In returns the same window expressed in loc.
func (w TimeWindow) In(loc *time.Location) TimeWindow {
	return TimeWindow{start: w.start.In(loc), end: w.end.In(loc)}
}

// Equal reports whether both windows denote the same instants.
func (w TimeWindow) Equal(other TimeWindow) bool {
	return w.start.Equal(other.start) && w.end.Equal(other.end)
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s, %s)", w.start.Format(time.RFC3339), w.end.Format(time.RFC3339))
}

// TimeOfDay is a wall-clock reading expressed as the offset from midnight.
type TimeOfDay time.Duration

// NewTimeOfDay builds a TimeOfDay from an hour and minute.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, errs.Wrapf(ErrInvalidTimeOfDay, "%02d:%02d", hour, minute)
	}
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute), nil
}

// MustTimeOfDay is NewTimeOfDay for literals; it panics on invalid input.
func MustTimeOfDay(hour, minute int) TimeOfDay {
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay parses an "HH:mm" string.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, errs.Mark(errs.Wrapf(err, "parse time of day %q", value), ErrInvalidTimeOfDay)
	}
	return NewTimeOfDay(parsed.Hour(), parsed.Minute())
}

// TimeOfDayOf returns the wall-clock reading of t in its own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond()))
}

// Before reports whether t is earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool { return t < other }

// After reports whether t is later in the day than other.
func (t TimeOfDay) After(other TimeOfDay) bool { return t > other }

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(time.Duration(t) / time.Hour) }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(time.Duration(t)%time.Hour) / int(time.Minute) }

// String formats the reading as "HH:mm".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}
