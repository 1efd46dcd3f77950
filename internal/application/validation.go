package application

import (
	"context"
	"time"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/scheduler"
)

// Decision is the outcome of running a candidate through the pipeline.
type Decision struct {
	Admitted  bool
	Reason    RejectionReason
	RoomID    string
	Window    scheduler.TimeWindow
	Attendees int
	Conflicts []scheduler.Conflict
}

// Err converts a rejected decision into a *RejectionError. Admitted
// decisions return nil.
func (d Decision) Err() error {
	if d.Admitted {
		return nil
	}
	rErr := &RejectionError{Reason: d.Reason}
	for _, c := range d.Conflicts {
		rErr.ConflictingIDs = append(rErr.ConflictingIDs, c.WithReservationID)
	}
	return rErr
}

// ValidationPipeline decides whether a candidate reservation is admissible.
// Checks run in a fixed order and stop at the first failure: capacity,
// operating hours, conflicts, single-day span. It never writes to storage.
type ValidationPipeline struct {
	finder OverlapFinder
}

// NewValidationPipeline constructs a pipeline reading existing bookings from finder.
func NewValidationPipeline(finder OverlapFinder) *ValidationPipeline {
	return &ValidationPipeline{finder: finder}
}

// Validate runs every check against the current bookings of room. Rejections
// are reported in the Decision; the error is non-nil only when the bookings
// could not be read.
func (p *ValidationPipeline) Validate(ctx context.Context, room Room, candidate scheduler.TimeWindow, attendees int, excludeReservationID string) (Decision, error) {
	decision := Decision{RoomID: room.ID, Window: candidate, Attendees: attendees}

	if candidate.IsZero() {
		return reject(decision, ReasonInvalidWindow), nil
	}
	if attendees > room.Capacity {
		return reject(decision, ReasonCapacityExceeded), nil
	}
	if !candidate.IsWithin(room.OpenTime, room.CloseTime) {
		return reject(decision, ReasonOutsideOperatingHours), nil
	}

	if p == nil || p.finder == nil {
		return Decision{}, errs.Mark(errs.New("reservation store not configured"), ErrStorageFailure)
	}
	existing, err := p.finder.FindOverlapping(ctx, room.ID, SearchRange(candidate))
	if err != nil {
		return Decision{}, errs.Mark(errs.Wrapf(err, "find reservations for room %s", room.ID), ErrStorageFailure)
	}
	if conflicts := scheduler.DetectConflicts(existing, candidate, excludeReservationID); len(conflicts) > 0 {
		decision.Conflicts = conflicts
		return reject(decision, ReasonRoomAlreadyReserved), nil
	}

	if !candidate.SpansSingleDay() {
		return reject(decision, ReasonSpansMultipleDays), nil
	}

	decision.Admitted = true
	return decision, nil
}

// SearchRange widens candidate to whole calendar days in its location. The
// store is queried with this range and the exact overlap is decided afterwards.
func SearchRange(candidate scheduler.TimeWindow) scheduler.TimeWindow {
	from := startOfDay(candidate.Start())
	to := startOfDay(candidate.End().In(candidate.Start().Location())).AddDate(0, 0, 1)
	return scheduler.MustTimeWindow(from, to)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func reject(d Decision, reason RejectionReason) Decision {
	d.Admitted = false
	d.Reason = reason
	return d
}
