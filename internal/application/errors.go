package application

import (
	"errors"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/scheduler"
)

var (
	// ErrInvalidWindow is returned when a reservation window does not start before it ends.
	ErrInvalidWindow = scheduler.ErrInvalidWindow
	// ErrSpansMultipleDays is returned when a window starts and ends on different calendar days.
	ErrSpansMultipleDays = errors.New("application: reservation spans multiple days")
	// ErrCapacityExceeded is returned when attendees outnumber the room capacity.
	ErrCapacityExceeded = errors.New("application: attendees exceed room capacity")
	// ErrOutsideOperatingHours is returned when a window is not strictly inside the room's hours.
	ErrOutsideOperatingHours = errors.New("application: reservation outside operating hours")
	// ErrRoomAlreadyReserved is returned when a window overlaps an accepted reservation.
	ErrRoomAlreadyReserved = errors.New("application: room already reserved")
	// ErrRoomNotFound is returned when the catalog has no room with the requested id.
	ErrRoomNotFound = errors.New("application: room not found")
	// ErrReservationNotFound is returned when no reservation has the requested id.
	ErrReservationNotFound = errors.New("application: reservation not found")
	// ErrBusy is returned when a room's lock could not be taken in time. Callers may retry.
	ErrBusy = errors.New("application: room busy")
	// ErrStorageFailure marks errors raised by a storage collaborator.
	ErrStorageFailure = errors.New("application: storage failure")
)

// RejectionReason names the business rule a candidate reservation failed.
type RejectionReason string

const (
	ReasonInvalidWindow         RejectionReason = "INVALID_WINDOW"
	ReasonCapacityExceeded      RejectionReason = "CAPACITY_EXCEEDED"
	ReasonOutsideOperatingHours RejectionReason = "OUTSIDE_OPERATING_HOURS"
	ReasonRoomAlreadyReserved   RejectionReason = "ROOM_ALREADY_RESERVED"
	ReasonSpansMultipleDays     RejectionReason = "SPANS_MULTIPLE_DAYS"
)

func (r RejectionReason) sentinel() error {
	switch r {
	case ReasonInvalidWindow:
		return ErrInvalidWindow
	case ReasonCapacityExceeded:
		return ErrCapacityExceeded
	case ReasonOutsideOperatingHours:
		return ErrOutsideOperatingHours
	case ReasonRoomAlreadyReserved:
		return ErrRoomAlreadyReserved
	case ReasonSpansMultipleDays:
		return ErrSpansMultipleDays
	default:
		return nil
	}
}

// RejectionError reports a business-rule rejection. It unwraps to the
// sentinel matching its Reason, so errors.Is works against either.
type RejectionError struct {
	Reason RejectionReason
	// ConflictingIDs lists the reservations that blocked a ROOM_ALREADY_RESERVED rejection.
	ConflictingIDs []string
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	if e == nil {
		return ""
	}
	if s := e.Reason.sentinel(); s != nil {
		return s.Error()
	}
	return "application: reservation rejected: " + string(e.Reason)
}

// Unwrap exposes the sentinel for the rejection reason.
func (e *RejectionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Reason.sentinel()
}

// ReasonOf extracts the rejection reason carried by err, if any.
func ReasonOf(err error) (RejectionReason, bool) {
	var rErr *RejectionError
	if errs.As(err, &rErr) {
		return rErr.Reason, true
	}
	if errs.Is(err, ErrInvalidWindow) {
		return ReasonInvalidWindow, true
	}
	return "", false
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Add records a field level validation error.
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver,
// prefixing each field with prefix.
func (v *ValidationError) merge(prefix string, other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.Add(prefix+field, msg)
	}
}

// isClientError reports whether err is caused by the request rather than by
// the service or its collaborators.
func isClientError(err error) bool {
	if _, ok := ReasonOf(err); ok {
		return true
	}
	var vErr *ValidationError
	return errs.As(err, &vErr) ||
		errs.Is(err, ErrRoomNotFound) ||
		errs.Is(err, ErrReservationNotFound)
}
