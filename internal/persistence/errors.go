package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrConstraintViolation is returned when a row breaks a check or foreign key constraint.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrOverlap is returned when a write would make two reservations of one room overlap.
	ErrOverlap = errors.New("persistence: overlapping reservation")
)
