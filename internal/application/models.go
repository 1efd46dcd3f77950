package application

import (
	"time"

	"github.com/example/room-booking/internal/scheduler"
)

// Room is the catalog entry a reservation is validated against.
type Room struct {
	ID        string
	Name      string
	Capacity  int
	OpenTime  scheduler.TimeOfDay
	CloseTime scheduler.TimeOfDay
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomInput captures caller provided room fields used when seeding the catalog.
type RoomInput struct {
	Name      string
	Capacity  int
	OpenTime  scheduler.TimeOfDay
	CloseTime scheduler.TimeOfDay
}

// Reservation is an accepted booking of a room for a window.
type Reservation struct {
	ID        string
	RoomID    string
	Window    scheduler.TimeWindow
	Attendees int
	Agenda    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReservationRequest carries the fields a caller proposes for a reservation.
type ReservationRequest struct {
	RoomID    string
	Window    scheduler.TimeWindow
	Attendees int
	Agenda    string
}

// UpdateReservationParams wraps the data required to re-validate an existing reservation.
type UpdateReservationParams struct {
	ReservationID string
	Request       ReservationRequest
}

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	RoomID string
}
