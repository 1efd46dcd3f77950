package persistence

import (
	"time"

	"github.com/example/room-booking/internal/scheduler"
)

// Room represents a meeting room catalog entry.
type Room struct {
	ID        string
	Name      string
	Capacity  int
	OpenTime  scheduler.TimeOfDay
	CloseTime scheduler.TimeOfDay
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation represents an accepted booking stored in persistence.
// Start and End bound the half-open window [Start, End).
type Reservation struct {
	ID        string
	RoomID    string
	Start     time.Time
	End       time.Time
	Attendees int
	Agenda    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
