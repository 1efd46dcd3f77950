package persistence

import (
	"context"
	"time"
)

// RoomRepository stores the room catalog. Create and update assign the id
// and timestamps; callers never set them.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	UpdateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	FindRoomByName(ctx context.Context, name string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	RoomID string
}

// ReservationRepository stores accepted reservations.
type ReservationRepository interface {
	// FindOverlapping returns reservations of roomID that intersect [from, to].
	// The bound is inclusive, so the result is a superset of the exact overlaps.
	FindOverlapping(ctx context.Context, roomID string, from, to time.Time) ([]Reservation, error)
	InsertReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	UpdateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
}

// Store is a complete storage backend.
type Store interface {
	RoomRepository
	ReservationRepository
	Ping(ctx context.Context) error
	Close() error
}

// Overlaps reports whether two stored windows intersect under half-open semantics.
func Overlaps(a, b Reservation) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}
