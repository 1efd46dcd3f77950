package application

//go:generate mockgen -source=ports.go -destination=mock/ports_mock.go -package=mock

import (
	"context"

	"github.com/example/room-booking/internal/scheduler"
)

// RoomCatalog resolves room facts by identifier. Implementations return an
// error matching persistence.ErrNotFound or ErrRoomNotFound for unknown ids.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (Room, error)
}

// RoomRepository captures the persistence operations needed by the room service.
type RoomRepository interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	FindRoomByName(ctx context.Context, name string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	CreateRoom(ctx context.Context, room Room) (Room, error)
	UpdateRoom(ctx context.Context, room Room) (Room, error)
}

// OverlapFinder returns the bookings of a room that may overlap window. The
// result may contain bookings that do not overlap; callers re-check them.
type OverlapFinder interface {
	FindOverlapping(ctx context.Context, roomID string, window scheduler.TimeWindow) ([]scheduler.Booking, error)
}

// ReservationStore is the durable set of accepted reservations. Identifiers
// and timestamps are assigned by the store.
type ReservationStore interface {
	OverlapFinder
	Insert(ctx context.Context, reservation Reservation) (Reservation, error)
	Update(ctx context.Context, reservation Reservation) (Reservation, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (Reservation, error)
	List(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
}

// RoomLocker hands out the per-room exclusivity token. The returned unlock
// function must be called exactly once; extra calls are ignored.
type RoomLocker interface {
	Lock(ctx context.Context, roomID string) (unlock func(), err error)
}
