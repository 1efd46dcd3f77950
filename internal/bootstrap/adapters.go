package bootstrap

import (
	"context"
	"time"

	"github.com/jinzhu/copier"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/scheduler"
)

// RoomRepository exposes a persistence room repository to the application
// layer. It satisfies both application.RoomRepository and application.RoomCatalog.
type RoomRepository struct {
	rooms persistence.RoomRepository
}

// NewRoomRepository wraps rooms.
func NewRoomRepository(rooms persistence.RoomRepository) *RoomRepository {
	return &RoomRepository{rooms: rooms}
}

func (r *RoomRepository) GetRoom(ctx context.Context, id string) (application.Room, error) {
	room, err := r.rooms.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(room)
}

func (r *RoomRepository) FindRoomByName(ctx context.Context, name string) (application.Room, error) {
	room, err := r.rooms.FindRoomByName(ctx, name)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(room)
}

func (r *RoomRepository) ListRooms(ctx context.Context) ([]application.Room, error) {
	rooms, err := r.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.Room, 0, len(rooms))
	if err := copier.Copy(&out, &rooms); err != nil {
		return nil, errs.Wrap(err, "copy rooms")
	}
	return out, nil
}

func (r *RoomRepository) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	record, err := toPersistenceRoom(room)
	if err != nil {
		return application.Room{}, err
	}
	created, err := r.rooms.CreateRoom(ctx, record)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(created)
}

func (r *RoomRepository) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	record, err := toPersistenceRoom(room)
	if err != nil {
		return application.Room{}, err
	}
	updated, err := r.rooms.UpdateRoom(ctx, record)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(updated)
}

func toApplicationRoom(room persistence.Room) (application.Room, error) {
	var out application.Room
	if err := copier.Copy(&out, &room); err != nil {
		return application.Room{}, errs.Wrapf(err, "copy room %s", room.ID)
	}
	return out, nil
}

func toPersistenceRoom(room application.Room) (persistence.Room, error) {
	var out persistence.Room
	if err := copier.Copy(&out, &room); err != nil {
		return persistence.Room{}, errs.Wrapf(err, "copy room %s", room.ID)
	}
	return out, nil
}

// ReservationStore exposes a persistence reservation repository as the
// application's reservation store. Windows read back from storage are
// expressed in loc, the reference location for calendar-day decisions.
type ReservationStore struct {
	reservations persistence.ReservationRepository
	loc          *time.Location
}

// NewReservationStore wraps reservations. A nil loc means UTC.
func NewReservationStore(reservations persistence.ReservationRepository, loc *time.Location) *ReservationStore {
	if loc == nil {
		loc = time.UTC
	}
	return &ReservationStore{reservations: reservations, loc: loc}
}

func (s *ReservationStore) FindOverlapping(ctx context.Context, roomID string, window scheduler.TimeWindow) ([]scheduler.Booking, error) {
	records, err := s.reservations.FindOverlapping(ctx, roomID, window.Start(), window.End())
	if err != nil {
		return nil, err
	}
	bookings := make([]scheduler.Booking, 0, len(records))
	for _, record := range records {
		w, err := s.window(record)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, scheduler.Booking{ID: record.ID, Window: w})
	}
	return bookings, nil
}

func (s *ReservationStore) Insert(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	stored, err := s.reservations.InsertReservation(ctx, toPersistenceReservation(reservation))
	if err != nil {
		return application.Reservation{}, err
	}
	return s.toApplication(stored)
}

func (s *ReservationStore) Update(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	stored, err := s.reservations.UpdateReservation(ctx, toPersistenceReservation(reservation))
	if err != nil {
		return application.Reservation{}, err
	}
	return s.toApplication(stored)
}

func (s *ReservationStore) Delete(ctx context.Context, id string) error {
	return s.reservations.DeleteReservation(ctx, id)
}

func (s *ReservationStore) Get(ctx context.Context, id string) (application.Reservation, error) {
	stored, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return s.toApplication(stored)
}

func (s *ReservationStore) List(ctx context.Context, filter application.ReservationFilter) ([]application.Reservation, error) {
	records, err := s.reservations.ListReservations(ctx, persistence.ReservationFilter{RoomID: filter.RoomID})
	if err != nil {
		return nil, err
	}
	out := make([]application.Reservation, 0, len(records))
	for _, record := range records {
		reservation, err := s.toApplication(record)
		if err != nil {
			return nil, err
		}
		out = append(out, reservation)
	}
	return out, nil
}

func (s *ReservationStore) window(record persistence.Reservation) (scheduler.TimeWindow, error) {
	w, err := scheduler.NewTimeWindow(record.Start.In(s.loc), record.End.In(s.loc))
	if err != nil {
		return scheduler.TimeWindow{}, errs.Wrapf(err, "stored reservation %s", record.ID)
	}
	return w, nil
}

func (s *ReservationStore) toApplication(record persistence.Reservation) (application.Reservation, error) {
	w, err := s.window(record)
	if err != nil {
		return application.Reservation{}, err
	}
	return application.Reservation{
		ID:        record.ID,
		RoomID:    record.RoomID,
		Window:    w,
		Attendees: record.Attendees,
		Agenda:    record.Agenda,
		CreatedAt: record.CreatedAt.In(s.loc),
		UpdatedAt: record.UpdatedAt.In(s.loc),
	}, nil
}

func toPersistenceReservation(reservation application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:        reservation.ID,
		RoomID:    reservation.RoomID,
		Start:     reservation.Window.Start(),
		End:       reservation.Window.End(),
		Attendees: reservation.Attendees,
		Agenda:    reservation.Agenda,
		CreatedAt: reservation.CreatedAt,
		UpdatedAt: reservation.UpdatedAt,
	}
}
