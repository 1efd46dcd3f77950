package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/scheduler"
)

var (
	roomCounter        uint64
	reservationCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// BookingDay returns the wall-clock time hour:minute on the reference day in UTC.
// Hours past 23 roll into the following days.
func BookingDay(hour, minute int) time.Time {
	y, m, d := referenceTime.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).
		Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// Window returns the window between two BookingDay instants.
func Window(startHour, startMinute, endHour, endMinute int) scheduler.TimeWindow {
	return scheduler.MustTimeWindow(BookingDay(startHour, startMinute), BookingDay(endHour, endMinute))
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic meeting room record.
type RoomFixture struct {
	ID        string
	Name      string
	Capacity  int
	OpenTime  scheduler.TimeOfDay
	CloseTime scheduler.TimeOfDay
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a room open 09:00-18:00 for ten people, with overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := RoomFixture{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Capacity:  10,
		OpenTime:  scheduler.MustTimeOfDay(9, 0),
		CloseTime: scheduler.MustTimeOfDay(18, 0),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) {
		f.Name = name
	}
}

// WithRoomCapacity overrides the capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) {
		f.Capacity = capacity
	}
}

// WithRoomHours overrides the operating hours.
func WithRoomHours(open, close scheduler.TimeOfDay) RoomOption {
	return func(f *RoomFixture) {
		f.OpenTime = open
		f.CloseTime = close
	}
}

// Application returns the fixture as an application.Room value.
func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:        f.ID,
		Name:      f.Name,
		Capacity:  f.Capacity,
		OpenTime:  f.OpenTime,
		CloseTime: f.CloseTime,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Room value.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		Capacity:  f.Capacity,
		OpenTime:  f.OpenTime,
		CloseTime: f.CloseTime,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// -------------------------- Reservation fixtures --------------------------

// ReservationFixture represents a deterministic accepted reservation.
type ReservationFixture struct {
	ID        string
	RoomID    string
	Window    scheduler.TimeWindow
	Attendees int
	Agenda    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a 10:00-11:00 reservation for four attendees, with overrides.
func NewReservationFixture(opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ReservationFixture{
		ID:        fmt.Sprintf("reservation-%03d", idx),
		RoomID:    "room-001",
		Window:    Window(10, 0, 11, 0),
		Attendees: 4,
		Agenda:    fmt.Sprintf("Meeting %03d", idx),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ID = id
	}
}

// WithReservationRoom sets the booked room.
func WithReservationRoom(roomID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.RoomID = roomID
	}
}

// WithReservationWindow sets the booked window.
func WithReservationWindow(window scheduler.TimeWindow) ReservationOption {
	return func(f *ReservationFixture) {
		f.Window = window
	}
}

// WithReservationAttendees sets the head count.
func WithReservationAttendees(attendees int) ReservationOption {
	return func(f *ReservationFixture) {
		f.Attendees = attendees
	}
}

// WithReservationAgenda sets the agenda text.
func WithReservationAgenda(agenda string) ReservationOption {
	return func(f *ReservationFixture) {
		f.Agenda = agenda
	}
}

// Application returns the fixture as an application.Reservation value.
func (f ReservationFixture) Application() application.Reservation {
	return application.Reservation{
		ID:        f.ID,
		RoomID:    f.RoomID,
		Window:    f.Window,
		Attendees: f.Attendees,
		Agenda:    f.Agenda,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Reservation value.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:        f.ID,
		RoomID:    f.RoomID,
		Start:     f.Window.Start(),
		End:       f.Window.End(),
		Attendees: f.Attendees,
		Agenda:    f.Agenda,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Request returns the fixture as a booking request.
func (f ReservationFixture) Request() application.ReservationRequest {
	return application.ReservationRequest{
		RoomID:    f.RoomID,
		Window:    f.Window,
		Attendees: f.Attendees,
		Agenda:    f.Agenda,
	}
}

