// Package storetest holds the behaviour every persistence.Store must share.
// Backend test files call Run with a constructor for a fresh, empty store.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/scheduler"
)

// Factory returns an empty store. The store is closed by the factory's own cleanup.
type Factory func(t *testing.T) persistence.Store

var base = time.Date(2019, time.June, 12, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return base.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// Run executes the shared store behaviour against stores produced by open.
func Run(t *testing.T, open Factory) {
	t.Helper()

	t.Run("rooms", func(t *testing.T) { testRooms(t, open) })
	t.Run("reservations", func(t *testing.T) { testReservations(t, open) })
	t.Run("overlap guard", func(t *testing.T) { testOverlapGuard(t, open) })
}

func seedRoom(t *testing.T, store persistence.Store, name string) persistence.Room {
	t.Helper()
	room, err := store.CreateRoom(context.Background(), persistence.Room{
		Name:      name,
		Capacity:  10,
		OpenTime:  scheduler.MustTimeOfDay(9, 0),
		CloseTime: scheduler.MustTimeOfDay(18, 0),
	})
	require.NoError(t, err)
	return room
}

func book(t *testing.T, store persistence.Store, roomID string, start, end time.Time) persistence.Reservation {
	t.Helper()
	r, err := store.InsertReservation(context.Background(), persistence.Reservation{
		RoomID:    roomID,
		Start:     start,
		End:       end,
		Attendees: 4,
		Agenda:    "sync",
	})
	require.NoError(t, err)
	return r
}

func ids(rs []persistence.Reservation) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func testRooms(t *testing.T, open Factory) {
	ctx := context.Background()
	store := open(t)

	created := seedRoom(t, store, "Orchid")
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := store.GetRoom(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Orchid", fetched.Name)
	assert.Equal(t, 10, fetched.Capacity)
	assert.Equal(t, scheduler.MustTimeOfDay(9, 0), fetched.OpenTime)
	assert.Equal(t, scheduler.MustTimeOfDay(18, 0), fetched.CloseTime)

	byName, err := store.FindRoomByName(ctx, "ORCHID")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	_, err = store.CreateRoom(ctx, persistence.Room{Name: "orchid", Capacity: 2, OpenTime: 0, CloseTime: scheduler.MustTimeOfDay(1, 0)})
	assert.True(t, errs.Is(err, persistence.ErrDuplicate), "expected duplicate, got %v", err)

	fetched.Capacity = 25
	updated, err := store.UpdateRoom(ctx, fetched)
	require.NoError(t, err)
	assert.Equal(t, 25, updated.Capacity)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	_, err = store.GetRoom(ctx, "missing")
	assert.True(t, errs.Is(err, persistence.ErrNotFound), "expected not found, got %v", err)
	_, err = store.UpdateRoom(ctx, persistence.Room{ID: "missing", Name: "Ghost", Capacity: 1, CloseTime: scheduler.MustTimeOfDay(1, 0)})
	assert.True(t, errs.Is(err, persistence.ErrNotFound), "expected not found, got %v", err)

	seedRoom(t, store, "Birch")
	rooms, err := store.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Birch", rooms[0].Name)
}

func testReservations(t *testing.T, open Factory) {
	ctx := context.Background()
	store := open(t)
	room := seedRoom(t, store, "Orchid")
	other := seedRoom(t, store, "Birch")

	morning := book(t, store, room.ID, at(9, 30), at(10, 0))
	noon := book(t, store, room.ID, at(12, 0), at(13, 0))
	nextDay := book(t, store, room.ID, at(34, 0), at(35, 0))
	elsewhere := book(t, store, other.ID, at(10, 0), at(11, 0))

	got, err := store.GetReservation(ctx, noon.ID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, got.RoomID)
	assert.True(t, got.Start.Equal(at(12, 0)))
	assert.True(t, got.End.Equal(at(13, 0)))
	assert.Equal(t, 4, got.Attendees)
	assert.Equal(t, "sync", got.Agenda)

	t.Run("overlap query is a superset bounded by room and range", func(t *testing.T) {
		found, err := store.FindOverlapping(ctx, room.ID, at(10, 0), at(12, 0))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{morning.ID, noon.ID}, ids(found))

		found, err = store.FindOverlapping(ctx, room.ID, at(0, 0), at(24, 0))
		require.NoError(t, err)
		assert.NotContains(t, ids(found), nextDay.ID)
		assert.NotContains(t, ids(found), elsewhere.ID)
	})

	t.Run("update keeps identity and creation time", func(t *testing.T) {
		moved := noon
		moved.Start, moved.End = at(14, 0), at(15, 0)
		moved.Attendees = 6
		updated, err := store.UpdateReservation(ctx, moved)
		require.NoError(t, err)
		assert.Equal(t, noon.ID, updated.ID)
		assert.True(t, updated.CreatedAt.Equal(noon.CreatedAt))
		assert.Equal(t, 6, updated.Attendees)

		_, err = store.UpdateReservation(ctx, persistence.Reservation{ID: "missing", RoomID: room.ID, Start: at(1, 0), End: at(2, 0), Attendees: 1})
		assert.True(t, errs.Is(err, persistence.ErrNotFound), "expected not found, got %v", err)
	})

	t.Run("list filters by room and orders by start", func(t *testing.T) {
		all, err := store.ListReservations(ctx, persistence.ReservationFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 4)

		mine, err := store.ListReservations(ctx, persistence.ReservationFilter{RoomID: room.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{morning.ID, noon.ID, nextDay.ID}, ids(mine))
	})

	t.Run("delete removes once", func(t *testing.T) {
		require.NoError(t, store.DeleteReservation(ctx, morning.ID))
		err := store.DeleteReservation(ctx, morning.ID)
		assert.True(t, errs.Is(err, persistence.ErrNotFound), "expected not found, got %v", err)
		_, err = store.GetReservation(ctx, morning.ID)
		assert.True(t, errs.Is(err, persistence.ErrNotFound), "expected not found, got %v", err)
	})
}

func testOverlapGuard(t *testing.T, open Factory) {
	ctx := context.Background()
	store := open(t)
	room := seedRoom(t, store, "Orchid")

	first := book(t, store, room.ID, at(10, 0), at(12, 0))

	_, err := store.InsertReservation(ctx, persistence.Reservation{RoomID: room.ID, Start: at(11, 0), End: at(13, 0), Attendees: 1})
	assert.True(t, errs.Is(err, persistence.ErrOverlap), "expected overlap, got %v", err)

	adjacent := book(t, store, room.ID, at(12, 0), at(13, 0))

	same := first
	same.Agenda = "renamed"
	_, err = store.UpdateReservation(ctx, same)
	require.NoError(t, err, "a reservation never overlaps itself")

	grown := adjacent
	grown.Start = at(11, 30)
	_, err = store.UpdateReservation(ctx, grown)
	assert.True(t, errs.Is(err, persistence.ErrOverlap), "expected overlap, got %v", err)

	_, err = store.InsertReservation(ctx, persistence.Reservation{RoomID: "missing", Start: at(14, 0), End: at(15, 0), Attendees: 1})
	assert.True(t, errs.Is(err, persistence.ErrConstraintViolation), "expected constraint violation, got %v", err)
}
