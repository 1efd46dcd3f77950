// Package memory provides an in-process persistence.Store backed by maps.
// It is used by tests and by the "memory" storage driver.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/persistence"
)

// Storage keeps rooms and reservations in maps guarded by one RWMutex.
type Storage struct {
	mu           sync.RWMutex
	rooms        map[string]persistence.Room
	reservations map[string]persistence.Reservation

	newID func() string
	now   func() time.Time
}

// Option customises a Storage.
type Option func(*Storage)

// WithIDGenerator overrides uuid-based identifiers.
func WithIDGenerator(next func() string) Option {
	return func(s *Storage) {
		if next != nil {
			s.newID = next
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty Storage.
func New(opts ...Option) *Storage {
	s := &Storage{
		rooms:        make(map[string]persistence.Room),
		reservations: make(map[string]persistence.Reservation),
		newID:        uuid.NewString,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ persistence.Store = (*Storage)(nil)

// Ping always succeeds.
func (s *Storage) Ping(context.Context) error { return nil }

// Close releases nothing; it exists to satisfy persistence.Store.
func (s *Storage) Close() error { return nil }

// --- RoomRepository implementation ---

// CreateRoom stores a new room with a generated id.
func (s *Storage) CreateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureUniqueRoomNameLocked("", room.Name); err != nil {
		return persistence.Room{}, err
	}

	now := s.now().UTC()
	room.ID = s.newID()
	room.CreatedAt = now
	room.UpdatedAt = now
	s.rooms[room.ID] = room
	return room, nil
}

// UpdateRoom replaces an existing room, keeping its creation time.
func (s *Storage) UpdateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rooms[room.ID]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	if err := s.ensureUniqueRoomNameLocked(room.ID, room.Name); err != nil {
		return persistence.Room{}, err
	}

	room.CreatedAt = current.CreatedAt
	room.UpdatedAt = s.now().UTC()
	s.rooms[room.ID] = room
	return room, nil
}

// GetRoom retrieves a room by ID.
func (s *Storage) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

// FindRoomByName retrieves a room by case-insensitive name.
func (s *Storage) FindRoomByName(ctx context.Context, name string) (persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, room := range s.rooms {
		if strings.EqualFold(room.Name, name) {
			return room, nil
		}
	}
	return persistence.Room{}, persistence.ErrNotFound
}

// ListRooms returns all rooms ordered by name.
func (s *Storage) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]persistence.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Name == rooms[j].Name {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].Name < rooms[j].Name
	})
	return rooms, nil
}

// --- ReservationRepository implementation ---

// FindOverlapping returns reservations of roomID touching or intersecting [from, to].
func (s *Storage) FindOverlapping(ctx context.Context, roomID string, from, to time.Time) ([]persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.Reservation
	for _, r := range s.reservations {
		if r.RoomID != roomID {
			continue
		}
		if r.Start.After(to) || r.End.Before(from) {
			continue
		}
		out = append(out, r)
	}
	sortReservations(out)
	return out, nil
}

// InsertReservation stores a new reservation with a generated id.
func (s *Storage) InsertReservation(ctx context.Context, reservation persistence.Reservation) (persistence.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[reservation.RoomID]; !ok {
		return persistence.Reservation{}, errs.Wrapf(persistence.ErrConstraintViolation, "room %s does not exist", reservation.RoomID)
	}
	if err := s.ensureNoOverlapLocked(reservation); err != nil {
		return persistence.Reservation{}, err
	}

	now := s.now().UTC()
	reservation.ID = s.newID()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now
	s.reservations[reservation.ID] = reservation
	return reservation, nil
}

// UpdateReservation replaces an existing reservation, keeping its creation time.
func (s *Storage) UpdateReservation(ctx context.Context, reservation persistence.Reservation) (persistence.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.reservations[reservation.ID]
	if !ok {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	if _, ok := s.rooms[reservation.RoomID]; !ok {
		return persistence.Reservation{}, errs.Wrapf(persistence.ErrConstraintViolation, "room %s does not exist", reservation.RoomID)
	}
	if err := s.ensureNoOverlapLocked(reservation); err != nil {
		return persistence.Reservation{}, err
	}

	reservation.CreatedAt = current.CreatedAt
	reservation.UpdatedAt = s.now().UTC()
	s.reservations[reservation.ID] = reservation
	return reservation, nil
}

// DeleteReservation removes a reservation.
func (s *Storage) DeleteReservation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.reservations, id)
	return nil
}

// GetReservation retrieves a reservation by ID.
func (s *Storage) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reservations[id]
	if !ok {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return r, nil
}

// ListReservations returns reservations ordered by start, optionally for one room.
func (s *Storage) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		if filter.RoomID != "" && r.RoomID != filter.RoomID {
			continue
		}
		out = append(out, r)
	}
	sortReservations(out)
	return out, nil
}

func (s *Storage) ensureUniqueRoomNameLocked(id, name string) error {
	for _, room := range s.rooms {
		if room.ID != id && strings.EqualFold(room.Name, name) {
			return errs.Wrapf(persistence.ErrDuplicate, "room name %q", name)
		}
	}
	return nil
}

func (s *Storage) ensureNoOverlapLocked(candidate persistence.Reservation) error {
	for _, r := range s.reservations {
		if r.ID == candidate.ID || r.RoomID != candidate.RoomID {
			continue
		}
		if persistence.Overlaps(r, candidate) {
			return errs.Wrapf(persistence.ErrOverlap, "overlaps reservation %s", r.ID)
		}
	}
	return nil
}

func sortReservations(rs []persistence.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Start.Equal(rs[j].Start) {
			return rs[i].ID < rs[j].ID
		}
		return rs[i].Start.Before(rs[j].Start)
	})
}
