package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/persistence"
)

// RoomService exposes the room catalog: lookups for booking and listing, and
// idempotent seeding at startup.
type RoomService struct {
	rooms  RoomRepository
	logger *slog.Logger
}

// NewRoomService constructs a room service with the provided repository.
func NewRoomService(rooms RoomRepository) *RoomService {
	return NewRoomServiceWithLogger(rooms, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomRepository, logger *slog.Logger) *RoomService {
	return &RoomService{rooms: rooms, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// GetRoom returns the room with the given id or ErrRoomNotFound.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (room Room, err error) {
	if s == nil {
		err = errs.New("RoomService is nil")
		return
	}
	if s.rooms == nil {
		err = errs.Mark(errs.New("room repository not configured"), ErrStorageFailure)
		return
	}

	room, err = s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		err = mapRoomRepoError(err, roomID)
		logFailure(ctx, s.loggerWith(ctx, "GetRoom", "room_id", roomID), "failed to get room", err)
		return Room{}, err
	}
	return room, nil
}

// ListRooms returns the catalog ordered by name, then id.
func (s *RoomService) ListRooms(ctx context.Context) (rooms []Room, err error) {
	if s == nil {
		err = errs.New("RoomService is nil")
		return
	}
	if s.rooms == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListRooms")
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to list rooms", err)
			return
		}
		logger.With("result_count", len(rooms)).DebugContext(ctx, "rooms listed")
	}()

	var raw []Room
	raw, err = s.rooms.ListRooms(ctx)
	if err != nil {
		err = mapRoomRepoError(err, "")
		return
	}

	rooms = make([]Room, len(raw))
	copy(rooms, raw)

	sort.Slice(rooms, func(i, j int) bool {
		if strings.EqualFold(rooms[i].Name, rooms[j].Name) {
			return rooms[i].ID < rooms[j].ID
		}
		return strings.ToLower(rooms[i].Name) < strings.ToLower(rooms[j].Name)
	})

	return
}

// SeedRooms validates every input and then creates or updates rooms matched
// by name. Nothing is written when any input is invalid.
func (s *RoomService) SeedRooms(ctx context.Context, inputs []RoomInput) (seeded []Room, err error) {
	if s == nil {
		err = errs.New("RoomService is nil")
		return
	}
	if s.rooms == nil {
		err = errs.Mark(errs.New("room repository not configured"), ErrStorageFailure)
		return
	}

	logger := s.loggerWith(ctx, "SeedRooms", "input_count", len(inputs))
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to seed rooms", err)
			return
		}
		logger.With("result_count", len(seeded)).InfoContext(ctx, "rooms seeded")
	}()

	vErr := &ValidationError{}
	seen := make(map[string]int, len(inputs))
	for i, input := range inputs {
		prefix := fmt.Sprintf("rooms[%d].", i)
		vErr.merge(prefix, validateRoomInput(input))
		key := strings.ToLower(strings.TrimSpace(input.Name))
		if first, dup := seen[key]; dup && key != "" {
			vErr.Add(prefix+"name", fmt.Sprintf("duplicates rooms[%d]", first))
			continue
		}
		seen[key] = i
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	seeded = make([]Room, 0, len(inputs))
	for _, input := range inputs {
		var room Room
		room, err = s.upsertRoom(ctx, input)
		if err != nil {
			seeded = nil
			return
		}
		seeded = append(seeded, room)
	}
	return
}

func (s *RoomService) upsertRoom(ctx context.Context, input RoomInput) (Room, error) {
	name := strings.TrimSpace(input.Name)
	existing, err := s.rooms.FindRoomByName(ctx, name)
	switch {
	case err == nil:
		existing.Capacity = input.Capacity
		existing.OpenTime = input.OpenTime
		existing.CloseTime = input.CloseTime
		updated, uErr := s.rooms.UpdateRoom(ctx, existing)
		if uErr != nil {
			return Room{}, mapRoomRepoError(uErr, existing.ID)
		}
		return updated, nil
	case errs.Is(err, persistence.ErrNotFound):
		created, cErr := s.rooms.CreateRoom(ctx, Room{
			Name:      name,
			Capacity:  input.Capacity,
			OpenTime:  input.OpenTime,
			CloseTime: input.CloseTime,
		})
		if cErr != nil {
			return Room{}, mapRoomRepoError(cErr, "")
		}
		return created, nil
	default:
		return Room{}, mapRoomRepoError(err, "")
	}
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.Add("name", "name is required")
	}
	if input.Capacity <= 0 {
		vErr.Add("capacity", "capacity must be positive")
	}
	if !input.OpenTime.Before(input.CloseTime) {
		vErr.Add("close_time", "close time must be after open time")
	}

	return vErr
}

func mapRoomRepoError(err error, roomID string) error {
	if err == nil {
		return nil
	}
	if errs.Is(err, ErrRoomNotFound) || errs.Is(err, persistence.ErrNotFound) {
		return errs.Wrapf(ErrRoomNotFound, "room %s", roomID)
	}
	if errs.Is(err, persistence.ErrDuplicate) {
		vErr := &ValidationError{}
		vErr.Add("name", "a room with this name already exists")
		return vErr
	}
	if errs.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.Add("room", "room violates catalog constraints")
		return vErr
	}
	return mapStoreError(err, "room repository")
}
