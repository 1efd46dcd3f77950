package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/scheduler"
)

type roomRow struct {
	ID        string      `db:"id"`
	Name      string      `db:"name"`
	Capacity  int         `db:"capacity"`
	OpenTime  pgtype.Time `db:"open_time"`
	CloseTime pgtype.Time `db:"close_time"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

const roomColumns = `id, name, capacity, open_time, close_time, created_at, updated_at`

func (r roomRow) toRoom() persistence.Room {
	return persistence.Room{
		ID:        r.ID,
		Name:      r.Name,
		Capacity:  r.Capacity,
		OpenTime:  fromPGTime(r.OpenTime),
		CloseTime: fromPGTime(r.CloseTime),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func toPGTime(t scheduler.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: time.Duration(t).Microseconds(), Valid: true}
}

func fromPGTime(t pgtype.Time) scheduler.TimeOfDay {
	return scheduler.TimeOfDay(time.Duration(t.Microseconds) * time.Microsecond)
}

func collectRoom(rows pgx.Rows) (persistence.Room, error) {
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[roomRow])
	if err != nil {
		return persistence.Room{}, mapError(err)
	}
	return row.toRoom(), nil
}

// CreateRoom inserts a room with a generated id.
func (s *Store) CreateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	now := s.now().UTC()
	rows, err := s.pool.Query(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING `+roomColumns,
		s.newID(), room.Name, room.Capacity, toPGTime(room.OpenTime), toPGTime(room.CloseTime), now,
	)
	if err != nil {
		return persistence.Room{}, errs.Wrapf(mapError(err), "insert room %q", room.Name)
	}
	created, err := collectRoom(rows)
	if err != nil {
		return persistence.Room{}, errs.Wrapf(err, "insert room %q", room.Name)
	}
	return created, nil
}

// UpdateRoom replaces the mutable fields of an existing room.
func (s *Store) UpdateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	rows, err := s.pool.Query(ctx,
		`UPDATE rooms SET name = $2, capacity = $3, open_time = $4, close_time = $5, updated_at = $6
		 WHERE id = $1 RETURNING `+roomColumns,
		room.ID, room.Name, room.Capacity, toPGTime(room.OpenTime), toPGTime(room.CloseTime), s.now().UTC(),
	)
	if err != nil {
		return persistence.Room{}, errs.Wrapf(mapError(err), "update room %s", room.ID)
	}
	updated, err := collectRoom(rows)
	if err != nil {
		return persistence.Room{}, errs.Wrapf(err, "update room %s", room.ID)
	}
	return updated, nil
}

// GetRoom retrieves a room by id.
func (s *Store) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)
	if err != nil {
		return persistence.Room{}, errs.Wrapf(mapError(err), "get room %s", id)
	}
	room, err := collectRoom(rows)
	if err != nil {
		return persistence.Room{}, errs.Wrapf(err, "get room %s", id)
	}
	return room, nil
}

// FindRoomByName retrieves a room by case-insensitive name.
func (s *Store) FindRoomByName(ctx context.Context, name string) (persistence.Room, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+roomColumns+` FROM rooms WHERE lower(name) = lower($1)`, name)
	if err != nil {
		return persistence.Room{}, errs.Wrapf(mapError(err), "find room %q", name)
	}
	room, err := collectRoom(rows)
	if err != nil {
		return persistence.Room{}, errs.Wrapf(err, "find room %q", name)
	}
	return room, nil
}

// ListRooms returns every room ordered by name.
func (s *Store) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY name, id`)
	if err != nil {
		return nil, errs.Wrap(mapError(err), "list rooms")
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[roomRow])
	if err != nil {
		return nil, errs.Wrap(mapError(err), "list rooms")
	}

	rooms := make([]persistence.Room, 0, len(records))
	for _, r := range records {
		rooms = append(rooms, r.toRoom())
	}
	return rooms, nil
}
