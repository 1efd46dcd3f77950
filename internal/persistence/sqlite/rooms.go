package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/scheduler"
)

type roomRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Capacity  int    `db:"capacity"`
	OpenTime  string `db:"open_time"`
	CloseTime string `db:"close_time"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

const roomColumns = `id, name, capacity, open_time, close_time, created_at, updated_at`

func (r roomRow) toRoom() (persistence.Room, error) {
	open, err := scheduler.ParseTimeOfDay(r.OpenTime)
	if err != nil {
		return persistence.Room{}, errs.Wrapf(err, "room %s open_time", r.ID)
	}
	closing, err := scheduler.ParseTimeOfDay(r.CloseTime)
	if err != nil {
		return persistence.Room{}, errs.Wrapf(err, "room %s close_time", r.ID)
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return persistence.Room{}, err
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return persistence.Room{}, err
	}

	return persistence.Room{
		ID:        r.ID,
		Name:      r.Name,
		Capacity:  r.Capacity,
		OpenTime:  open,
		CloseTime: closing,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// CreateRoom inserts a room with a generated id.
func (s *Store) CreateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	now := s.now().UTC()
	room.ID = s.newID()
	room.CreatedAt = now
	room.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.ID, room.Name, room.Capacity, room.OpenTime.String(), room.CloseTime.String(),
		formatTime(room.CreatedAt), formatTime(room.UpdatedAt),
	)
	if err != nil {
		return persistence.Room{}, errs.Wrapf(mapError(err), "insert room %q", room.Name)
	}
	return room, nil
}

// UpdateRoom replaces the mutable fields of an existing room.
func (s *Store) UpdateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	var updated persistence.Room
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE rooms SET name = ?, capacity = ?, open_time = ?, close_time = ?, updated_at = ? WHERE id = ?`,
			room.Name, room.Capacity, room.OpenTime.String(), room.CloseTime.String(),
			formatTime(s.now()), room.ID,
		)
		if err != nil {
			return mapError(err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return persistence.ErrNotFound
		}

		updated, err = getRoom(ctx, tx, room.ID)
		return err
	})
	if err != nil {
		return persistence.Room{}, errs.Wrapf(err, "update room %s", room.ID)
	}
	return updated, nil
}

// GetRoom retrieves a room by id.
func (s *Store) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	return getRoom(ctx, s.db, id)
}

// FindRoomByName retrieves a room by case-insensitive name.
func (s *Store) FindRoomByName(ctx context.Context, name string) (persistence.Room, error) {
	var row roomRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+roomColumns+` FROM rooms WHERE name = ?`, name); err != nil {
		return persistence.Room{}, errs.Wrapf(mapError(err), "find room %q", name)
	}
	return row.toRoom()
}

// ListRooms returns every room ordered by name.
func (s *Store) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	var rows []roomRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+roomColumns+` FROM rooms ORDER BY name, id`); err != nil {
		return nil, errs.Wrap(mapError(err), "list rooms")
	}

	rooms := make([]persistence.Room, 0, len(rows))
	for _, row := range rows {
		room, err := row.toRoom()
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func getRoom(ctx context.Context, q sqlx.QueryerContext, id string) (persistence.Room, error) {
	var row roomRow
	if err := sqlx.GetContext(ctx, q, &row, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id); err != nil {
		return persistence.Room{}, errs.Wrapf(mapError(err), "get room %s", id)
	}
	return row.toRoom()
}
