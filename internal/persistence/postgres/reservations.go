package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/persistence"
)

type reservationRow struct {
	ID        string    `db:"id"`
	RoomID    string    `db:"room_id"`
	StartAt   time.Time `db:"start_at"`
	EndAt     time.Time `db:"end_at"`
	Attendees int       `db:"attendees"`
	Agenda    string    `db:"agenda"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const reservationColumns = `id, room_id, start_at, end_at, attendees, agenda, created_at, updated_at`

func (r reservationRow) toReservation() persistence.Reservation {
	return persistence.Reservation{
		ID:        r.ID,
		RoomID:    r.RoomID,
		Start:     r.StartAt.UTC(),
		End:       r.EndAt.UTC(),
		Attendees: r.Attendees,
		Agenda:    r.Agenda,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func collectReservations(rows pgx.Rows) ([]persistence.Reservation, error) {
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[reservationRow])
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]persistence.Reservation, 0, len(records))
	for _, r := range records {
		out = append(out, r.toReservation())
	}
	return out, nil
}

func collectReservation(rows pgx.Rows) (persistence.Reservation, error) {
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[reservationRow])
	if err != nil {
		return persistence.Reservation{}, mapError(err)
	}
	return row.toReservation(), nil
}

// FindOverlapping returns reservations of roomID touching or intersecting [from, to].
func (s *Store) FindOverlapping(ctx context.Context, roomID string, from, to time.Time) ([]persistence.Reservation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE room_id = $1 AND start_at <= $2 AND end_at >= $3
		 ORDER BY start_at, id`,
		roomID, to, from,
	)
	if err != nil {
		return nil, errs.Wrapf(mapError(err), "find reservations of room %s", roomID)
	}
	out, err := collectReservations(rows)
	if err != nil {
		return nil, errs.Wrapf(err, "find reservations of room %s", roomID)
	}
	return out, nil
}

// InsertReservation stores a new reservation. The exclusion constraint
// rejects a window that intersects another reservation of the same room.
func (s *Store) InsertReservation(ctx context.Context, reservation persistence.Reservation) (persistence.Reservation, error) {
	now := s.now().UTC()
	id := s.newID()

	created, err := runInTx(ctx, s, func(tx pgx.Tx) (persistence.Reservation, error) {
		rows, err := tx.Query(ctx,
			`INSERT INTO reservations (`+reservationColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING `+reservationColumns,
			id, reservation.RoomID, reservation.Start, reservation.End,
			reservation.Attendees, reservation.Agenda, now,
		)
		if err != nil {
			return persistence.Reservation{}, mapError(err)
		}
		return collectReservation(rows)
	})
	if err != nil {
		return persistence.Reservation{}, errs.Wrapf(err, "insert reservation for room %s", reservation.RoomID)
	}
	return created, nil
}

// UpdateReservation replaces an existing reservation, keeping its creation time.
func (s *Store) UpdateReservation(ctx context.Context, reservation persistence.Reservation) (persistence.Reservation, error) {
	updated, err := runInTx(ctx, s, func(tx pgx.Tx) (persistence.Reservation, error) {
		rows, err := tx.Query(ctx,
			`UPDATE reservations
			 SET room_id = $2, start_at = $3, end_at = $4, attendees = $5, agenda = $6, updated_at = $7
			 WHERE id = $1 RETURNING `+reservationColumns,
			reservation.ID, reservation.RoomID, reservation.Start, reservation.End,
			reservation.Attendees, reservation.Agenda, s.now().UTC(),
		)
		if err != nil {
			return persistence.Reservation{}, mapError(err)
		}
		return collectReservation(rows)
	})
	if err != nil {
		return persistence.Reservation{}, errs.Wrapf(err, "update reservation %s", reservation.ID)
	}
	return updated, nil
}

// DeleteReservation removes a reservation.
func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return errs.Wrapf(mapError(err), "delete reservation %s", id)
	}
	if tag.RowsAffected() == 0 {
		return errs.Wrapf(persistence.ErrNotFound, "delete reservation %s", id)
	}
	return nil
}

// GetReservation retrieves a reservation by id.
func (s *Store) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	if err != nil {
		return persistence.Reservation{}, errs.Wrapf(mapError(err), "get reservation %s", id)
	}
	r, err := collectReservation(rows)
	if err != nil {
		return persistence.Reservation{}, errs.Wrapf(err, "get reservation %s", id)
	}
	return r, nil
}

// ListReservations returns reservations ordered by start, optionally for one room.
func (s *Store) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations`
	var args []any
	if filter.RoomID != "" {
		query += ` WHERE room_id = $1`
		args = append(args, filter.RoomID)
	}
	query += ` ORDER BY start_at, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(mapError(err), "list reservations")
	}
	out, err := collectReservations(rows)
	if err != nil {
		return nil, errs.Wrap(err, "list reservations")
	}
	return out, nil
}
