package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/persistence"
)

type reservationRow struct {
	ID        string `db:"id"`
	RoomID    string `db:"room_id"`
	StartAt   string `db:"start_at"`
	EndAt     string `db:"end_at"`
	Attendees int    `db:"attendees"`
	Agenda    string `db:"agenda"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

const reservationColumns = `id, room_id, start_at, end_at, attendees, agenda, created_at, updated_at`

func (r reservationRow) toReservation() (persistence.Reservation, error) {
	var out persistence.Reservation
	var err error
	out.ID, out.RoomID, out.Attendees, out.Agenda = r.ID, r.RoomID, r.Attendees, r.Agenda

	if out.Start, err = parseTime(r.StartAt); err != nil {
		return persistence.Reservation{}, err
	}
	if out.End, err = parseTime(r.EndAt); err != nil {
		return persistence.Reservation{}, err
	}
	if out.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return persistence.Reservation{}, err
	}
	if out.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return persistence.Reservation{}, err
	}
	return out, nil
}

func toReservations(rows []reservationRow) ([]persistence.Reservation, error) {
	out := make([]persistence.Reservation, 0, len(rows))
	for _, row := range rows {
		r, err := row.toReservation()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// FindOverlapping returns reservations of roomID touching or intersecting [from, to].
func (s *Store) FindOverlapping(ctx context.Context, roomID string, from, to time.Time) ([]persistence.Reservation, error) {
	var rows []reservationRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE room_id = ? AND start_at <= ? AND end_at >= ?
		 ORDER BY start_at, id`,
		roomID, formatTime(to), formatTime(from),
	)
	if err != nil {
		return nil, errs.Wrapf(mapError(err), "find reservations of room %s", roomID)
	}
	return toReservations(rows)
}

// InsertReservation stores a new reservation. The overlap trigger rejects a
// window that intersects another reservation of the same room.
func (s *Store) InsertReservation(ctx context.Context, reservation persistence.Reservation) (persistence.Reservation, error) {
	now := s.now().UTC()
	reservation.ID = s.newID()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	err := s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO reservations (`+reservationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			reservation.ID, reservation.RoomID,
			formatTime(reservation.Start), formatTime(reservation.End),
			reservation.Attendees, reservation.Agenda,
			formatTime(reservation.CreatedAt), formatTime(reservation.UpdatedAt),
		)
		return err
	})
	if err != nil {
		return persistence.Reservation{}, errs.Wrapf(mapError(err), "insert reservation for room %s", reservation.RoomID)
	}

	reservation.Start = reservation.Start.UTC()
	reservation.End = reservation.End.UTC()
	return reservation, nil
}

// UpdateReservation replaces an existing reservation, keeping its creation time.
func (s *Store) UpdateReservation(ctx context.Context, reservation persistence.Reservation) (persistence.Reservation, error) {
	var updated persistence.Reservation
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE reservations
			 SET room_id = ?, start_at = ?, end_at = ?, attendees = ?, agenda = ?, updated_at = ?
			 WHERE id = ?`,
			reservation.RoomID, formatTime(reservation.Start), formatTime(reservation.End),
			reservation.Attendees, reservation.Agenda, formatTime(s.now()), reservation.ID,
		)
		if err != nil {
			return mapError(err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return persistence.ErrNotFound
		}

		updated, err = getReservation(ctx, tx, reservation.ID)
		return err
	})
	if err != nil {
		return persistence.Reservation{}, errs.Wrapf(err, "update reservation %s", reservation.ID)
	}
	return updated, nil
}

// DeleteReservation removes a reservation.
func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return errs.Wrapf(mapError(err), "delete reservation %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Wrapf(err, "delete reservation %s", id)
	}
	if n == 0 {
		return errs.Wrapf(persistence.ErrNotFound, "delete reservation %s", id)
	}
	return nil
}

// GetReservation retrieves a reservation by id.
func (s *Store) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	return getReservation(ctx, s.db, id)
}

// ListReservations returns reservations ordered by start, optionally for one room.
func (s *Store) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations`
	var args []any
	if filter.RoomID != "" {
		query += ` WHERE room_id = ?`
		args = append(args, filter.RoomID)
	}
	query += ` ORDER BY start_at, id`

	var rows []reservationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errs.Wrap(mapError(err), "list reservations")
	}
	return toReservations(rows)
}

func getReservation(ctx context.Context, q sqlx.QueryerContext, id string) (persistence.Reservation, error) {
	var row reservationRow
	if err := sqlx.GetContext(ctx, q, &row, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id); err != nil {
		return persistence.Reservation{}, errs.Wrapf(mapError(err), "get reservation %s", id)
	}
	return row.toReservation()
}
