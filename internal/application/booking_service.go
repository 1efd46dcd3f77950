package application

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/persistence"
)

// BookingService admits, re-validates, and removes reservations. Create and
// update hold the room's token from the catalog lookup until the store has
// acknowledged the write, so two requests for the same room never both pass
// the conflict check on the same snapshot.
type BookingService struct {
	catalog  RoomCatalog
	store    ReservationStore
	locks    RoomLocker
	pipeline *ValidationPipeline
	logger   *slog.Logger
}

// NewBookingService constructs a booking service with the provided collaborators.
func NewBookingService(catalog RoomCatalog, store ReservationStore, locks RoomLocker) *BookingService {
	return NewBookingServiceWithLogger(catalog, store, locks, nil)
}

// NewBookingServiceWithLogger constructs a booking service with a specified logger.
// A nil locker falls back to an in-process locker with DefaultLockTimeout.
func NewBookingServiceWithLogger(catalog RoomCatalog, store ReservationStore, locks RoomLocker, logger *slog.Logger) *BookingService {
	if locks == nil {
		locks = NewLocalRoomLocker(DefaultLockTimeout)
	}
	return &BookingService{
		catalog:  catalog,
		store:    store,
		locks:    locks,
		pipeline: NewValidationPipeline(store),
		logger:   defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// CreateReservation admits a new reservation and persists it.
func (s *BookingService) CreateReservation(ctx context.Context, req ReservationRequest) (reservation Reservation, err error) {
	if s == nil {
		err = errs.New("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateReservation", "room_id", req.RoomID)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to create reservation", err)
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation created")
	}()

	if err = s.checkConfigured(); err != nil {
		return
	}
	if vErr := validateRequest(req); vErr.HasErrors() {
		err = vErr
		return
	}

	unlock, err := s.locks.Lock(ctx, req.RoomID)
	if err != nil {
		return
	}
	defer unlock()

	room, err := s.lookupRoom(ctx, req.RoomID)
	if err != nil {
		return
	}

	decision, err := s.pipeline.Validate(ctx, room, req.Window, req.Attendees, "")
	if err != nil {
		return
	}
	if err = decision.Err(); err != nil {
		return
	}

	reservation, err = s.store.Insert(ctx, Reservation{
		RoomID:    room.ID,
		Window:    decision.Window,
		Attendees: decision.Attendees,
		Agenda:    strings.TrimSpace(req.Agenda),
	})
	if err != nil {
		err = mapStoreError(err, "insert reservation")
		reservation = Reservation{}
		return
	}
	return
}

// UpdateReservation re-validates an existing reservation against a new
// proposal as if it were new, ignoring its own current window.
func (s *BookingService) UpdateReservation(ctx context.Context, params UpdateReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = errs.New("BookingService is nil")
		return
	}

	req := params.Request
	logger := s.loggerWith(ctx, "UpdateReservation",
		"reservation_id", params.ReservationID,
		"room_id", req.RoomID,
	)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to update reservation", err)
			return
		}
		logger.InfoContext(ctx, "reservation updated")
	}()

	if err = s.checkConfigured(); err != nil {
		return
	}
	vErr := validateRequest(req)
	if strings.TrimSpace(params.ReservationID) == "" {
		vErr.Add("id", "reservation id is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	unlock, err := s.locks.Lock(ctx, req.RoomID)
	if err != nil {
		return
	}
	defer unlock()

	existing, err := s.store.Get(ctx, params.ReservationID)
	if err != nil {
		err = mapReservationLookupError(err, params.ReservationID)
		return
	}

	room, err := s.lookupRoom(ctx, req.RoomID)
	if err != nil {
		return
	}

	decision, err := s.pipeline.Validate(ctx, room, req.Window, req.Attendees, existing.ID)
	if err != nil {
		return
	}
	if err = decision.Err(); err != nil {
		return
	}

	updated := existing
	updated.RoomID = room.ID
	updated.Window = decision.Window
	updated.Attendees = decision.Attendees
	updated.Agenda = strings.TrimSpace(req.Agenda)

	reservation, err = s.store.Update(ctx, updated)
	if err != nil {
		if errs.Is(err, persistence.ErrNotFound) {
			err = mapReservationLookupError(err, existing.ID)
		} else {
			err = mapStoreError(err, "update reservation")
		}
		reservation = Reservation{}
		return
	}
	return
}

// DeleteReservation removes a reservation. Removing a booking cannot create an
// overlap, so no room token is taken.
func (s *BookingService) DeleteReservation(ctx context.Context, reservationID string) (err error) {
	if s == nil {
		return errs.New("BookingService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteReservation", "reservation_id", reservationID)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to delete reservation", err)
			return
		}
		logger.InfoContext(ctx, "reservation deleted")
	}()

	if err = s.checkConfigured(); err != nil {
		return
	}
	if err = s.store.Delete(ctx, reservationID); err != nil {
		err = mapReservationLookupError(err, reservationID)
	}
	return
}

// GetReservation returns a single reservation.
func (s *BookingService) GetReservation(ctx context.Context, reservationID string) (reservation Reservation, err error) {
	if s == nil {
		err = errs.New("BookingService is nil")
		return
	}
	if err = s.checkConfigured(); err != nil {
		return
	}

	reservation, err = s.store.Get(ctx, reservationID)
	if err != nil {
		err = mapReservationLookupError(err, reservationID)
		logFailure(ctx, s.loggerWith(ctx, "GetReservation", "reservation_id", reservationID), "failed to get reservation", err)
		return Reservation{}, err
	}
	return reservation, nil
}

// ListReservations returns reservations ordered by start. Listing takes no
// room token and may observe a slightly stale view.
func (s *BookingService) ListReservations(ctx context.Context, filter ReservationFilter) (reservations []Reservation, err error) {
	if s == nil {
		err = errs.New("BookingService is nil")
		return
	}
	if err = s.checkConfigured(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ListReservations", "room_id", filter.RoomID)

	reservations, err = s.store.List(ctx, filter)
	if err != nil {
		err = mapStoreError(err, "list reservations")
		logFailure(ctx, logger, "failed to list reservations", err)
		return nil, err
	}

	sort.SliceStable(reservations, func(i, j int) bool {
		si, sj := reservations[i].Window.Start(), reservations[j].Window.Start()
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		return reservations[i].ID < reservations[j].ID
	})

	logger.DebugContext(ctx, "reservations listed", "count", len(reservations))
	return reservations, nil
}

func (s *BookingService) checkConfigured() error {
	if s.store == nil {
		return errs.Mark(errs.New("reservation store not configured"), ErrStorageFailure)
	}
	if s.catalog == nil {
		return errs.Mark(errs.New("room catalog not configured"), ErrStorageFailure)
	}
	return nil
}

func (s *BookingService) lookupRoom(ctx context.Context, roomID string) (Room, error) {
	room, err := s.catalog.GetRoom(ctx, roomID)
	if err != nil {
		if errs.Is(err, persistence.ErrNotFound) || errs.Is(err, ErrRoomNotFound) {
			return Room{}, errs.Wrapf(ErrRoomNotFound, "room %s", roomID)
		}
		return Room{}, mapStoreError(err, "get room")
	}
	return room, nil
}

func validateRequest(req ReservationRequest) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(req.RoomID) == "" {
		vErr.Add("room_id", "room id is required")
	}
	if req.Attendees <= 0 {
		vErr.Add("attendees", "attendees must be positive")
	}
	return vErr
}

func mapReservationLookupError(err error, reservationID string) error {
	if errs.Is(err, persistence.ErrNotFound) || errs.Is(err, ErrReservationNotFound) {
		return errs.Wrapf(ErrReservationNotFound, "reservation %s", reservationID)
	}
	return mapStoreError(err, "lookup reservation")
}

// mapStoreError classifies a collaborator error. An overlap rejected by the
// store's own constraint is reported as a conflict; everything else is a
// storage failure carrying the original cause.
func mapStoreError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if errs.Is(err, persistence.ErrOverlap) {
		return &RejectionError{Reason: ReasonRoomAlreadyReserved}
	}
	if errs.Is(err, ErrStorageFailure) {
		return errs.Wrap(err, operation)
	}
	return errs.Mark(errs.Wrap(err, operation), ErrStorageFailure)
}
