package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/scheduler"
)

// TimestampLayout is the wire format of reservation start and end dates.
const TimestampLayout = "2006-01-02 15:04"

type reservationService interface {
	CreateReservation(ctx context.Context, req application.ReservationRequest) (application.Reservation, error)
	UpdateReservation(ctx context.Context, params application.UpdateReservationParams) (application.Reservation, error)
	DeleteReservation(ctx context.Context, reservationID string) error
	GetReservation(ctx context.Context, reservationID string) (application.Reservation, error)
	ListReservations(ctx context.Context, filter application.ReservationFilter) ([]application.Reservation, error)
}

type ReservationHandler struct {
	service   reservationService
	loc       *time.Location
	responder responder
	logger    *slog.Logger
}

// NewReservationHandler builds the handler. Timestamps are parsed and
// rendered in loc; nil means UTC.
func NewReservationHandler(service reservationService, loc *time.Location, logger *slog.Logger) *ReservationHandler {
	if loc == nil {
		loc = time.UTC
	}
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, loc: loc, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var body reservationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.log(ctx, "Create", "error_kind", "bad_request").WarnContext(ctx, "failed to decode reservation request", "error", err)
		h.responder.writeError(c, http.StatusBadRequest, errBadRequestBody)
		return
	}
	req, vErr := body.toRequest(h.loc)
	if vErr.HasErrors() {
		h.responder.handleServiceError(c, vErr)
		return
	}

	logger := h.log(ctx, "Create", "room_id", req.RoomID)
	reservation, err := h.service.CreateReservation(ctx, req)
	if err != nil {
		logger.WarnContext(ctx, "reservation creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(c, err)
		return
	}

	logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation created")
	h.responder.writeJSON(c, http.StatusCreated, reservationResponse{Reservation: h.toDTO(reservation)})
}

func (h *ReservationHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	reservationID := strings.TrimSpace(c.Param("id"))
	if reservationID == "" {
		h.responder.writeError(c, http.StatusBadRequest, errMissingBookingID)
		return
	}

	var body reservationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.log(ctx, "Update", "reservation_id", reservationID, "error_kind", "bad_request").WarnContext(ctx, "failed to decode reservation update", "error", err)
		h.responder.writeError(c, http.StatusBadRequest, errBadRequestBody)
		return
	}
	req, vErr := body.toRequest(h.loc)
	if vErr.HasErrors() {
		h.responder.handleServiceError(c, vErr)
		return
	}

	logger := h.log(ctx, "Update", "reservation_id", reservationID, "room_id", req.RoomID)
	reservation, err := h.service.UpdateReservation(ctx, application.UpdateReservationParams{
		ReservationID: reservationID,
		Request:       req,
	})
	if err != nil {
		logger.WarnContext(ctx, "reservation update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(c, err)
		return
	}

	logger.InfoContext(ctx, "reservation updated")
	h.responder.writeJSON(c, http.StatusOK, reservationResponse{Reservation: h.toDTO(reservation)})
}

func (h *ReservationHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	reservationID := strings.TrimSpace(c.Param("id"))
	if reservationID == "" {
		h.responder.writeError(c, http.StatusBadRequest, errMissingBookingID)
		return
	}

	logger := h.log(ctx, "Delete", "reservation_id", reservationID)
	if err := h.service.DeleteReservation(ctx, reservationID); err != nil {
		logger.WarnContext(ctx, "reservation delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(c, err)
		return
	}

	logger.InfoContext(ctx, "reservation deleted")
	h.responder.writeJSON(c, http.StatusNoContent, nil)
}

func (h *ReservationHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	reservationID := strings.TrimSpace(c.Param("id"))
	if reservationID == "" {
		h.responder.writeError(c, http.StatusBadRequest, errMissingBookingID)
		return
	}

	reservation, err := h.service.GetReservation(ctx, reservationID)
	if err != nil {
		h.responder.handleServiceError(c, err)
		return
	}
	h.responder.writeJSON(c, http.StatusOK, reservationResponse{Reservation: h.toDTO(reservation)})
}

func (h *ReservationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	filter := application.ReservationFilter{RoomID: strings.TrimSpace(c.Query("room_id"))}
	logger := h.log(ctx, "List", "room_id", filter.RoomID)

	reservations, err := h.service.ListReservations(ctx, filter)
	if err != nil {
		logger.ErrorContext(ctx, "reservation list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(c, err)
		return
	}

	out := make([]reservationDTO, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, h.toDTO(r))
	}
	logger.With("result_count", len(out)).InfoContext(ctx, "reservations listed")
	h.responder.writeJSON(c, http.StatusOK, listReservationsResponse{Reservations: out})
}

type reservationRequest struct {
	RoomID    string `json:"room_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Attendees int    `json:"attendees"`
	Agenda    string `json:"agenda"`
}

// toRequest parses the wire timestamps in loc. A start that is not before
// the end yields a zero window, which the service rejects as INVALID_WINDOW.
func (r reservationRequest) toRequest(loc *time.Location) (application.ReservationRequest, *application.ValidationError) {
	vErr := &application.ValidationError{}
	start, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(r.StartDate), loc)
	if err != nil {
		vErr.Add("start_date", "start_date must use the format yyyy-MM-dd HH:mm")
	}
	end, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(r.EndDate), loc)
	if err != nil {
		vErr.Add("end_date", "end_date must use the format yyyy-MM-dd HH:mm")
	}
	if vErr.HasErrors() {
		return application.ReservationRequest{}, vErr
	}

	var window scheduler.TimeWindow
	if w, err := scheduler.NewTimeWindow(start, end); err == nil {
		window = w
	}
	return application.ReservationRequest{
		RoomID:    strings.TrimSpace(r.RoomID),
		Window:    window,
		Attendees: r.Attendees,
		Agenda:    r.Agenda,
	}, nil
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type reservationDTO struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Attendees int    `json:"attendees"`
	Agenda    string `json:"agenda"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (h *ReservationHandler) toDTO(r application.Reservation) reservationDTO {
	return reservationDTO{
		ID:        r.ID,
		RoomID:    r.RoomID,
		StartDate: r.Window.Start().In(h.loc).Format(TimestampLayout),
		EndDate:   r.Window.End().In(h.loc).Format(TimestampLayout),
		Attendees: r.Attendees,
		Agenda:    r.Agenda,
		CreatedAt: r.CreatedAt.In(h.loc).Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.In(h.loc).Format(time.RFC3339),
	}
}
