package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/logging"
)

// retryAfterSeconds is advertised when a room's token could not be taken.
const retryAfterSeconds = 1

var (
	errBadRequestBody   = errs.New("request body is not valid JSON")
	errMissingRoomID    = errs.New("room id is required")
	errMissingBookingID = errs.New("reservation id is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(c *gin.Context, status int, payload any) {
	if status == http.StatusNoContent || payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

func (r responder) writeError(c *gin.Context, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(c).WarnContext(c.Request.Context(), "request rejected", "status", status, "error", err)
	}
	r.writeJSON(c, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(c *gin.Context, err error) {
	if err == nil {
		r.writeError(c, http.StatusInternalServerError, errs.New("unknown error"))
		return
	}

	var rejection *application.RejectionError
	if errs.As(err, &rejection) {
		r.writeJSON(c, http.StatusBadRequest, errorResponse{
			ErrorCode:      string(rejection.Reason),
			Message:        rejectionMessage(rejection.Reason),
			ConflictingIDs: rejection.ConflictingIDs,
		})
		return
	}

	var vErr *application.ValidationError
	if errs.As(err, &vErr) {
		r.writeJSON(c, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   "the request contains invalid fields",
			Errors:    vErr.FieldErrors,
		})
		return
	}

	switch {
	case errs.Is(err, application.ErrRoomNotFound):
		r.writeJSON(c, http.StatusNotFound, errorResponse{ErrorCode: "ROOM_NOT_FOUND", Message: "the room does not exist"})
	case errs.Is(err, application.ErrReservationNotFound):
		r.writeJSON(c, http.StatusNotFound, errorResponse{ErrorCode: "RESERVATION_NOT_FOUND", Message: "the reservation does not exist"})
	case errs.Is(err, application.ErrBusy):
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		r.writeJSON(c, http.StatusServiceUnavailable, errorResponse{ErrorCode: "ROOM_BUSY", Message: "the room is being booked by another request, retry shortly"})
	default:
		r.writeJSON(c, http.StatusInternalServerError, errorResponse{ErrorCode: "INTERNAL", Message: "an internal error occurred"})
	}
}

func (r responder) loggerFor(c *gin.Context) *slog.Logger {
	if logger := logging.FromContext(c.Request.Context()); logger != nil {
		return logger
	}
	return r.logger
}

func rejectionMessage(reason application.RejectionReason) string {
	switch reason {
	case application.ReasonInvalidWindow:
		return "the reservation must start before it ends"
	case application.ReasonCapacityExceeded:
		return "attendees exceed the room capacity"
	case application.ReasonOutsideOperatingHours:
		return "the reservation must fall strictly within the room's operating hours"
	case application.ReasonRoomAlreadyReserved:
		return "the room is already reserved for part of this time"
	case application.ReasonSpansMultipleDays:
		return "the reservation must start and end on the same day"
	default:
		return "the reservation was rejected"
	}
}

type errorResponse struct {
	ErrorCode      string            `json:"error_code,omitempty"`
	Message        string            `json:"message"`
	Errors         map[string]string `json:"errors,omitempty"`
	ConflictingIDs []string          `json:"conflicting_ids,omitempty"`
}
