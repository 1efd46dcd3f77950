package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/room-booking/internal/application"
)

type roomService interface {
	GetRoom(ctx context.Context, roomID string) (application.Room, error)
	ListRooms(ctx context.Context) ([]application.Room, error)
}

type RoomHandler struct {
	service   roomService
	responder responder
	logger    *slog.Logger
}

func NewRoomHandler(service roomService, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

func (h *RoomHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	logger := h.log(ctx, "List")

	rooms, err := h.service.ListRooms(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "room list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(c, err)
		return
	}

	logger.With("result_count", len(rooms)).InfoContext(ctx, "rooms listed")
	h.responder.writeJSON(c, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

func (h *RoomHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	roomID := strings.TrimSpace(c.Param("id"))
	if roomID == "" {
		h.responder.writeError(c, http.StatusBadRequest, errMissingRoomID)
		return
	}
	logger := h.log(ctx, "Get", "room_id", roomID)

	room, err := h.service.GetRoom(ctx, roomID)
	if err != nil {
		logger.WarnContext(ctx, "room lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(c, err)
		return
	}

	h.responder.writeJSON(c, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type roomDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toRoomDTO(room application.Room) roomDTO {
	return roomDTO{
		ID:        room.ID,
		Name:      room.Name,
		Capacity:  room.Capacity,
		OpenTime:  room.OpenTime.String(),
		CloseTime: room.CloseTime.String(),
		CreatedAt: room.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: room.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toRoomDTOs(rooms []application.Room) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}
