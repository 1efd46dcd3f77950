package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/errs"
	"github.com/example/room-booking/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	engine := gin.New()
	engine.Use(RequestLogger(base))
	engine.GET("/ping", func(c *gin.Context) {
		if logging.FromContext(c.Request.Context()) == nil {
			t.Error("expected request logger in context")
		}
		c.Status(http.StatusTeapot)
	})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	var completed []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "request completed" {
			completed = append(completed, entry)
		}
	}
	require.Len(t, completed, 2)
	assert.EqualValues(t, 1, completed[0]["request_id"])
	assert.EqualValues(t, 2, completed[1]["request_id"])
	assert.EqualValues(t, http.StatusTeapot, completed[0]["status"])
	assert.Equal(t, "/ping", completed[0]["path"])
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	engine := gin.New()
	engine.Use(Recovery(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	engine.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error_code":"INTERNAL"`)
}

func TestCORS(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CORS(nil))

	newEngine := func(origins ...string) *gin.Engine {
		engine := gin.New()
		engine.Use(CORS(origins))
		engine.GET("/rooms", func(c *gin.Context) { c.Status(http.StatusOK) })
		return engine
	}

	t.Run("allowed origin", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.Header.Set("Origin", "http://app.example")
		rec := httptest.NewRecorder()
		newEngine("http://app.example").ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("foreign origin", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()
		newEngine("http://app.example").ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("wildcard", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.Header.Set("Origin", "http://anything.example")
		rec := httptest.NewRecorder()
		newEngine("*").ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestResponder_HandleServiceError(t *testing.T) {
	t.Parallel()

	vErr := &application.ValidationError{}
	vErr.Add("attendees", "attendees must be positive")

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"rejection", &application.RejectionError{Reason: application.ReasonCapacityExceeded}, http.StatusBadRequest, "CAPACITY_EXCEEDED"},
		{"wrapped rejection", errs.Wrap(&application.RejectionError{Reason: application.ReasonRoomAlreadyReserved}, "create"), http.StatusBadRequest, "ROOM_ALREADY_RESERVED"},
		{"validation", vErr, http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
		{"room not found", errs.Wrapf(application.ErrRoomNotFound, "room %s", "x"), http.StatusNotFound, "ROOM_NOT_FOUND"},
		{"reservation not found", application.ErrReservationNotFound, http.StatusNotFound, "RESERVATION_NOT_FOUND"},
		{"busy", errs.Mark(errs.New("locked"), application.ErrBusy), http.StatusServiceUnavailable, "ROOM_BUSY"},
		{"storage", errs.Mark(errs.New("disk full"), application.ErrStorageFailure), http.StatusInternalServerError, "INTERNAL"},
		{"canceled", context.Canceled, http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			newResponder(nil).handleServiceError(c, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.ErrorCode)
			assert.NotEmpty(t, body.Message)
		})
	}
}
