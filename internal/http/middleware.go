package http

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/example/room-booking/internal/logging"
)

// RequestLogger tags every request with a sequential request_id and stores
// the derived logger in the request context for handlers and services.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	base = defaultLogger(base)
	var counter atomic.Uint64

	return func(c *gin.Context) {
		id := counter.Add(1)
		logger := base.With(
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		ctx := logging.ContextWithLogger(c.Request.Context(), logger)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		logger.InfoContext(ctx, "request started")
		c.Next()
		logger.InfoContext(ctx, "request completed",
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Recovery converts a handler panic into a 500 response and logs it.
func Recovery(base *slog.Logger) gin.HandlerFunc {
	base = defaultLogger(base)
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger := logging.FromContext(c.Request.Context())
		if logger == nil {
			logger = base
		}
		logger.ErrorContext(c.Request.Context(), "handler panicked", "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{ErrorCode: "INTERNAL", Message: "an internal error occurred"})
	})
}

// CORS allows browser clients from origins. A "*" entry allows every origin.
// It returns nil when origins is empty.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return nil
	}

	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}
