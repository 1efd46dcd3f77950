package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// healthTimeout bounds the storage ping behind /healthz.
const healthTimeout = 2 * time.Second

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Rooms          *RoomHandler
	Reservations   *ReservationHandler
	Health         Pinger
	Logger         *slog.Logger
	AllowedOrigins []string
}

// NewRouter assembles the gin engine. Handlers left nil are not routed.
func NewRouter(cfg RouterConfig) *gin.Engine {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(Recovery(cfg.Logger))
	if mw := CORS(cfg.AllowedOrigins); mw != nil {
		engine.Use(mw)
	}
	engine.Use(RequestLogger(cfg.Logger))

	engine.GET("/healthz", healthCheck(cfg.Health, cfg.Logger))

	if cfg.Rooms != nil {
		rooms := engine.Group("/rooms")
		rooms.GET("", cfg.Rooms.List)
		rooms.GET("/:id", cfg.Rooms.Get)
	}

	if cfg.Reservations != nil {
		reservations := engine.Group("/reservations")
		reservations.GET("", cfg.Reservations.List)
		reservations.POST("", cfg.Reservations.Create)
		reservations.GET("/:id", cfg.Reservations.Get)
		reservations.PUT("/:id", cfg.Reservations.Update)
		reservations.DELETE("/:id", cfg.Reservations.Delete)
	}

	return engine
}

func healthCheck(pinger Pinger, logger *slog.Logger) gin.HandlerFunc {
	logger = defaultLogger(logger)
	return func(c *gin.Context) {
		if pinger != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
