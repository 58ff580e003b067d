package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	redisp "github.com/open-builders/giveaway-discord-bot/internal/platform/redis"
)

const serviceName = "giveaway-discord-bot"

// HealthHandlers serves the liveness and readiness endpoints.
type HealthHandlers struct {
	db    *sql.DB
	redis *redisp.Client
}

func NewHealthHandlers(db *sql.DB, redis *redisp.Client) *HealthHandlers {
	return &HealthHandlers{db: db, redis: redis}
}

func (h *HealthHandlers) Register(r gin.IRouter) {
	r.GET("/health", h.health)
	r.GET("/live", h.live)
	r.GET("/ready", h.ready)
}

func (h *HealthHandlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"service":   serviceName,
	})
}

func (h *HealthHandlers) live(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h *HealthHandlers) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "sqlite unavailable",
				"details": err.Error(),
			})
			return
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"service":   serviceName,
	})
}
