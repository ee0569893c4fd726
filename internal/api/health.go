package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports process liveness plus the state of the
// optional shared store. Redis being down does not make the service
// unhealthy; it degrades to local-only operation.
type HealthHandler struct {
	redis   *redis.Client
	version string
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(redisClient *redis.Client, version string) *HealthHandler {
	return &HealthHandler{
		redis:   redisClient,
		version: version,
	}
}

// Health returns the health status of the API
func (h *HealthHandler) Health(c *gin.Context) {
	redisState := "disabled"
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.redis.Ping(ctx).Err(); err != nil {
			redisState = "unreachable"
		} else {
			redisState = "ok"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": h.version,
		"redis":   redisState,
	})
}
