package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lmsdesk/internal/database"
)

// UpstreamChecker reports whether the library API can be reached.
type UpstreamChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	upstream UpstreamChecker
	redis    *database.RedisClient
	version  string
}

// NewHealthHandler builds the health endpoints. redis may be nil when
// preferences are kept in memory.
func NewHealthHandler(upstream UpstreamChecker, redis *database.RedisClient, version string) *HealthHandler {
	return &HealthHandler{
		upstream: upstream,
		redis:    redis,
		version:  version,
	}
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Service:   "lmsdesk",
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]HealthCheck),
	}

	check := func(name string, fn func(context.Context) error) {
		if err := fn(ctx); err != nil {
			response.Checks[name] = HealthCheck{
				Status:  "unhealthy",
				Message: err.Error(),
			}
			response.Status = "unhealthy"
			return
		}
		response.Checks[name] = HealthCheck{Status: "healthy"}
	}

	if h.upstream != nil {
		check("upstream", h.upstream.Health)
	}
	if h.redis != nil {
		check("redis", h.redis.Health)
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "pong",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
