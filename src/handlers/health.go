package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

var errNoStore = errors.New("no store configured")

// Version is reported by /health
var Version = "dev"

// HealthChecker is satisfied by both database.Database and database.SQLite
type HealthChecker interface {
	Health(ctx context.Context) error
	Driver() string
}

// HealthHandler handles health check requests
type HealthHandler struct {
	store HealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store HealthChecker) *HealthHandler {
	return &HealthHandler{store: store}
}

// HandleHealth returns health status with a store ping
func (hh *HealthHandler) HandleHealth(c *gin.Context) {
	start := time.Now()
	err := hh.ping(c)
	dbLatency := time.Since(start)

	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
			"driver":   hh.driver(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"database":   "connected",
		"driver":     hh.driver(),
		"db_latency": dbLatency.String(),
		"uptime":     time.Since(startTime).String(),
		"version":    Version,
	})
}

// HandleReady returns readiness status (for load balancers)
func (hh *HealthHandler) HandleReady(c *gin.Context) {
	if err := hh.ping(c); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

func (hh *HealthHandler) ping(c *gin.Context) error {
	if hh.store == nil {
		return errNoStore
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	return hh.store.Health(ctx)
}

func (hh *HealthHandler) driver() string {
	if hh.store == nil {
		return ""
	}
	return hh.store.Driver()
}
