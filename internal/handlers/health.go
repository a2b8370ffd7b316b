package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lndnexus/marketplace/backend/internal/services/queue"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the database and background plumbing.
type HealthHandler struct {
	db    *gorm.DB
	queue queue.TaskQueue
	hub   *queue.Hub
}

func NewHealthHandler(db *gorm.DB, q queue.TaskQueue, hub *queue.Hub) *HealthHandler {
	return &HealthHandler{db: db, queue: q, hub: hub}
}

// CheckHealth returns 200 when the database answers a ping, 503 otherwise.
// GET /api/health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	status, code := "healthy", http.StatusOK

	dbStatus := "ok"
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if sqlDB, err := h.db.DB(); err != nil {
		dbStatus = "error: " + err.Error()
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "error: " + err.Error()
	}
	if dbStatus != "ok" {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	sseClients := 0
	if h.hub != nil {
		sseClients = h.hub.ClientCount()
	}

	c.JSON(code, gin.H{
		"status":  status,
		"service": "marketplace",
		"components": gin.H{
			"database":    dbStatus,
			"queue_mode":  queueMode,
			"sse_clients": sseClients,
		},
	})
}
