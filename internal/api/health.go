package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/familyrecipes/backend/internal/database"
	"github.com/pageza/familyrecipes/backend/internal/metrics"
)

// SnapshotReader exposes the latest metrics snapshot.
type SnapshotReader interface {
	Current() metrics.Snapshot
}

type HealthHandler struct {
	db       *gorm.DB
	snapshot SnapshotReader
}

func NewHealthHandler(db *gorm.DB, snapshot SnapshotReader) *HealthHandler {
	return &HealthHandler{db: db, snapshot: snapshot}
}

// Health reports database reachability and the current recipe metrics.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	body := gin.H{"status": "ok", "database": "up"}
	status := http.StatusOK
	if err := database.HealthCheck(ctx, h.db); err != nil {
		body["status"] = "degraded"
		body["database"] = "down"
		status = http.StatusServiceUnavailable
	}
	if h.snapshot != nil {
		body["metrics"] = h.snapshot.Current()
	}
	c.JSON(status, body)
}
