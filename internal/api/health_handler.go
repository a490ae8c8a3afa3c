package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/stockdd-timeline/internal/scraper"
)

// HealthHandler reports database and upstream health
type HealthHandler struct {
	db       Pinger
	monitors map[string]*scraper.HealthMonitor
	features map[string]bool
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, monitors map[string]*scraper.HealthMonitor, features map[string]bool) *HealthHandler {
	return &HealthHandler{db: db, monitors: monitors, features: features}
}

// GetHealth answers 200 while the database is reachable. Unhealthy upstreams
// degrade the status but never fail the check.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	httpStatus := http.StatusOK
	database := "ok"
	if h.db == nil {
		database = "not configured"
	} else if err := h.db.PingContext(ctx); err != nil {
		database = "unreachable"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	upstreams := make(map[string]scraper.HealthStatus, len(h.monitors))
	for name, monitor := range h.monitors {
		s := monitor.GetHealthStatus()
		upstreams[name] = s
		if !s.IsHealthy && status == "healthy" {
			status = "degraded"
		}
	}

	features := h.features
	if features == nil {
		features = map[string]bool{}
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"database":  database,
		"upstreams": upstreams,
		"features":  features,
		"timestamp": time.Now(),
	})
}

// ResetMonitors clears the upstream health counters (Admin only)
func (h *HealthHandler) ResetMonitors(c *gin.Context) {
	names := make([]string, 0, len(h.monitors))
	for name, monitor := range h.monitors {
		monitor.Reset()
		names = append(names, name)
	}
	sort.Strings(names)

	c.JSON(http.StatusOK, gin.H{
		"message": "Upstream health counters reset",
		"reset":   names,
	})
}
