package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/services"
)

// SyncHandler starts sync runs and reports their state. Neither endpoint
// waits for a run.
type SyncHandler struct {
	sync   SyncController
	logger logger.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(sync SyncController, log logger.Logger) *SyncHandler {
	return &SyncHandler{sync: sync, logger: log}
}

// GetStatus returns the current sync state
func (h *SyncHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.Snapshot())
}

// TriggerSync starts a background run (Admin only)
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	opts := services.SyncOptions{
		Ticker:    strings.ToUpper(strings.TrimSpace(c.Query("ticker"))),
		Summarize: true,
	}
	if raw := c.Query("summarize"); raw != "" {
		summarize, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "summarize must be true or false"})
			return
		}
		opts.Summarize = summarize
	}
	limit, err := queryLimit(c, "limit", 0, 1, 100)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": apperrors.Message(err)})
		return
	}
	opts.Limit = limit

	status, started, err := h.sync.Trigger(c.Request.Context(), opts)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrCodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Company not tracked: " + opts.Ticker})
			return
		}
		respondError(c, h.logger, err)
		return
	}
	if !started {
		c.JSON(http.StatusConflict, gin.H{
			"message": "Sync already in progress",
			"status":  status,
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Sync started",
		"status":  status,
	})
}
