package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/services"
)

// CompensationHandler serves executive compensation
type CompensationHandler struct {
	compensation services.CompensationService
	logger       logger.Logger
}

// NewCompensationHandler creates a new compensation handler
func NewCompensationHandler(compensation services.CompensationService, log logger.Logger) *CompensationHandler {
	return &CompensationHandler{compensation: compensation, logger: log}
}

// ListCompensation returns each company's rows for its most recent fiscal year
func (h *CompensationHandler) ListCompensation(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	rows, err := h.compensation.List(ctx, strings.ToUpper(strings.TrimSpace(c.Query("ticker"))))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"executives": rows,
		"count":      len(rows),
	})
}

// ExtractCompensation runs an extraction pass in the request (Admin only)
func (h *CompensationHandler) ExtractCompensation(c *gin.Context) {
	result, err := h.compensation.ExtractAll(c.Request.Context(), strings.ToUpper(strings.TrimSpace(c.Query("ticker"))))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
