package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/prices"
	"github.com/ajharbinger/stockdd-timeline/internal/services"
)

// PriceHandler serves daily price history for chart overlays
type PriceHandler struct {
	prices services.PriceService
	logger logger.Logger
}

// NewPriceHandler creates a new price handler
func NewPriceHandler(prices services.PriceService, log logger.Logger) *PriceHandler {
	return &PriceHandler{prices: prices, logger: log}
}

// GetPrices returns OHLCV candles for a ticker over ?period= (default 1y)
func (h *PriceHandler) GetPrices(c *gin.Context) {
	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	period := c.DefaultQuery("period", prices.DefaultPeriod)
	if !prices.ValidPeriod(period) {
		respondError(c, h.logger, apperrors.InvalidInput("period must be one of "+strings.Join(prices.Periods, ", "), nil))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	history, err := h.prices.History(ctx, ticker, period)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, history)
}
