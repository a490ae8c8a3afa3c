package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/repository"
	"github.com/ajharbinger/stockdd-timeline/internal/services"
)

// PressReleaseHandler serves stored company news
type PressReleaseHandler struct {
	releases services.PressReleaseService
	logger   logger.Logger
}

// NewPressReleaseHandler creates a new press release handler
func NewPressReleaseHandler(releases services.PressReleaseService, log logger.Logger) *PressReleaseHandler {
	return &PressReleaseHandler{releases: releases, logger: log}
}

// ListPressReleases returns press releases, newest first
func (h *PressReleaseHandler) ListPressReleases(c *gin.Context) {
	limit, err := queryLimit(c, "limit", 50, 1, 200)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	since, err := queryDate(c, "since")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	releases, err := h.releases.List(ctx, repository.PressReleaseFilters{
		Ticker: strings.ToUpper(strings.TrimSpace(c.Query("ticker"))),
		Since:  since,
		Limit:  limit,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"press_releases": releases,
		"count":          len(releases),
	})
}
