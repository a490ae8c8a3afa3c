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

// CompanyHandler manages tracked companies
type CompanyHandler struct {
	companies services.CompanyService
	logger    logger.Logger
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(companies services.CompanyService, log logger.Logger) *CompanyHandler {
	return &CompanyHandler{companies: companies, logger: log}
}

// TrackCompanyRequest represents a request to start tracking a ticker
type TrackCompanyRequest struct {
	Ticker string `json:"ticker" binding:"required,max=10"`
}

// ListCompanies returns all tracked companies ordered by ticker
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	companies, err := h.companies.List(ctx)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"companies": companies,
		"count":     len(companies),
	})
}

// SearchCompanies searches the SEC ticker directory
func (h *CompanyHandler) SearchCompanies(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	limit, err := queryLimit(c, "limit", 10, 1, 50)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	results, err := h.companies.Search(ctx, query, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}

// TrackCompany starts tracking a ticker (Admin only)
func (h *CompanyHandler) TrackCompany(c *gin.Context) {
	var req TrackCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	company, err := h.companies.Track(ctx, req.Ticker)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Company tracked", "ticker", company.Ticker, "cik", company.CIK)
	c.JSON(http.StatusCreated, company)
}

// UntrackCompany stops tracking a ticker and removes its data (Admin only)
func (h *CompanyHandler) UntrackCompany(c *gin.Context) {
	ticker := strings.ToUpper(c.Param("ticker"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.companies.Untrack(ctx, ticker); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Company untracked", "ticker", ticker)
	c.JSON(http.StatusOK, gin.H{"message": "Removed " + ticker})
}
