package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/models"
	"github.com/ajharbinger/stockdd-timeline/internal/repository"
	"github.com/ajharbinger/stockdd-timeline/internal/services"
)

const dateLayout = "2006-01-02"

// FilingHandler serves the filing timeline
type FilingHandler struct {
	filings services.FilingService
	logger  logger.Logger
}

// NewFilingHandler creates a new filing handler
func NewFilingHandler(filings services.FilingService, log logger.Logger) *FilingHandler {
	return &FilingHandler{filings: filings, logger: log}
}

// TimelineEvent is one row of the timeline
type TimelineEvent struct {
	ID                  uuid.UUID `json:"id"`
	Ticker              string    `json:"ticker"`
	CompanyName         string    `json:"company_name"`
	FormType            string    `json:"form_type"`
	FormTypeDescription string    `json:"form_type_description"`
	FiledDate           string    `json:"filed_date"`
	Headline            *string   `json:"headline"`
	DocumentURL         string    `json:"document_url"`
}

// FilingDetail is the full view of one filing
type FilingDetail struct {
	models.Filing
	FormTypeDescription string `json:"form_type_description"`
	CompanyTicker       string `json:"company_ticker"`
	CompanyName         string `json:"company_name"`
}

// GetTimeline returns filings across tracked companies, newest first
func (h *FilingHandler) GetTimeline(c *gin.Context) {
	filters, err := parseTimelineFilters(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	filings, total, err := h.filings.Timeline(ctx, filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	events := make([]TimelineEvent, 0, len(filings))
	for _, f := range filings {
		events = append(events, TimelineEvent{
			ID:                  f.ID,
			Ticker:              f.Ticker,
			CompanyName:         f.CompanyName,
			FormType:            f.FormType,
			FormTypeDescription: models.FormTypeDescription(f.FormType),
			FiledDate:           f.FiledDate.Format(dateLayout),
			Headline:            f.Headline,
			DocumentURL:         f.DocumentURL,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  total,
	})
}

func parseTimelineFilters(c *gin.Context) (repository.TimelineFilters, error) {
	filters := repository.TimelineFilters{
		Ticker:   strings.ToUpper(strings.TrimSpace(c.Query("ticker"))),
		FormType: strings.TrimSpace(c.Query("form_type")),
	}

	// accepts repeated parameters as well as comma-separated values
	for _, raw := range c.QueryArray("exclude_form_types") {
		for _, ft := range strings.Split(raw, ",") {
			if ft = strings.TrimSpace(ft); ft != "" {
				filters.ExcludeFormTypes = append(filters.ExcludeFormTypes, ft)
			}
		}
	}

	var err error
	if filters.StartDate, err = queryDate(c, "start_date"); err != nil {
		return filters, err
	}
	if filters.EndDate, err = queryDate(c, "end_date"); err != nil {
		return filters, err
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return filters, apperrors.InvalidInput("end_date must not be before start_date", nil)
	}

	if filters.Limit, err = queryLimit(c, "limit", 100, 1, 500); err != nil {
		return filters, err
	}
	return filters, nil
}

func queryDate(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, apperrors.InvalidInput(name+" must be a date in YYYY-MM-DD format", err)
	}
	return &t, nil
}

// GetFiling returns one filing with its company
func (h *FilingHandler) GetFiling(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filing id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	filing, err := h.filings.Get(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, FilingDetail{
		Filing:              filing.Filing,
		FormTypeDescription: models.FormTypeDescription(filing.FormType),
		CompanyTicker:       filing.Ticker,
		CompanyName:         filing.CompanyName,
	})
}

// Resummarize generates headlines for filings that have none (Admin only).
// Runs in the request; partial failures are listed in the result.
func (h *FilingHandler) Resummarize(c *gin.Context) {
	limit, err := queryLimit(c, "limit", 50, 1, 200)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.filings.Resummarize(c.Request.Context(), strings.ToUpper(c.Query("ticker")), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
