package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/models"
	"github.com/ajharbinger/stockdd-timeline/internal/repository"
)

const defaultResummarizeLimit = 50

// ResummarizeResult summarizes a headline backfill pass
type ResummarizeResult struct {
	Summarized int      `json:"summarized"`
	Errors     []string `json:"errors"`
	Message    string   `json:"message"`
}

// filingServiceImpl implements FilingService
type filingServiceImpl struct {
	repos     *repository.Repositories
	extractor TextExtractor
	headlines HeadlineWriter
	logger    logger.Logger
	config    SyncConfig
}

func newFilingService(deps Dependencies, cfg SyncConfig) FilingService {
	return &filingServiceImpl{
		repos:     deps.Repos,
		extractor: deps.Extractor,
		headlines: deps.Headlines,
		logger:    logger.With(deps.Logger, "filings"),
		config:    cfg,
	}
}

func (s *filingServiceImpl) Timeline(ctx context.Context, filters repository.TimelineFilters) ([]models.FilingWithCompany, int, error) {
	filings, total, err := s.repos.Filing.Timeline(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	if filings == nil {
		filings = []models.FilingWithCompany{}
	}
	return filings, total, nil
}

func (s *filingServiceImpl) Get(ctx context.Context, id uuid.UUID) (*models.FilingWithCompany, error) {
	return s.repos.Filing.GetByID(ctx, id)
}

// Resummarize generates headlines for stored filings that have none.
// Each filing is attempted once; failures are reported, not retried.
func (s *filingServiceImpl) Resummarize(ctx context.Context, ticker string, limit int) (*ResummarizeResult, error) {
	if s.headlines == nil {
		return nil, apperrors.NotConfigured("headline generation requires an LLM API key")
	}
	if limit <= 0 {
		limit = defaultResummarizeLimit
	}
	if ticker != "" {
		company, err := s.repos.Company.GetByTicker(ctx, ticker)
		if err != nil {
			return nil, err
		}
		ticker = company.Ticker
	}

	filings, err := s.repos.Filing.ListMissingHeadline(ctx, ticker, limit)
	if err != nil {
		return nil, err
	}

	result := &ResummarizeResult{Errors: []string{}}
	if len(filings) == 0 {
		result.Message = "No filings need summarization"
		return result, nil
	}

	for i := range filings {
		f := &filings[i]
		if err := s.summarizeOne(ctx, f); err != nil {
			s.logger.Warn("Resummarize failed", "ticker", f.Ticker, "accession", f.AccessionNumber, "error", err.Error())
			result.Errors = append(result.Errors, fmt.Sprintf("%s %s: %v", f.Ticker, f.AccessionNumber, err))
		} else {
			result.Summarized++
		}

		if i < len(filings)-1 {
			sleep(ctx, s.config.FilingDelay)
		}
	}

	result.Message = fmt.Sprintf("Summarized %d of %d filings", result.Summarized, len(filings))
	return result, nil
}

func (s *filingServiceImpl) summarizeOne(ctx context.Context, f *models.FilingWithCompany) error {
	text, err := s.extractor.Extract(ctx, f.DocumentURL, s.config.MaxTextChars)
	if err != nil {
		return err
	}
	headline, err := s.headlines.Generate(ctx, f.FormType, f.CompanyName, text)
	if err != nil {
		return err
	}
	return s.repos.Filing.UpdateHeadline(ctx, f.ID, headline)
}
