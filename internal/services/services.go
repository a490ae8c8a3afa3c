package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/stockdd-timeline/internal/edgar"
	"github.com/ajharbinger/stockdd-timeline/internal/llm"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/models"
	"github.com/ajharbinger/stockdd-timeline/internal/news"
	"github.com/ajharbinger/stockdd-timeline/internal/prices"
	"github.com/ajharbinger/stockdd-timeline/internal/repository"
)

// FilingSource lists a company's filings from EDGAR
type FilingSource interface {
	GetCompanyFilings(ctx context.Context, cik string, query edgar.FilingQuery) ([]edgar.Filing, error)
}

// TickerDirectory resolves tickers to SEC registrants
type TickerDirectory interface {
	Search(ctx context.Context, query string, limit int) ([]edgar.CompanyEntry, error)
	Lookup(ctx context.Context, ticker string) (edgar.CompanyEntry, error)
}

// NewsSource lists company news for a date range
type NewsSource interface {
	CompanyNews(ctx context.Context, ticker string, from, to time.Time) ([]news.Item, error)
}

// PriceSource returns daily price history for a ticker
type PriceSource interface {
	History(ctx context.Context, ticker, period string) (*prices.History, error)
}

// TextExtractor turns a filing document into cleaned text
type TextExtractor interface {
	Extract(ctx context.Context, documentURL string, maxChars int) (string, error)
}

// HeadlineWriter generates filing headlines
type HeadlineWriter interface {
	Generate(ctx context.Context, formType, companyName, text string) (string, error)
}

// CompensationParser reads executive compensation rows out of proxy text
type CompensationParser interface {
	Extract(ctx context.Context, companyName, text string) ([]llm.CompensationEntry, error)
}

// Services contains all application services
type Services struct {
	Company      CompanyService
	Filing       FilingService
	PressRelease PressReleaseService
	Compensation CompensationService
	Price        PriceService
	Sync         *SyncService
}

// CompanyService manages the set of tracked companies
type CompanyService interface {
	List(ctx context.Context) ([]models.Company, error)
	Search(ctx context.Context, query string, limit int) ([]edgar.CompanyEntry, error)
	Track(ctx context.Context, ticker string) (*models.Company, error)
	Untrack(ctx context.Context, ticker string) error
}

// FilingService serves the filing timeline and headline backfill
type FilingService interface {
	Timeline(ctx context.Context, filters repository.TimelineFilters) ([]models.FilingWithCompany, int, error)
	Get(ctx context.Context, id uuid.UUID) (*models.FilingWithCompany, error)
	Resummarize(ctx context.Context, ticker string, limit int) (*ResummarizeResult, error)
}

// PressReleaseService serves stored company news
type PressReleaseService interface {
	List(ctx context.Context, filters repository.PressReleaseFilters) ([]models.PressRelease, error)
}

// PriceService serves daily OHLCV candles
type PriceService interface {
	History(ctx context.Context, ticker, period string) (*prices.History, error)
}

// CompensationService serves and extracts executive compensation
type CompensationService interface {
	List(ctx context.Context, ticker string) ([]models.CompensationView, error)
	ExtractAll(ctx context.Context, ticker string) (*CompensationResult, error)
	ExtractForCompany(ctx context.Context, company *models.Company) (CompensationOutcome, error)
}

// Dependencies are the collaborators shared by the services.
// Headlines and CompensationParser are nil when no LLM credentials are configured.
type Dependencies struct {
	Repos              *repository.Repositories
	Filings            FilingSource
	Directory          TickerDirectory
	News               NewsSource
	Prices             PriceSource
	Extractor          TextExtractor
	Headlines          HeadlineWriter
	CompensationParser CompensationParser
	Logger             logger.Logger
}

// NewServices creates a new Services instance with all dependencies
func NewServices(deps Dependencies, syncCfg SyncConfig, compCfg CompensationConfig) *Services {
	compensation := newCompensationService(deps, compCfg)

	return &Services{
		Company:      newCompanyService(deps),
		Filing:       newFilingService(deps, syncCfg),
		PressRelease: newPressReleaseService(deps),
		Compensation: compensation,
		Price:        newPriceService(deps),
		Sync:         NewSyncService(deps, compensation, syncCfg),
	}
}

// sleep pauses for d unless ctx ends first
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
