package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ajharbinger/stockdd-timeline/internal/edgar"
	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/models"
	"github.com/ajharbinger/stockdd-timeline/internal/repository"
)

// SyncConfig contains the pacing and windows of a sync run
type SyncConfig struct {
	LookbackDays     int `json:"lookback_days"`
	NewsLookbackDays int `json:"news_lookback_days"`
	FilingLimit      int `json:"filing_limit"` // filings requested per company
	MaxTextChars     int `json:"max_text_chars"`

	SummaryRetries int           `json:"summary_retries"`
	SummaryBackoff time.Duration `json:"summary_backoff"`

	FilingDelay       time.Duration `json:"filing_delay"`       // after each summarized filing (LLM token budget)
	CompanyDelay      time.Duration `json:"company_delay"`      // after each company's EDGAR pass
	NewsDelay         time.Duration `json:"news_delay"`         // after each Finnhub call
	CompensationDelay time.Duration `json:"compensation_delay"` // after each compensation extraction
}

// DefaultSyncConfig returns production defaults
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		LookbackDays:      90,
		NewsLookbackDays:  30,
		FilingLimit:       20,
		MaxTextChars:      edgar.DefaultMaxChars,
		SummaryRetries:    3,
		SummaryBackoff:    60 * time.Second,
		FilingDelay:       2 * time.Second,
		CompanyDelay:      500 * time.Millisecond,
		NewsDelay:         time.Second,
		CompensationDelay: 5 * time.Second,
	}
}

// SyncOptions narrow a single run
type SyncOptions struct {
	Ticker    string `json:"ticker,omitempty"`
	Summarize bool   `json:"summarize"`
	Limit     int    `json:"limit,omitempty"`
}

// SyncService owns the sync job and its state
type SyncService struct {
	repos        *repository.Repositories
	filings      FilingSource
	news         NewsSource
	extractor    TextExtractor
	headlines    HeadlineWriter
	compensation CompensationService
	extractComp  bool
	logger       logger.Logger
	config       SyncConfig
	state        *SyncState
	now          func() time.Time
}

// NewSyncService creates a sync service with an idle state
func NewSyncService(deps Dependencies, compensation CompensationService, cfg SyncConfig) *SyncService {
	return &SyncService{
		repos:        deps.Repos,
		filings:      deps.Filings,
		news:         deps.News,
		extractor:    deps.Extractor,
		headlines:    deps.Headlines,
		compensation: compensation,
		extractComp:  compensation != nil && deps.CompensationParser != nil,
		logger:       logger.With(deps.Logger, "sync"),
		config:       cfg,
		state:        NewSyncState(),
		now:          time.Now,
	}
}

// Snapshot returns the current sync status without blocking on a run
func (s *SyncService) Snapshot() SyncStatus {
	return s.state.Snapshot()
}

// Trigger starts a run in the background and returns at once. started is
// false when a run is already active; the returned status is then the
// in-progress one. An untracked ticker is rejected before the state changes.
func (s *SyncService) Trigger(ctx context.Context, opts SyncOptions) (status SyncStatus, started bool, err error) {
	if err := s.checkTicker(ctx, opts); err != nil {
		return s.state.Snapshot(), false, err
	}
	if _, ok := s.state.tryStart(startMessage(opts)); !ok {
		return s.state.Snapshot(), false, nil
	}

	go s.executeBackground(opts)
	return s.state.Snapshot(), true, nil
}

// Run performs a run synchronously
func (s *SyncService) Run(ctx context.Context, opts SyncOptions) (SyncStatus, error) {
	if err := s.checkTicker(ctx, opts); err != nil {
		return s.state.Snapshot(), err
	}
	if _, ok := s.state.tryStart(startMessage(opts)); !ok {
		return s.state.Snapshot(), apperrors.Conflict("a sync is already running", nil)
	}

	err := s.execute(ctx, opts)
	return s.state.Snapshot(), err
}

func (s *SyncService) checkTicker(ctx context.Context, opts SyncOptions) error {
	if opts.Ticker == "" {
		return nil
	}
	_, err := s.repos.Company.GetByTicker(ctx, opts.Ticker)
	return err
}

// executeBackground runs detached from any request. A panic ends the run as failed.
func (s *SyncService) executeBackground(opts SyncOptions) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("sync panicked: %v", r)
			s.logger.Error("Sync aborted", err)
			s.state.finish("Sync failed", err)
		}
	}()
	s.execute(context.Background(), opts)
}

func startMessage(opts SyncOptions) string {
	if opts.Ticker != "" {
		return fmt.Sprintf("Sync started for %s", opts.Ticker)
	}
	return "Sync started"
}

func (s *SyncService) execute(ctx context.Context, opts SyncOptions) error {
	companies, err := s.companiesFor(ctx, opts)
	if err != nil {
		s.logger.Error("Sync failed before processing companies", err)
		s.state.finish("Sync failed", err)
		return err
	}

	s.logger.Info("Sync starting", "companies", len(companies), "summarize", opts.Summarize)

	for i := range companies {
		company := &companies[i]
		s.state.update(func(st *SyncStatus) {
			st.CurrentCompany = company.Ticker
			st.Message = fmt.Sprintf("Syncing %s (%d/%d)", company.Ticker, i+1, len(companies))
		})

		if err := s.syncCompany(ctx, company, opts); err != nil {
			s.logger.Error("Sync failed for company", err, "ticker", company.Ticker)
			s.state.addError(fmt.Sprintf("%s: %v", company.Ticker, err))
		}
	}

	snap := s.state.Snapshot()
	message := fmt.Sprintf("Sync complete: %d new, %d already stored, %d press releases, %d errors",
		snap.Fetched, snap.Skipped, snap.PressReleasesFetched, len(snap.Errors))
	s.logger.Info(message)
	s.state.finish(message, nil)
	return nil
}

func (s *SyncService) companiesFor(ctx context.Context, opts SyncOptions) ([]models.Company, error) {
	if opts.Ticker != "" {
		company, err := s.repos.Company.GetByTicker(ctx, opts.Ticker)
		if err != nil {
			return nil, err
		}
		return []models.Company{*company}, nil
	}
	return s.repos.Company.List(ctx)
}

// syncCompany returns only errors that abort the company; softer failures
// are recorded on the state directly.
func (s *SyncService) syncCompany(ctx context.Context, company *models.Company, opts SyncOptions) error {
	limit := opts.Limit
	if limit <= 0 {
		limit = s.config.FilingLimit
	}
	since := s.now().AddDate(0, 0, -s.config.LookbackDays)

	filings, err := s.filings.GetCompanyFilings(ctx, company.CIK, edgar.FilingQuery{
		FormTypes: models.TrackedFormTypes,
		Limit:     limit,
		Since:     &since,
	})
	if err != nil {
		return err
	}

	for _, ef := range filings {
		if err := s.storeFiling(ctx, company, ef, opts.Summarize); err != nil {
			return err
		}
	}
	sleep(ctx, s.config.CompanyDelay)

	s.syncNews(ctx, company)
	sleep(ctx, s.config.NewsDelay)

	if s.extractComp {
		outcome, err := s.compensation.ExtractForCompany(ctx, company)
		switch {
		case err != nil:
			s.state.addError(fmt.Sprintf("%s: compensation extraction failed: %v", company.Ticker, err))
		case outcome.Extracted > 0:
			s.state.update(func(st *SyncStatus) { st.CompensationExtracted += outcome.Extracted })
		}
		if err != nil || !outcome.Skipped {
			sleep(ctx, s.config.CompensationDelay)
		}
	}

	return nil
}

func (s *SyncService) storeFiling(ctx context.Context, company *models.Company, ef edgar.Filing, summarize bool) error {
	exists, err := s.repos.Filing.ExistsByAccession(ctx, ef.AccessionNumber)
	if err != nil {
		return err
	}
	if exists {
		s.state.update(func(st *SyncStatus) { st.Skipped++ })
		return nil
	}

	filing := &models.Filing{
		CompanyID:       company.ID,
		AccessionNumber: ef.AccessionNumber,
		FormType:        ef.FormType,
		FiledDate:       ef.FiledDate,
		DocumentURL:     ef.DocumentURL,
	}

	if summarize && s.headlines != nil && ef.FormType != models.FormType4 {
		headline, err := s.summarize(ctx, company, ef)
		if err != nil {
			s.state.addError(fmt.Sprintf("%s: summary failed for %s: %v", company.Ticker, ef.AccessionNumber, err))
		} else {
			filing.Headline = &headline
		}
		sleep(ctx, s.config.FilingDelay)
	}

	inserted, err := s.repos.Filing.Create(ctx, filing)
	if err != nil {
		return err
	}
	s.state.update(func(st *SyncStatus) {
		if inserted {
			st.Fetched++
		} else {
			st.Skipped++
		}
	})
	return nil
}

// summarize fetches the document once and retries the model call with a fixed backoff
func (s *SyncService) summarize(ctx context.Context, company *models.Company, ef edgar.Filing) (string, error) {
	text, err := s.extractor.Extract(ctx, ef.DocumentURL, s.config.MaxTextChars)
	if err != nil {
		return "", err
	}

	attempts := s.config.SummaryRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		headline, err := s.headlines.Generate(ctx, ef.FormType, company.Name, text)
		if err == nil {
			return headline, nil
		}
		lastErr = err
		s.logger.Warn("Headline generation failed", "ticker", company.Ticker,
			"accession", ef.AccessionNumber, "attempt", attempt, "error", err.Error())
		if attempt < attempts {
			sleep(ctx, s.config.SummaryBackoff)
		}
	}
	return "", fmt.Errorf("headline generation failed after %d attempts: %w", attempts, lastErr)
}

func (s *SyncService) syncNews(ctx context.Context, company *models.Company) {
	if s.news == nil {
		return
	}

	to := s.now()
	from := to.AddDate(0, 0, -s.config.NewsLookbackDays)
	items, err := s.news.CompanyNews(ctx, company.Ticker, from, to)
	if err != nil {
		s.state.addError(fmt.Sprintf("%s: news fetch failed: %v", company.Ticker, err))
		return
	}

	for _, item := range items {
		exists, err := s.repos.PressRelease.ExistsByFinnhubID(ctx, item.ID)
		if err != nil {
			s.state.addError(fmt.Sprintf("%s: %v", company.Ticker, err))
			return
		}
		if exists {
			continue
		}

		inserted, err := s.repos.PressRelease.Create(ctx, &models.PressRelease{
			CompanyID:   company.ID,
			FinnhubID:   item.ID,
			Headline:    item.Headline,
			Source:      item.Source,
			URL:         item.URL,
			PublishedAt: item.PublishedAt,
		})
		if err != nil {
			s.state.addError(fmt.Sprintf("%s: %v", company.Ticker, err))
			return
		}
		if inserted {
			s.state.update(func(st *SyncStatus) { st.PressReleasesFetched++ })
		}
	}
}
