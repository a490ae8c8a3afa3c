package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ajharbinger/stockdd-timeline/internal/edgar"
	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/llm"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/models"
	"github.com/ajharbinger/stockdd-timeline/internal/repository"
)

// proxySearchLimit bounds the EDGAR lookup for a proxy statement when none is stored
const proxySearchLimit = 50

// CompensationConfig contains the budgets of a compensation extraction
type CompensationConfig struct {
	DocumentChars int           `json:"document_chars"` // text pulled from the proxy statement
	SectionChars  int           `json:"section_chars"`  // text sent to the model
	FetchDelay    time.Duration `json:"fetch_delay"`    // after an EDGAR proxy lookup
	ExtractDelay  time.Duration `json:"extract_delay"`  // between companies in ExtractAll
}

// DefaultCompensationConfig returns production defaults
func DefaultCompensationConfig() CompensationConfig {
	return CompensationConfig{
		DocumentChars: 500000,
		SectionChars:  15000,
		FetchDelay:    500 * time.Millisecond,
		ExtractDelay:  5 * time.Second,
	}
}

// CompensationOutcome describes what happened for one company
type CompensationOutcome struct {
	Extracted int
	Skipped   bool   // rows already stored, or no proxy statement found
	Reason    string // set when Skipped
}

// CompensationResult summarizes an extraction pass over several companies
type CompensationResult struct {
	Extracted int      `json:"extracted"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
	Message   string   `json:"message"`
}

// compensationServiceImpl implements CompensationService
type compensationServiceImpl struct {
	repos     *repository.Repositories
	filings   FilingSource
	extractor TextExtractor
	parser    CompensationParser
	logger    logger.Logger
	config    CompensationConfig
}

func newCompensationService(deps Dependencies, cfg CompensationConfig) CompensationService {
	return &compensationServiceImpl{
		repos:     deps.Repos,
		filings:   deps.Filings,
		extractor: deps.Extractor,
		parser:    deps.CompensationParser,
		logger:    logger.With(deps.Logger, "compensation"),
		config:    cfg,
	}
}

func (s *compensationServiceImpl) List(ctx context.Context, ticker string) ([]models.CompensationView, error) {
	rows, err := s.repos.Compensation.ListLatest(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.CompensationView{}
	}
	return rows, nil
}

// ExtractAll runs extraction for one ticker, or for every tracked company when ticker is empty
func (s *compensationServiceImpl) ExtractAll(ctx context.Context, ticker string) (*CompensationResult, error) {
	if s.parser == nil {
		return nil, apperrors.NotConfigured("compensation extraction requires an LLM API key")
	}

	var companies []models.Company
	if ticker != "" {
		company, err := s.repos.Company.GetByTicker(ctx, ticker)
		if err != nil {
			return nil, err
		}
		companies = []models.Company{*company}
	} else {
		var err error
		if companies, err = s.repos.Company.List(ctx); err != nil {
			return nil, err
		}
	}

	result := &CompensationResult{Errors: []string{}}
	for i := range companies {
		company := &companies[i]
		outcome, err := s.ExtractForCompany(ctx, company)
		switch {
		case err != nil:
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", company.Ticker, err))
		case outcome.Skipped:
			result.Skipped++
		default:
			result.Extracted += outcome.Extracted
		}

		if err != nil || !outcome.Skipped {
			if i < len(companies)-1 {
				sleep(ctx, s.config.ExtractDelay)
			}
		}
	}

	result.Message = fmt.Sprintf("Extracted %d compensation rows, %d companies skipped", result.Extracted, result.Skipped)
	return result, nil
}

// ExtractForCompany extracts the summary compensation table of the company's newest
// proxy statement. Companies with any stored row are skipped.
func (s *compensationServiceImpl) ExtractForCompany(ctx context.Context, company *models.Company) (CompensationOutcome, error) {
	if s.parser == nil {
		return CompensationOutcome{}, apperrors.NotConfigured("compensation extraction requires an LLM API key")
	}

	exists, err := s.repos.Compensation.ExistsForCompany(ctx, company.ID)
	if err != nil {
		return CompensationOutcome{}, err
	}
	if exists {
		return CompensationOutcome{Skipped: true, Reason: "already extracted"}, nil
	}

	proxy, err := s.proxyStatement(ctx, company)
	if err != nil {
		return CompensationOutcome{}, err
	}
	if proxy == nil {
		s.logger.Info("No proxy statement found", "ticker", company.Ticker)
		return CompensationOutcome{Skipped: true, Reason: "no proxy statement"}, nil
	}

	text, err := s.extractor.Extract(ctx, proxy.DocumentURL, s.config.DocumentChars)
	if err != nil {
		return CompensationOutcome{}, fmt.Errorf("failed to read proxy statement: %w", err)
	}

	entries, err := s.parser.Extract(ctx, company.Name, llm.CompensationSection(text, s.config.SectionChars))
	if err != nil {
		return CompensationOutcome{}, err
	}
	if len(entries) == 0 {
		s.logger.Warn("No compensation rows found in proxy statement", "ticker", company.Ticker, "accession", proxy.AccessionNumber)
		return CompensationOutcome{}, nil
	}

	err = s.repos.Tx.WithTransaction(ctx, func(repos *repository.Repositories) error {
		for _, entry := range entries {
			if err := repos.Compensation.Create(ctx, compensationRow(company, proxy, entry)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return CompensationOutcome{}, err
	}

	s.logger.Info("Stored executive compensation", "ticker", company.Ticker, "rows", len(entries))
	return CompensationOutcome{Extracted: len(entries)}, nil
}

// proxyStatement returns the newest stored DEF 14A, falling back to EDGAR.
// A proxy found on EDGAR is stored before use.
func (s *compensationServiceImpl) proxyStatement(ctx context.Context, company *models.Company) (*models.Filing, error) {
	stored, err := s.repos.Filing.LatestByFormType(ctx, company.ID, models.FormTypeDEF14A)
	if err == nil {
		return stored, nil
	}
	if !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		return nil, err
	}

	found, err := s.filings.GetCompanyFilings(ctx, company.CIK, edgar.FilingQuery{
		FormTypes: []string{models.FormTypeDEF14A},
		Limit:     proxySearchLimit,
	})
	sleep(ctx, s.config.FetchDelay)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}

	newest := found[0]
	for _, f := range found[1:] {
		if f.FiledDate.After(newest.FiledDate) {
			newest = f
		}
	}

	if existing, err := s.repos.Filing.GetByAccession(ctx, newest.AccessionNumber); err == nil {
		return existing, nil
	} else if !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		return nil, err
	}

	filing := &models.Filing{
		CompanyID:       company.ID,
		AccessionNumber: newest.AccessionNumber,
		FormType:        newest.FormType,
		FiledDate:       newest.FiledDate,
		DocumentURL:     newest.DocumentURL,
	}
	inserted, err := s.repos.Filing.Create(ctx, filing)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// lost an insert race; read back the stored row
		return s.repos.Filing.GetByAccession(ctx, newest.AccessionNumber)
	}
	return filing, nil
}

func compensationRow(company *models.Company, proxy *models.Filing, entry llm.CompensationEntry) *models.ExecutiveCompensation {
	return &models.ExecutiveCompensation{
		FilingID:          proxy.ID,
		CompanyID:         company.ID,
		ExecutiveName:     entry.Name,
		Position:          entry.Position,
		Salary:            amount(entry.Salary),
		Bonus:             amount(entry.Bonus),
		StockAwards:       amount(entry.StockAwards),
		OptionAwards:      amount(entry.OptionAwards),
		OtherCompensation: amount(entry.OtherCompensation),
		TotalCompensation: amount(entry.TotalCompensation),
		FiscalYear:        entry.FiscalYear,
		FiledDate:         proxy.FiledDate,
	}
}

func amount(a *llm.Amount) *float64 {
	if a == nil {
		return nil
	}
	v := float64(*a)
	return &v
}
