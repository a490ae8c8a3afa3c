package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/stockdd-timeline/internal/edgar"
	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/llm"
	"github.com/ajharbinger/stockdd-timeline/internal/models"
)

func sampleEntries() []llm.CompensationEntry {
	return []llm.CompensationEntry{
		{
			Name:              "Peter Beck",
			Position:          strPtr("President and Chief Executive Officer"),
			FiscalYear:        intPtr(2023),
			Salary:            amountPtr(500000),
			StockAwards:       amountPtr(8200000),
			TotalCompensation: amountPtr(8950000),
		},
		{
			Name:              "Adam Spice",
			Position:          strPtr("Chief Financial Officer"),
			FiscalYear:        intPtr(2023),
			Salary:            amountPtr(450000),
			TotalCompensation: amountPtr(3100000),
		},
	}
}

func newCompensationFixture() (*memStore, *mockFilingSource, models.Company, Dependencies) {
	store := newMemStore()
	company := store.addCompany("RKLB", "Rocket Lab USA, Inc.", "1819994")
	filings := newMockFilingSource()
	deps := testDeps(store, filings)
	deps.CompensationParser = &mockCompensationParser{entries: sampleEntries()}
	return store, filings, company, deps
}

func TestExtractForCompanyUsesStoredProxy(t *testing.T) {
	store, filings, company, deps := newCompensationFixture()
	proxy := &models.Filing{
		CompanyID:       company.ID,
		AccessionNumber: "0001819994-24-000021",
		FormType:        models.FormTypeDEF14A,
		FiledDate:       time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
		DocumentURL:     "https://www.sec.gov/Archives/edgar/data/1819994/000181999424000021/proxy.htm",
	}
	_, err := deps.Repos.Filing.Create(context.Background(), proxy)
	require.NoError(t, err)

	svc := newCompensationService(deps, testCompensationConfig())
	outcome, err := svc.ExtractForCompany(context.Background(), &company)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Extracted)
	assert.False(t, outcome.Skipped)
	assert.Zero(t, filings.calls)

	rows := store.compensationRows()
	require.Len(t, rows, 2)
	assert.Equal(t, proxy.ID, rows[0].FilingID)
	assert.Equal(t, proxy.FiledDate, rows[0].FiledDate)
	require.NotNil(t, rows[0].TotalCompensation)
	assert.Equal(t, 8950000.0, *rows[0].TotalCompensation)
	assert.Nil(t, rows[1].StockAwards)
}

func TestExtractForCompanyIsGatedOnExistingRows(t *testing.T) {
	store, _, company, deps := newCompensationFixture()
	store.compensation = append(store.compensation, models.ExecutiveCompensation{CompanyID: company.ID, ExecutiveName: "Peter Beck"})
	parser := deps.CompensationParser.(*mockCompensationParser)

	svc := newCompensationService(deps, testCompensationConfig())
	outcome, err := svc.ExtractForCompany(context.Background(), &company)
	require.NoError(t, err)
	assert.True(t, outcome.Skipped)
	assert.Equal(t, "already extracted", outcome.Reason)
	assert.Zero(t, parser.calls)
}

func TestExtractForCompanyFetchesNewestProxyFromEDGAR(t *testing.T) {
	store, filings, company, deps := newCompensationFixture()
	filings.filings["1819994"] = []edgar.Filing{
		edgarFiling("0001819994-23-000005", "DEF 14A", time.Date(2023, 4, 21, 0, 0, 0, 0, time.UTC)),
		edgarFiling("0001819994-24-000021", "DEF 14A", time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)),
		edgarFiling("0001819994-24-000030", "10-Q", time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC)),
	}

	svc := newCompensationService(deps, testCompensationConfig())
	outcome, err := svc.ExtractForCompany(context.Background(), &company)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Extracted)

	stored, ok := store.filingByAccession("0001819994-24-000021")
	require.True(t, ok)
	assert.Equal(t, models.FormTypeDEF14A, stored.FormType)
	assert.Equal(t, 1, store.filingCount())

	for _, row := range store.compensationRows() {
		assert.Equal(t, stored.ID, row.FilingID)
	}
}

func TestExtractForCompanyWithoutProxy(t *testing.T) {
	store, _, company, deps := newCompensationFixture()

	svc := newCompensationService(deps, testCompensationConfig())
	outcome, err := svc.ExtractForCompany(context.Background(), &company)
	require.NoError(t, err)
	assert.True(t, outcome.Skipped)
	assert.Equal(t, "no proxy statement", outcome.Reason)
	assert.Empty(t, store.compensationRows())
}

func TestExtractForCompanyRollsBackOnInsertFailure(t *testing.T) {
	store, filings, company, deps := newCompensationFixture()
	filings.filings["1819994"] = []edgar.Filing{
		edgarFiling("0001819994-24-000021", "DEF 14A", time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)),
	}
	store.failCompCreate = 2

	svc := newCompensationService(deps, testCompensationConfig())
	_, err := svc.ExtractForCompany(context.Background(), &company)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeDatabaseError))
	assert.Empty(t, store.compensationRows())
}

func TestExtractForCompanyPropagatesParserErrors(t *testing.T) {
	_, filings, company, deps := newCompensationFixture()
	filings.filings["1819994"] = []edgar.Filing{
		edgarFiling("0001819994-24-000021", "DEF 14A", time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)),
	}
	deps.CompensationParser = &mockCompensationParser{err: errors.New("model unavailable")}

	svc := newCompensationService(deps, testCompensationConfig())
	_, err := svc.ExtractForCompany(context.Background(), &company)
	assert.EqualError(t, err, "model unavailable")
}

func TestExtractAll(t *testing.T) {
	store, filings, _, deps := newCompensationFixture()
	store.addCompany("ASTS", "AST SpaceMobile, Inc.", "1780312")
	filings.filings["1819994"] = []edgar.Filing{
		edgarFiling("0001819994-24-000021", "DEF 14A", time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)),
	}
	filings.errs["1780312"] = errors.New("edgar returned 503")

	svc := newCompensationService(deps, testCompensationConfig())
	result, err := svc.ExtractAll(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Extracted)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "ASTS: ")

	views, err := svc.List(context.Background(), "RKLB")
	require.NoError(t, err)
	assert.Len(t, views, 2)
	assert.Equal(t, "Rocket Lab USA, Inc.", views[0].CompanyName)
}

func TestExtractRequiresParser(t *testing.T) {
	_, _, company, deps := newCompensationFixture()
	deps.CompensationParser = nil

	svc := newCompensationService(deps, testCompensationConfig())
	_, err := svc.ExtractAll(context.Background(), "")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotConfigured))

	_, err = svc.ExtractForCompany(context.Background(), &company)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotConfigured))
}
