package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/stockdd-timeline/internal/database"
	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/models"
)

func setupRepositories(t *testing.T) *Repositories {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping repository test - TEST_DATABASE_URL not set")
	}

	require.NoError(t, database.RunMigrations(url))
	db, err := database.New(url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepositories(db.DB)
}

func createTestCompany(t *testing.T, repos *Repositories) *models.Company {
	suffix := uuid.New().String()[:6]
	company := &models.Company{
		Ticker: "T" + suffix,
		Name:   "Test Company " + suffix,
		CIK:    fmt.Sprintf("%010d", time.Now().UnixNano()%1e10),
	}
	require.NoError(t, repos.Company.Create(context.Background(), company))
	t.Cleanup(func() { _ = repos.Company.DeleteByTicker(context.Background(), company.Ticker) })
	return company
}

func TestCompanyRepository(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()
	company := createTestCompany(t, repos)

	got, err := repos.Company.GetByTicker(ctx, company.Ticker)
	require.NoError(t, err)
	assert.Equal(t, company.ID, got.ID)

	dup := &models.Company{Ticker: company.Ticker, Name: "dup", CIK: "0000000001"}
	err = repos.Company.Create(ctx, dup)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeConflict))

	_, err = repos.Company.GetByTicker(ctx, "NOPE-"+company.Ticker)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
}

func TestFilingCreateIsIdempotentOnAccessionNumber(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()
	company := createTestCompany(t, repos)

	accession := "0000000000-24-" + uuid.New().String()[:6]
	filing := &models.Filing{
		CompanyID:       company.ID,
		AccessionNumber: accession,
		FormType:        models.FormType8K,
		FiledDate:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DocumentURL:     "https://www.sec.gov/Archives/edgar/data/1/1/doc.htm",
	}

	inserted, err := repos.Filing.Create(ctx, filing)
	require.NoError(t, err)
	assert.True(t, inserted)

	again := *filing
	again.ID = uuid.Nil
	inserted, err = repos.Filing.Create(ctx, &again)
	require.NoError(t, err)
	assert.False(t, inserted)

	exists, err := repos.Filing.ExistsByAccession(ctx, accession)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repos.Filing.UpdateHeadline(ctx, filing.ID, "Company announces CFO transition"))
	stored, err := repos.Filing.GetByID(ctx, filing.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Headline)
	assert.Equal(t, "Company announces CFO transition", *stored.Headline)
	assert.Equal(t, company.Ticker, stored.Ticker)
}

func TestTimelineFilters(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()
	company := createTestCompany(t, repos)

	for i, form := range []string{models.FormType8K, models.FormType4, models.FormType10Q} {
		_, err := repos.Filing.Create(ctx, &models.Filing{
			CompanyID:       company.ID,
			AccessionNumber: fmt.Sprintf("%s-%d", uuid.New().String()[:8], i),
			FormType:        form,
			FiledDate:       time.Date(2024, 1, 10+i, 0, 0, 0, 0, time.UTC),
			DocumentURL:     "https://example.com",
		})
		require.NoError(t, err)
	}

	events, total, err := repos.Filing.Timeline(ctx, TimelineFilters{
		Ticker:           company.Ticker,
		ExcludeFormTypes: []string{models.FormType4},
		Limit:            1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, events, 1)
	assert.Equal(t, models.FormType10Q, events[0].FormType)
}

func TestWithTransactionRollsBack(t *testing.T) {
	repos := setupRepositories(t)
	ctx := context.Background()
	company := createTestCompany(t, repos)

	accession := "tx-" + uuid.New().String()[:12]
	err := repos.Tx.WithTransaction(ctx, func(tx *Repositories) error {
		_, err := tx.Filing.Create(ctx, &models.Filing{
			CompanyID:       company.ID,
			AccessionNumber: accession,
			FormType:        models.FormTypeDEF14A,
			FiledDate:       time.Now(),
			DocumentURL:     "https://example.com",
		})
		require.NoError(t, err)
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	exists, err := repos.Filing.ExistsByAccession(ctx, accession)
	require.NoError(t, err)
	assert.False(t, exists)
}
