package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/models"
	"github.com/ajharbinger/stockdd-timeline/internal/repository"
)

func seedFilings(t *testing.T, deps Dependencies, company models.Company) {
	t.Helper()
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, form := range []string{"8-K", "10-Q", "4"} {
		_, err := deps.Repos.Filing.Create(context.Background(), &models.Filing{
			CompanyID:       company.ID,
			AccessionNumber: "0001780312-24-00001" + string(rune('0'+i)),
			FormType:        form,
			FiledDate:       day.AddDate(0, 0, -i),
			DocumentURL:     "https://www.sec.gov/Archives/edgar/data/1780312/doc.htm",
		})
		require.NoError(t, err)
	}
}

func TestResummarizeFillsMissingHeadlines(t *testing.T) {
	store := newMemStore()
	company := store.addCompany("ASTS", "AST SpaceMobile, Inc.", "1780312")
	deps := testDeps(store, newMockFilingSource())
	headlines := &mockHeadlines{headline: "AST SpaceMobile reports Q1 results"}
	deps.Headlines = headlines
	seedFilings(t, deps, company)

	svc := newFilingService(deps, testSyncConfig())
	result, err := svc.Resummarize(context.Background(), "asts", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summarized)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "Summarized 2 of 2 filings", result.Message)

	again, err := svc.Resummarize(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Summarized)
	assert.Equal(t, "No filings need summarization", again.Message)

	timeline, total, err := svc.Timeline(context.Background(), repository.TimelineFilters{FormType: "8-K"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.NotNil(t, timeline[0].Headline)
	assert.Equal(t, "AST SpaceMobile reports Q1 results", *timeline[0].Headline)

	detail, err := svc.Get(context.Background(), timeline[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "ASTS", detail.Ticker)
}

func TestResummarizeReportsFailures(t *testing.T) {
	store := newMemStore()
	company := store.addCompany("ASTS", "AST SpaceMobile, Inc.", "1780312")
	deps := testDeps(store, newMockFilingSource())
	deps.Headlines = &mockHeadlines{failures: 1, err: errors.New("overloaded"), headline: "ok"}
	seedFilings(t, deps, company)

	svc := newFilingService(deps, testSyncConfig())
	result, err := svc.Resummarize(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summarized)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "ASTS")
	assert.Contains(t, result.Errors[0], "overloaded")
}

func TestResummarizeErrors(t *testing.T) {
	store := newMemStore()
	deps := testDeps(store, newMockFilingSource())

	svc := newFilingService(deps, testSyncConfig())
	_, err := svc.Resummarize(context.Background(), "", 10)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotConfigured))

	deps.Headlines = &mockHeadlines{headline: "ok"}
	svc = newFilingService(deps, testSyncConfig())
	_, err = svc.Resummarize(context.Background(), "NOPE", 10)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))

	_, err = svc.Get(context.Background(), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
}
