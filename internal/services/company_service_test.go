package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/stockdd-timeline/internal/edgar"
	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
)

func newCompanyFixture() (*memStore, *mockDirectory, CompanyService) {
	store := newMemStore()
	directory := &mockDirectory{entries: map[string]edgar.CompanyEntry{
		"ASTS": {Ticker: "ASTS", Name: "AST SpaceMobile, Inc.", CIK: "1780312"},
		"RKLB": {Ticker: "RKLB", Name: "Rocket Lab USA, Inc.", CIK: "1819994"},
	}}
	deps := testDeps(store, newMockFilingSource())
	deps.Directory = directory
	return store, directory, newCompanyService(deps)
}

func TestTrackResolvesThroughDirectory(t *testing.T) {
	_, _, svc := newCompanyFixture()

	company, err := svc.Track(context.Background(), " asts ")
	require.NoError(t, err)
	assert.Equal(t, "ASTS", company.Ticker)
	assert.Equal(t, "AST SpaceMobile, Inc.", company.Name)
	assert.Equal(t, "1780312", company.CIK)

	companies, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, companies, 1)
}

func TestTrackErrors(t *testing.T) {
	store, directory, svc := newCompanyFixture()
	store.addCompany("RKLB", "Rocket Lab USA, Inc.", "1819994")

	_, err := svc.Track(context.Background(), "RKLB")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeConflict))

	_, err = svc.Track(context.Background(), "ZZZZ")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput))

	_, err = svc.Track(context.Background(), "  ")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput))

	directory.err = errors.New("sec.gov unreachable")
	_, err = svc.Track(context.Background(), "ASTS")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeUpstreamError))
}

func TestUntrackAndEmptyList(t *testing.T) {
	store, _, svc := newCompanyFixture()

	companies, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, companies)
	assert.Empty(t, companies)

	store.addCompany("ASTS", "AST SpaceMobile, Inc.", "1780312")
	require.NoError(t, svc.Untrack(context.Background(), "asts"))

	err = svc.Untrack(context.Background(), "ASTS")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
}

func TestSearchWrapsDirectoryFailure(t *testing.T) {
	_, directory, svc := newCompanyFixture()

	results, err := svc.Search(context.Background(), "RK", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "RKLB", results[0].Ticker)

	directory.err = errors.New("timeout")
	_, err = svc.Search(context.Background(), "RK", 10)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeUpstreamError))
}
