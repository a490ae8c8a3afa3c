package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ajharbinger/stockdd-timeline/internal/edgar"
	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/models"
	"github.com/ajharbinger/stockdd-timeline/internal/repository"
)

// companyServiceImpl implements CompanyService
type companyServiceImpl struct {
	repos     *repository.Repositories
	directory TickerDirectory
}

func newCompanyService(deps Dependencies) CompanyService {
	return &companyServiceImpl{repos: deps.Repos, directory: deps.Directory}
}

func (s *companyServiceImpl) List(ctx context.Context) ([]models.Company, error) {
	companies, err := s.repos.Company.List(ctx)
	if err != nil {
		return nil, err
	}
	if companies == nil {
		companies = []models.Company{}
	}
	return companies, nil
}

func (s *companyServiceImpl) Search(ctx context.Context, query string, limit int) ([]edgar.CompanyEntry, error) {
	results, err := s.directory.Search(ctx, query, limit)
	if err != nil {
		return nil, apperrors.UpstreamError("ticker directory unavailable", err)
	}
	return results, nil
}

// Track resolves the ticker through the SEC directory and starts tracking it
func (s *companyServiceImpl) Track(ctx context.Context, ticker string) (*models.Company, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, apperrors.InvalidInput("ticker is required", nil)
	}

	if _, err := s.repos.Company.GetByTicker(ctx, ticker); err == nil {
		return nil, apperrors.Conflict(fmt.Sprintf("company %s is already tracked", ticker), nil)
	} else if !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		return nil, err
	}

	entry, err := s.directory.Lookup(ctx, ticker)
	if err != nil {
		if errors.Is(err, edgar.ErrTickerNotFound) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown ticker %s", ticker), err)
		}
		return nil, apperrors.UpstreamError("ticker directory unavailable", err)
	}

	company := &models.Company{Ticker: entry.Ticker, Name: entry.Name, CIK: entry.CIK}
	if err := s.repos.Company.Create(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *companyServiceImpl) Untrack(ctx context.Context, ticker string) error {
	return s.repos.Company.DeleteByTicker(ctx, ticker)
}
