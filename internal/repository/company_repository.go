package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/models"
)

const uniqueViolation = "23505"

// companyRepository implements CompanyRepository
type companyRepository struct {
	db dbExecutor
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db dbExecutor) CompanyRepository {
	return &companyRepository{db: db}
}

// GetByID retrieves a company by ID
func (r *companyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	query := `SELECT id, ticker, name, cik, created_at FROM companies WHERE id = $1`

	company := &models.Company{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&company.ID, &company.Ticker, &company.Name, &company.CIK, &company.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("company not found", nil)
		}
		return nil, apperrors.DatabaseError("failed to get company", err)
	}

	return company, nil
}

// GetByTicker retrieves a company by ticker symbol, case-insensitively
func (r *companyRepository) GetByTicker(ctx context.Context, ticker string) (*models.Company, error) {
	query := `SELECT id, ticker, name, cik, created_at FROM companies WHERE ticker = $1`

	company := &models.Company{}
	err := r.db.QueryRowContext(ctx, query, strings.ToUpper(ticker)).Scan(
		&company.ID, &company.Ticker, &company.Name, &company.CIK, &company.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("company with ticker %s not found", ticker), nil)
		}
		return nil, apperrors.DatabaseError("failed to get company", err)
	}

	return company, nil
}

// List returns all tracked companies ordered by ticker
func (r *companyRepository) List(ctx context.Context) ([]models.Company, error) {
	query := `SELECT id, ticker, name, cik, created_at FROM companies ORDER BY ticker`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list companies", err)
	}
	defer rows.Close()

	var companies []models.Company
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.ID, &c.Ticker, &c.Name, &c.CIK, &c.CreatedAt); err != nil {
			return nil, apperrors.DatabaseError("failed to scan company", err)
		}
		companies = append(companies, c)
	}

	return companies, rows.Err()
}

// Create starts tracking a company. Ticker and CIK must be unique.
func (r *companyRepository) Create(ctx context.Context, company *models.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	company.Ticker = strings.ToUpper(company.Ticker)
	company.CreatedAt = time.Now()

	query := `
		INSERT INTO companies (id, ticker, name, cik, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		company.ID, company.Ticker, company.Name, company.CIK, company.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.Conflict(fmt.Sprintf("company %s is already tracked", company.Ticker), err)
		}
		return apperrors.DatabaseError("failed to create company", err)
	}

	return nil
}

// DeleteByTicker stops tracking a company; its filings go with it
func (r *companyRepository) DeleteByTicker(ctx context.Context, ticker string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM companies WHERE ticker = $1`, strings.ToUpper(ticker))
	if err != nil {
		return apperrors.DatabaseError("failed to delete company", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.DatabaseError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound(fmt.Sprintf("company with ticker %s not found", ticker), nil)
	}

	return nil
}
