package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/models"
)

// compensationRepository implements CompensationRepository
type compensationRepository struct {
	db dbExecutor
}

// NewCompensationRepository creates a new executive compensation repository
func NewCompensationRepository(db dbExecutor) CompensationRepository {
	return &compensationRepository{db: db}
}

// ExistsForCompany reports whether any compensation row is stored for the company
func (r *compensationRepository) ExistsForCompany(ctx context.Context, companyID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM executive_compensation WHERE company_id = $1)`, companyID,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.DatabaseError("failed to check executive compensation", err)
	}
	return exists, nil
}

func (r *compensationRepository) Create(ctx context.Context, row *models.ExecutiveCompensation) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreatedAt = time.Now()

	query := `
		INSERT INTO executive_compensation (
			id, filing_id, company_id, executive_name, position, salary, bonus,
			stock_awards, option_awards, other_compensation, total_compensation,
			fiscal_year, filed_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.FilingID, row.CompanyID, row.ExecutiveName, row.Position,
		row.Salary, row.Bonus, row.StockAwards, row.OptionAwards, row.OtherCompensation,
		row.TotalCompensation, row.FiscalYear, row.FiledDate, row.CreatedAt,
	)
	if err != nil {
		return apperrors.DatabaseError("failed to create executive compensation", err)
	}
	return nil
}

// ListLatest keeps only the latest fiscal year of each company and orders rows
// by ticker, then total compensation descending.
func (r *compensationRepository) ListLatest(ctx context.Context, ticker string) ([]models.CompensationView, error) {
	query := `
		SELECT e.id, e.filing_id, e.company_id, e.executive_name, e.position, e.salary, e.bonus,
			   e.stock_awards, e.option_awards, e.other_compensation, e.total_compensation,
			   e.fiscal_year, e.filed_date, e.created_at, c.ticker, c.name, f.document_url
		FROM executive_compensation e
		JOIN companies c ON c.id = e.company_id
		JOIN filings f ON f.id = e.filing_id
		JOIN (
			SELECT company_id, MAX(fiscal_year) AS max_year
			FROM executive_compensation
			GROUP BY company_id
		) latest ON latest.company_id = e.company_id AND latest.max_year = e.fiscal_year
		WHERE ($1 = '' OR c.ticker = $1)
		ORDER BY c.ticker, e.total_compensation DESC NULLS LAST
	`

	rows, err := r.db.QueryContext(ctx, query, strings.ToUpper(ticker))
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list executive compensation", err)
	}
	defer rows.Close()

	var views []models.CompensationView
	for rows.Next() {
		var v models.CompensationView
		if err := rows.Scan(
			&v.ID, &v.FilingID, &v.CompanyID, &v.ExecutiveName, &v.Position, &v.Salary, &v.Bonus,
			&v.StockAwards, &v.OptionAwards, &v.OtherCompensation, &v.TotalCompensation,
			&v.FiscalYear, &v.FiledDate, &v.CreatedAt, &v.Ticker, &v.CompanyName, &v.DocumentURL,
		); err != nil {
			return nil, apperrors.DatabaseError("failed to scan executive compensation", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError("failed to iterate executive compensation", err)
	}

	return views, nil
}
