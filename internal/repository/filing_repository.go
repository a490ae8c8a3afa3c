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

const filingColumns = `f.id, f.company_id, f.accession_number, f.form_type, f.filed_date,
		f.document_url, f.headline, f.summary, f.created_at`

// filingRepository implements FilingRepository
type filingRepository struct {
	db dbExecutor
}

// NewFilingRepository creates a new filing repository
func NewFilingRepository(db dbExecutor) FilingRepository {
	return &filingRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFiling(row rowScanner, f *models.Filing, extra ...interface{}) error {
	var headline, summary sql.NullString
	dest := []interface{}{
		&f.ID, &f.CompanyID, &f.AccessionNumber, &f.FormType, &f.FiledDate,
		&f.DocumentURL, &headline, &summary, &f.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	if headline.Valid {
		f.Headline = &headline.String
	}
	if summary.Valid {
		f.Summary = &summary.String
	}
	return nil
}

// GetByID retrieves a filing with its company
func (r *filingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FilingWithCompany, error) {
	query := `
		SELECT ` + filingColumns + `, c.ticker, c.name
		FROM filings f
		JOIN companies c ON c.id = f.company_id
		WHERE f.id = $1
	`

	fw := &models.FilingWithCompany{}
	err := scanFiling(r.db.QueryRowContext(ctx, query, id), &fw.Filing, &fw.Ticker, &fw.CompanyName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("filing not found", nil)
		}
		return nil, apperrors.DatabaseError("failed to get filing", err)
	}

	return fw, nil
}

// GetByAccession retrieves a filing by its accession number
func (r *filingRepository) GetByAccession(ctx context.Context, accessionNumber string) (*models.Filing, error) {
	query := `SELECT ` + filingColumns + ` FROM filings f WHERE f.accession_number = $1`

	f := &models.Filing{}
	if err := scanFiling(r.db.QueryRowContext(ctx, query, accessionNumber), f); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("filing not found", nil)
		}
		return nil, apperrors.DatabaseError("failed to get filing", err)
	}

	return f, nil
}

// ExistsByAccession reports whether a filing with the accession number is stored
func (r *filingRepository) ExistsByAccession(ctx context.Context, accessionNumber string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM filings WHERE accession_number = $1)`, accessionNumber,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.DatabaseError("failed to check filing", err)
	}
	return exists, nil
}

// Create inserts a filing, leaving an existing row with the same accession number untouched
func (r *filingRepository) Create(ctx context.Context, filing *models.Filing) (bool, error) {
	if filing.ID == uuid.Nil {
		filing.ID = uuid.New()
	}
	filing.CreatedAt = time.Now()

	query := `
		INSERT INTO filings (
			id, company_id, accession_number, form_type, filed_date,
			document_url, headline, summary, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (accession_number) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		filing.ID, filing.CompanyID, filing.AccessionNumber, filing.FormType, filing.FiledDate,
		filing.DocumentURL, filing.Headline, filing.Summary, filing.CreatedAt,
	)
	if err != nil {
		return false, apperrors.DatabaseError("failed to create filing", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.DatabaseError("failed to get rows affected", err)
	}

	return rowsAffected == 1, nil
}

// UpdateHeadline sets the generated headline of a filing
func (r *filingRepository) UpdateHeadline(ctx context.Context, id uuid.UUID, headline string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE filings SET headline = $1 WHERE id = $2`, headline, id)
	if err != nil {
		return apperrors.DatabaseError("failed to update headline", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.DatabaseError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NotFound("filing not found", nil)
	}

	return nil
}

// Timeline returns filings across all companies, newest first, plus the unpaged match count
func (r *filingRepository) Timeline(ctx context.Context, filters TimelineFilters) ([]models.FilingWithCompany, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filters.Ticker != "" {
		conditions = append(conditions, fmt.Sprintf("c.ticker = $%d", argIndex))
		args = append(args, strings.ToUpper(filters.Ticker))
		argIndex++
	}
	if filters.FormType != "" {
		conditions = append(conditions, fmt.Sprintf("f.form_type = $%d", argIndex))
		args = append(args, filters.FormType)
		argIndex++
	}
	if len(filters.ExcludeFormTypes) > 0 {
		conditions = append(conditions, fmt.Sprintf("f.form_type <> ALL($%d)", argIndex))
		args = append(args, pq.Array(filters.ExcludeFormTypes))
		argIndex++
	}
	if filters.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("f.filed_date >= $%d", argIndex))
		args = append(args, *filters.StartDate)
		argIndex++
	}
	if filters.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("f.filed_date <= $%d", argIndex))
		args = append(args, *filters.EndDate)
		argIndex++
	}

	from := ` FROM filings f JOIN companies c ON c.id = f.company_id`
	if len(conditions) > 0 {
		from += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+from, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.DatabaseError("failed to count filings", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}
	query := "SELECT " + filingColumns + ", c.ticker, c.name" + from +
		fmt.Sprintf(" ORDER BY f.filed_date DESC, f.created_at DESC LIMIT $%d", argIndex)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.DatabaseError("failed to query timeline", err)
	}
	defer rows.Close()

	events, err := scanFilingsWithCompany(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// LatestByFormType returns the company's most recently filed filing of the given form
func (r *filingRepository) LatestByFormType(ctx context.Context, companyID uuid.UUID, formType string) (*models.Filing, error) {
	query := `
		SELECT ` + filingColumns + `
		FROM filings f
		WHERE f.company_id = $1 AND f.form_type = $2
		ORDER BY f.filed_date DESC
		LIMIT 1
	`

	f := &models.Filing{}
	if err := scanFiling(r.db.QueryRowContext(ctx, query, companyID, formType), f); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("no %s filing stored", formType), nil)
		}
		return nil, apperrors.DatabaseError("failed to get latest filing", err)
	}

	return f, nil
}

// ListMissingHeadline returns filings without a headline, newest first.
// Form 4 filings are never summarized and are left out.
func (r *filingRepository) ListMissingHeadline(ctx context.Context, ticker string, limit int) ([]models.FilingWithCompany, error) {
	query := `
		SELECT ` + filingColumns + `, c.ticker, c.name
		FROM filings f
		JOIN companies c ON c.id = f.company_id
		WHERE f.headline IS NULL AND f.form_type <> '4'
		  AND ($1 = '' OR c.ticker = $1)
		ORDER BY f.filed_date DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, strings.ToUpper(ticker), limit)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to query filings without headline", err)
	}
	defer rows.Close()

	return scanFilingsWithCompany(rows)
}

func scanFilingsWithCompany(rows *sql.Rows) ([]models.FilingWithCompany, error) {
	var out []models.FilingWithCompany
	for rows.Next() {
		var fw models.FilingWithCompany
		if err := scanFiling(rows, &fw.Filing, &fw.Ticker, &fw.CompanyName); err != nil {
			return nil, apperrors.DatabaseError("failed to scan filing", err)
		}
		out = append(out, fw)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError("failed to iterate filings", err)
	}
	return out, nil
}
