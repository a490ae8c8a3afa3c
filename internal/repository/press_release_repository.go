package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/models"
)

// pressReleaseRepository implements PressReleaseRepository
type pressReleaseRepository struct {
	db dbExecutor
}

// NewPressReleaseRepository creates a new press release repository
func NewPressReleaseRepository(db dbExecutor) PressReleaseRepository {
	return &pressReleaseRepository{db: db}
}

func (r *pressReleaseRepository) ExistsByFinnhubID(ctx context.Context, finnhubID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM press_releases WHERE finnhub_id = $1)`, finnhubID,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.DatabaseError("failed to check press release", err)
	}
	return exists, nil
}

func (r *pressReleaseRepository) Create(ctx context.Context, release *models.PressRelease) (bool, error) {
	if release.ID == uuid.Nil {
		release.ID = uuid.New()
	}
	release.CreatedAt = time.Now()

	query := `
		INSERT INTO press_releases (id, company_id, finnhub_id, headline, source, url, published_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (finnhub_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		release.ID, release.CompanyID, release.FinnhubID, release.Headline,
		release.Source, release.URL, release.PublishedAt, release.CreatedAt,
	)
	if err != nil {
		return false, apperrors.DatabaseError("failed to create press release", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.DatabaseError("failed to get rows affected", err)
	}
	return rowsAffected == 1, nil
}

// List returns press releases newest first
func (r *pressReleaseRepository) List(ctx context.Context, filters PressReleaseFilters) ([]models.PressRelease, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT p.id, p.company_id, p.finnhub_id, p.headline, COALESCE(p.source, ''), p.url,
			   p.published_at, p.created_at, c.ticker
		FROM press_releases p
		JOIN companies c ON c.id = p.company_id
		WHERE ($1 = '' OR c.ticker = $1)
		  AND ($2::timestamptz IS NULL OR p.published_at >= $2)
		ORDER BY p.published_at DESC
		LIMIT $3
	`

	var since interface{}
	if filters.Since != nil {
		since = *filters.Since
	}

	rows, err := r.db.QueryContext(ctx, query, strings.ToUpper(filters.Ticker), since, limit)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to list press releases", err)
	}
	defer rows.Close()

	var releases []models.PressRelease
	for rows.Next() {
		var p models.PressRelease
		if err := rows.Scan(
			&p.ID, &p.CompanyID, &p.FinnhubID, &p.Headline, &p.Source, &p.URL,
			&p.PublishedAt, &p.CreatedAt, &p.Ticker,
		); err != nil {
			return nil, apperrors.DatabaseError("failed to scan press release", err)
		}
		releases = append(releases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError("failed to iterate press releases", err)
	}

	return releases, nil
}
