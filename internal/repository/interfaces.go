package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ajharbinger/stockdd-timeline/internal/models"
)

// CompanyRepository defines the interface for tracked company data access
type CompanyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	GetByTicker(ctx context.Context, ticker string) (*models.Company, error)
	List(ctx context.Context) ([]models.Company, error)
	Create(ctx context.Context, company *models.Company) error
	DeleteByTicker(ctx context.Context, ticker string) error
}

// FilingRepository defines the interface for filing data access
type FilingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.FilingWithCompany, error)
	GetByAccession(ctx context.Context, accessionNumber string) (*models.Filing, error)
	ExistsByAccession(ctx context.Context, accessionNumber string) (bool, error)
	// Create inserts the filing unless its accession number is already stored.
	// It reports whether a row was written.
	Create(ctx context.Context, filing *models.Filing) (bool, error)
	UpdateHeadline(ctx context.Context, id uuid.UUID, headline string) error
	Timeline(ctx context.Context, filters TimelineFilters) ([]models.FilingWithCompany, int, error)
	LatestByFormType(ctx context.Context, companyID uuid.UUID, formType string) (*models.Filing, error)
	ListMissingHeadline(ctx context.Context, ticker string, limit int) ([]models.FilingWithCompany, error)
}

// PressReleaseRepository defines the interface for press release data access
type PressReleaseRepository interface {
	ExistsByFinnhubID(ctx context.Context, finnhubID int64) (bool, error)
	// Create inserts the press release unless its Finnhub id is already stored
	Create(ctx context.Context, release *models.PressRelease) (bool, error)
	List(ctx context.Context, filters PressReleaseFilters) ([]models.PressRelease, error)
}

// CompensationRepository defines the interface for executive compensation data access
type CompensationRepository interface {
	ExistsForCompany(ctx context.Context, companyID uuid.UUID) (bool, error)
	Create(ctx context.Context, row *models.ExecutiveCompensation) error
	// ListLatest returns each company's rows for its most recent fiscal year
	ListLatest(ctx context.Context, ticker string) ([]models.CompensationView, error)
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Company      CompanyRepository
	Filing       FilingRepository
	PressRelease PressReleaseRepository
	Compensation CompensationRepository
	Tx           TransactionManager
}

// TimelineFilters defines filters for the filing timeline
type TimelineFilters struct {
	Ticker           string
	FormType         string
	ExcludeFormTypes []string
	StartDate        *time.Time
	EndDate          *time.Time
	Limit            int
}

// PressReleaseFilters defines filters for listing press releases
type PressReleaseFilters struct {
	Ticker string
	Since  *time.Time
	Limit  int
}
