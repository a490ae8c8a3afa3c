package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/stockdd-timeline/internal/auth"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/scraper"
	"github.com/ajharbinger/stockdd-timeline/internal/services"
)

// Pinger checks database connectivity
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SyncController starts sync runs and reports their progress
type SyncController interface {
	Trigger(ctx context.Context, opts services.SyncOptions) (services.SyncStatus, bool, error)
	Snapshot() services.SyncStatus
}

// RouteDeps are the collaborators of the HTTP handlers.
// JWT is nil when admin authentication is not configured.
type RouteDeps struct {
	Companies     services.CompanyService
	Filings       services.FilingService
	PressReleases services.PressReleaseService
	Compensation  services.CompensationService
	Prices        services.PriceService
	Sync          SyncController

	JWT          *auth.JWTService
	AdminKeyHash string

	DB       Pinger
	Monitors map[string]*scraper.HealthMonitor
	Features map[string]bool
	Logger   logger.Logger
}

// NewRouteDeps fills the service fields from an assembled Services
func NewRouteDeps(svcs *services.Services) RouteDeps {
	return RouteDeps{
		Companies:     svcs.Company,
		Filings:       svcs.Filing,
		PressReleases: svcs.PressRelease,
		Compensation:  svcs.Compensation,
		Prices:        svcs.Price,
		Sync:          svcs.Sync,
	}
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, deps RouteDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}

	healthHandler := NewHealthHandler(deps.DB, deps.Monitors, deps.Features)
	authHandler := NewAuthHandler(deps.JWT, deps.AdminKeyHash, log)
	companyHandler := NewCompanyHandler(deps.Companies, log)
	filingHandler := NewFilingHandler(deps.Filings, log)
	pressReleaseHandler := NewPressReleaseHandler(deps.PressReleases, log)
	compensationHandler := NewCompensationHandler(deps.Compensation, log)
	priceHandler := NewPriceHandler(deps.Prices, log)
	syncHandler := NewSyncHandler(deps.Sync, log)

	// Public routes
	public := r.Group("/api/v1")
	{
		public.GET("/health", healthHandler.GetHealth)
		public.POST("/auth/token", authHandler.IssueToken)

		public.GET("/companies", companyHandler.ListCompanies)
		public.GET("/companies/search", companyHandler.SearchCompanies)

		public.GET("/filings/timeline", filingHandler.GetTimeline)
		public.GET("/filings/:id", filingHandler.GetFiling)

		public.GET("/press-releases", pressReleaseHandler.ListPressReleases)
		public.GET("/exec-comp", compensationHandler.ListCompensation)
		public.GET("/prices/:ticker", priceHandler.GetPrices)

		public.GET("/sync/status", syncHandler.GetStatus)
	}

	// Admin routes
	admin := r.Group("/api/v1")
	admin.Use(requireAdmin(deps.JWT))
	{
		admin.POST("/companies", companyHandler.TrackCompany)
		admin.DELETE("/companies/:ticker", companyHandler.UntrackCompany)

		admin.POST("/filings/resummarize", filingHandler.Resummarize)
		admin.POST("/exec-comp/extract", compensationHandler.ExtractCompensation)

		admin.POST("/sync", syncHandler.TriggerSync)
		admin.POST("/health/reset", healthHandler.ResetMonitors)
	}
}

func requireAdmin(jwtService *auth.JWTService) gin.HandlerFunc {
	if jwtService == nil {
		return func(c *gin.Context) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Admin authentication is not configured"})
			c.Abort()
		}
	}
	return auth.RequireRole(jwtService, auth.RoleAdmin)
}
