package app

import (
	"database/sql"
	"time"

	"github.com/ajharbinger/stockdd-timeline/internal/api"
	"github.com/ajharbinger/stockdd-timeline/internal/auth"
	"github.com/ajharbinger/stockdd-timeline/internal/edgar"
	"github.com/ajharbinger/stockdd-timeline/internal/llm"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/news"
	"github.com/ajharbinger/stockdd-timeline/internal/prices"
	"github.com/ajharbinger/stockdd-timeline/internal/repository"
	"github.com/ajharbinger/stockdd-timeline/internal/scraper"
	"github.com/ajharbinger/stockdd-timeline/internal/services"
	"github.com/ajharbinger/stockdd-timeline/pkg/config"
)

const upstreamTimeout = 30 * time.Second

// Feature flags reported by the health endpoint
const (
	FeatureHeadlines     = "headlines"
	FeatureCompensation  = "compensation"
	FeaturePressReleases = "press_releases"
	FeatureAdminAuth     = "admin_auth"
)

// App is the assembled object graph shared by the server and the sync CLI
type App struct {
	Services *services.Services
	Routes   api.RouteDeps
	Monitors map[string]*scraper.HealthMonitor
	Features map[string]bool

	clients []*scraper.Client
}

// Build wires upstream clients, repositories and services from cfg.
// Optional upstreams without credentials are left nil and reported as disabled features.
func Build(cfg *config.Config, db *sql.DB, log logger.Logger) *App {
	if log == nil {
		log = logger.NewNop()
	}

	monitors := map[string]*scraper.HealthMonitor{
		"edgar": scraper.NewHealthMonitor(),
		"yahoo": scraper.NewHealthMonitor(),
	}

	edgarHTTP := scraper.NewClient(scraper.ClientConfig{
		Name:              "edgar",
		UserAgent:         cfg.SECUserAgent,
		RequestsPerSecond: float64(cfg.EDGARRequestsPerSecond),
		Timeout:           upstreamTimeout,
		Monitor:           monitors["edgar"],
	})

	yahooHTTP := scraper.NewClient(scraper.ClientConfig{
		Name:              "yahoo",
		UserAgent:         prices.BrowserUserAgent,
		RequestsPerSecond: float64(cfg.YahooRequestsPerSecond),
		Timeout:           upstreamTimeout,
		Monitor:           monitors["yahoo"],
	})

	clients := []*scraper.Client{edgarHTTP, yahooHTTP}

	deps := services.Dependencies{
		Repos:     repository.NewRepositories(db),
		Filings:   edgar.NewClient(edgarHTTP, edgar.Config{}),
		Directory: edgar.NewDirectory(edgarHTTP, edgar.Config{}, edgar.DefaultDirectoryTTL, logger.With(log, "edgar_directory")),
		Extractor: edgar.NewExtractor(edgarHTTP, logger.With(log, "edgar_extractor")),
		Prices:    prices.NewYahooClient(yahooHTTP, cfg.YahooBaseURL, logger.With(log, "yahoo")),
		Logger:    log,
	}

	if cfg.HasFinnhubCredentials() {
		monitors["finnhub"] = scraper.NewHealthMonitor()
		finnhubHTTP := scraper.NewClient(scraper.ClientConfig{
			Name:              "finnhub",
			RequestsPerSecond: float64(cfg.FinnhubRequestsPerSecond),
			Timeout:           upstreamTimeout,
			Monitor:           monitors["finnhub"],
		})
		clients = append(clients, finnhubHTTP)
		deps.News = news.NewFinnhubClient(finnhubHTTP, cfg.FinnhubBaseURL, cfg.FinnhubAPIKey, logger.With(log, "finnhub"))
	} else {
		log.Warn("FINNHUB_API_KEY not set, press releases disabled")
	}

	if cfg.HasAnthropicCredentials() {
		completer := llm.NewRateLimitedCompleter(
			llm.NewAnthropicCompleter(cfg.AnthropicAPIKey, cfg.AnthropicModel),
			cfg.LLMRequestInterval,
		)
		deps.Headlines = llm.NewHeadlineGenerator(completer)
		deps.CompensationParser = llm.NewCompensationExtractor(completer, logger.With(log, "compensation_extractor"))
	} else {
		log.Warn("ANTHROPIC_API_KEY not set, headlines and compensation extraction disabled")
	}

	syncCfg := services.DefaultSyncConfig()
	if cfg.SyncLookbackDays > 0 {
		syncCfg.LookbackDays = cfg.SyncLookbackDays
	}
	svcs := services.NewServices(deps, syncCfg, services.DefaultCompensationConfig())

	features := map[string]bool{
		FeatureHeadlines:     deps.Headlines != nil,
		FeatureCompensation:  deps.CompensationParser != nil,
		FeaturePressReleases: deps.News != nil,
		FeatureAdminAuth:     cfg.HasAdminAuth(),
	}

	routes := api.NewRouteDeps(svcs)
	routes.Monitors = monitors
	routes.Features = features
	routes.Logger = logger.With(log, "api")
	if db != nil {
		routes.DB = db
	}
	if cfg.HasAdminAuth() {
		routes.JWT = auth.NewJWTService(cfg.JWTSecret, cfg.AdminTokenTTL)
		routes.AdminKeyHash = cfg.AdminKeyHash
	} else {
		log.Warn("JWT_SECRET or ADMIN_KEY_HASH not set, admin endpoints disabled")
	}

	return &App{
		Services: svcs,
		Routes:   routes,
		Monitors: monitors,
		Features: features,
		clients:  clients,
	}
}

// Close releases idle upstream connections
func (a *App) Close() {
	for _, c := range a.clients {
		c.Close()
	}
}
