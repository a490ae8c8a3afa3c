package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	Port        string
	Environment string
	LogLevel    string

	// Admin authentication
	JWTSecret     string
	AdminKeyHash  string
	AdminTokenTTL time.Duration

	// Upstream APIs
	AnthropicAPIKey        string
	AnthropicModel         string
	FinnhubAPIKey          string
	FinnhubBaseURL         string
	SECUserAgent           string
	EDGARRequestsPerSecond int
	YahooBaseURL           string

	// Upstream pacing
	FinnhubRequestsPerSecond int
	YahooRequestsPerSecond   int
	LLMRequestInterval       time.Duration

	// Background sync
	SyncSchedule     string
	SyncLookbackDays int

	// Security configuration
	AllowedOrigins     string
	TrustedProxies     string
	EnableRateLimit    bool
	RateLimitPerMinute int
	MaxRequestSize     int64
}

// New creates a new configuration instance from environment variables
func New() *Config {
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		AdminKeyHash:  getEnv("ADMIN_KEY_HASH", ""),
		AdminTokenTTL: time.Duration(getEnvAsInt("ADMIN_TOKEN_TTL_HOURS", 12)) * time.Hour,

		AnthropicAPIKey:        getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:         getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		FinnhubAPIKey:          getEnv("FINNHUB_API_KEY", ""),
		FinnhubBaseURL:         getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
		SECUserAgent:           getEnv("SEC_USER_AGENT", "StockDDFinder contact@example.com"),
		EDGARRequestsPerSecond: getEnvAsInt("EDGAR_REQUESTS_PER_SECOND", 5),
		YahooBaseURL:           getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),

		FinnhubRequestsPerSecond: getEnvAsInt("FINNHUB_REQUESTS_PER_SECOND", 1),
		YahooRequestsPerSecond:   getEnvAsInt("YAHOO_REQUESTS_PER_SECOND", 2),
		LLMRequestInterval:       time.Duration(getEnvAsInt("LLM_REQUEST_INTERVAL_SECONDS", 2)) * time.Second,

		SyncSchedule:     getEnv("SYNC_SCHEDULE", "0 6 * * *"),
		SyncLookbackDays: getEnvAsInt("SYNC_LOOKBACK_DAYS", 90),

		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", ""),
		TrustedProxies:     getEnv("TRUSTED_PROXIES", ""),
		EnableRateLimit:    getEnv("ENABLE_RATE_LIMIT", "true") == "true",
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
		MaxRequestSize:     getEnvAsInt64("MAX_REQUEST_SIZE", 1024*1024), // 1MB default
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasAnthropicCredentials returns true if headline generation can run
func (c *Config) HasAnthropicCredentials() bool {
	return c.AnthropicAPIKey != ""
}

// HasFinnhubCredentials returns true if press releases can be fetched
func (c *Config) HasFinnhubCredentials() bool {
	return c.FinnhubAPIKey != ""
}

// HasAdminAuth returns true if admin endpoints can issue tokens
func (c *Config) HasAdminAuth() bool {
	return c.JWTSecret != "" && c.AdminKeyHash != ""
}

// SyncLookback returns the filing look-back window for sync runs
func (c *Config) SyncLookback() time.Duration {
	return time.Duration(c.SyncLookbackDays) * 24 * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetAllowedOrigins returns a slice of allowed CORS origins
func (c *Config) GetAllowedOrigins() []string {
	if c.AllowedOrigins == "" {
		return []string{}
	}
	origins := strings.Split(c.AllowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

// GetTrustedProxies returns a slice of trusted proxy IPs
func (c *Config) GetTrustedProxies() []string {
	if c.TrustedProxies == "" {
		return []string{} // No trusted proxies by default
	}
	return strings.Split(c.TrustedProxies, ",")
}
