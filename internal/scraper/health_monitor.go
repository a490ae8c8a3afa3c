package scraper

import (
	"strings"
	"sync"
	"time"
)

// HealthMonitor tracks request outcomes against one upstream (EDGAR, Finnhub, ...)
type HealthMonitor struct {
	mu                   sync.RWMutex
	totalRequests        int64
	successfulRequests   int64
	failedRequests       int64
	consecutiveFailures  int64
	lastFailureTime      time.Time
	lastSuccessTime      time.Time
	lastSuccessSource    string
	recentFailures       []FailureRecord
	maxRecentFailures    int
	failureThreshold     float64 // fraction of failed requests that marks the upstream unhealthy
	consecutiveThreshold int64
}

// FailureRecord represents a single failed upstream request
type FailureRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Error     string    `json:"error"`
	URL       string    `json:"url,omitempty"`
}

// HealthStatus represents the current health of an upstream
type HealthStatus struct {
	IsHealthy           bool            `json:"is_healthy"`
	TotalRequests       int64           `json:"total_requests"`
	SuccessfulRequests  int64           `json:"successful_requests"`
	FailedRequests      int64           `json:"failed_requests"`
	SuccessRate         float64         `json:"success_rate"`
	ConsecutiveFailures int64           `json:"consecutive_failures"`
	LastFailureTime     *time.Time      `json:"last_failure_time,omitempty"`
	LastSuccessTime     *time.Time      `json:"last_success_time,omitempty"`
	LastSuccessSource   string          `json:"last_success_source,omitempty"`
	RecentFailures      []FailureRecord `json:"recent_failures"`
	HealthIssues        []string        `json:"health_issues"`
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{
		maxRecentFailures:    20,
		failureThreshold:     0.2,
		consecutiveThreshold: 5,
		recentFailures:       make([]FailureRecord, 0, 20),
	}
}

// RecordSuccess records a successful request
func (h *HealthMonitor) RecordSuccess(source string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalRequests++
	h.successfulRequests++
	h.consecutiveFailures = 0
	h.lastSuccessTime = time.Now()
	h.lastSuccessSource = source
}

// RecordFailure records a failed request, keeping only the most recent failures
func (h *HealthMonitor) RecordFailure(source, errorMsg, url string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	h.totalRequests++
	h.failedRequests++
	h.consecutiveFailures++
	h.lastFailureTime = now

	h.recentFailures = append(h.recentFailures, FailureRecord{
		Timestamp: now,
		Source:    source,
		Error:     errorMsg,
		URL:       url,
	})
	if len(h.recentFailures) > h.maxRecentFailures {
		h.recentFailures = h.recentFailures[1:]
	}
}

// GetHealthStatus returns a copy of the current health status
func (h *HealthMonitor) GetHealthStatus() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		IsHealthy:           true,
		TotalRequests:       h.totalRequests,
		SuccessfulRequests:  h.successfulRequests,
		FailedRequests:      h.failedRequests,
		ConsecutiveFailures: h.consecutiveFailures,
		SuccessRate:         1.0,
		RecentFailures:      make([]FailureRecord, len(h.recentFailures)),
		HealthIssues:        []string{},
	}
	copy(status.RecentFailures, h.recentFailures)

	if h.totalRequests > 0 {
		status.SuccessRate = float64(h.successfulRequests) / float64(h.totalRequests)
	}
	if !h.lastFailureTime.IsZero() {
		t := h.lastFailureTime
		status.LastFailureTime = &t
	}
	if !h.lastSuccessTime.IsZero() {
		t := h.lastSuccessTime
		status.LastSuccessTime = &t
		status.LastSuccessSource = h.lastSuccessSource
	}

	if h.totalRequests >= 10 && status.SuccessRate < 1.0-h.failureThreshold {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues, "High failure rate detected")
	}
	if h.consecutiveFailures >= h.consecutiveThreshold {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues, "Multiple consecutive failures detected")
	}

	h.analyzeFailurePatterns(&status)

	return status
}

// analyzeFailurePatterns reports an error category that dominates recent failures
func (h *HealthMonitor) analyzeFailurePatterns(status *HealthStatus) {
	if len(h.recentFailures) < 3 {
		return
	}

	counts := make(map[string]int)
	for _, failure := range h.recentFailures {
		counts[categorizeError(failure.Error)]++
	}

	total := len(h.recentFailures)
	for _, category := range []string{"timeout", "rate_limit", "forbidden", "network"} {
		if float64(counts[category])/float64(total) <= 0.5 {
			continue
		}
		switch category {
		case "timeout":
			status.HealthIssues = append(status.HealthIssues, "Frequent timeout errors detected")
		case "rate_limit":
			status.HealthIssues = append(status.HealthIssues, "Upstream is rate limiting requests")
		case "forbidden":
			status.HealthIssues = append(status.HealthIssues, "Requests are being refused; check the User-Agent and API key")
		case "network":
			status.HealthIssues = append(status.HealthIssues, "Network connectivity issues detected")
		}
	}
}

func categorizeError(errorMsg string) string {
	errorMsg = strings.ToLower(errorMsg)

	switch {
	case strings.Contains(errorMsg, "timeout") || strings.Contains(errorMsg, "deadline"):
		return "timeout"
	case strings.Contains(errorMsg, "rate limit") || strings.Contains(errorMsg, "429"):
		return "rate_limit"
	case strings.Contains(errorMsg, "401") || strings.Contains(errorMsg, "403") || strings.Contains(errorMsg, "unauthorized"):
		return "forbidden"
	case strings.Contains(errorMsg, "connection") || strings.Contains(errorMsg, "dns") || strings.Contains(errorMsg, "network"):
		return "network"
	}
	return "other"
}

// Reset clears all health monitoring data
func (h *HealthMonitor) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalRequests = 0
	h.successfulRequests = 0
	h.failedRequests = 0
	h.consecutiveFailures = 0
	h.lastFailureTime = time.Time{}
	h.lastSuccessTime = time.Time{}
	h.lastSuccessSource = ""
	h.recentFailures = h.recentFailures[:0]
}

// IsHealthy returns true if the upstream is operating within healthy parameters
func (h *HealthMonitor) IsHealthy() bool {
	return h.GetHealthStatus().IsHealthy
}
