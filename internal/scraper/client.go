package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 32 << 20

// StatusError is returned when an upstream answers with a non-2xx status
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

// ClientConfig configures a rate-limited upstream client
type ClientConfig struct {
	Name              string
	UserAgent         string
	RequestsPerSecond float64 // <= 0 disables limiting
	Timeout           time.Duration
	Monitor           *HealthMonitor
}

// Client performs rate-limited HTTP GETs against a single upstream
type Client struct {
	name       string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	monitor    *HealthMonitor
}

// NewClient creates a new upstream client with a token bucket of burst 1
func NewClient(cfg ClientConfig) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		name: cfg.Name,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: cfg.UserAgent,
		monitor:   cfg.Monitor,
	}
}

// Name returns the upstream name used in health reports
func (c *Client) Name() string {
	return c.name
}

// GetBytes waits for the limiter, performs a GET and returns the body
func (c *Client) GetBytes(ctx context.Context, url, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(err, url)
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, URL: url}
		c.recordFailure(statusErr, url)
		return nil, statusErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.recordFailure(err, url)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.monitor != nil {
		c.monitor.RecordSuccess(c.name)
	}
	return body, nil
}

// GetJSON performs a GET and decodes the JSON body into v
func (c *Client) GetJSON(ctx context.Context, url string, v interface{}) error {
	body, err := c.GetBytes(ctx, url, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", url, err)
	}
	return nil
}

// GetDocument performs a GET and parses the body as HTML
func (c *Client) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.GetBytes(ctx, url, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, err
	}
	return ParseDocument(body)
}

// ParseDocument parses an HTML body into a goquery document
func ParseDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Close cleans up the client resources
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) recordFailure(err error, url string) {
	if c.monitor != nil {
		c.monitor.RecordFailure(c.name, err.Error(), url)
	}
}
