package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/scraper"
)

const DefaultBaseURL = "https://finnhub.io/api/v1"

// Item is one company news article
type Item struct {
	ID          int64
	Headline    string
	Source      string
	URL         string
	PublishedAt time.Time
}

// FinnhubClient fetches company news from Finnhub
type FinnhubClient struct {
	http    *scraper.Client
	baseURL string
	apiKey  string
	logger  logger.Logger
}

// NewFinnhubClient creates a news client. The scraper client carries the pacing
// between calls (one per second in production).
func NewFinnhubClient(httpClient *scraper.Client, baseURL, apiKey string, log logger.Logger) *FinnhubClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &FinnhubClient{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  log,
	}
}

// Configured reports whether an API key is set
func (c *FinnhubClient) Configured() bool {
	return c.apiKey != ""
}

type rawItem struct {
	ID       *int64  `json:"id"`
	Headline *string `json:"headline"`
	Source   string  `json:"source"`
	URL      *string `json:"url"`
	Datetime *int64  `json:"datetime"`
}

// CompanyNews returns the ticker's news between from and to (inclusive dates).
// Without an API key it returns an empty slice and no error.
func (c *FinnhubClient) CompanyNews(ctx context.Context, ticker string, from, to time.Time) ([]Item, error) {
	if !c.Configured() {
		c.logger.Warn("FINNHUB_API_KEY not set, skipping news fetch", "ticker", ticker)
		return []Item{}, nil
	}

	params := url.Values{}
	params.Set("symbol", strings.ToUpper(ticker))
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))
	params.Set("token", c.apiKey)

	body, err := c.http.GetBytes(ctx, c.baseURL+"/company-news?"+params.Encode(), "application/json")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news for %s: %w", ticker, redactToken(err, c.apiKey))
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		c.logger.Warn("Unexpected Finnhub response", "ticker", ticker, "error", err.Error())
		return []Item{}, nil
	}

	items := make([]Item, 0, len(raw))
	for _, msg := range raw {
		item, ok := decodeItem(msg)
		if !ok {
			c.logger.Debug("Skipping malformed news item", "ticker", ticker, "item", string(msg))
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

func decodeItem(msg json.RawMessage) (Item, bool) {
	var r rawItem
	if err := json.Unmarshal(msg, &r); err != nil {
		return Item{}, false
	}
	if r.ID == nil || r.Headline == nil || r.URL == nil || r.Datetime == nil {
		return Item{}, false
	}
	if strings.TrimSpace(*r.Headline) == "" || *r.URL == "" {
		return Item{}, false
	}
	return Item{
		ID:          *r.ID,
		Headline:    strings.TrimSpace(*r.Headline),
		Source:      r.Source,
		URL:         *r.URL,
		PublishedAt: time.Unix(*r.Datetime, 0).UTC(),
	}, true
}

// redactToken keeps the API key out of error strings that end up in sync status
func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), token, "REDACTED"))
}
