package edgar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ajharbinger/stockdd-timeline/internal/scraper"
)

const (
	DefaultSubmissionsBaseURL = "https://data.sec.gov/submissions"
	DefaultArchivesBaseURL    = "https://www.sec.gov/Archives/edgar/data"
	DefaultTickersURL         = "https://www.sec.gov/files/company_tickers.json"

	defaultFilingLimit = 50
	filedDateLayout    = "2006-01-02"
)

// Config holds the EDGAR endpoints; tests point them at httptest servers
type Config struct {
	SubmissionsBaseURL string
	ArchivesBaseURL    string
	TickersURL         string
}

func (c Config) withDefaults() Config {
	if c.SubmissionsBaseURL == "" {
		c.SubmissionsBaseURL = DefaultSubmissionsBaseURL
	}
	if c.ArchivesBaseURL == "" {
		c.ArchivesBaseURL = DefaultArchivesBaseURL
	}
	if c.TickersURL == "" {
		c.TickersURL = DefaultTickersURL
	}
	c.SubmissionsBaseURL = strings.TrimRight(c.SubmissionsBaseURL, "/")
	c.ArchivesBaseURL = strings.TrimRight(c.ArchivesBaseURL, "/")
	return c
}

// Filing is one entry of a company's EDGAR submission history
type Filing struct {
	AccessionNumber string
	FormType        string
	FiledDate       time.Time
	DocumentURL     string
	PrimaryDocument string
	Description     string
}

// FilingQuery narrows GetCompanyFilings. An empty FormTypes accepts every form.
type FilingQuery struct {
	FormTypes []string
	Limit     int
	Since     *time.Time
}

// Client reads company submissions from SEC EDGAR
type Client struct {
	http   *scraper.Client
	config Config
}

// NewClient creates an EDGAR client on top of a rate-limited upstream client
func NewClient(httpClient *scraper.Client, cfg Config) *Client {
	return &Client{http: httpClient, config: cfg.withDefaults()}
}

type submissionsResponse struct {
	Name    string `json:"name"`
	Filings struct {
		Recent recentFilings `json:"recent"`
	} `json:"filings"`
}

// recentFilings is EDGAR's column-oriented layout: index i of each slice describes filing i
type recentFilings struct {
	AccessionNumber       []string `json:"accessionNumber"`
	FilingDate            []string `json:"filingDate"`
	Form                  []string `json:"form"`
	PrimaryDocument       []string `json:"primaryDocument"`
	PrimaryDocDescription []string `json:"primaryDocDescription"`
}

// GetCompanyFilings returns the company's filings newest first, as EDGAR lists them.
// At most 2*limit raw entries are scanned.
func (c *Client) GetCompanyFilings(ctx context.Context, cik string, query FilingQuery) ([]Filing, error) {
	padded, err := PadCIK(cik)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/CIK%s.json", c.config.SubmissionsBaseURL, padded)
	var resp submissionsResponse
	if err := c.http.GetJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch submissions for CIK %s: %w", padded, err)
	}

	return c.selectFilings(strings.TrimLeft(padded, "0"), resp.Filings.Recent, query), nil
}

func (c *Client) selectFilings(cik string, recent recentFilings, query FilingQuery) []Filing {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultFilingLimit
	}

	var allowed map[string]bool
	if len(query.FormTypes) > 0 {
		allowed = make(map[string]bool, len(query.FormTypes))
		for _, f := range query.FormTypes {
			allowed[f] = true
		}
	}

	scan := len(recent.AccessionNumber)
	if scan > 2*limit {
		scan = 2 * limit
	}

	seen := make(map[string]bool)
	filings := make([]Filing, 0, limit)
	for i := 0; i < scan && len(filings) < limit; i++ {
		accession := recent.AccessionNumber[i]
		form := at(recent.Form, i)
		if accession == "" || seen[accession] {
			continue
		}
		if allowed != nil && !allowed[form] {
			continue
		}

		filed, err := time.Parse(filedDateLayout, at(recent.FilingDate, i))
		if err != nil {
			continue
		}
		if query.Since != nil && filed.Before(*query.Since) {
			continue
		}

		primary := at(recent.PrimaryDocument, i)
		seen[accession] = true
		filings = append(filings, Filing{
			AccessionNumber: accession,
			FormType:        form,
			FiledDate:       filed,
			DocumentURL:     c.DocumentURL(cik, accession, primary),
			PrimaryDocument: primary,
			Description:     at(recent.PrimaryDocDescription, i),
		})
	}

	return filings
}

// DocumentURL builds the archive URL of a filing document
func (c *Client) DocumentURL(cik, accessionNumber, document string) string {
	cik = strings.TrimLeft(cik, "0")
	return fmt.Sprintf("%s/%s/%s/%s", c.config.ArchivesBaseURL, cik,
		strings.ReplaceAll(accessionNumber, "-", ""), document)
}

// PadCIK zero-pads a CIK to the 10 digits EDGAR expects
func PadCIK(cik string) (string, error) {
	cik = strings.TrimSpace(cik)
	if cik == "" || len(cik) > 10 {
		return "", fmt.Errorf("invalid CIK %q", cik)
	}
	for _, r := range cik {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("invalid CIK %q", cik)
		}
	}
	return strings.Repeat("0", 10-len(cik)) + cik, nil
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
