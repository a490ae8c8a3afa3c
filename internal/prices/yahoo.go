package prices

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/scraper"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	DefaultPeriod  = "1y"

	// Yahoo rejects requests without a browser-like agent
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	dateLayout = "2006-01-02"
)

// Periods are the accepted history ranges, shortest first
var Periods = []string{"1mo", "3mo", "6mo", "1y", "2y", "5y"}

// ValidPeriod reports whether p is one of Periods
func ValidPeriod(p string) bool {
	for _, v := range Periods {
		if v == p {
			return true
		}
	}
	return false
}

// Candle is one daily OHLCV bar
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// History is a ticker's daily candles, oldest first
type History struct {
	Ticker  string   `json:"ticker"`
	Candles []Candle `json:"candles"`
}

// YahooClient reads daily price history from the Yahoo Finance chart API
type YahooClient struct {
	http    *scraper.Client
	baseURL string
	logger  logger.Logger
}

// NewYahooClient creates a price client on top of a rate-limited upstream client
func NewYahooClient(httpClient *scraper.Client, baseURL string, log logger.Logger) *YahooClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &YahooClient{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History returns daily candles for ticker over period. Unknown tickers and
// empty histories are NotFound.
func (c *YahooClient) History(ctx context.Context, ticker, period string) (*History, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, apperrors.InvalidInput("ticker is required", nil)
	}
	if !ValidPeriod(period) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("period must be one of %s", strings.Join(Periods, ", ")), nil)
	}

	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", period)
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	var resp chartResponse
	if err := c.http.GetJSON(ctx, endpoint, &resp); err != nil {
		var statusErr *scraper.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, apperrors.NotFound("No price data found for "+ticker, err)
		}
		return nil, apperrors.UpstreamError("failed to fetch price data", err)
	}
	if resp.Chart.Error != nil {
		c.logger.Debug("Chart API error", "ticker", ticker, "code", resp.Chart.Error.Code, "description", resp.Chart.Error.Description)
		return nil, apperrors.NotFound("No price data found for "+ticker, nil)
	}

	candles := decodeCandles(resp)
	if len(candles) == 0 {
		return nil, apperrors.NotFound("No price data found for "+ticker, nil)
	}
	return &History{Ticker: ticker, Candles: candles}, nil
}

// decodeCandles drops bars with any missing price, as Yahoo pads halted days with nulls
func decodeCandles(resp chartResponse) []Candle {
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil
	}
	result := resp.Chart.Result[0]
	q := result.Indicators.Quote[0]

	candles := make([]Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		open, ok1 := at(q.Open, i)
		high, ok2 := at(q.High, i)
		low, ok3 := at(q.Low, i)
		closePrice, ok4 := at(q.Close, i)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		var volume int64
		if i < len(q.Volume) && q.Volume[i] != nil {
			volume = *q.Volume[i]
		}
		candles = append(candles, Candle{
			Date:   time.Unix(ts, 0).UTC().Format(dateLayout),
			Open:   round2(open),
			High:   round2(high),
			Low:    round2(low),
			Close:  round2(closePrice),
			Volume: volume,
		})
	}
	return candles
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
