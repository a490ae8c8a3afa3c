package edgar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/scraper"
)

const (
	DefaultDirectoryTTL = 24 * time.Hour
	defaultSearchLimit  = 10
)

// ErrTickerNotFound is returned by Lookup when no entry has the exact ticker
var ErrTickerNotFound = errors.New("ticker not found in SEC directory")

// CompanyEntry is one row of the SEC ticker directory
type CompanyEntry struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	CIK    string `json:"cik"`
}

// tickerIndex is immutable once built
type tickerIndex struct {
	entries  []CompanyEntry
	byTicker map[string]int
	loadedAt time.Time
}

// Directory is the process-wide ticker to CIK directory. Readers always see a
// complete index; a refresh builds a new one and swaps it in.
type Directory struct {
	http   *scraper.Client
	url    string
	ttl    time.Duration
	logger logger.Logger

	index     atomic.Pointer[tickerIndex]
	refreshMu sync.Mutex
	now       func() time.Time
}

// NewDirectory creates a directory that loads on first use
func NewDirectory(httpClient *scraper.Client, cfg Config, ttl time.Duration, log logger.Logger) *Directory {
	if ttl <= 0 {
		ttl = DefaultDirectoryTTL
	}
	return &Directory{
		http:   httpClient,
		url:    cfg.withDefaults().TickersURL,
		ttl:    ttl,
		logger: log,
		now:    time.Now,
	}
}

// Search ranks exact ticker matches, then ticker prefixes, then name substrings
func (d *Directory) Search(ctx context.Context, query string, limit int) ([]CompanyEntry, error) {
	idx, err := d.current(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return []CompanyEntry{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results := make([]CompanyEntry, 0, limit)
	used := make(map[int]bool)
	tiers := []func(e CompanyEntry) bool{
		func(e CompanyEntry) bool { return e.Ticker == q },
		func(e CompanyEntry) bool { return strings.HasPrefix(e.Ticker, q) },
		func(e CompanyEntry) bool { return strings.Contains(strings.ToUpper(e.Name), q) },
	}
	for _, match := range tiers {
		for i, e := range idx.entries {
			if len(results) == limit {
				return results, nil
			}
			if used[i] || !match(e) {
				continue
			}
			used[i] = true
			results = append(results, e)
		}
	}

	return results, nil
}

// Lookup returns the entry with exactly this ticker
func (d *Directory) Lookup(ctx context.Context, ticker string) (CompanyEntry, error) {
	idx, err := d.current(ctx)
	if err != nil {
		return CompanyEntry{}, err
	}

	i, ok := idx.byTicker[strings.ToUpper(strings.TrimSpace(ticker))]
	if !ok {
		return CompanyEntry{}, ErrTickerNotFound
	}
	return idx.entries[i], nil
}

// AsOf reports when the served index was loaded; zero before the first load
func (d *Directory) AsOf() time.Time {
	if idx := d.index.Load(); idx != nil {
		return idx.loadedAt
	}
	return time.Time{}
}

// current returns a fresh index, loading or refreshing it when needed.
// A failed refresh keeps serving the stale index.
func (d *Directory) current(ctx context.Context) (*tickerIndex, error) {
	if idx := d.index.Load(); idx != nil && d.now().Sub(idx.loadedAt) < d.ttl {
		return idx, nil
	}

	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()

	// another caller may have refreshed while we waited
	stale := d.index.Load()
	if stale != nil && d.now().Sub(stale.loadedAt) < d.ttl {
		return stale, nil
	}

	fresh, err := d.load(ctx)
	if err != nil {
		if stale != nil {
			d.logger.Warn("Ticker directory refresh failed, serving stale index",
				"error", err.Error(), "loaded_at", stale.loadedAt)
			return stale, nil
		}
		return nil, err
	}

	d.index.Store(fresh)
	d.logger.Info("Ticker directory loaded", "entries", len(fresh.entries))
	return fresh, nil
}

type tickerFileEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

func (d *Directory) load(ctx context.Context) (*tickerIndex, error) {
	var raw map[string]tickerFileEntry
	if err := d.http.GetJSON(ctx, d.url, &raw); err != nil {
		return nil, fmt.Errorf("failed to load ticker directory: %w", err)
	}

	// the file is an object keyed "0", "1", ...; that numeric order is the source order
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})

	idx := &tickerIndex{
		entries:  make([]CompanyEntry, 0, len(keys)),
		byTicker: make(map[string]int, len(keys)),
		loadedAt: d.now(),
	}
	for _, k := range keys {
		e := raw[k]
		ticker := strings.ToUpper(strings.TrimSpace(e.Ticker))
		if ticker == "" {
			continue
		}
		idx.entries = append(idx.entries, CompanyEntry{
			Ticker: ticker,
			Name:   e.Title,
			CIK:    strconv.FormatInt(e.CIK, 10),
		})
		if _, dup := idx.byTicker[ticker]; !dup {
			idx.byTicker[ticker] = len(idx.entries) - 1
		}
	}

	return idx, nil
}
