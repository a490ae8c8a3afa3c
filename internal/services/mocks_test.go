package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/stockdd-timeline/internal/edgar"
	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/llm"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/models"
	"github.com/ajharbinger/stockdd-timeline/internal/news"
	"github.com/ajharbinger/stockdd-timeline/internal/repository"
)

// memStore backs the mock repositories
type memStore struct {
	mu           sync.Mutex
	companies    []models.Company
	filings      []models.Filing
	releases     []models.PressRelease
	compensation []models.ExecutiveCompensation

	listErr        error
	failCompCreate int // fail the Nth compensation insert (1-based), 0 disables
	compCreates    int
}

func newMemStore() *memStore {
	return &memStore{}
}

func (s *memStore) addCompany(ticker, name, cik string) models.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := models.Company{ID: uuid.New(), Ticker: ticker, Name: name, CIK: cik, CreatedAt: time.Now()}
	s.companies = append(s.companies, c)
	return c
}

func (s *memStore) filingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filings)
}

func (s *memStore) filingByAccession(acc string) (models.Filing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.filings {
		if f.AccessionNumber == acc {
			return f, true
		}
	}
	return models.Filing{}, false
}

func (s *memStore) compensationRows() []models.ExecutiveCompensation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ExecutiveCompensation{}, s.compensation...)
}

func (s *memStore) repositories() *repository.Repositories {
	repos := &repository.Repositories{
		Company:      &mockCompanyRepository{s},
		Filing:       &mockFilingRepository{s},
		PressRelease: &mockPressReleaseRepository{s},
		Compensation: &mockCompensationRepository{s},
	}
	repos.Tx = &mockTransactionManager{store: s, repos: repos}
	return repos
}

func (s *memStore) companyByID(id uuid.UUID) models.Company {
	for _, c := range s.companies {
		if c.ID == id {
			return c
		}
	}
	return models.Company{}
}

// MockCompanyRepository

type mockCompanyRepository struct{ s *memStore }

func (m *mockCompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range m.s.companies {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("company not found", nil)
}

func (m *mockCompanyRepository) GetByTicker(ctx context.Context, ticker string) (*models.Company, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range m.s.companies {
		if c.Ticker == strings.ToUpper(ticker) {
			c := c
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("company not found", nil)
}

func (m *mockCompanyRepository) List(ctx context.Context) ([]models.Company, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.listErr != nil {
		return nil, m.s.listErr
	}
	out := append([]models.Company{}, m.s.companies...)
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (m *mockCompanyRepository) Create(ctx context.Context, company *models.Company) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range m.s.companies {
		if c.Ticker == company.Ticker {
			return apperrors.Conflict("company already tracked", nil)
		}
	}
	company.ID = uuid.New()
	company.CreatedAt = time.Now()
	m.s.companies = append(m.s.companies, *company)
	return nil
}

func (m *mockCompanyRepository) DeleteByTicker(ctx context.Context, ticker string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for i, c := range m.s.companies {
		if c.Ticker == strings.ToUpper(ticker) {
			m.s.companies = append(m.s.companies[:i], m.s.companies[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("company not found", nil)
}

// MockFilingRepository

type mockFilingRepository struct{ s *memStore }

func (m *mockFilingRepository) withCompany(f models.Filing) models.FilingWithCompany {
	c := m.s.companyByID(f.CompanyID)
	return models.FilingWithCompany{Filing: f, Ticker: c.Ticker, CompanyName: c.Name}
}

func (m *mockFilingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FilingWithCompany, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, f := range m.s.filings {
		if f.ID == id {
			fw := m.withCompany(f)
			return &fw, nil
		}
	}
	return nil, apperrors.NotFound("filing not found", nil)
}

func (m *mockFilingRepository) GetByAccession(ctx context.Context, acc string) (*models.Filing, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, f := range m.s.filings {
		if f.AccessionNumber == acc {
			f := f
			return &f, nil
		}
	}
	return nil, apperrors.NotFound("filing not found", nil)
}

func (m *mockFilingRepository) ExistsByAccession(ctx context.Context, acc string) (bool, error) {
	_, ok := m.s.filingByAccession(acc)
	return ok, nil
}

func (m *mockFilingRepository) Create(ctx context.Context, filing *models.Filing) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, f := range m.s.filings {
		if f.AccessionNumber == filing.AccessionNumber {
			return false, nil
		}
	}
	if filing.ID == uuid.Nil {
		filing.ID = uuid.New()
	}
	filing.CreatedAt = time.Now()
	m.s.filings = append(m.s.filings, *filing)
	return true, nil
}

func (m *mockFilingRepository) UpdateHeadline(ctx context.Context, id uuid.UUID, headline string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for i := range m.s.filings {
		if m.s.filings[i].ID == id {
			m.s.filings[i].Headline = &headline
			return nil
		}
	}
	return apperrors.NotFound("filing not found", nil)
}

func (m *mockFilingRepository) Timeline(ctx context.Context, filters repository.TimelineFilters) ([]models.FilingWithCompany, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []models.FilingWithCompany
	for _, f := range m.s.filings {
		fw := m.withCompany(f)
		if filters.Ticker != "" && fw.Ticker != filters.Ticker {
			continue
		}
		if filters.FormType != "" && f.FormType != filters.FormType {
			continue
		}
		out = append(out, fw)
	}
	return out, len(out), nil
}

func (m *mockFilingRepository) LatestByFormType(ctx context.Context, companyID uuid.UUID, formType string) (*models.Filing, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var latest *models.Filing
	for i := range m.s.filings {
		f := m.s.filings[i]
		if f.CompanyID == companyID && f.FormType == formType && (latest == nil || f.FiledDate.After(latest.FiledDate)) {
			latest = &f
		}
	}
	if latest == nil {
		return nil, apperrors.NotFound("filing not found", nil)
	}
	return latest, nil
}

func (m *mockFilingRepository) ListMissingHeadline(ctx context.Context, ticker string, limit int) ([]models.FilingWithCompany, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []models.FilingWithCompany
	for _, f := range m.s.filings {
		fw := m.withCompany(f)
		if f.Headline != nil || f.FormType == models.FormType4 || (ticker != "" && fw.Ticker != ticker) {
			continue
		}
		out = append(out, fw)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// MockPressReleaseRepository

type mockPressReleaseRepository struct{ s *memStore }

func (m *mockPressReleaseRepository) ExistsByFinnhubID(ctx context.Context, id int64) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.releases {
		if p.FinnhubID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPressReleaseRepository) Create(ctx context.Context, release *models.PressRelease) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.releases {
		if p.FinnhubID == release.FinnhubID {
			return false, nil
		}
	}
	release.ID = uuid.New()
	m.s.releases = append(m.s.releases, *release)
	return true, nil
}

func (m *mockPressReleaseRepository) List(ctx context.Context, filters repository.PressReleaseFilters) ([]models.PressRelease, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return append([]models.PressRelease{}, m.s.releases...), nil
}

// MockCompensationRepository

type mockCompensationRepository struct{ s *memStore }

func (m *mockCompensationRepository) ExistsForCompany(ctx context.Context, companyID uuid.UUID) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.compensation {
		if r.CompanyID == companyID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCompensationRepository) Create(ctx context.Context, row *models.ExecutiveCompensation) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.compCreates++
	if m.s.failCompCreate > 0 && m.s.compCreates == m.s.failCompCreate {
		return apperrors.DatabaseError("failed to create compensation row", nil)
	}
	row.ID = uuid.New()
	m.s.compensation = append(m.s.compensation, *row)
	return nil
}

func (m *mockCompensationRepository) ListLatest(ctx context.Context, ticker string) ([]models.CompensationView, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []models.CompensationView
	for _, r := range m.s.compensation {
		c := m.s.companyByID(r.CompanyID)
		if ticker != "" && c.Ticker != ticker {
			continue
		}
		out = append(out, models.CompensationView{ExecutiveCompensation: r, Ticker: c.Ticker, CompanyName: c.Name})
	}
	return out, nil
}

// mockTransactionManager discards compensation rows written by a failed transaction
type mockTransactionManager struct {
	store *memStore
	repos *repository.Repositories
}

func (m *mockTransactionManager) WithTransaction(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	m.store.mu.Lock()
	mark := len(m.store.compensation)
	m.store.mu.Unlock()

	if err := fn(m.repos); err != nil {
		m.store.mu.Lock()
		m.store.compensation = m.store.compensation[:mark]
		m.store.mu.Unlock()
		return err
	}
	return nil
}

// mockFilingSource serves canned EDGAR filings per CIK
type mockFilingSource struct {
	mu      sync.Mutex
	filings map[string][]edgar.Filing
	errs    map[string]error
	block   chan struct{} // when set, calls wait for it to close
	calls   int
	panics  string // when set, calls panic with it
}

func newMockFilingSource() *mockFilingSource {
	return &mockFilingSource{filings: map[string][]edgar.Filing{}, errs: map[string]error{}}
}

func (m *mockFilingSource) GetCompanyFilings(ctx context.Context, cik string, query edgar.FilingQuery) ([]edgar.Filing, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.panics != "" {
		panic(m.panics)
	}
	if err := m.errs[cik]; err != nil {
		return nil, err
	}

	allowed := map[string]bool{}
	for _, ft := range query.FormTypes {
		allowed[ft] = true
	}
	var out []edgar.Filing
	for _, f := range m.filings[cik] {
		if len(allowed) > 0 && !allowed[f.FormType] {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

type mockDirectory struct {
	entries map[string]edgar.CompanyEntry
	err     error
}

func (m *mockDirectory) Search(ctx context.Context, query string, limit int) ([]edgar.CompanyEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []edgar.CompanyEntry{}
	for t, e := range m.entries {
		if strings.HasPrefix(t, strings.ToUpper(query)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockDirectory) Lookup(ctx context.Context, ticker string) (edgar.CompanyEntry, error) {
	if m.err != nil {
		return edgar.CompanyEntry{}, m.err
	}
	e, ok := m.entries[strings.ToUpper(ticker)]
	if !ok {
		return edgar.CompanyEntry{}, edgar.ErrTickerNotFound
	}
	return e, nil
}

type mockNewsSource struct {
	items map[string][]news.Item
	err   error
}

func (m *mockNewsSource) CompanyNews(ctx context.Context, ticker string, from, to time.Time) ([]news.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.items[ticker], nil
}

type mockExtractor struct {
	text  string
	err   error
	mu    sync.Mutex
	calls int
}

func (m *mockExtractor) Extract(ctx context.Context, url string, maxChars int) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.text, m.err
}

// mockHeadlines fails the first failures calls, then answers with headline
type mockHeadlines struct {
	mu       sync.Mutex
	failures int
	err      error
	headline string
	calls    int
	forms    []string
}

func (m *mockHeadlines) Generate(ctx context.Context, formType, companyName, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.forms = append(m.forms, formType)
	if m.calls <= m.failures {
		return "", m.err
	}
	return m.headline, nil
}

func (m *mockHeadlines) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockCompensationParser struct {
	entries []llm.CompensationEntry
	err     error
	calls   int
}

func (m *mockCompensationParser) Extract(ctx context.Context, companyName, text string) ([]llm.CompensationEntry, error) {
	m.calls++
	return m.entries, m.err
}

// testDeps wires the mocks with no LLM configured
func testDeps(store *memStore, filings *mockFilingSource) Dependencies {
	return Dependencies{
		Repos:     store.repositories(),
		Filings:   filings,
		Directory: &mockDirectory{entries: map[string]edgar.CompanyEntry{}},
		News:      &mockNewsSource{items: map[string][]news.Item{}},
		Extractor: &mockExtractor{text: "document text"},
		Logger:    logger.NewNop(),
	}
}

// testSyncConfig keeps the production windows but drops every pause
func testSyncConfig() SyncConfig {
	cfg := DefaultSyncConfig()
	cfg.SummaryBackoff = 0
	cfg.FilingDelay = 0
	cfg.CompanyDelay = 0
	cfg.NewsDelay = 0
	cfg.CompensationDelay = 0
	return cfg
}

func testCompensationConfig() CompensationConfig {
	cfg := DefaultCompensationConfig()
	cfg.FetchDelay = 0
	cfg.ExtractDelay = 0
	return cfg
}

func edgarFiling(acc, form string, filed time.Time) edgar.Filing {
	return edgar.Filing{
		AccessionNumber: acc,
		FormType:        form,
		FiledDate:       filed,
		DocumentURL:     "https://www.sec.gov/Archives/edgar/data/1/" + strings.ReplaceAll(acc, "-", "") + "/doc.htm",
	}
}

func strPtr(s string) *string { return &s }

func amountPtr(f float64) *llm.Amount {
	a := llm.Amount(f)
	return &a
}

func intPtr(i int) *int { return &i }
