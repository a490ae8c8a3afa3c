package edgar

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/scraper"
)

const (
	// MinPrimaryTextLength is the cleaned length below which the press-release exhibit is pulled in
	MinPrimaryTextLength = 1000
	DefaultMaxChars      = 15000
)

const (
	blockSelector = "p, div, li, tr, table, section, article, h1, h2, h3, h4, h5, h6, blockquote, pre, center"
	cellSelector  = "td, th"
	noiseSelector = "script, style, head, title, noscript, [style*='display:none'], [style*='display: none']"
)

// xbrlViewerPage matches the R1.htm, R2.htm ... pages EDGAR renders from XBRL
var xbrlViewerPage = regexp.MustCompile(`^r\d+\.html?$`)

// Extractor turns filing documents into cleaned plain text
type Extractor struct {
	http   *scraper.Client
	logger logger.Logger
}

// NewExtractor creates a document text extractor
func NewExtractor(httpClient *scraper.Client, log logger.Logger) *Extractor {
	return &Extractor{http: httpClient, logger: log}
}

// Extract fetches a filing document and returns at most maxChars runes of cleaned
// text. Short documents get their EX-99 exhibit appended when one can be found.
func (e *Extractor) Extract(ctx context.Context, documentURL string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	body, err := e.http.GetBytes(ctx, documentURL, "")
	if err != nil {
		return "", fmt.Errorf("failed to fetch filing document: %w", err)
	}

	raw, err := HTMLToText(body)
	if err != nil {
		return "", err
	}
	text := CleanText(raw)

	if utf8.RuneCountInString(text) < MinPrimaryTextLength {
		if exhibit := e.exhibitText(ctx, documentURL); exhibit != "" {
			if text == "" {
				text = exhibit
			} else {
				text = text + "\n\n" + exhibit
			}
		}
	}

	return truncateRunes(text, maxChars), nil
}

// exhibitText finds the first press-release exhibit in the filing directory.
// Any failure yields "".
func (e *Extractor) exhibitText(ctx context.Context, documentURL string) string {
	exhibitURL, err := e.findExhibit(ctx, documentURL)
	if err != nil {
		e.logger.Debug("Exhibit lookup failed", "document_url", documentURL, "error", err.Error())
		return ""
	}
	if exhibitURL == "" {
		return ""
	}

	body, err := e.http.GetBytes(ctx, exhibitURL, "")
	if err != nil {
		e.logger.Debug("Exhibit fetch failed", "exhibit_url", exhibitURL, "error", err.Error())
		return ""
	}
	raw, err := HTMLToText(body)
	if err != nil {
		e.logger.Debug("Exhibit parse failed", "exhibit_url", exhibitURL, "error", err.Error())
		return ""
	}
	return CleanText(raw)
}

func (e *Extractor) findExhibit(ctx context.Context, documentURL string) (string, error) {
	doc, err := url.Parse(documentURL)
	if err != nil {
		return "", err
	}
	primary := path.Base(doc.Path)

	dir := *doc
	dir.Path = doc.Path[:strings.LastIndex(doc.Path, "/")+1]
	dir.RawQuery = ""
	dir.Fragment = ""

	listing, err := e.http.GetDocument(ctx, dir.String())
	if err != nil {
		return "", err
	}

	var found string
	listing.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if candidate, ok := exhibitCandidate(&dir, href, primary); ok {
			found = candidate
			return false
		}
		return true
	})
	return found, nil
}

// exhibitCandidate reports whether href names an EX-99 document inside dir.
// Only the file name is matched; the CIK and accession directories can contain "99" too.
func exhibitCandidate(dir *url.URL, href, primary string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := dir.ResolveReference(ref)
	if resolved.Host != dir.Host || !strings.HasPrefix(resolved.Path, dir.Path) {
		return "", false
	}

	name := path.Base(resolved.Path)
	if name == primary {
		return "", false
	}
	lower := strings.ToLower(name)
	if !strings.Contains(lower, "99") || strings.Contains(lower, "index") || xbrlViewerPage.MatchString(lower) {
		return "", false
	}
	if !strings.HasSuffix(lower, ".htm") && !strings.HasSuffix(lower, ".html") {
		return "", false
	}
	return resolved.String(), true
}

// HTMLToText drops non-content markup and renders one line per block element
func HTMLToText(body []byte) (string, error) {
	doc, err := scraper.ParseDocument(body)
	if err != nil {
		return "", err
	}

	doc.Find(noiseSelector).Remove()
	doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		name := goquery.NodeName(s)
		return name == "ix:header" || name == "ix:hidden"
	}).Remove()

	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n")
		s.AppendHtml("\n")
	})
	doc.Find(cellSelector).AppendHtml(" ")

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return root.Text(), nil
}
