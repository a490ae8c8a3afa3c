package llm

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	headlineMaxTokens   = 256
	headlineTemperature = 0.2
	maxPromptChars      = 12000
)

var (
	itemCodeRe = regexp.MustCompile(`(?i)\bitem\s+(\d\.\d{2})\b`)

	preambleRe = regexp.MustCompile(`(?i)^(?:here(?:'s| is) (?:a |an |the )?[^:\n]{0,80}:|` +
		`(?:suggested |generated )?headline:|summary:|sure[,!.]|certainly[,!.])\s*`)
)

var itemDescriptions = map[string]string{
	"1.01": "Entry into a Material Definitive Agreement",
	"1.02": "Termination of a Material Definitive Agreement",
	"1.03": "Bankruptcy or Receivership",
	"2.01": "Completion of Acquisition or Disposition of Assets",
	"2.02": "Results of Operations and Financial Condition",
	"2.03": "Creation of a Direct Financial Obligation",
	"2.05": "Costs Associated with Exit or Disposal Activities",
	"2.06": "Material Impairments",
	"3.01": "Notice of Delisting or Failure to Satisfy a Listing Rule",
	"3.02": "Unregistered Sales of Equity Securities",
	"3.03": "Material Modification to Rights of Security Holders",
	"4.01": "Changes in Registrant's Certifying Accountant",
	"4.02": "Non-Reliance on Previously Issued Financial Statements",
	"5.01": "Changes in Control of Registrant",
	"5.02": "Departure or Election of Directors or Officers",
	"5.03": "Amendments to Articles of Incorporation or Bylaws",
	"5.07": "Submission of Matters to a Vote of Security Holders",
	"7.01": "Regulation FD Disclosure",
	"8.01": "Other Events",
	"9.01": "Financial Statements and Exhibits",
}

// HeadlineGenerator writes one-to-three sentence headlines for filings
type HeadlineGenerator struct {
	completer Completer
}

// NewHeadlineGenerator creates a headline generator
func NewHeadlineGenerator(completer Completer) *HeadlineGenerator {
	return &HeadlineGenerator{completer: completer}
}

// Generate asks the model for a headline. Model errors are returned as is.
func (g *HeadlineGenerator) Generate(ctx context.Context, formType, companyName, text string) (string, error) {
	resp, err := g.completer.Complete(ctx, CompletionRequest{
		Prompt:      BuildHeadlinePrompt(formType, companyName, text),
		MaxTokens:   headlineMaxTokens,
		Temperature: headlineTemperature,
	})
	if err != nil {
		return "", err
	}

	headline := CleanHeadline(resp)
	if headline == "" {
		return "", fmt.Errorf("empty headline for %s %s filing", companyName, formType)
	}
	return headline, nil
}

// BuildHeadlinePrompt selects the instruction template for the form type
func BuildHeadlinePrompt(formType, companyName, text string) string {
	text = truncate(text, maxPromptChars)

	var instructions string
	switch formType {
	case "8-K":
		instructions = eightKInstructions(text)
	case "10-K", "10-Q":
		instructions = `This is a periodic financial report. Lead with revenue and net income (or loss) for the period
and how they changed versus the prior-year period, with exact figures. Mention gross or operating
margin changes and any guidance, going-concern language or major one-time items.`
	case "4":
		instructions = `This is an insider transaction report. Respond with one sentence in exactly this shape:
"<Insider name> (<title>) <bought|sold|was granted|exercised> <number> shares at $<price> per share (~$<total value>)."
Use the transaction table; if several transactions are reported, sum them and give the weighted average price.`
	case "DEF 14A":
		instructions = `This is a proxy statement. Report the CEO's total compensation for the latest fiscal year with the
dollar figure and its change from the prior year, then the most significant items up for a shareholder vote.`
	case "S-1":
		instructions = `This is a registration statement. State the type of offering, the number of shares and the
price range or proceeds sought, the exchange and ticker if given, and the intended use of proceeds.`
	default:
		instructions = `Extract the single most material fact from this filing: what happened, the amounts involved and
the effective dates. Do not describe the form itself.`
	}

	return fmt.Sprintf(`You are summarizing an SEC %s filing from %s.

%s

Write 1-3 sentences in a neutral, factual tone. Be specific about numbers, names and dates.
Respond with ONLY the headline, no other text.

Filing content:
%s`, formType, companyName, instructions, text)
}

func eightKInstructions(text string) string {
	codes := ItemCodes(text)
	var b strings.Builder
	b.WriteString("This is a current report (8-K).")
	if len(codes) > 0 {
		b.WriteString(" It was filed under:")
		for _, code := range codes {
			desc := itemDescriptions[code]
			if desc == "" {
				desc = "Unlisted item"
			}
			fmt.Fprintf(&b, "\n- Item %s: %s", code, desc)
		}
		b.WriteString("\n")
	}
	b.WriteString(` Report the concrete event behind these items: counterparties, dollar amounts, share counts,
names of executives appointed or departing, and effective dates. Ignore Item 9.01 exhibit lists.`)
	return b.String()
}

// ItemCodes returns the distinct 8-K item codes mentioned in text, sorted
func ItemCodes(text string) []string {
	seen := map[string]bool{}
	var codes []string
	for _, m := range itemCodeRe.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			codes = append(codes, m[1])
		}
	}
	sort.Strings(codes)
	return codes
}

// CleanHeadline strips model preambles and wrapping quotes
func CleanHeadline(s string) string {
	s = strings.TrimSpace(s)
	for {
		stripped := strings.TrimSpace(preambleRe.ReplaceAllString(s, ""))
		if stripped == s {
			break
		}
		s = stripped
	}

	for utf8.RuneCountInString(s) >= 2 {
		first, _ := utf8.DecodeRuneInString(s)
		last, _ := utf8.DecodeLastRuneInString(s)
		if !isQuote(first) || !isQuote(last) {
			break
		}
		s = strings.TrimSpace(s[utf8.RuneLen(first) : len(s)-utf8.RuneLen(last)])
	}
	return s
}

func isQuote(r rune) bool {
	switch r {
	case '"', '\'', '“', '”', '‘', '’', '`':
		return true
	}
	return false
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
