package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/stockdd-timeline/internal/logger"
)

type fakeCompleter struct {
	response string
	err      error
	requests []CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.requests = append(f.requests, req)
	return f.response, f.err
}

func TestGenerateCleansResponseAndUsesLowTemperature(t *testing.T) {
	fake := &fakeCompleter{response: `Here is a headline for the filing: "AST SpaceMobile closes $206.5M strategic financing to fund BlueBird launches."`}
	gen := NewHeadlineGenerator(fake)

	headline, err := gen.Generate(context.Background(), "8-K", "AST SpaceMobile, Inc.", "Item 1.01 Entry into a Material Definitive Agreement")
	require.NoError(t, err)

	assert.Equal(t, "AST SpaceMobile closes $206.5M strategic financing to fund BlueBird launches.", headline)
	require.Len(t, fake.requests, 1)
	assert.Equal(t, 0.2, fake.requests[0].Temperature)
	assert.Equal(t, int64(256), fake.requests[0].MaxTokens)
}

func TestGeneratePropagatesModelErrors(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("429 rate_limit_error")}
	gen := NewHeadlineGenerator(fake)

	_, err := gen.Generate(context.Background(), "10-Q", "Tesla, Inc.", "text")
	require.Error(t, err)
	assert.Equal(t, "429 rate_limit_error", err.Error())
	assert.Len(t, fake.requests, 1)
}

func TestBuildHeadlinePromptPerFormType(t *testing.T) {
	eightK := BuildHeadlinePrompt("8-K", "Tesla, Inc.", "Item 5.02 Departure of Directors. Item 9.01 Financial Statements and Exhibits. Item 5.02 again")
	assert.Contains(t, eightK, "Item 5.02: Departure or Election of Directors or Officers")
	assert.Contains(t, eightK, "Item 9.01: Financial Statements and Exhibits")
	assert.Equal(t, 1, strings.Count(eightK, "- Item 5.02"))

	assert.Contains(t, BuildHeadlinePrompt("10-K", "Tesla, Inc.", "x"), "revenue and net income")
	assert.Contains(t, BuildHeadlinePrompt("10-Q", "Tesla, Inc.", "x"), "revenue and net income")
	assert.Contains(t, BuildHeadlinePrompt("4", "Tesla, Inc.", "x"), "shares at $<price>")
	assert.Contains(t, BuildHeadlinePrompt("DEF 14A", "Tesla, Inc.", "x"), "total compensation")
	assert.Contains(t, BuildHeadlinePrompt("SC 13G", "Tesla, Inc.", "x"), "single most material fact")
}

func TestItemCodes(t *testing.T) {
	assert.Equal(t, []string{"2.02", "7.01", "9.01"}, ItemCodes("ITEM 7.01 Regulation FD. Item 2.02 Results. item 9.01 Exhibits. Item 2.02"))
	assert.Empty(t, ItemCodes("no items here"))
}

func TestCleanHeadline(t *testing.T) {
	cases := map[string]string{
		`"Tesla delivers 484,507 vehicles in Q4."`:         "Tesla delivers 484,507 vehicles in Q4.",
		"Headline: Palantir raises FY guidance to $2.7B.": "Palantir raises FY guidance to $2.7B.",
		"Sure! Here's the headline: “IREN adds 10 EH/s.”":  "IREN adds 10 EH/s.",
		"Surety bonds of $5M were posted.":                 "Surety bonds of $5M were posted.",
		`"`:                                                `"`,
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanHeadline(in), in)
	}
}

func TestCompensationExtractorRepairsAndValidates(t *testing.T) {
	fake := &fakeCompleter{response: `[{'name': 'Abel Avellan', 'position': 'Chairman and CEO', 'fiscal_year': 2023, 'salary': '$650,000', 'total_compensation': 1200000,},
{'name': '', 'salary': 1},
{'name': 'Sean Wallace', 'fiscal_year': 2023, 'salary': -5}]`}
	extractor := NewCompensationExtractor(fake, logger.NewNop())

	entries, err := extractor.Extract(context.Background(), "AST SpaceMobile, Inc.", "Summary Compensation Table ...")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "Abel Avellan", e.Name)
	require.NotNil(t, e.Salary)
	assert.Equal(t, Amount(650000), *e.Salary)
	require.NotNil(t, e.FiscalYear)
	assert.Equal(t, 2023, *e.FiscalYear)
	assert.Nil(t, e.Bonus)
}

func TestParseCompensationJSONStripsSurroundingText(t *testing.T) {
	entries, err := ParseCompensationJSON("Here is the table:\n[{\"name\": \"Alex Karp\", \"total_compensation\": null}]\nLet me know.")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].TotalCompensation)
}

func TestCompensationSection(t *testing.T) {
	text := "Proposal 1 election of directors\nSummary Compensation Table\nAbel Avellan 2023 650,000"
	assert.True(t, strings.HasPrefix(CompensationSection(text, 100), "Summary Compensation Table"))
	assert.Equal(t, "Propo", CompensationSection("Proposal only", 5))
}
