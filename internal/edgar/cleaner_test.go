package edgar

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCleanTextInvariants(t *testing.T) {
	input := strings.Join([]string{
		"Short line",
		"The Company reported revenue of $12.4 million for the quarter.",
		"THE COMPANY REPORTED REVENUE OF $12.4 MILLION FOR THE QUARTER.",
		"us-gaap:Revenues us-gaap:NetIncomeLoss",
		"https://www.sec.gov/Archives/edgar/data/1780312/000178031224000010/",
		"0001780312",
		"2024-03-05",
		"Table of Contents",
		"Management's Discussion and Analysis ........ 34",
		"-----------------------------------",
		"This report contains forward-looking statements within the meaning of the Act.",
		"Pursuant to the requirements of the Securities Exchange Act of 1934, the registrant has filed.",
		"   The board   approved a new   share repurchase program of $50 million.   ",
	}, "\n")

	out := CleanText(input)
	lines := strings.Split(out, "\n")

	seen := map[string]bool{}
	for _, line := range lines {
		assert.GreaterOrEqual(t, utf8.RuneCountInString(line), MinLineLength, "line too short: %q", line)
		key := strings.ToLower(line)
		assert.False(t, seen[key], "duplicate line: %q", line)
		seen[key] = true
	}

	assert.Equal(t, []string{
		"The Company reported revenue of $12.4 million for the quarter.",
		"The board approved a new share repurchase program of $50 million.",
	}, lines)
}

func TestCleanTextSuppressesSkippedSections(t *testing.T) {
	input := strings.Join([]string{
		"Item 1. Business overview and recent developments",
		"We design and build a space-based cellular broadband network.",
		"Item 1A. Risk Factors",
		"Our satellites may fail to reach orbit or operate as designed.",
		"We have a history of losses and may never achieve profitability.",
		"Item 2. Properties and facilities of the company",
		"We lease manufacturing facilities in Midland, Texas.",
		"SIGNATURES",
		"The registrant has caused this report to be signed on its behalf.",
	}, "\n")

	out := CleanText(input)

	assert.Contains(t, out, "space-based cellular broadband network")
	assert.Contains(t, out, "Midland, Texas")
	assert.NotContains(t, out, "fail to reach orbit")
	assert.NotContains(t, out, "history of losses")
	assert.NotContains(t, out, "signed on its behalf")
}

func TestCleanTextDropsTableOfContentsEntries(t *testing.T) {
	out := CleanText("Item 7. Management's Discussion and Analysis 45\nPage 3 of 40\nRevenue increased 35% year over year to $1.2 billion.")
	assert.Equal(t, "Revenue increased 35% year over year to $1.2 billion.", out)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "abc", truncateRunes("abc", 10))
	assert.Equal(t, "abc", truncateRunes("abc", 0))
}
