package edgar

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinLineLength is the shortest line CleanText keeps
const MinLineLength = 20

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	// a new Item/Part heading ends a suppressed section
	sectionHeadingRe = regexp.MustCompile(`(?i)^(?:item\s+\d+(?:\.\d+)?[a-z]?|part\s+(?:[ivx]+|\d+))\b`)

	skipHeadingRe = regexp.MustCompile(`(?i)^(?:(?:item\s+\d+(?:\.\d+)?[a-z]?|part\s+(?:[ivx]+|\d+))[.:\-]?\s*)?` +
		`(?:risk factors|forward[- ]looking statements|cautionary (?:note|statement)s?(?: regarding forward[- ]looking statements)?|` +
		`signatures?|exhibit index|index to exhibits|financial statements and exhibits|legal proceedings|mine safety disclosures)\.?$`)

	xbrlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(?:[a-z][a-z0-9-]*:[A-Za-z][\w.-]*\s*)+$`), // us-gaap:Revenues dei:EntityCentralIndexKey
		regexp.MustCompile(`(?i)^(?:https?://|www\.)\S+$`),
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		regexp.MustCompile(`^--\d{2}-\d{2}$`),
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}$`),
		regexp.MustCompile(`^0\d+$`),
		regexp.MustCompile(`(?i)^(?:true|false|iso4217:\w+|xbrli:\w+)$`),
	}

	boilerplateRe = regexp.MustCompile(`(?i)forward[- ]looking statements?|pursuant to|safe harbor|` +
		`private securities litigation reform act|undertakes no obligation|incorporated (?:herein )?by reference|` +
		`indicate by check mark|check the appropriate box|duly caused this report|duly authorized`)

	tocPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^table of contents$`),
		regexp.MustCompile(`\.{4,}|(?:\.\s){4,}`),
		regexp.MustCompile(`(?i)^page\s+\d+(?:\s+of\s+\d+)?$`),
		regexp.MustCompile(`(?i)^(?:item|part)\s.{0,80}\s\d{1,3}$`),
	}

	punctuationOnlyRe = regexp.MustCompile(`^[\p{P}\p{S}\s]+$`)
)

// CleanText strips noise from extracted filing text. Every output line is at
// least MinLineLength runes and no two lines are equal ignoring case.
func CleanText(text string) string {
	var out []string
	seen := make(map[string]bool)
	skipping := false

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(whitespaceRe.ReplaceAllString(raw, " "))
		if line == "" {
			continue
		}

		// headings are often short, so look at them before the length filter
		if skipHeadingRe.MatchString(line) {
			skipping = true
			continue
		}
		if sectionHeadingRe.MatchString(line) {
			skipping = false
		}
		if skipping {
			continue
		}

		if utf8.RuneCountInString(line) < MinLineLength {
			continue
		}
		if isXBRL(line) || boilerplateRe.MatchString(line) || isTOC(line) || punctuationOnlyRe.MatchString(line) {
			continue
		}

		key := strings.ToLower(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, line)
	}

	return strings.Join(out, "\n")
}

func isXBRL(line string) bool {
	for _, re := range xbrlPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func isTOC(line string) bool {
	for _, re := range tocPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// truncateRunes cuts s to at most max runes
func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
