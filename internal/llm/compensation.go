package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/go-playground/validator/v10"

	"github.com/ajharbinger/stockdd-timeline/internal/logger"
)

const (
	compensationMaxTokens   = 2048
	compensationTemperature = 0.1
	sectionMarker           = "summary compensation table"
)

// Amount accepts JSON numbers as well as strings like "$1,250,000"
type Amount float64

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
		if s == "" || s == "-" || strings.EqualFold(s, "n/a") {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", s)
		}
		*a = Amount(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

// CompensationEntry is one executive row as returned by the model
type CompensationEntry struct {
	Name              string  `json:"name" validate:"required,max=200"`
	Position          *string `json:"position" validate:"omitempty,max=300"`
	FiscalYear        *int    `json:"fiscal_year" validate:"omitempty,gte=1990,lte=2100"`
	Salary            *Amount `json:"salary" validate:"omitempty,gte=0"`
	Bonus             *Amount `json:"bonus" validate:"omitempty,gte=0"`
	StockAwards       *Amount `json:"stock_awards" validate:"omitempty,gte=0"`
	OptionAwards      *Amount `json:"option_awards" validate:"omitempty,gte=0"`
	OtherCompensation *Amount `json:"other_compensation" validate:"omitempty,gte=0"`
	TotalCompensation *Amount `json:"total_compensation" validate:"omitempty,gte=0"`
}

// CompensationExtractor pulls the summary compensation table out of proxy statement text
type CompensationExtractor struct {
	completer Completer
	validate  *validator.Validate
	logger    logger.Logger
}

// NewCompensationExtractor creates a compensation extractor
func NewCompensationExtractor(completer Completer, log logger.Logger) *CompensationExtractor {
	return &CompensationExtractor{
		completer: completer,
		validate:  validator.New(),
		logger:    log,
	}
}

// Extract returns the valid rows of the latest fiscal year. Rows failing
// validation are dropped individually.
func (e *CompensationExtractor) Extract(ctx context.Context, companyName, text string) ([]CompensationEntry, error) {
	resp, err := e.completer.Complete(ctx, CompletionRequest{
		Prompt:      buildCompensationPrompt(companyName, text),
		MaxTokens:   compensationMaxTokens,
		Temperature: compensationTemperature,
	})
	if err != nil {
		return nil, err
	}

	raw, err := ParseCompensationJSON(resp)
	if err != nil {
		return nil, err
	}

	entries := make([]CompensationEntry, 0, len(raw))
	for _, entry := range raw {
		entry.Name = strings.TrimSpace(entry.Name)
		if err := e.validate.Struct(entry); err != nil {
			e.logger.Warn("Dropping invalid compensation row", "company", companyName, "name", entry.Name, "error", err.Error())
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// ParseCompensationJSON decodes the model's array, repairing malformed JSON first if needed
func ParseCompensationJSON(resp string) ([]CompensationEntry, error) {
	candidate := strings.TrimSpace(resp)
	if start, end := strings.Index(candidate, "["), strings.LastIndex(candidate, "]"); start >= 0 && end > start {
		candidate = candidate[start : end+1]
	}

	var entries []CompensationEntry
	if err := json.Unmarshal([]byte(candidate), &entries); err == nil {
		return entries, nil
	}

	repaired, err := jsonrepair.RepairJSON(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to repair compensation JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &entries); err != nil {
		return nil, fmt.Errorf("failed to decode compensation JSON: %w", err)
	}
	return entries, nil
}

// CompensationSection narrows proxy text to the summary compensation table,
// falling back to the start of the document
func CompensationSection(text string, maxChars int) string {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, sectionMarker)
	if idx < 0 {
		return truncate(text, maxChars)
	}
	return truncate(text[idx:], maxChars)
}

func buildCompensationPrompt(companyName, text string) string {
	return fmt.Sprintf(`Below is the executive compensation section of %s's proxy statement (DEF 14A).

Extract the Summary Compensation Table for the MOST RECENT fiscal year only.
Return a JSON array with one object per named executive officer:
[{"name": "...", "position": "...", "fiscal_year": 2023, "salary": 0, "bonus": 0,
  "stock_awards": 0, "option_awards": 0, "other_compensation": 0, "total_compensation": 0}]

Use plain numbers in US dollars, null when a value is not reported. Return [] if the table is not present.
Respond with ONLY the JSON array.

Proxy statement text:
%s`, companyName, truncate(text, maxPromptChars))
}
