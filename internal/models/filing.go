package models

import (
	"time"

	"github.com/google/uuid"
)

// TrackedFormTypes are the form types pulled by the sync job
var TrackedFormTypes = []string{"10-K", "10-Q", "8-K", "4", "S-1", "DEF 14A"}

const (
	FormType8K     = "8-K"
	FormType10K    = "10-K"
	FormType10Q    = "10-Q"
	FormType4      = "4"
	FormTypeS1     = "S-1"
	FormTypeDEF14A = "DEF 14A"
)

// Filing is one SEC submission of a tracked company.
// Only Headline and Summary change after insert.
type Filing struct {
	ID              uuid.UUID `json:"id" db:"id"`
	CompanyID       uuid.UUID `json:"company_id" db:"company_id"`
	AccessionNumber string    `json:"accession_number" db:"accession_number"`
	FormType        string    `json:"form_type" db:"form_type"`
	FiledDate       time.Time `json:"filed_date" db:"filed_date"`
	DocumentURL     string    `json:"document_url" db:"document_url"`
	Headline        *string   `json:"headline" db:"headline"`
	Summary         *string   `json:"summary,omitempty" db:"summary"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// FilingWithCompany is a filing joined with its company for timeline views
type FilingWithCompany struct {
	Filing
	Ticker      string `json:"ticker"`
	CompanyName string `json:"company_name"`
}

var formTypeDescriptions = map[string]string{
	"10-K":    "Annual Report",
	"10-Q":    "Quarterly Report",
	"8-K":     "Current Report",
	"4":       "Insider Trading",
	"S-1":     "IPO Registration",
	"S-3":     "Shelf Registration",
	"DEF 14A": "Proxy Statement",
	"SC 13G":  "Ownership Report",
	"SC 13D":  "Ownership Report",
	"6-K":     "Foreign Company Report",
	"20-F":    "Foreign Company Annual Report",
}

// FormTypeDescription returns a readable label for a form type code
func FormTypeDescription(formType string) string {
	if d, ok := formTypeDescriptions[formType]; ok {
		return d
	}
	return formType
}
