package models

import (
	"time"

	"github.com/google/uuid"
)

// ExecutiveCompensation is one row of a proxy statement's summary compensation table
type ExecutiveCompensation struct {
	ID                uuid.UUID `json:"id" db:"id"`
	FilingID          uuid.UUID `json:"filing_id" db:"filing_id"`
	CompanyID         uuid.UUID `json:"company_id" db:"company_id"`
	ExecutiveName     string    `json:"executive_name" db:"executive_name"`
	Position          *string   `json:"position" db:"position"`
	Salary            *float64  `json:"salary" db:"salary"`
	Bonus             *float64  `json:"bonus" db:"bonus"`
	StockAwards       *float64  `json:"stock_awards" db:"stock_awards"`
	OptionAwards      *float64  `json:"option_awards" db:"option_awards"`
	OtherCompensation *float64  `json:"other_compensation" db:"other_compensation"`
	TotalCompensation *float64  `json:"total_compensation" db:"total_compensation"`
	FiscalYear        *int      `json:"fiscal_year" db:"fiscal_year"`
	FiledDate         time.Time `json:"filed_date" db:"filed_date"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// CompensationView joins a compensation row with its company and source document
type CompensationView struct {
	ExecutiveCompensation
	Ticker      string `json:"ticker"`
	CompanyName string `json:"company_name"`
	DocumentURL string `json:"document_url"`
}
