package models

import (
	"time"

	"github.com/google/uuid"
)

// Company is a tracked issuer
type Company struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Ticker    string    `json:"ticker" db:"ticker"`
	Name      string    `json:"name" db:"name"`
	CIK       string    `json:"cik" db:"cik"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PressRelease is a company news item pulled from Finnhub
type PressRelease struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CompanyID   uuid.UUID `json:"company_id" db:"company_id"`
	FinnhubID   int64     `json:"finnhub_id" db:"finnhub_id"`
	Headline    string    `json:"headline" db:"headline"`
	Source      string    `json:"source" db:"source"`
	URL         string    `json:"url" db:"url"`
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	Ticker string `json:"ticker,omitempty" db:"-"`
}
