package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClosingPrice is a daily close for a security, unique per (ticker, date).
type ClosingPrice struct {
	ID        int             `json:"id"`
	Ticker    string          `json:"ticker"`
	Date      time.Time       `json:"date"`
	Close     decimal.Decimal `json:"close"`
	CreatedAt time.Time       `json:"created_at"`
}
