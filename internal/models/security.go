package models

// Security represents a reference catalog entry for a tradeable instrument.
// Catalog rows are immutable; they are loaded by an out-of-band import.
type Security struct {
	ID       int    `json:"id"`
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Exchange string `json:"exchange,omitempty"`
	Currency string `json:"currency"`
	Country  string `json:"country"`
	ISIN     string `json:"isin,omitempty"`
}
