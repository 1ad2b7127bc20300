package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade side constants
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Position is one entry in the trade ledger of a (portfolio, ticker) pair.
// The ledger is cumulative: rows are never rewritten, a follow-on trade
// flips the previous current row to is_current=false and inserts a new one.
type Position struct {
	ID          int             `json:"id"`
	PortfolioID int             `json:"portfolio_id"`
	Ticker      string          `json:"ticker"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Side        string          `json:"side"`
	TradeDate   time.Time       `json:"trade_date"`
	IsCurrent   bool            `json:"is_current"`
	Comments    string          `json:"comments,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Notional returns quantity * price for the entry.
func (p *Position) Notional() decimal.Decimal {
	return decimal.NewFromInt(p.Quantity).Mul(p.Price)
}

// SignedNotional returns the entry's contribution to the pair's net value:
// positive for buys, negative for sells.
func (p *Position) SignedNotional() decimal.Decimal {
	n := p.Notional()
	if p.Side == SideSell {
		return n.Neg()
	}
	return n
}
