package trade

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/openfolio/portfolio-service/internal/models"
)

// TradeRequest is a candidate trade as submitted by the user. The decode
// boundary has already type-checked the fields; business rules live here.
type TradeRequest struct {
	Ticker    string
	Side      string
	Quantity  int64
	Price     decimal.Decimal
	TradeDate time.Time
	Comments  string
}

// Intent tags whether the candidate opens a pair's ledger or follows an
// existing current entry. For a follow-on trade, Current is the pair's
// single current entry and NetValue the cumulative signed notional of every
// prior entry, both read inside the admission transaction.
type Intent struct {
	Current  *models.Position
	NetValue decimal.Decimal
}

// ValidateTrade enforces the admission rules for a candidate trade, in
// order, returning on the first failure:
//
//  1. side, quantity and price sanity
//  2. no weekend trade dates
//  3. no trade dates after the weekend-adjusted today
//  4. a pair's first trade must be a buy
//  5. a sell's notional must not exceed the pair's net value
//  6. a follow-on trade must not be dated before the current entry
//
// Ticker existence is checked by the caller against the security catalog
// before the admission transaction opens; catalog rows are immutable, so
// that read needs no transactional consistency with the ledger. The
// function itself performs no mutation and no I/O.
func ValidateTrade(req TradeRequest, intent Intent, now time.Time) error {
	if req.Side != models.SideBuy && req.Side != models.SideSell {
		return ErrInvalidSide
	}
	if req.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !req.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if IsWeekend(req.TradeDate) {
		return ErrWeekendTrade
	}
	if req.TradeDate.After(EffectiveToday(now)) {
		return ErrFutureTrade
	}
	if intent.Current == nil {
		// First trade for the pair: a portfolio cannot open by selling.
		if req.Side == models.SideSell {
			return ErrSellWithoutHoldings
		}
		return nil
	}
	if req.Side == models.SideSell {
		requested := decimal.NewFromInt(req.Quantity).Mul(req.Price)
		if requested.GreaterThan(intent.NetValue) {
			return &InsufficientHoldingsError{
				Ticker:    req.Ticker,
				Requested: requested,
				Available: intent.NetValue,
			}
		}
	}
	if req.TradeDate.Before(intent.Current.TradeDate) {
		return &BackdatedTradeError{Ticker: req.Ticker, LastDate: intent.Current.TradeDate}
	}
	return nil
}
