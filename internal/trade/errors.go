package trade

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel validation errors. Failures that carry values have their own
// types below so callers can recover them with errors.As.
var (
	ErrMalformedDate       = errors.New("the trade date format is invalid")
	ErrWeekendTrade        = errors.New("the trade date can't fall on weekends")
	ErrFutureTrade         = errors.New("the trade date can't be a date in the future")
	ErrSellWithoutHoldings = errors.New("you can't sell if your portfolio is empty")
	ErrInvalidSide         = errors.New("the trade side must be 'buy' or 'sell'")
	ErrInvalidQuantity     = errors.New("the quantity must be a positive whole number")
	ErrInvalidPrice        = errors.New("the price must be positive")
)

// DuplicateNameError reports an attempt to create a portfolio whose name the
// owner already uses.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("the portfolio '%s' already exists", e.Name)
}

// UnknownPortfolioError reports an action against a portfolio the owner does
// not have.
type UnknownPortfolioError struct {
	Name string
}

func (e *UnknownPortfolioError) Error() string {
	return fmt.Sprintf("the portfolio '%s' doesn't exist", e.Name)
}

// UnknownTickerError reports a trade against a ticker missing from the
// security catalog.
type UnknownTickerError struct {
	Ticker string
}

func (e *UnknownTickerError) Error() string {
	return fmt.Sprintf("the ticker '%s' doesn't exist in the database", e.Ticker)
}

// InsufficientHoldingsError reports a sell whose notional exceeds the
// pair's cumulative net value.
type InsufficientHoldingsError struct {
	Ticker    string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientHoldingsError) Error() string {
	return fmt.Sprintf(
		"you tried to sell USD %s worth of '%s', but you only have USD %s in total",
		e.Requested.String(), e.Ticker, e.Available.String(),
	)
}

// BackdatedTradeError reports a follow-on trade dated before the pair's
// current entry.
type BackdatedTradeError struct {
	Ticker   string
	LastDate time.Time
}

func (e *BackdatedTradeError) Error() string {
	return fmt.Sprintf(
		"the last trade date for ticker '%s' is '%s', the new date can't be before that",
		e.Ticker, e.LastDate.Format("2006-01-02"),
	)
}

// IsValidation reports whether err belongs to the user-correctable class,
// as opposed to a storage failure. Validation errors are never fatal and
// are never retried.
func IsValidation(err error) bool {
	switch {
	case errors.Is(err, ErrMalformedDate),
		errors.Is(err, ErrWeekendTrade),
		errors.Is(err, ErrFutureTrade),
		errors.Is(err, ErrSellWithoutHoldings),
		errors.Is(err, ErrInvalidSide),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidPrice):
		return true
	}
	var (
		dup      *DuplicateNameError
		unkPortf *UnknownPortfolioError
		unkTick  *UnknownTickerError
		insuf    *InsufficientHoldingsError
		backdate *BackdatedTradeError
	)
	return errors.As(err, &dup) ||
		errors.As(err, &unkPortf) ||
		errors.As(err, &unkTick) ||
		errors.As(err, &insuf) ||
		errors.As(err, &backdate)
}
