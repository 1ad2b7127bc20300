package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openfolio/portfolio-service/internal/models"
)

// AdmitTrade runs a trade admission for the (portfolio, ticker) pair as one
// serializable transaction. It reads the pair's current entry (locked) and
// cumulative net value, hands both to decide, and on success retires the
// old current entry and inserts the returned one as the new current entry.
// The flip and the insert commit together or not at all. Errors returned by
// decide abort the transaction unchanged; a serialization conflict is
// retried once by RunInTx.
func (db *DB) AdmitTrade(
	ctx context.Context,
	portfolioID int,
	ticker string,
	decide func(current *models.Position, netValue decimal.Decimal) (*models.Position, error),
) (*models.Position, error) {
	var admitted *models.Position
	err := db.RunInTx(ctx, func(tx *sql.Tx) error {
		admitted = nil

		current, err := currentPositionTx(ctx, tx, portfolioID, ticker)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		netValue, err := netValueTx(ctx, tx, portfolioID, ticker)
		if err != nil {
			return err
		}

		entry, err := decide(current, netValue)
		if err != nil {
			return err
		}

		if current != nil {
			if _, err := tx.ExecContext(ctx,
				`UPDATE positions SET is_current = FALSE WHERE id = $1`, current.ID,
			); err != nil {
				return fmt.Errorf("failed to retire current entry: %w", err)
			}
		}

		insert := `
			INSERT INTO positions (portfolio_id, ticker, quantity, price, side, trade_date, is_current, comments, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $8)
			RETURNING id
		`
		now := time.Now()
		if err := tx.QueryRowContext(ctx, insert,
			entry.PortfolioID, entry.Ticker, entry.Quantity, entry.Price,
			entry.Side, entry.TradeDate, entry.Comments, now,
		).Scan(&entry.ID); err != nil {
			return fmt.Errorf("failed to insert ledger entry: %w", err)
		}
		entry.IsCurrent = true
		entry.CreatedAt = now
		admitted = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return admitted, nil
}

// CurrentPosition retrieves the pair's single current ledger entry
func (db *DB) CurrentPosition(ctx context.Context, portfolioID int, ticker string) (*models.Position, error) {
	query := `
		SELECT id, portfolio_id, ticker, quantity, price, side, trade_date, is_current, comments, created_at
		FROM positions
		WHERE portfolio_id = $1 AND ticker = $2 AND is_current
	`
	return scanPosition(db.conn.QueryRowContext(ctx, query, portfolioID, ticker), ticker)
}

func currentPositionTx(ctx context.Context, tx *sql.Tx, portfolioID int, ticker string) (*models.Position, error) {
	query := `
		SELECT id, portfolio_id, ticker, quantity, price, side, trade_date, is_current, comments, created_at
		FROM positions
		WHERE portfolio_id = $1 AND ticker = $2 AND is_current
		FOR UPDATE
	`
	return scanPosition(tx.QueryRowContext(ctx, query, portfolioID, ticker), ticker)
}

func scanPosition(row *sql.Row, ticker string) (*models.Position, error) {
	var p models.Position
	var price string
	err := row.Scan(
		&p.ID, &p.PortfolioID, &p.Ticker, &p.Quantity, &price,
		&p.Side, &p.TradeDate, &p.IsCurrent, &p.Comments, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("current entry for %q: %w", ticker, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}
	return &p, nil
}

// NetValue returns the pair's cumulative signed notional: the sum of
// quantity*price over every ledger entry, buys positive and sells negative.
// Historical entries count; the ledger is cumulative, not a snapshot.
func (db *DB) NetValue(ctx context.Context, portfolioID int, ticker string) (decimal.Decimal, error) {
	return netValueTx(ctx, db.conn, portfolioID, ticker)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func netValueTx(ctx context.Context, q rowQuerier, portfolioID int, ticker string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE WHEN side = 'buy' THEN quantity * price ELSE -(quantity * price) END
		), 0)
		FROM positions
		WHERE portfolio_id = $1 AND ticker = $2
	`
	var sum string
	if err := q.QueryRowContext(ctx, query, portfolioID, ticker).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum net value: %w", err)
	}
	netValue, err := decimal.NewFromString(sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse net value: %w", err)
	}
	return netValue, nil
}

// CurrentPositions retrieves every current ledger entry of the portfolio,
// ordered by ticker
func (db *DB) CurrentPositions(ctx context.Context, portfolioID int) ([]*models.Position, error) {
	query := `
		SELECT id, portfolio_id, ticker, quantity, price, side, trade_date, is_current, comments, created_at
		FROM positions
		WHERE portfolio_id = $1 AND is_current
		ORDER BY ticker
	`
	rows, err := db.conn.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		var p models.Position
		var price string
		err := rows.Scan(
			&p.ID, &p.PortfolioID, &p.Ticker, &p.Quantity, &price,
			&p.Side, &p.TradeDate, &p.IsCurrent, &p.Comments, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("failed to parse price: %w", err)
		}
		positions = append(positions, &p)
	}
	return positions, rows.Err()
}

// DeletePositions removes every ledger entry of the ticker within the
// portfolio, current and historical, returning the number of rows removed
func (db *DB) DeletePositions(ctx context.Context, portfolioID int, ticker string) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM positions WHERE portfolio_id = $1 AND ticker = $2`,
		portfolioID, ticker,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete positions: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}
