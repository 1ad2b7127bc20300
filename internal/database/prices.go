package database

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openfolio/portfolio-service/internal/models"
)

// UpsertClosingPrice inserts or replaces the close for (ticker, date)
func (db *DB) UpsertClosingPrice(ctx context.Context, p *models.ClosingPrice) error {
	query := `
		INSERT INTO prices (ticker, date, close, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker, date) DO UPDATE SET
			close = EXCLUDED.close
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRowContext(ctx, query, p.Ticker, p.Date, p.Close, now).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert closing price: %w", err)
	}
	p.CreatedAt = now
	return nil
}

// UpsertClosingPriceBatch inserts multiple closes in one transaction
func (db *DB) UpsertClosingPriceBatch(ctx context.Context, prices []*models.ClosingPrice) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO prices (ticker, date, close, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker, date) DO UPDATE SET
			close = EXCLUDED.close
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range prices {
		if _, err := stmt.ExecContext(ctx, p.Ticker, p.Date, p.Close, now); err != nil {
			return fmt.Errorf("failed to insert closing price for %s: %w", p.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ClosingPrices retrieves the ticker's closes within [start, end] ordered
// by date
func (db *DB) ClosingPrices(ctx context.Context, ticker string, start, end time.Time) ([]*models.ClosingPrice, error) {
	query := `
		SELECT id, ticker, date, close, created_at
		FROM prices
		WHERE ticker = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`
	rows, err := db.conn.QueryContext(ctx, query, ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query closing prices: %w", err)
	}
	defer rows.Close()

	var prices []*models.ClosingPrice
	for rows.Next() {
		var p models.ClosingPrice
		var closePrice string
		if err := rows.Scan(&p.ID, &p.Ticker, &p.Date, &closePrice, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan closing price: %w", err)
		}
		if p.Close, err = decimal.NewFromString(closePrice); err != nil {
			return nil, fmt.Errorf("failed to parse close: %w", err)
		}
		prices = append(prices, &p)
	}
	return prices, rows.Err()
}
