package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openfolio/portfolio-service/internal/models"
)

// CreateSecurity inserts a catalog row, updating the descriptive fields if
// the ticker is already present. Used by the catalog import.
func (db *DB) CreateSecurity(ctx context.Context, s *models.Security) error {
	query := `
		INSERT INTO securities (ticker, name, exchange, currency, country, isin)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			exchange = EXCLUDED.exchange,
			currency = EXCLUDED.currency,
			country = EXCLUDED.country,
			isin = EXCLUDED.isin
		RETURNING id
	`
	err := db.conn.QueryRowContext(ctx, query,
		s.Ticker, s.Name, s.Exchange, s.Currency, s.Country, s.ISIN,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to create security: %w", err)
	}
	return nil
}

// GetSecurity retrieves a catalog row by ticker
func (db *DB) GetSecurity(ctx context.Context, ticker string) (*models.Security, error) {
	query := `
		SELECT id, ticker, name, exchange, currency, country, isin
		FROM securities
		WHERE ticker = $1
	`
	var s models.Security
	err := db.conn.QueryRowContext(ctx, query, ticker).Scan(
		&s.ID, &s.Ticker, &s.Name, &s.Exchange, &s.Currency, &s.Country, &s.ISIN,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("security %q: %w", ticker, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get security: %w", err)
	}
	return &s, nil
}

// SecurityExists reports whether the ticker resolves in the catalog
func (db *DB) SecurityExists(ctx context.Context, ticker string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM securities WHERE ticker = $1)`, ticker,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check security: %w", err)
	}
	return exists, nil
}

// ListSecurities retrieves the full catalog ordered by ticker
func (db *DB) ListSecurities(ctx context.Context) ([]*models.Security, error) {
	query := `
		SELECT id, ticker, name, exchange, currency, country, isin
		FROM securities
		ORDER BY ticker
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query securities: %w", err)
	}
	defer rows.Close()

	var securities []*models.Security
	for rows.Next() {
		var s models.Security
		err := rows.Scan(&s.ID, &s.Ticker, &s.Name, &s.Exchange, &s.Currency, &s.Country, &s.ISIN)
		if err != nil {
			return nil, fmt.Errorf("failed to scan security: %w", err)
		}
		securities = append(securities, &s)
	}
	return securities, rows.Err()
}
