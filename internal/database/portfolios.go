package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openfolio/portfolio-service/internal/models"
)

// CreatePortfolio inserts a new portfolio for the owner
func (db *DB) CreatePortfolio(ctx context.Context, ownerID int, name string) (*models.Portfolio, error) {
	query := `
		INSERT INTO portfolios (owner_id, name)
		VALUES ($1, $2)
		RETURNING id
	`
	p := &models.Portfolio{OwnerID: ownerID, Name: name}
	if err := db.conn.QueryRowContext(ctx, query, ownerID, name).Scan(&p.ID); err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}
	return p, nil
}

// PortfolioByName retrieves the owner's portfolio with the given name
func (db *DB) PortfolioByName(ctx context.Context, ownerID int, name string) (*models.Portfolio, error) {
	query := `
		SELECT id, owner_id, name
		FROM portfolios
		WHERE owner_id = $1 AND name = $2
	`
	var p models.Portfolio
	err := db.conn.QueryRowContext(ctx, query, ownerID, name).Scan(&p.ID, &p.OwnerID, &p.Name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("portfolio %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return &p, nil
}

// ListPortfolios retrieves all of the owner's portfolios ordered by id
func (db *DB) ListPortfolios(ctx context.Context, ownerID int) ([]*models.Portfolio, error) {
	query := `
		SELECT id, owner_id, name
		FROM portfolios
		WHERE owner_id = $1
		ORDER BY id
	`
	rows, err := db.conn.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []*models.Portfolio
	for rows.Next() {
		var p models.Portfolio
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, &p)
	}
	return portfolios, rows.Err()
}

// DeletePortfolio removes a portfolio by id. The positions FK cascades, so
// every ledger entry of the portfolio goes with it.
func (db *DB) DeletePortfolio(ctx context.Context, id int) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("portfolio %d: %w", id, ErrNotFound)
	}
	return nil
}
