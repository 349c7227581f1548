package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linkmarket/pricing-service/internal/pricing"
)

// WebsiteRepo is the Postgres implementation of pricing.WebsiteSource:
// the legacy flat price, the stored selection strategy, and website
// enumeration for sweeps.
type WebsiteRepo struct {
	pool *pgxpool.Pool
}

// NewWebsiteRepo creates a new website repository.
func NewWebsiteRepo(pool *pgxpool.Pool) *WebsiteRepo {
	return &WebsiteRepo{pool: pool}
}

// GetFlatPrice returns the legacy flat price for a website, or nil when
// none is stored. A missing website is also nil, not an error.
func (r *WebsiteRepo) GetFlatPrice(ctx context.Context, websiteID int64) (*int64, error) {
	var price *int64
	err := r.pool.QueryRow(ctx, `
		SELECT flat_price FROM websites WHERE id = $1
	`, websiteID).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying flat price: %w", err)
	}
	return price, nil
}

// GetStrategy returns the website's configured selection strategy, or
// "" when the website is missing or has no strategy stored.
func (r *WebsiteRepo) GetStrategy(ctx context.Context, websiteID int64) (pricing.Strategy, error) {
	var strategy *string
	err := r.pool.QueryRow(ctx, `
		SELECT pricing_strategy FROM websites WHERE id = $1
	`, websiteID).Scan(&strategy)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying pricing strategy: %w", err)
	}
	if strategy == nil {
		return "", nil
	}
	return pricing.Strategy(*strategy), nil
}

// ListWebsiteIDs returns all website IDs in ascending order.
func (r *WebsiteRepo) ListWebsiteIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM websites ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing websites: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning website id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
