package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linkmarket/pricing-service/internal/pricing"
)

// AttributionRepo is the Postgres implementation of
// pricing.AttributionStore. One row per website; the upsert carries
// last-write-wins semantics, which is acceptable because the record is
// a cache, not a ledger.
type AttributionRepo struct {
	pool *pgxpool.Pool
}

// NewAttributionRepo creates a new attribution repository.
func NewAttributionRepo(pool *pgxpool.Pool) *AttributionRepo {
	return &AttributionRepo{pool: pool}
}

// Upsert replaces the website's attribution record.
func (r *AttributionRepo) Upsert(ctx context.Context, record *pricing.DerivedPriceRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO derived_prices (
			website_id, derived_price, calculation_method,
			selected_offering_id, selected_publisher_id, calculated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (website_id) DO UPDATE SET
			derived_price = EXCLUDED.derived_price,
			calculation_method = EXCLUDED.calculation_method,
			selected_offering_id = EXCLUDED.selected_offering_id,
			selected_publisher_id = EXCLUDED.selected_publisher_id,
			calculated_at = EXCLUDED.calculated_at
	`, record.WebsiteID, record.DerivedPrice, string(record.Method),
		record.OfferingID, record.PublisherID, record.CalculatedAt)
	if err != nil {
		return fmt.Errorf("upserting derived price: %w", err)
	}
	return nil
}

// Get returns the website's attribution record, or nil when the website
// has never been computed.
func (r *AttributionRepo) Get(ctx context.Context, websiteID int64) (*pricing.DerivedPriceRecord, error) {
	var (
		record pricing.DerivedPriceRecord
		method string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT website_id, derived_price, calculation_method,
		       selected_offering_id, selected_publisher_id, calculated_at
		FROM derived_prices
		WHERE website_id = $1
	`, websiteID).Scan(
		&record.WebsiteID, &record.DerivedPrice, &method,
		&record.OfferingID, &record.PublisherID, &record.CalculatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying derived price: %w", err)
	}
	record.Method = pricing.CalculationMethod(method)
	return &record, nil
}
