package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linkmarket/pricing-service/internal/pricing"
)

// OfferingRepo is the Postgres implementation of pricing.OfferingSource.
type OfferingRepo struct {
	pool *pgxpool.Pool
}

// NewOfferingRepo creates a new offering repository.
func NewOfferingRepo(pool *pgxpool.Pool) *OfferingRepo {
	return &OfferingRepo{pool: pool}
}

const offeringColumns = `
	id, publisher_id, website_id, offering_type, base_price, currency,
	is_active, current_availability, turnaround_days
`

// ListEligibleOfferings returns a website's offerings that qualify for
// automatic selection: active, available, positive base price, and of
// the requested type. Ordered by id for stable iteration.
func (r *OfferingRepo) ListEligibleOfferings(ctx context.Context, websiteID int64, offeringType pricing.OfferingType) ([]*pricing.Offering, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+offeringColumns+`
		FROM offerings
		WHERE website_id = $1
		  AND offering_type = $2
		  AND is_active = true
		  AND current_availability = 'available'
		  AND base_price > 0
		ORDER BY id
	`, websiteID, string(offeringType))
	if err != nil {
		return nil, fmt.Errorf("querying eligible offerings: %w", err)
	}
	defer rows.Close()

	var offerings []*pricing.Offering
	for rows.Next() {
		o, err := scanOffering(rows)
		if err != nil {
			return nil, err
		}
		offerings = append(offerings, o)
	}
	return offerings, rows.Err()
}

// GetOffering returns one offering by ID, or nil if it does not exist.
func (r *OfferingRepo) GetOffering(ctx context.Context, offeringID int64) (*pricing.Offering, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+offeringColumns+`
		FROM offerings
		WHERE id = $1
	`, offeringID)

	o, err := scanOffering(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// GetOverride returns the manual price override for a website, or nil
// when none is set.
func (r *OfferingRepo) GetOverride(ctx context.Context, websiteID int64) (*pricing.PriceOverride, error) {
	var override pricing.PriceOverride
	err := r.pool.QueryRow(ctx, `
		SELECT website_id, override_offering_id, COALESCE(override_reason, '')
		FROM price_overrides
		WHERE website_id = $1
	`, websiteID).Scan(&override.WebsiteID, &override.OfferingID, &override.Reason)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying price override: %w", err)
	}
	return &override, nil
}

func scanOffering(row pgx.Row) (*pricing.Offering, error) {
	var o pricing.Offering
	var offeringType, availability string
	err := row.Scan(
		&o.ID, &o.PublisherID, &o.WebsiteID, &offeringType, &o.BasePrice,
		&o.Currency, &o.IsActive, &availability, &o.TurnaroundDays,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning offering: %w", err)
	}
	o.Type = pricing.OfferingType(offeringType)
	o.Availability = pricing.Availability(availability)
	return &o, nil
}
