package pricing

import (
	"context"
)

// OfferingSource provides read access to publisher offerings and
// manual price overrides. Implementations live in internal/database;
// the engine never touches persistence directly.
type OfferingSource interface {
	// ListEligibleOfferings returns the offerings for a website that
	// qualify for automatic selection: active, available, base price > 0,
	// and of the requested type. Order is unspecified; the selector
	// applies its own deterministic ordering.
	ListEligibleOfferings(ctx context.Context, websiteID int64, offeringType OfferingType) ([]*Offering, error)

	// GetOffering returns one offering by ID, or nil if it does not
	// exist. Missing offerings are not an error.
	GetOffering(ctx context.Context, offeringID int64) (*Offering, error)

	// GetOverride returns the manual price override for a website, or
	// nil when none is set.
	GetOverride(ctx context.Context, websiteID int64) (*PriceOverride, error)
}

// RuleSource provides read access to pricing rules.
type RuleSource interface {
	// ListActiveRules returns the active rules for an offering in
	// ascending priority order. Rules with malformed condition or action
	// payloads are skipped (and logged) at the repository boundary, never
	// surfaced as errors.
	ListActiveRules(ctx context.Context, offeringID int64) ([]*PricingRule, error)
}

// WebsiteSource provides the per-website data the calculator needs
// beyond offerings: the legacy flat price fallback, the configured
// selection strategy, and website enumeration for bulk sweeps.
type WebsiteSource interface {
	// GetFlatPrice returns the legacy flat price for a website, or nil
	// when none is stored.
	GetFlatPrice(ctx context.Context, websiteID int64) (*int64, error)

	// GetStrategy returns the website's configured selection strategy,
	// or "" when none is stored.
	GetStrategy(ctx context.Context, websiteID int64) (Strategy, error)

	// ListWebsiteIDs returns all website IDs, for bulk recomputation.
	ListWebsiteIDs(ctx context.Context) ([]int64, error)
}

// AttributionStore persists derived price records, one per website.
type AttributionStore interface {
	// Upsert replaces the website's attribution record. Last write wins;
	// the record is a cache, not a ledger.
	Upsert(ctx context.Context, record *DerivedPriceRecord) error

	// Get returns the website's attribution record, or nil when the
	// website has never been computed.
	Get(ctx context.Context, websiteID int64) (*DerivedPriceRecord, error)
}
