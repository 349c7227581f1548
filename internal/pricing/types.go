package pricing

import (
	"fmt"
	"time"
)

// OfferingType identifies the kind of placement a publisher sells.
type OfferingType string

const (
	OfferingGuestPost     OfferingType = "guest_post"
	OfferingLinkInsertion OfferingType = "link_insertion"
	OfferingHomepageLink  OfferingType = "homepage_link"
	OfferingNicheEdit     OfferingType = "niche_edit"
)

// Availability is the publisher-reported availability of an offering.
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityLimited     Availability = "limited"
	AvailabilityUnavailable Availability = "unavailable"
)

// Strategy is the policy used to pick among competing eligible offerings
// for one website.
type Strategy string

const (
	StrategyMin    Strategy = "min"
	StrategyMax    Strategy = "max"
	StrategyManual Strategy = "manual"
)

// CalculationMethod records how a derived price was produced.
type CalculationMethod string

const (
	MethodAutoMin        CalculationMethod = "auto_min"
	MethodAutoMax        CalculationMethod = "auto_max"
	MethodManualOverride CalculationMethod = "manual_override"
)

// Method returns the calculation method equivalent of an automatic strategy.
// Manual strategy without an override falls back to min selection.
func (s Strategy) Method() CalculationMethod {
	if s == StrategyMax {
		return MethodAutoMax
	}
	return MethodAutoMin
}

// Offering is a sellable placement from one publisher for one website.
// All prices are int64 in minor currency units (cents) to keep the
// engine free of floating-point money math.
type Offering struct {
	ID             int64
	PublisherID    int64
	WebsiteID      int64
	Type           OfferingType
	BasePrice      int64 // minor currency units
	Currency       string
	IsActive       bool
	Availability   Availability
	TurnaroundDays int
}

// Eligible reports whether the offering qualifies for automatic strategy
// selection. Manual overrides bypass this check.
func (o *Offering) Eligible() bool {
	return o.IsActive && o.Availability == AvailabilityAvailable && o.BasePrice > 0
}

// RuleType categorizes a pricing rule.
type RuleType string

const (
	RuleVolumeDiscount RuleType = "volume_discount"
	RuleSeasonal       RuleType = "seasonal"
	RuleNiche          RuleType = "niche"
	RuleContentLength  RuleType = "content_length"
)

// PricingRule is a conditional price adjustment scoped to one offering.
// Rules are evaluated in ascending Priority order; the first applied rule
// with IsCumulative=false terminates evaluation.
type PricingRule struct {
	ID           int64
	OfferingID   int64
	Type         RuleType
	Conditions   []RuleCondition
	Actions      []RuleAction
	Priority     int
	IsCumulative bool
	IsActive     bool
}

// PriceOverride pins a website's effective price to one specific offering.
type PriceOverride struct {
	WebsiteID  int64
	OfferingID int64
	Reason     string
}

// OrderContext carries the order attributes rules match against.
type OrderContext struct {
	Quantity  int
	Niche     string
	WordCount int
}

// QuoteSource tells whether a quote came from a real offering or the
// legacy flat-price fallback.
type QuoteSource string

const (
	SourceOffering QuoteSource = "offering_based"
	SourceFallback QuoteSource = "fallback"
)

// AppliedRule describes one rule that actually adjusted a price,
// in application order.
type AppliedRule struct {
	RuleID     int64    `json:"ruleId"`
	Type       RuleType `json:"type"`
	PriceAfter int64    `json:"priceAfter"`
}

// Quote is the computed output of one quoting call. It is ephemeral;
// only the attribution record is persisted.
type Quote struct {
	WebsiteID       int64             `json:"websiteId"`
	OfferingType    OfferingType      `json:"offeringType"`
	WholesalePrice  int64             `json:"wholesalePrice"`
	RetailPrice     int64             `json:"retailPrice"`
	Currency        string            `json:"currency"`
	Source          QuoteSource       `json:"source"`
	Method          CalculationMethod `json:"method"`
	OfferingID      *int64            `json:"offeringId,omitempty"`
	PublisherID     *int64            `json:"publisherId,omitempty"`
	AppliedRules    []AppliedRule     `json:"appliedRules"`
	Quantity        int               `json:"quantity,omitempty"`
	DiscountPercent int64             `json:"discountPercent,omitempty"`
	DiscountedTotal *int64            `json:"discountedTotal,omitempty"`
}

// DerivedPriceRecord is the cached attribution of the last computation
// for a website. Exactly one record exists per website.
type DerivedPriceRecord struct {
	WebsiteID    int64             `json:"websiteId"`
	DerivedPrice *int64            `json:"derivedPrice"` // nil when no price available
	Method       CalculationMethod `json:"calculationMethod"`
	OfferingID   *int64            `json:"selectedOfferingId"`
	PublisherID  *int64            `json:"selectedPublisherId"`
	CalculatedAt time.Time         `json:"calculatedAt"`
}

// ComparisonStatus classifies legacy flat price vs freshly derived price.
type ComparisonStatus string

const (
	ComparisonMatch       ComparisonStatus = "match"
	ComparisonMismatch    ComparisonStatus = "mismatch"
	ComparisonCurrentNull ComparisonStatus = "current_null"
	ComparisonDerivedNull ComparisonStatus = "derived_null"
	ComparisonBothNull    ComparisonStatus = "both_null"
)

// PricingComparison is the audit view of one website's price drift
// between the legacy flat price and the derived price.
type PricingComparison struct {
	WebsiteID    int64             `json:"websiteId"`
	CurrentPrice *int64            `json:"currentPrice"`
	DerivedPrice *int64            `json:"derivedPrice"`
	Status       ComparisonStatus  `json:"status"`
	AbsoluteDiff int64             `json:"absoluteDiff"`
	PercentDiff  float64           `json:"percentDiff"`
	Method       CalculationMethod `json:"calculationMethod,omitempty"`
	CalculatedAt time.Time         `json:"calculatedAt"`
}

// BulkTier is one row of the quantity discount table.
type BulkTier struct {
	MinQuantity int   `mapstructure:"min_quantity" json:"minQuantity"`
	PercentOff  int64 `mapstructure:"percent_off" json:"percentOff"`
}

// EngineConfig holds the static pricing configuration consumed by the
// quote calculator. Thresholds must be ascending and percentages
// monotonic; Validate enforces both.
type EngineConfig struct {
	// ServiceFee is added verbatim to every wholesale price to form the
	// retail price, including when wholesale is 0.
	ServiceFee int64

	// BulkTiers is the ascending quantity discount table. Threshold
	// matching is inclusive.
	BulkTiers []BulkTier

	// LinkInsertionDiscountPercent derives a link-insertion price from
	// the guest-post wholesale price when a website has no direct
	// link-insertion offering. 0 disables the derivation.
	LinkInsertionDiscountPercent int64

	// DefaultStrategy is used when a website has no stored strategy.
	DefaultStrategy Strategy
}

// DefaultEngineConfig returns the default pricing configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		ServiceFee: 7900, // 79.00 in minor units
		BulkTiers: []BulkTier{
			{MinQuantity: 5, PercentOff: 5},
			{MinQuantity: 10, PercentOff: 10},
			{MinQuantity: 25, PercentOff: 15},
			{MinQuantity: 50, PercentOff: 20},
		},
		LinkInsertionDiscountPercent: 30,
		DefaultStrategy:              StrategyMin,
	}
}

// Validate checks the engine configuration for internal consistency.
func (c *EngineConfig) Validate() error {
	if c.ServiceFee < 0 {
		return ErrInvalidConfig{Field: "service_fee", Reason: "must not be negative"}
	}
	if c.LinkInsertionDiscountPercent < 0 || c.LinkInsertionDiscountPercent > 100 {
		return ErrInvalidConfig{Field: "link_insertion_discount_percent", Reason: "must be between 0 and 100"}
	}
	for i, tier := range c.BulkTiers {
		if tier.MinQuantity <= 0 {
			return ErrInvalidConfig{Field: "bulk_tiers", Reason: fmt.Sprintf("tier %d has non-positive min_quantity", i)}
		}
		if tier.PercentOff < 0 || tier.PercentOff > 100 {
			return ErrInvalidConfig{Field: "bulk_tiers", Reason: fmt.Sprintf("tier %d percent_off out of range", i)}
		}
		if i > 0 {
			prev := c.BulkTiers[i-1]
			if tier.MinQuantity <= prev.MinQuantity {
				return ErrInvalidConfig{Field: "bulk_tiers", Reason: fmt.Sprintf("tier %d min_quantity not ascending", i)}
			}
			if tier.PercentOff < prev.PercentOff {
				return ErrInvalidConfig{Field: "bulk_tiers", Reason: fmt.Sprintf("tier %d percent_off not monotonic", i)}
			}
		}
	}
	return nil
}

// BulkDiscountPercent returns the discount percentage for a quantity,
// threshold-inclusive. Quantities below the first tier get 0.
func (c *EngineConfig) BulkDiscountPercent(quantity int) int64 {
	var percent int64
	for _, tier := range c.BulkTiers {
		if quantity >= tier.MinQuantity {
			percent = tier.PercentOff
		}
	}
	return percent
}

// ErrInvalidConfig is returned when the pricing configuration is malformed.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return e.Field + ": " + e.Reason
}

// ErrInvalidRequest is returned when a quote request is invalid.
type ErrInvalidRequest struct {
	Field  string
	Reason string
}

func (e ErrInvalidRequest) Error() string {
	return e.Field + ": " + e.Reason
}
