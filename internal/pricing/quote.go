package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// QuoteRequest contains the parameters for one quoting call.
type QuoteRequest struct {
	WebsiteID    int64
	OfferingType OfferingType // defaults to guest_post
	Strategy     Strategy     // resolved from the website's configuration when empty
	Order        *OrderContext
}

// Validate validates the quote request and returns an error if invalid.
func (r *QuoteRequest) Validate() error {
	if r.WebsiteID <= 0 {
		return ErrInvalidRequest{Field: "websiteId", Reason: "must be positive"}
	}
	if r.Order != nil && r.Order.Quantity < 0 {
		return ErrInvalidRequest{Field: "order.quantity", Reason: "must not be negative"}
	}
	return nil
}

// Calculator composes the selector and rule engine into a final
// wholesale/retail quote, applies the service fee and bulk discount
// tiers, and records attribution for every computation.
type Calculator struct {
	selector *Selector
	engine   *RuleEngine
	websites WebsiteSource
	store    AttributionStore
	cfg      *EngineConfig
	metrics  *MetricsRecorder
	logger   zerolog.Logger
}

// NewCalculator creates a new quote calculator.
func NewCalculator(offerings OfferingSource, rules RuleSource, websites WebsiteSource, store AttributionStore, cfg *EngineConfig) *Calculator {
	if cfg == nil {
		cfg = DefaultEngineConfig()
	}
	return &Calculator{
		selector: NewSelector(offerings),
		engine:   NewRuleEngine(rules),
		websites: websites,
		store:    store,
		cfg:      cfg,
		metrics:  NewMetricsRecorder(),
		logger:   log.With().Str("component", "quote_calculator").Logger(),
	}
}

// RuleEngine exposes the calculator's rule engine, mainly so callers
// can inject a clock for deterministic seasonal evaluation.
func (c *Calculator) RuleEngine() *RuleEngine {
	return c.engine
}

// Quote computes the quote for a website.
//
// Pricing absence is representable, not exceptional: a website with no
// eligible offering and no legacy flat price yields a zero-valued
// fallback quote, never an error. Every computation, including the
// fallback path, refreshes the website's attribution record.
func (c *Calculator) Quote(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	startTime := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	offeringType := req.OfferingType
	if offeringType == "" {
		offeringType = OfferingGuestPost
	}

	strategy, err := c.resolveStrategy(ctx, req)
	if err != nil {
		c.metrics.RecordQuoteError()
		return nil, err
	}

	quote, err := c.computeQuote(ctx, req.WebsiteID, offeringType, strategy, req.Order)
	if err != nil {
		c.metrics.RecordQuoteError()
		return nil, err
	}

	if req.Order != nil && req.Order.Quantity > 0 {
		c.applyBulkDiscount(quote, req.Order.Quantity)
	}

	if err := c.recordAttribution(ctx, quote); err != nil {
		c.metrics.RecordQuoteError()
		return nil, err
	}

	c.metrics.RecordQuote(offeringType, quote.Source, quote.Method, time.Since(startTime))
	return quote, nil
}

// resolveStrategy threads the website's stored strategy into the
// selection, sourced once per call. No process-wide state.
func (c *Calculator) resolveStrategy(ctx context.Context, req *QuoteRequest) (Strategy, error) {
	if req.Strategy != "" {
		return req.Strategy, nil
	}
	strategy, err := c.websites.GetStrategy(ctx, req.WebsiteID)
	if err != nil {
		return "", fmt.Errorf("resolving strategy for website %d: %w", req.WebsiteID, err)
	}
	if strategy == "" {
		strategy = c.cfg.DefaultStrategy
	}
	return strategy, nil
}

func (c *Calculator) computeQuote(ctx context.Context, websiteID int64, offeringType OfferingType, strategy Strategy, order *OrderContext) (*Quote, error) {
	sel, err := c.selector.Select(ctx, websiteID, offeringType, strategy)
	if err != nil {
		return nil, err
	}

	if sel.Offering == nil && offeringType == OfferingLinkInsertion && c.cfg.LinkInsertionDiscountPercent > 0 {
		// No direct link-insertion offering: derive from the guest-post
		// price at the configured discount.
		gpSel, err := c.selector.Select(ctx, websiteID, OfferingGuestPost, strategy)
		if err != nil {
			return nil, err
		}
		if gpSel.Offering != nil {
			quote, err := c.offeringQuote(ctx, websiteID, offeringType, gpSel, order)
			if err != nil {
				return nil, err
			}
			quote.WholesalePrice = quote.WholesalePrice * (100 - c.cfg.LinkInsertionDiscountPercent) / 100
			quote.RetailPrice = quote.WholesalePrice + c.cfg.ServiceFee
			return quote, nil
		}
	}

	if sel.Offering == nil {
		return c.fallbackQuote(ctx, websiteID, offeringType, sel.Method)
	}

	return c.offeringQuote(ctx, websiteID, offeringType, sel, order)
}

// offeringQuote builds a quote from a selected offering: rule-adjusted
// wholesale plus the fixed service fee. The fee is added verbatim
// regardless of wholesale magnitude, including when wholesale is 0.
func (c *Calculator) offeringQuote(ctx context.Context, websiteID int64, offeringType OfferingType, sel Selection, order *OrderContext) (*Quote, error) {
	ruleResult, err := c.engine.ApplyRules(ctx, sel.Offering, order)
	if err != nil {
		return nil, err
	}

	offeringID := sel.Offering.ID
	publisherID := sel.Offering.PublisherID
	return &Quote{
		WebsiteID:      websiteID,
		OfferingType:   offeringType,
		WholesalePrice: ruleResult.FinalPrice,
		RetailPrice:    ruleResult.FinalPrice + c.cfg.ServiceFee,
		Currency:       sel.Offering.Currency,
		Source:         SourceOffering,
		Method:         sel.Method,
		OfferingID:     &offeringID,
		PublisherID:    &publisherID,
		AppliedRules:   ruleResult.AppliedRules,
	}, nil
}

// fallbackQuote handles the no-offering path: the legacy flat price if
// one is stored, otherwise a zero-valued quote.
func (c *Calculator) fallbackQuote(ctx context.Context, websiteID int64, offeringType OfferingType, method CalculationMethod) (*Quote, error) {
	quote := &Quote{
		WebsiteID:    websiteID,
		OfferingType: offeringType,
		Source:       SourceFallback,
		Method:       method,
		AppliedRules: []AppliedRule{},
	}

	flat, err := c.websites.GetFlatPrice(ctx, websiteID)
	if err != nil {
		return nil, fmt.Errorf("fetching flat price for website %d: %w", websiteID, err)
	}
	if flat != nil && *flat > 0 {
		quote.WholesalePrice = *flat
		quote.RetailPrice = *flat + c.cfg.ServiceFee
	}
	return quote, nil
}

// applyBulkDiscount applies the quantity discount tier to the retail
// total, truncating fractional minor units. Never rounds up; systematic
// overcharging is worse than losing sub-cent amounts.
func (c *Calculator) applyBulkDiscount(quote *Quote, quantity int) {
	quote.Quantity = quantity
	quote.DiscountPercent = c.cfg.BulkDiscountPercent(quantity)

	subtotal := quote.RetailPrice * int64(quantity)
	discounted := subtotal * (100 - quote.DiscountPercent) / 100
	quote.DiscountedTotal = &discounted
}

// recordAttribution caches the derived price and its attribution.
// A quote without an offering records a null derived price with the
// method unchanged.
func (c *Calculator) recordAttribution(ctx context.Context, quote *Quote) error {
	record := &DerivedPriceRecord{
		WebsiteID:    quote.WebsiteID,
		Method:       quote.Method,
		OfferingID:   quote.OfferingID,
		PublisherID:  quote.PublisherID,
		CalculatedAt: time.Now().UTC(),
	}
	if quote.Source == SourceOffering {
		derived := quote.WholesalePrice
		record.DerivedPrice = &derived
	}
	if err := c.store.Upsert(ctx, record); err != nil {
		return fmt.Errorf("recording attribution for website %d: %w", quote.WebsiteID, err)
	}
	return nil
}
