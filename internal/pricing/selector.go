package pricing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Selection is the outcome of picking a winning offering for a website.
// A nil Offering means no price is available; it is not an error.
type Selection struct {
	Offering *Offering
	Method   CalculationMethod
}

// Selector chooses the winning offering for a website under a configured
// strategy. A manual override always wins, even over the strategy
// parameter, so operators can pin a price unconditionally.
type Selector struct {
	offerings OfferingSource
	logger    zerolog.Logger
}

// NewSelector creates a new price selector.
func NewSelector(offerings OfferingSource) *Selector {
	return &Selector{
		offerings: offerings,
		logger:    log.With().Str("component", "price_selector").Logger(),
	}
}

// Select picks the winning offering for a website.
//
// If an override exists and its offering still has a positive base
// price, it wins regardless of the strategy and of the offering's
// active/availability flags. Otherwise the strategy picks among
// eligible offerings, ties broken by lowest offering ID so results are
// reproducible. Manual strategy without an override selects like min.
func (s *Selector) Select(ctx context.Context, websiteID int64, offeringType OfferingType, strategy Strategy) (Selection, error) {
	override, err := s.offerings.GetOverride(ctx, websiteID)
	if err != nil {
		return Selection{}, fmt.Errorf("fetching override for website %d: %w", websiteID, err)
	}

	if override != nil {
		offering, err := s.offerings.GetOffering(ctx, override.OfferingID)
		if err != nil {
			return Selection{}, fmt.Errorf("fetching override offering %d: %w", override.OfferingID, err)
		}
		// Overrides bypass the active/availability eligibility checks,
		// but a missing or zero-priced offering cannot be pinned.
		if offering != nil && offering.BasePrice > 0 {
			return Selection{Offering: offering, Method: MethodManualOverride}, nil
		}
		s.logger.Warn().
			Int64("website_id", websiteID).
			Int64("override_offering_id", override.OfferingID).
			Msg("Price override references a missing or zero-priced offering, falling back to strategy")
	}

	offerings, err := s.offerings.ListEligibleOfferings(ctx, websiteID, offeringType)
	if err != nil {
		return Selection{}, fmt.Errorf("listing eligible offerings for website %d: %w", websiteID, err)
	}

	method := strategy.Method()
	if len(offerings) == 0 {
		return Selection{Method: method}, nil
	}

	winner := offerings[0]
	for _, o := range offerings[1:] {
		if better(o, winner, strategy) {
			winner = o
		}
	}

	return Selection{Offering: winner, Method: method}, nil
}

// better reports whether candidate beats current under the strategy.
// Ties always go to the lower offering ID.
func better(candidate, current *Offering, strategy Strategy) bool {
	if candidate.BasePrice == current.BasePrice {
		return candidate.ID < current.ID
	}
	if strategy == StrategyMax {
		return candidate.BasePrice > current.BasePrice
	}
	return candidate.BasePrice < current.BasePrice
}
