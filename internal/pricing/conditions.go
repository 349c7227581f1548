package pricing

import "time"

// RuleCondition is a closed set of predicate variants a rule can match
// against an order context. The loosely-typed condition payloads stored
// by publisher tooling are decoded into these variants at the repository
// boundary so the engine's matching logic is exhaustive at compile time.
type RuleCondition interface {
	// Matches reports whether the condition holds for the given order
	// context at the given evaluation time.
	Matches(order *OrderContext, now time.Time) bool
}

// VolumeCondition matches orders at or above a minimum quantity.
type VolumeCondition struct {
	MinQuantity int
}

func (c VolumeCondition) Matches(order *OrderContext, _ time.Time) bool {
	return order != nil && order.Quantity >= c.MinQuantity
}

// NicheCondition matches orders whose niche is in the rule's niche list.
// Niche labels are compared after normalization so publisher-entered
// labels with stray casing or diacritics still match.
type NicheCondition struct {
	Niches []string
}

func (c NicheCondition) Matches(order *OrderContext, _ time.Time) bool {
	if order == nil || order.Niche == "" {
		return false
	}
	want := NormalizeNiche(order.Niche)
	for _, n := range c.Niches {
		if NormalizeNiche(n) == want {
			return true
		}
	}
	return false
}

// DateRangeCondition matches when the evaluation time falls inside the
// rule's active window. A zero From or Until leaves that side open.
type DateRangeCondition struct {
	From  time.Time
	Until time.Time
}

func (c DateRangeCondition) Matches(_ *OrderContext, now time.Time) bool {
	if !c.From.IsZero() && now.Before(c.From) {
		return false
	}
	if !c.Until.IsZero() && now.After(c.Until) {
		return false
	}
	return true
}

// ContentLengthCondition matches orders at or above a minimum word count.
type ContentLengthCondition struct {
	MinWordCount int
}

func (c ContentLengthCondition) Matches(order *OrderContext, _ time.Time) bool {
	return order != nil && order.WordCount >= c.MinWordCount
}

// RuleAction is a closed set of price adjustment variants. Within one
// rule, actions are applied in a fixed canonical order regardless of the
// order they were stored in: multiplier, percentage discount, fixed
// discount, added fee, then price override.
type RuleAction interface {
	// Apply returns the price after this adjustment. All math is integer
	// in minor currency units; divisions truncate toward zero.
	Apply(price int64) int64

	// rank orders actions within a single rule.
	rank() int
}

// MultiplierAction scales the price by a factor expressed in basis
// points (10000 = 1.0x) so rule math stays integer-only.
type MultiplierAction struct {
	Bps int64
}

func (a MultiplierAction) Apply(price int64) int64 { return price * a.Bps / 10000 }
func (a MultiplierAction) rank() int               { return 0 }

// PercentageOffAction removes a whole-number percentage of the price.
type PercentageOffAction struct {
	Percent int64
}

func (a PercentageOffAction) Apply(price int64) int64 { return price - price*a.Percent/100 }
func (a PercentageOffAction) rank() int               { return 1 }

// FixedDiscountAction subtracts a flat amount.
type FixedDiscountAction struct {
	Amount int64
}

func (a FixedDiscountAction) Apply(price int64) int64 { return price - a.Amount }
func (a FixedDiscountAction) rank() int               { return 2 }

// FixedFeeAction adds a flat amount.
type FixedFeeAction struct {
	Amount int64
}

func (a FixedFeeAction) Apply(price int64) int64 { return price + a.Amount }
func (a FixedFeeAction) rank() int               { return 3 }

// OverridePriceAction replaces the price unconditionally. It is the
// terminal value of its rule's effect.
type OverridePriceAction struct {
	Price int64
}

func (a OverridePriceAction) Apply(_ int64) int64 { return a.Price }
func (a OverridePriceAction) rank() int           { return 4 }
