package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RuleResult is the outcome of applying an offering's rules to its base
// price. AppliedRules lists, in application order, only the rules that
// actually adjusted the price.
type RuleResult struct {
	FinalPrice   int64
	AppliedRules []AppliedRule
}

// RuleEngine adjusts an offering's base price by its active pricing
// rules. It is stateless per call; evaluation time is injected so
// seasonal rules stay testable.
type RuleEngine struct {
	rules   RuleSource
	metrics *MetricsRecorder
	logger  zerolog.Logger
	now     func() time.Time
}

// NewRuleEngine creates a new rule engine.
func NewRuleEngine(rules RuleSource) *RuleEngine {
	return &RuleEngine{
		rules:   rules,
		metrics: NewMetricsRecorder(),
		logger:  log.With().Str("component", "rule_engine").Logger(),
		now:     time.Now,
	}
}

// WithClock replaces the engine's evaluation clock. Intended for tests
// and deterministic replay of seasonal rules.
func (e *RuleEngine) WithClock(now func() time.Time) *RuleEngine {
	e.now = now
	return e
}

// ApplyRules computes the rule-adjusted price for an offering.
//
// Rules are fetched in ascending priority order and filtered to those
// whose every condition matches the order context; unmatched rules are
// skipped entirely. Matched rules apply in priority order. After the
// first applied rule with IsCumulative=false, evaluation stops; later
// rules are ignored regardless of their own cumulative flag. The result
// is clamped to a minimum of 0.
//
// An offering with no rules returns the base price unchanged. That is
// success, not an error.
func (e *RuleEngine) ApplyRules(ctx context.Context, offering *Offering, order *OrderContext) (RuleResult, error) {
	result := RuleResult{
		FinalPrice:   offering.BasePrice,
		AppliedRules: []AppliedRule{},
	}

	rules, err := e.rules.ListActiveRules(ctx, offering.ID)
	if err != nil {
		return RuleResult{}, fmt.Errorf("listing rules for offering %d: %w", offering.ID, err)
	}
	if len(rules) == 0 {
		return result, nil
	}

	// Repository order is ascending priority already; re-sort defensively
	// with rule ID as tie-break so evaluation is reproducible.
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})

	now := e.now()
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if len(rule.Actions) == 0 {
			// Malformed: a rule that cannot adjust anything. Skip rather
			// than abort, one bad rule must not break the offering.
			e.metrics.RecordInvalidRule(string(rule.Type))
			e.logger.Warn().
				Int64("rule_id", rule.ID).
				Int64("offering_id", offering.ID).
				Msg("Skipping pricing rule with no actions")
			continue
		}
		if !conditionsMatch(rule.Conditions, order, now) {
			continue
		}

		// Clamp between rules too: a negative intermediate value is
		// currency corruption waiting to compound.
		result.FinalPrice = clampPrice(applyActions(rule.Actions, result.FinalPrice))
		result.AppliedRules = append(result.AppliedRules, AppliedRule{
			RuleID:     rule.ID,
			Type:       rule.Type,
			PriceAfter: result.FinalPrice,
		})

		if !rule.IsCumulative {
			break
		}
	}

	result.FinalPrice = clampPrice(result.FinalPrice)
	e.metrics.RecordRulesApplied(len(result.AppliedRules))
	return result, nil
}

// conditionsMatch reports whether every condition of a rule holds.
// A rule with no conditions matches unconditionally.
func conditionsMatch(conditions []RuleCondition, order *OrderContext, now time.Time) bool {
	for _, c := range conditions {
		if !c.Matches(order, now) {
			return false
		}
	}
	return true
}

// applyActions applies one rule's actions in the canonical sub-order:
// multiplier, percentage discount, fixed discount, added fee, override.
func applyActions(actions []RuleAction, price int64) int64 {
	ordered := make([]RuleAction, len(actions))
	copy(ordered, actions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].rank() < ordered[j].rank()
	})
	for _, a := range ordered {
		price = a.Apply(price)
	}
	return price
}

// clampPrice floors a price at 0. A price must never go negative
// regardless of rule composition.
func clampPrice(price int64) int64 {
	if price < 0 {
		return 0
	}
	return price
}
