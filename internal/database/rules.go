package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/linkmarket/pricing-service/internal/pricing"
)

// RuleRepo is the Postgres implementation of pricing.RuleSource.
//
// Publisher tooling stores rule conditions and actions as free-form
// JSONB. This repository is the boundary where those payloads are
// decoded into the engine's closed variant types; a rule whose payload
// does not decode is skipped and logged, never surfaced as an error, so
// one bad rule cannot break pricing for an entire offering.
type RuleRepo struct {
	pool    *pgxpool.Pool
	metrics *pricing.MetricsRecorder
	logger  zerolog.Logger
}

// NewRuleRepo creates a new rule repository.
func NewRuleRepo(pool *pgxpool.Pool) *RuleRepo {
	return &RuleRepo{
		pool:    pool,
		metrics: pricing.NewMetricsRecorder(),
		logger:  log.With().Str("component", "rule_repo").Logger(),
	}
}

// ListActiveRules returns the active rules for an offering in ascending
// priority order, with malformed rules filtered out.
func (r *RuleRepo) ListActiveRules(ctx context.Context, offeringID int64) ([]*pricing.PricingRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, offering_id, rule_type, conditions, actions, priority, is_cumulative, is_active
		FROM pricing_rules
		WHERE offering_id = $1 AND is_active = true
		ORDER BY priority, id
	`, offeringID)
	if err != nil {
		return nil, fmt.Errorf("querying pricing rules: %w", err)
	}
	defer rows.Close()

	var rules []*pricing.PricingRule
	for rows.Next() {
		var (
			rule           pricing.PricingRule
			ruleType       string
			conditionsJSON []byte
			actionsJSON    []byte
		)
		if err := rows.Scan(&rule.ID, &rule.OfferingID, &ruleType, &conditionsJSON, &actionsJSON, &rule.Priority, &rule.IsCumulative, &rule.IsActive); err != nil {
			return nil, fmt.Errorf("scanning pricing rule: %w", err)
		}
		rule.Type = pricing.RuleType(ruleType)

		conditions, err := decodeConditions(conditionsJSON)
		if err != nil {
			r.skipMalformed(&rule, "conditions", err)
			continue
		}
		actions, err := decodeActions(actionsJSON)
		if err != nil {
			r.skipMalformed(&rule, "actions", err)
			continue
		}
		rule.Conditions = conditions
		rule.Actions = actions
		rules = append(rules, &rule)
	}
	return rules, rows.Err()
}

func (r *RuleRepo) skipMalformed(rule *pricing.PricingRule, field string, err error) {
	r.metrics.RecordInvalidRule(string(rule.Type))
	r.logger.Warn().
		Err(err).
		Int64("rule_id", rule.ID).
		Int64("offering_id", rule.OfferingID).
		Str("field", field).
		Msg("Skipping pricing rule with malformed payload")
}

// conditionsPayload is the stored shape of a rule's conditions.
type conditionsPayload struct {
	MinQuantity  *int       `json:"minQuantity"`
	Niches       []string   `json:"niches"`
	DateRange    *dateRange `json:"dateRange"`
	MinWordCount *int       `json:"minWordCount"`
}

type dateRange struct {
	From  *time.Time `json:"from"`
	Until *time.Time `json:"until"`
}

// actionsPayload is the stored shape of a rule's actions.
type actionsPayload struct {
	Multiplier    *float64 `json:"multiplier"`
	PercentageOff *int64   `json:"percentageOff"`
	FixedDiscount *int64   `json:"fixedDiscount"`
	FixedFee      *int64   `json:"fixedFee"`
	OverridePrice *int64   `json:"overridePrice"`
}

// decodeConditions turns a stored conditions payload into the engine's
// variant types. Unknown keys make the payload malformed.
func decodeConditions(data []byte) ([]pricing.RuleCondition, error) {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var payload conditionsPayload
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding conditions: %w", err)
	}

	var conditions []pricing.RuleCondition
	if payload.MinQuantity != nil {
		if *payload.MinQuantity < 0 {
			return nil, fmt.Errorf("minQuantity must not be negative")
		}
		conditions = append(conditions, pricing.VolumeCondition{MinQuantity: *payload.MinQuantity})
	}
	if len(payload.Niches) > 0 {
		conditions = append(conditions, pricing.NicheCondition{Niches: payload.Niches})
	}
	if payload.DateRange != nil {
		var c pricing.DateRangeCondition
		if payload.DateRange.From != nil {
			c.From = *payload.DateRange.From
		}
		if payload.DateRange.Until != nil {
			c.Until = *payload.DateRange.Until
		}
		if !c.From.IsZero() && !c.Until.IsZero() && c.Until.Before(c.From) {
			return nil, fmt.Errorf("dateRange ends before it starts")
		}
		conditions = append(conditions, c)
	}
	if payload.MinWordCount != nil {
		if *payload.MinWordCount < 0 {
			return nil, fmt.Errorf("minWordCount must not be negative")
		}
		conditions = append(conditions, pricing.ContentLengthCondition{MinWordCount: *payload.MinWordCount})
	}
	return conditions, nil
}

// decodeActions turns a stored actions payload into the engine's
// variant types. Multipliers are converted to basis points at this
// boundary so the engine itself stays integer-only.
func decodeActions(data []byte) ([]pricing.RuleAction, error) {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var payload actionsPayload
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding actions: %w", err)
	}

	var actions []pricing.RuleAction
	if payload.Multiplier != nil {
		if *payload.Multiplier <= 0 {
			return nil, fmt.Errorf("multiplier must be positive")
		}
		actions = append(actions, pricing.MultiplierAction{Bps: int64(math.Round(*payload.Multiplier * 10000))})
	}
	if payload.PercentageOff != nil {
		if *payload.PercentageOff < 0 || *payload.PercentageOff > 100 {
			return nil, fmt.Errorf("percentageOff out of range")
		}
		actions = append(actions, pricing.PercentageOffAction{Percent: *payload.PercentageOff})
	}
	if payload.FixedDiscount != nil {
		if *payload.FixedDiscount < 0 {
			return nil, fmt.Errorf("fixedDiscount must not be negative")
		}
		actions = append(actions, pricing.FixedDiscountAction{Amount: *payload.FixedDiscount})
	}
	if payload.FixedFee != nil {
		if *payload.FixedFee < 0 {
			return nil, fmt.Errorf("fixedFee must not be negative")
		}
		actions = append(actions, pricing.FixedFeeAction{Amount: *payload.FixedFee})
	}
	if payload.OverridePrice != nil {
		if *payload.OverridePrice < 0 {
			return nil, fmt.Errorf("overridePrice must not be negative")
		}
		actions = append(actions, pricing.OverridePriceAction{Price: *payload.OverridePrice})
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("no recognized actions")
	}
	return actions, nil
}
