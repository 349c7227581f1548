package pricing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Recorder exposes the attribution cache and the audit comparison used
// to migrate away from the legacy flat price field without silently
// breaking prices.
type Recorder struct {
	store    AttributionStore
	websites WebsiteSource
	metrics  *MetricsRecorder
	logger   zerolog.Logger
}

// NewRecorder creates a new attribution recorder.
func NewRecorder(store AttributionStore, websites WebsiteSource) *Recorder {
	return &Recorder{
		store:    store,
		websites: websites,
		metrics:  NewMetricsRecorder(),
		logger:   log.With().Str("component", "attribution_recorder").Logger(),
	}
}

// Record upserts the attribution record for a website. One record per
// website; last write wins.
func (r *Recorder) Record(ctx context.Context, record *DerivedPriceRecord) error {
	if record.WebsiteID <= 0 {
		return ErrInvalidRequest{Field: "websiteId", Reason: "must be positive"}
	}
	if err := r.store.Upsert(ctx, record); err != nil {
		return fmt.Errorf("upserting attribution for website %d: %w", record.WebsiteID, err)
	}
	return nil
}

// Get returns the cached attribution record for a website, or nil when
// the website has never been computed.
func (r *Recorder) Get(ctx context.Context, websiteID int64) (*DerivedPriceRecord, error) {
	record, err := r.store.Get(ctx, websiteID)
	if err != nil {
		return nil, fmt.Errorf("fetching attribution for website %d: %w", websiteID, err)
	}
	return record, nil
}

// Compare classifies the drift between a website's legacy flat price
// and its last derived price. Callers use this to audit before cutting
// over from the legacy field.
func (r *Recorder) Compare(ctx context.Context, websiteID int64) (*PricingComparison, error) {
	current, err := r.websites.GetFlatPrice(ctx, websiteID)
	if err != nil {
		return nil, fmt.Errorf("fetching flat price for website %d: %w", websiteID, err)
	}

	record, err := r.store.Get(ctx, websiteID)
	if err != nil {
		return nil, fmt.Errorf("fetching attribution for website %d: %w", websiteID, err)
	}

	cmp := &PricingComparison{
		WebsiteID:    websiteID,
		CurrentPrice: current,
	}
	if record != nil {
		cmp.DerivedPrice = record.DerivedPrice
		cmp.Method = record.Method
		cmp.CalculatedAt = record.CalculatedAt
	}

	cmp.Status = classify(cmp.CurrentPrice, cmp.DerivedPrice)
	if cmp.Status == ComparisonMatch || cmp.Status == ComparisonMismatch {
		diff := *cmp.DerivedPrice - *cmp.CurrentPrice
		if diff < 0 {
			diff = -diff
		}
		cmp.AbsoluteDiff = diff
		if *cmp.CurrentPrice != 0 {
			cmp.PercentDiff = float64(diff) / float64(*cmp.CurrentPrice) * 100
		}
	}

	r.metrics.RecordComparison(cmp.Status)
	return cmp, nil
}

func classify(current, derived *int64) ComparisonStatus {
	switch {
	case current == nil && derived == nil:
		return ComparisonBothNull
	case current == nil:
		return ComparisonCurrentNull
	case derived == nil:
		return ComparisonDerivedNull
	case *current == *derived:
		return ComparisonMatch
	default:
		return ComparisonMismatch
	}
}
