package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalculator(mock *mockSource, cfg *EngineConfig) *Calculator {
	if cfg == nil {
		cfg = DefaultEngineConfig()
	}
	return NewCalculator(mock, mock, mock, mock, cfg)
}

func TestQuoteBasicOffering(t *testing.T) {
	mock := newMockSource()
	mock.addOffering(eligibleOffering(1, 100, 10, 20000, OfferingGuestPost))

	calc := newTestCalculator(mock, nil)

	quote, err := calc.Quote(context.Background(), &QuoteRequest{WebsiteID: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), quote.WholesalePrice)
	assert.Equal(t, int64(27900), quote.RetailPrice)
	assert.Equal(t, SourceOffering, quote.Source)
	assert.Equal(t, MethodAutoMin, quote.Method)
	assert.Equal(t, "EUR", quote.Currency)
	require.NotNil(t, quote.OfferingID)
	assert.Equal(t, int64(1), *quote.OfferingID)
	require.NotNil(t, quote.PublisherID)
	assert.Equal(t, int64(10), *quote.PublisherID)
}

// TestQuoteServiceFeeInvariant: retail - wholesale == ServiceFee exactly
// for every offering-based quote, including a rule-overridden zero price.
func TestQuoteServiceFeeInvariant(t *testing.T) {
	mock := newMockSource()
	mock.addOffering(eligibleOffering(1, 100, 10, 20000, OfferingGuestPost))

	mock.addOffering(eligibleOffering(2, 200, 11, 5000, OfferingGuestPost))
	mock.addRule(&PricingRule{
		ID: 1, OfferingID: 2, Type: RuleNiche,
		Actions:  []RuleAction{OverridePriceAction{Price: 0}},
		Priority: 1,
		IsActive: true,
	})

	calc := newTestCalculator(mock, nil)

	for _, websiteID := range []int64{100, 200} {
		quote, err := calc.Quote(context.Background(), &QuoteRequest{WebsiteID: websiteID})
		require.NoError(t, err)
		assert.Equal(t, int64(7900), quote.RetailPrice-quote.WholesalePrice, "website %d", websiteID)
	}
}

func TestQuoteWebsiteStrategyDrivesSelection(t *testing.T) {
	mock := newMockSource()
	mock.addOffering(eligibleOffering(1, 100, 10, 15000, OfferingGuestPost))
	mock.addOffering(eligibleOffering(2, 100, 11, 25000, OfferingGuestPost))
	mock.strategy[100] = StrategyMax

	calc := newTestCalculator(mock, nil)

	quote, err := calc.Quote(context.Background(), &QuoteRequest{WebsiteID: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(25000), quote.WholesalePrice)
	assert.Equal(t, MethodAutoMax, quote.Method)
}

func TestQuoteFallbackToFlatPrice(t *testing.T) {
	mock := newMockSource()
	mock.flat[100] = 18000

	calc := newTestCalculator(mock, nil)

	quote, err := calc.Quote(context.Background(), &QuoteRequest{WebsiteID: 100})
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, quote.Source)
	assert.Equal(t, int64(18000), quote.WholesalePrice)
	assert.Equal(t, int64(25900), quote.RetailPrice)
	assert.Nil(t, quote.OfferingID)
}

func TestQuoteNoPriceAnywhereIsZeroNotError(t *testing.T) {
	mock := newMockSource()

	calc := newTestCalculator(mock, nil)

	quote, err := calc.Quote(context.Background(), &QuoteRequest{WebsiteID: 100})
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, quote.Source)
	assert.Equal(t, int64(0), quote.WholesalePrice)
	assert.Equal(t, int64(0), quote.RetailPrice)
}

func TestQuoteBulkDiscountTiering(t *testing.T) {
	mock := newMockSource()
	// Wholesale 15350 + fee 7900 = retail 23250; 12 units = 279000.
	mock.addOffering(eligibleOffering(1, 100, 10, 15350, OfferingGuestPost))

	cfg := DefaultEngineConfig()
	cfg.BulkTiers = []BulkTier{
		{MinQuantity: 5, PercentOff: 5},
		{MinQuantity: 10, PercentOff: 10},
		{MinQuantity: 25, PercentOff: 15},
	}
	calc := newTestCalculator(mock, cfg)

	quote, err := calc.Quote(context.Background(), &QuoteRequest{
		WebsiteID: 100,
		Order:     &OrderContext{Quantity: 12},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), quote.DiscountPercent)
	require.NotNil(t, quote.DiscountedTotal)
	assert.Equal(t, int64(251100), *quote.DiscountedTotal)
}

func TestQuoteBulkDiscountTruncatesDown(t *testing.T) {
	mock := newMockSource()
	// Retail = 101 + 7900 = 8001; 5 units = 40005; 5% off = 38004.75.
	mock.addOffering(eligibleOffering(1, 100, 10, 101, OfferingGuestPost))

	calc := newTestCalculator(mock, nil)

	quote, err := calc.Quote(context.Background(), &QuoteRequest{
		WebsiteID: 100,
		Order:     &OrderContext{Quantity: 5},
	})
	require.NoError(t, err)
	require.NotNil(t, quote.DiscountedTotal)
	assert.Equal(t, int64(38004), *quote.DiscountedTotal)
}

// TestBulkDiscountMonotonicity: a higher quantity never gets a lower
// discount percentage.
func TestBulkDiscountMonotonicity(t *testing.T) {
	cfg := DefaultEngineConfig()
	require.NoError(t, cfg.Validate())

	prev := int64(0)
	for q := 1; q <= 100; q++ {
		percent := cfg.BulkDiscountPercent(q)
		assert.GreaterOrEqual(t, percent, prev, "quantity %d", q)
		prev = percent
	}
}

func TestQuoteLinkInsertionDerivedFromGuestPost(t *testing.T) {
	mock := newMockSource()
	mock.addOffering(eligibleOffering(1, 100, 10, 50000, OfferingGuestPost))

	calc := newTestCalculator(mock, nil)

	quote, err := calc.Quote(context.Background(), &QuoteRequest{
		WebsiteID:    100,
		OfferingType: OfferingLinkInsertion,
	})
	require.NoError(t, err)
	assert.Equal(t, SourceOffering, quote.Source)
	assert.Equal(t, int64(35000), quote.WholesalePrice) // 30% off guest-post wholesale
	assert.Equal(t, int64(42900), quote.RetailPrice)
	require.NotNil(t, quote.OfferingID)
	assert.Equal(t, int64(1), *quote.OfferingID)
}

func TestQuoteDirectLinkInsertionOfferingWinsOverDerivation(t *testing.T) {
	mock := newMockSource()
	mock.addOffering(eligibleOffering(1, 100, 10, 50000, OfferingGuestPost))
	mock.addOffering(eligibleOffering(2, 100, 11, 12000, OfferingLinkInsertion))

	calc := newTestCalculator(mock, nil)

	quote, err := calc.Quote(context.Background(), &QuoteRequest{
		WebsiteID:    100,
		OfferingType: OfferingLinkInsertion,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12000), quote.WholesalePrice)
	require.NotNil(t, quote.OfferingID)
	assert.Equal(t, int64(2), *quote.OfferingID)
}

func TestQuoteRecordsAttribution(t *testing.T) {
	mock := newMockSource()
	mock.addOffering(eligibleOffering(1, 100, 10, 20000, OfferingGuestPost))

	calc := newTestCalculator(mock, nil)

	_, err := calc.Quote(context.Background(), &QuoteRequest{WebsiteID: 100})
	require.NoError(t, err)

	record := mock.records[100]
	require.NotNil(t, record)
	assert.Equal(t, MethodAutoMin, record.Method)
	require.NotNil(t, record.DerivedPrice)
	assert.Equal(t, int64(20000), *record.DerivedPrice)
	require.NotNil(t, record.OfferingID)
	assert.Equal(t, int64(1), *record.OfferingID)
	require.NotNil(t, record.PublisherID)
	assert.Equal(t, int64(10), *record.PublisherID)
	assert.False(t, record.CalculatedAt.IsZero())
}

func TestQuoteNoOfferingRecordsNullDerivedPrice(t *testing.T) {
	mock := newMockSource()
	mock.flat[100] = 18000

	calc := newTestCalculator(mock, nil)

	_, err := calc.Quote(context.Background(), &QuoteRequest{WebsiteID: 100})
	require.NoError(t, err)

	record := mock.records[100]
	require.NotNil(t, record)
	assert.Nil(t, record.DerivedPrice)
	assert.Equal(t, MethodAutoMin, record.Method)
	assert.Nil(t, record.OfferingID)
}

// TestQuoteDeterminism: identical inputs over unchanged data yield an
// identical quote.
func TestQuoteDeterminism(t *testing.T) {
	mock := newMockSource()
	mock.addOffering(eligibleOffering(1, 100, 10, 20000, OfferingGuestPost))
	mock.addOffering(eligibleOffering(2, 100, 11, 20000, OfferingGuestPost))
	mock.addRule(&PricingRule{
		ID: 1, OfferingID: 1, Type: RuleVolumeDiscount,
		Conditions: []RuleCondition{VolumeCondition{MinQuantity: 3}},
		Actions:    []RuleAction{PercentageOffAction{Percent: 5}},
		Priority:   1,
		IsActive:   true,
	})

	calc := newTestCalculator(mock, nil)
	req := &QuoteRequest{WebsiteID: 100, Order: &OrderContext{Quantity: 6}}

	first, err := calc.Quote(context.Background(), req)
	require.NoError(t, err)
	second, err := calc.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestQuoteInvalidRequest(t *testing.T) {
	calc := newTestCalculator(newMockSource(), nil)

	_, err := calc.Quote(context.Background(), &QuoteRequest{WebsiteID: 0})
	require.Error(t, err)
	assert.IsType(t, ErrInvalidRequest{}, err)

	_, err = calc.Quote(context.Background(), &QuoteRequest{
		WebsiteID: 1,
		Order:     &OrderContext{Quantity: -1},
	})
	require.Error(t, err)
}

func TestQuoteRepositoryFailureSurfaces(t *testing.T) {
	mock := newMockSource()
	mock.failFor[100] = true

	calc := newTestCalculator(mock, nil)

	_, err := calc.Quote(context.Background(), &QuoteRequest{WebsiteID: 100})
	require.Error(t, err)
	assert.ErrorIs(t, err, errMockRepository)
}

func TestEngineConfigValidation(t *testing.T) {
	cfg := DefaultEngineConfig()
	require.NoError(t, cfg.Validate())

	bad := DefaultEngineConfig()
	bad.BulkTiers = []BulkTier{{MinQuantity: 10, PercentOff: 10}, {MinQuantity: 5, PercentOff: 5}}
	assert.Error(t, bad.Validate())

	bad = DefaultEngineConfig()
	bad.BulkTiers = []BulkTier{{MinQuantity: 5, PercentOff: 10}, {MinQuantity: 10, PercentOff: 5}}
	assert.Error(t, bad.Validate())

	bad = DefaultEngineConfig()
	bad.ServiceFee = -1
	assert.Error(t, bad.Validate())

	bad = DefaultEngineConfig()
	bad.LinkInsertionDiscountPercent = 130
	assert.Error(t, bad.Validate())
}
