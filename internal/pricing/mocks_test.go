package pricing

import (
	"context"
	"errors"
	"sort"
)

// mockSource is an in-memory implementation of the engine's repository
// interfaces for testing.
type mockSource struct {
	offerings map[int64]*Offering        // offeringID -> offering
	byWebsite map[int64][]int64          // websiteID -> offeringIDs
	overrides map[int64]*PriceOverride   // websiteID -> override
	rules     map[int64][]*PricingRule   // offeringID -> rules
	flat      map[int64]int64            // websiteID -> legacy flat price
	strategy  map[int64]Strategy         // websiteID -> configured strategy
	records   map[int64]*DerivedPriceRecord
	failFor   map[int64]bool // websiteIDs whose reads fail
}

var errMockRepository = errors.New("repository unavailable")

func newMockSource() *mockSource {
	return &mockSource{
		offerings: make(map[int64]*Offering),
		byWebsite: make(map[int64][]int64),
		overrides: make(map[int64]*PriceOverride),
		rules:     make(map[int64][]*PricingRule),
		flat:      make(map[int64]int64),
		strategy:  make(map[int64]Strategy),
		records:   make(map[int64]*DerivedPriceRecord),
		failFor:   make(map[int64]bool),
	}
}

func (m *mockSource) addOffering(o *Offering) *Offering {
	m.offerings[o.ID] = o
	m.byWebsite[o.WebsiteID] = append(m.byWebsite[o.WebsiteID], o.ID)
	return o
}

func (m *mockSource) addRule(r *PricingRule) {
	m.rules[r.OfferingID] = append(m.rules[r.OfferingID], r)
}

func (m *mockSource) ListEligibleOfferings(_ context.Context, websiteID int64, offeringType OfferingType) ([]*Offering, error) {
	if m.failFor[websiteID] {
		return nil, errMockRepository
	}
	var out []*Offering
	for _, id := range m.byWebsite[websiteID] {
		o := m.offerings[id]
		if o.Type == offeringType && o.Eligible() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockSource) GetOffering(_ context.Context, offeringID int64) (*Offering, error) {
	return m.offerings[offeringID], nil
}

func (m *mockSource) GetOverride(_ context.Context, websiteID int64) (*PriceOverride, error) {
	return m.overrides[websiteID], nil
}

func (m *mockSource) ListActiveRules(_ context.Context, offeringID int64) ([]*PricingRule, error) {
	rules := make([]*PricingRule, 0)
	for _, r := range m.rules[offeringID] {
		if r.IsActive {
			rules = append(rules, r)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })
	return rules, nil
}

func (m *mockSource) GetFlatPrice(_ context.Context, websiteID int64) (*int64, error) {
	if m.failFor[websiteID] {
		return nil, errMockRepository
	}
	if price, ok := m.flat[websiteID]; ok {
		return &price, nil
	}
	return nil, nil
}

func (m *mockSource) GetStrategy(_ context.Context, websiteID int64) (Strategy, error) {
	return m.strategy[websiteID], nil
}

func (m *mockSource) ListWebsiteIDs(_ context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(m.byWebsite))
	for id := range m.byWebsite {
		ids = append(ids, id)
	}
	for id := range m.flat {
		if _, ok := m.byWebsite[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *mockSource) Upsert(_ context.Context, record *DerivedPriceRecord) error {
	m.records[record.WebsiteID] = record
	return nil
}

func (m *mockSource) Get(_ context.Context, websiteID int64) (*DerivedPriceRecord, error) {
	return m.records[websiteID], nil
}

// eligibleOffering builds an active, available offering.
func eligibleOffering(id, websiteID, publisherID, basePrice int64, offeringType OfferingType) *Offering {
	return &Offering{
		ID:           id,
		PublisherID:  publisherID,
		WebsiteID:    websiteID,
		Type:         offeringType,
		BasePrice:    basePrice,
		Currency:     "EUR",
		IsActive:     true,
		Availability: AvailabilityAvailable,
	}
}

func int64Ptr(v int64) *int64 { return &v }
