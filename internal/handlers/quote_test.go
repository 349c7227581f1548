package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkmarket/pricing-service/internal/pricing"
)

// stubSource is a minimal in-memory backing for the engine in handler tests.
type stubSource struct {
	offerings []*pricing.Offering
	flat      map[int64]int64
	records   map[int64]*pricing.DerivedPriceRecord
}

func (s *stubSource) ListEligibleOfferings(_ context.Context, websiteID int64, offeringType pricing.OfferingType) ([]*pricing.Offering, error) {
	var out []*pricing.Offering
	for _, o := range s.offerings {
		if o.WebsiteID == websiteID && o.Type == offeringType && o.Eligible() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubSource) GetOffering(_ context.Context, offeringID int64) (*pricing.Offering, error) {
	for _, o := range s.offerings {
		if o.ID == offeringID {
			return o, nil
		}
	}
	return nil, nil
}

func (s *stubSource) GetOverride(context.Context, int64) (*pricing.PriceOverride, error) {
	return nil, nil
}

func (s *stubSource) ListActiveRules(context.Context, int64) ([]*pricing.PricingRule, error) {
	return nil, nil
}

func (s *stubSource) GetFlatPrice(_ context.Context, websiteID int64) (*int64, error) {
	if price, ok := s.flat[websiteID]; ok {
		return &price, nil
	}
	return nil, nil
}

func (s *stubSource) GetStrategy(context.Context, int64) (pricing.Strategy, error) {
	return "", nil
}

func (s *stubSource) ListWebsiteIDs(context.Context) ([]int64, error) {
	ids := make([]int64, 0)
	for _, o := range s.offerings {
		ids = append(ids, o.WebsiteID)
	}
	return ids, nil
}

func (s *stubSource) Upsert(_ context.Context, record *pricing.DerivedPriceRecord) error {
	s.records[record.WebsiteID] = record
	return nil
}

func (s *stubSource) Get(_ context.Context, websiteID int64) (*pricing.DerivedPriceRecord, error) {
	return s.records[websiteID], nil
}

func setupTestRouter(t *testing.T, stub *stubSource) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	Init(
		pricing.NewCalculator(stub, stub, stub, stub, pricing.DefaultEngineConfig()),
		pricing.NewRecorder(stub, stub),
	)

	router := gin.New()
	router.POST("/internal/quotes", ComputeQuote)
	router.GET("/internal/websites/:websiteId/comparison", GetComparison)
	router.GET("/internal/websites/:websiteId/attribution", GetAttribution)
	router.POST("/internal/admin/recompute", RecomputeDerivedPrices)
	return router
}

func newStubSource() *stubSource {
	return &stubSource{
		flat:    make(map[int64]int64),
		records: make(map[int64]*pricing.DerivedPriceRecord),
	}
}

func TestComputeQuoteEndpoint(t *testing.T) {
	stub := newStubSource()
	stub.offerings = []*pricing.Offering{{
		ID: 1, PublisherID: 10, WebsiteID: 100,
		Type: pricing.OfferingGuestPost, BasePrice: 20000, Currency: "EUR",
		IsActive: true, Availability: pricing.AvailabilityAvailable,
	}}
	router := setupTestRouter(t, stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/quotes", strings.NewReader(`{"websiteId": 100}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"wholesalePrice":20000`)
	assert.Contains(t, w.Body.String(), `"retailPrice":27900`)
	assert.Contains(t, w.Body.String(), `"source":"offering_based"`)
}

func TestComputeQuoteEndpointValidation(t *testing.T) {
	router := setupTestRouter(t, newStubSource())

	tests := []string{
		`{}`,
		`{"websiteId": 0}`,
		`{"websiteId": 100, "offeringType": "banner_ad"}`,
		`{"websiteId": 100, "quantity": -2}`,
	}
	for _, body := range tests {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/internal/quotes", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
	}
}

func TestGetComparisonEndpoint(t *testing.T) {
	stub := newStubSource()
	stub.flat[100] = 20000
	derived := int64(25000)
	stub.records[100] = &pricing.DerivedPriceRecord{
		WebsiteID:    100,
		DerivedPrice: &derived,
		Method:       pricing.MethodAutoMin,
	}
	router := setupTestRouter(t, stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/internal/websites/100/comparison", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"mismatch"`)
	assert.Contains(t, w.Body.String(), `"absoluteDiff":5000`)
}

func TestGetAttributionEndpointNotFound(t *testing.T) {
	router := setupTestRouter(t, newStubSource())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/internal/websites/100/attribution", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecomputeEndpoint(t *testing.T) {
	stub := newStubSource()
	stub.offerings = []*pricing.Offering{{
		ID: 1, PublisherID: 10, WebsiteID: 100,
		Type: pricing.OfferingGuestPost, BasePrice: 20000, Currency: "EUR",
		IsActive: true, Availability: pricing.AvailabilityAvailable,
	}}
	router := setupTestRouter(t, stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/admin/recompute", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"updated":1`)
}
