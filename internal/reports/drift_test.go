package reports

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/linkmarket/pricing-service/internal/pricing"
)

type stubWebsites struct {
	ids     []int64
	flat    map[int64]int64
	records map[int64]*pricing.DerivedPriceRecord
}

func (s *stubWebsites) GetFlatPrice(_ context.Context, websiteID int64) (*int64, error) {
	if p, ok := s.flat[websiteID]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *stubWebsites) GetStrategy(context.Context, int64) (pricing.Strategy, error) {
	return "", nil
}

func (s *stubWebsites) ListWebsiteIDs(context.Context) ([]int64, error) {
	return s.ids, nil
}

func (s *stubWebsites) Upsert(_ context.Context, record *pricing.DerivedPriceRecord) error {
	s.records[record.WebsiteID] = record
	return nil
}

func (s *stubWebsites) Get(_ context.Context, websiteID int64) (*pricing.DerivedPriceRecord, error) {
	return s.records[websiteID], nil
}

func TestDriftReportRoundTrip(t *testing.T) {
	derived := int64(25000)
	stub := &stubWebsites{
		ids:  []int64{100, 200},
		flat: map[int64]int64{100: 20000},
		records: map[int64]*pricing.DerivedPriceRecord{
			100: {
				WebsiteID:    100,
				DerivedPrice: &derived,
				Method:       pricing.MethodAutoMin,
				CalculatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			},
		},
	}

	reporter := NewDriftReporter(stub, pricing.NewRecorder(stub, stub))

	var buf bytes.Buffer
	count, err := reporter.Generate(context.Background(), nil, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Price Drift")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per website")

	assert.Equal(t, "Website ID", rows[0][0])

	// Website 100: flat 200.00 vs derived 250.00
	assert.Equal(t, "100", rows[1][0])
	assert.Equal(t, "200.00", rows[1][1])
	assert.Equal(t, "250.00", rows[1][2])
	assert.Equal(t, "mismatch", rows[1][3])
	assert.Equal(t, "50.00", rows[1][4])
	assert.Equal(t, "25.0%", rows[1][5])

	// Website 200 has neither price
	assert.Equal(t, "200", rows[2][0])
	assert.Equal(t, "both_null", rows[2][3])
}

func TestDriftReportExplicitIDs(t *testing.T) {
	stub := &stubWebsites{
		ids:     []int64{100, 200, 300},
		flat:    map[int64]int64{},
		records: map[int64]*pricing.DerivedPriceRecord{},
	}

	reporter := NewDriftReporter(stub, pricing.NewRecorder(stub, stub))

	var buf bytes.Buffer
	count, err := reporter.Generate(context.Background(), []int64{300}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
