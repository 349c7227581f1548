package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputeAllBestEffort(t *testing.T) {
	mock := newMockSource()
	mock.addOffering(eligibleOffering(1, 100, 10, 20000, OfferingGuestPost))
	mock.addOffering(eligibleOffering(2, 200, 11, 30000, OfferingGuestPost))
	mock.addOffering(eligibleOffering(3, 300, 12, 40000, OfferingGuestPost))
	mock.failFor[200] = true

	calc := newTestCalculator(mock, nil)

	result, err := calc.RecomputeAll(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, int64(200), result.Errors[0].WebsiteID)
	assert.NotEmpty(t, result.Errors[0].Reason)

	// The failing website must not block its neighbors.
	assert.NotNil(t, mock.records[100])
	assert.NotNil(t, mock.records[300])
	assert.Nil(t, mock.records[200])
}

func TestRecomputeAllExplicitIDs(t *testing.T) {
	mock := newMockSource()
	mock.addOffering(eligibleOffering(1, 100, 10, 20000, OfferingGuestPost))
	mock.addOffering(eligibleOffering(2, 200, 11, 30000, OfferingGuestPost))

	calc := newTestCalculator(mock, nil)

	result, err := calc.RecomputeAll(context.Background(), []int64{100}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Empty(t, result.Errors)
	assert.NotNil(t, mock.records[100])
	assert.Nil(t, mock.records[200])
}

func TestRecomputeAllCancelledContext(t *testing.T) {
	mock := newMockSource()
	for i := int64(1); i <= 20; i++ {
		mock.addOffering(eligibleOffering(i, 100+i, 10, 20000, OfferingGuestPost))
	}

	calc := newTestCalculator(mock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := calc.RecomputeAll(ctx, nil, 2)
	require.NoError(t, err)
	// Everything is reported, either as skipped or (rarely) completed.
	assert.Equal(t, 20, result.Updated+len(result.Errors))
}
