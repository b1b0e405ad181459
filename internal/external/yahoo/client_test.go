package yahoo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alext/moneyrobot/pkg/logger"
)

func TestNewDefaultsRateLimit(t *testing.T) {
	c := New(logger.NewNop(), 0)
	assert.NotNil(t, c.limiter)
	assert.InDelta(t, 2, float64(c.limiter.Limit()), 1e-9)

	c = New(logger.NewNop(), 5)
	assert.InDelta(t, 5, float64(c.limiter.Limit()), 1e-9)
}

func TestHistoryCancelledContext(t *testing.T) {
	c := New(logger.NewNop(), 0.001)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.History(ctx, "SPY")
	require.Error(t, err)
}

func TestHistoryLive(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping live Yahoo Finance test")
	}

	series, err := New(logger.NewNop(), 2).History(context.Background(), "SPY")
	require.NoError(t, err)
	require.NotEmpty(t, series)

	first := series[0]
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, first.Date)
	assert.Greater(t, first.Close, 0.0)
	assert.LessOrEqual(t, first.Low, first.High)

	// Oldest first.
	assert.Less(t, series[0].Date, series[len(series)-1].Date)
}
