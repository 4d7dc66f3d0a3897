package etf

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotePremiumPct(t *testing.T) {
	q := Quote{
		Price: decimal.RequireFromString("4.034"),
		NAV:   decimal.RequireFromString("4.010"),
	}
	p, ok := q.PremiumPct()
	require.True(t, ok)
	assert.InDelta(t, 0.5985, p, 0.001)

	_, ok = Quote{Price: decimal.NewFromInt(4)}.PremiumPct()
	assert.False(t, ok, "missing NAV means no premium")
}

func TestQuoteScaleBillions(t *testing.T) {
	q := Quote{MarketCap: decimal.NewFromInt(8_500_000_000)}
	assert.InDelta(t, 8.5, q.ScaleBillions(), 1e-9)

	assert.Equal(t, 0.0, Quote{}.ScaleBillions(), "unknown market value stays zero for the neutral fallback")
}
