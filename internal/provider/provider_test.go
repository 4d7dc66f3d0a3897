package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/pkg/logger"
)

// stubClient scripts one vendor's answer.
type stubClient struct {
	name   string
	series etf.Series
	err    error
	calls  int
}

func (s *stubClient) Name() string { return s.name }

func (s *stubClient) FetchDaily(_ context.Context, _ etf.Symbol, _ time.Time) (etf.Series, error) {
	s.calls++
	return s.series, s.err
}

func testSeries(days ...int) etf.Series {
	s := make(etf.Series, len(days))
	for i, d := range days {
		price := decimal.NewFromFloat(1.0)
		s[i] = etf.Bar{
			Date:   time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: decimal.NewFromInt(100),
		}
	}
	return s
}

func TestChainResolve_FirstVendorWins(t *testing.T) {
	primary := &stubClient{name: "eastmoney", series: testSeries(10, 11)}
	backup := &stubClient{name: "sina", series: testSeries(10)}
	chain := NewChain(logger.NewNop(), primary, backup)

	series, vendor, err := chain.Resolve(context.Background(), "sh.510300", etf.KindDaily, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "eastmoney", vendor)
	assert.Len(t, series, 2)
	assert.Equal(t, 0, backup.calls, "backup must not be touched when the primary answers")
}

func TestChainResolve_FallsThroughFailures(t *testing.T) {
	primary := &stubClient{name: "eastmoney", err: errors.New("connection refused")}
	empty := &stubClient{name: "sina", series: nil}
	last := &stubClient{name: "tushare", series: testSeries(10)}
	chain := NewChain(logger.NewNop(), primary, empty, last)

	series, vendor, err := chain.Resolve(context.Background(), "sh.510300", etf.KindDaily, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "tushare", vendor)
	assert.Len(t, series, 1)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, empty.calls)
}

func TestChainResolve_AllFail(t *testing.T) {
	chain := NewChain(logger.NewNop(),
		&stubClient{name: "eastmoney", err: errors.New("boom")},
		&stubClient{name: "sina", series: nil},
	)

	_, _, err := chain.Resolve(context.Background(), "sh.510300", etf.KindDaily, time.Time{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestChainResolve_SchemaMismatchIdentifiable(t *testing.T) {
	bad := &stubClient{name: "eastmoney", err: fmt.Errorf("%w: missing column", ErrSchemaMismatch)}
	chain := NewChain(logger.NewNop(), bad)

	_, _, err := chain.Resolve(context.Background(), "sh.510300", etf.KindDaily, time.Time{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, ErrSchemaMismatch, "the payload failure survives the ladder walk")

	assert.Equal(t, "malformed-schema", failureKind(bad.err))
	assert.Equal(t, "network", failureKind(errors.New("connection refused")))
}

func TestChainResolve_UnsupportedKind(t *testing.T) {
	primary := &stubClient{name: "eastmoney", series: testSeries(10)}
	chain := NewChain(logger.NewNop(), primary)

	_, _, err := chain.Resolve(context.Background(), "sh.510300", etf.KindIntraday, time.Time{})
	assert.ErrorIs(t, err, ErrUnsupportedKind)
	assert.Equal(t, 0, primary.calls, "no vendor is asked for a kind none can serve")
}

func TestChainResolve_EmptyChain(t *testing.T) {
	chain := NewChain(logger.NewNop())
	_, _, err := chain.Resolve(context.Background(), "sh.510300", etf.KindDaily, time.Time{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestChainResolve_ContextCancelled(t *testing.T) {
	slow := &stubClient{name: "eastmoney", err: errors.New("timeout")}
	next := &stubClient{name: "sina", series: testSeries(10)}
	chain := NewChain(logger.NewNop(), slow, next)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := chain.Resolve(ctx, "sh.510300", etf.KindDaily, time.Time{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, next.calls)
}

func TestChainResolve_SortsUnorderedVendorData(t *testing.T) {
	unordered := &stubClient{name: "tushare", series: testSeries(12, 10, 11)}
	chain := NewChain(logger.NewNop(), unordered)

	series, _, err := chain.Resolve(context.Background(), "sh.510300", etf.KindDaily, time.Time{})
	require.NoError(t, err)
	assert.True(t, series.IsSortedUnique())
}

func TestChainNames(t *testing.T) {
	chain := NewChain(logger.NewNop(),
		&stubClient{name: "eastmoney"},
		&stubClient{name: "sina"},
	)
	assert.Equal(t, []string{"eastmoney", "sina"}, chain.Names())
}
