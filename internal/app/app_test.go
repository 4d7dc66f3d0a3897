package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luofan/yupen/pkg/config"
	"github.com/luofan/yupen/pkg/logger"
)

const testStrategyYAML = `meta:
  strategy_id: wiring_test
  version: "1.0"
weights:
  liquidity: 0.20
  risk: 0.25
  return: 0.25
  premium: 0.15
  sentiment: 0.15
scoring:
  volume_cap_cny: 1000000000
  scale_cap: 10
  default_scale: 5
selection:
  top_k: 2
  stable_risk_threshold: 75
signals:
  buy_threshold: 85
  hold_threshold: 70
  stable_position_pct: 0.5
  aggressive_position_pct: 1.0
fallback:
  stable: [sh.510300, sh.510050]
  aggressive: [sz.159915, sh.512880]
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	strategyFile := filepath.Join(dir, "strategy.yaml")
	require.NoError(t, os.WriteFile(strategyFile, []byte(testStrategyYAML), 0o644))

	return &config.Config{
		Port: "0",
		Env:  "development",
		Data: config.DataConfig{
			BaseDir:       dir,
			RawDir:        filepath.Join(dir, "raw"),
			PoolDir:       filepath.Join(dir, "stock_pool"),
			TradeLogDir:   filepath.Join(dir, "trade_log"),
			IPODir:        filepath.Join(dir, "new_stock"),
			RetentionDays: 30,
		},
		Crawl: config.CrawlConfig{
			FetchTimeout:    5 * time.Second,
			SymbolDeadline:  time.Minute,
			RequestsPerSec:  10,
			CacheMaxAgeDays: 1460,
			MaxRetries:      1,
			RetryDelay:      time.Millisecond,
		},
		StrategyFile: strategyFile,
		LogLevel:     "error",
	}
}

// New must assemble the whole graph from config alone: strategy file,
// disabled Redis, rate-limited vendor clients and all data dirs.
func TestNew_WiresFullGraph(t *testing.T) {
	a, err := New(testConfig(t), logger.NewNop())
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Strategy)
	require.NotNil(t, a.Store)
	require.NotNil(t, a.Tracker)
	require.NotNil(t, a.Batch)
	require.NotNil(t, a.Acquirer)
	require.NotNil(t, a.Generator)
	require.NotNil(t, a.Snapshot)
	require.Equal(t, "wiring_test", a.Strategy.Meta.StrategyID)
}

func TestNew_BadStrategyFileFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.StrategyFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := New(cfg, logger.NewNop())
	require.Error(t, err)
}
