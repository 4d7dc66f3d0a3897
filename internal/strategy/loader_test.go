package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luofan/yupen/internal/etf"
)

const validYAML = `
meta:
  strategy_id: yupen_etf_v1
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
  top_k: 5
  stable_risk_threshold: 75
signals:
  buy_threshold: 85
  hold_threshold: 70
  stable_position_pct: 0.6
  aggressive_position_pct: 0.4
fallback:
  stable: ["sh.510300", "sh.510500"]
  aggressive: ["sz.159915"]
`

func writeStrategy(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeStrategy(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "yupen_etf_v1", cfg.Meta.StrategyID)
	assert.InDelta(t, 1.0, cfg.Weights.Sum(), 1e-9)
	assert.Equal(t, 5, cfg.Selection.TopK)
	assert.Equal(t, 75.0, cfg.Selection.StableRiskThreshold)
	assert.Equal(t,
		[]etf.Symbol{"sh.510300", "sh.510500"},
		cfg.FallbackSymbols(etf.BucketStable))
	assert.Equal(t,
		[]etf.Symbol{"sz.159915"},
		cfg.FallbackSymbols(etf.BucketAggressive))
}

func TestLoad_UnknownFieldFails(t *testing.T) {
	bad := validYAML + "\nsurprise_field: 1\n"
	_, err := Load(writeStrategy(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "surprise_field")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(writeStrategy(t, validYAML))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"weights off by too much", func(c *Config) { c.Weights.Risk = 0.5 }, "weights"},
		{"negative weight", func(c *Config) { c.Weights.Premium = -0.15; c.Weights.Risk = 0.55 }, "weights.premium"},
		{"zero top_k", func(c *Config) { c.Selection.TopK = 0 }, "selection.top_k"},
		{"threshold out of range", func(c *Config) { c.Selection.StableRiskThreshold = 120 }, "selection.stable_risk_threshold"},
		{"buy below hold", func(c *Config) { c.Signals.BuyThreshold = 60 }, "signals"},
		{"bad fallback symbol", func(c *Config) { c.Fallback.Stable = []string{"bogus!"} }, "fallback.stable"},
		{"missing strategy id", func(c *Config) { c.Meta.StrategyID = "" }, "meta.strategy_id"},
		{"zero volume cap", func(c *Config) { c.Scoring.VolumeCapCNY = 0 }, "scoring.volume_cap_cny"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestHash_Deterministic(t *testing.T) {
	cfg1, err := Load(writeStrategy(t, validYAML))
	require.NoError(t, err)
	cfg2, err := Load(writeStrategy(t, validYAML))
	require.NoError(t, err)

	h1, err := Hash(cfg1)
	require.NoError(t, err)
	h2, err := Hash(cfg2)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	cfg2.Selection.TopK = 6
	h3, err := Hash(cfg2)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}
