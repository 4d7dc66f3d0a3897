package strategy

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/luofan/yupen/internal/etf"
)

// Load reads and validates the strategy file. Unknown YAML fields are
// an error so a typo never silently falls back to a default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy file: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode strategy file %s: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("strategy file %s: %w", path, err)
	}
	return &cfg, nil
}

// Hash returns the SHA-256 of the canonical JSON form, stamped into
// pool artifacts so a result can be traced to its strategy revision.
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// ValidationError is a named constraint failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every structural constraint. A failure aborts
// startup; running with a half-valid strategy corrupts artifacts.
func Validate(cfg *Config) error {
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	if math.Abs(cfg.Weights.Sum()-1.0) > 1e-6 {
		return ValidationError{"weights", fmt.Sprintf("must sum to 1.0, got %.4f", cfg.Weights.Sum())}
	}
	for field, w := range map[string]float64{
		"weights.liquidity": cfg.Weights.Liquidity,
		"weights.risk":      cfg.Weights.Risk,
		"weights.return":    cfg.Weights.Return,
		"weights.premium":   cfg.Weights.Premium,
		"weights.sentiment": cfg.Weights.Sentiment,
	} {
		if w < 0 {
			return ValidationError{field, "must be >= 0"}
		}
	}

	if cfg.Scoring.VolumeCapCNY <= 0 {
		return ValidationError{"scoring.volume_cap_cny", "must be > 0"}
	}
	if cfg.Scoring.ScaleCap <= 0 {
		return ValidationError{"scoring.scale_cap", "must be > 0"}
	}
	if cfg.Scoring.DefaultScale < 0 {
		return ValidationError{"scoring.default_scale", "must be >= 0"}
	}

	if cfg.Selection.TopK <= 0 {
		return ValidationError{"selection.top_k", "must be > 0"}
	}
	if cfg.Selection.StableRiskThreshold < 0 || cfg.Selection.StableRiskThreshold > 100 {
		return ValidationError{"selection.stable_risk_threshold", "must be in [0, 100]"}
	}

	if cfg.Signals.BuyThreshold < cfg.Signals.HoldThreshold {
		return ValidationError{"signals", "buy_threshold must be >= hold_threshold"}
	}
	for field, pct := range map[string]float64{
		"signals.stable_position_pct":     cfg.Signals.StablePositionPct,
		"signals.aggressive_position_pct": cfg.Signals.AggressivePositionPct,
	} {
		if pct < 0 || pct > 1 {
			return ValidationError{field, "must be in [0, 1]"}
		}
	}

	for _, list := range []struct {
		field   string
		symbols []string
	}{
		{"fallback.stable", cfg.Fallback.Stable},
		{"fallback.aggressive", cfg.Fallback.Aggressive},
	} {
		for _, raw := range list.symbols {
			if _, err := etf.ParseSymbol(raw); err != nil {
				return ValidationError{list.field, err.Error()}
			}
		}
	}

	return nil
}

// FallbackSymbols returns the parsed fallback list for a bucket.
// Validate already guaranteed every entry parses.
func (c *Config) FallbackSymbols(bucket etf.Bucket) []etf.Symbol {
	var raw []string
	if bucket == etf.BucketStable {
		raw = c.Fallback.Stable
	} else {
		raw = c.Fallback.Aggressive
	}

	symbols := make([]etf.Symbol, 0, len(raw))
	for _, r := range raw {
		if s, err := etf.ParseSymbol(r); err == nil {
			symbols = append(symbols, s)
		}
	}
	return symbols
}
