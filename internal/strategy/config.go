// Package strategy owns the strategy file: score weights, selection
// thresholds and fallback lists, loaded once at startup and passed
// into the scoring and selection layers.
package strategy

// Config is the full strategy definition.
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Weights   Weights   `yaml:"weights" json:"weights"`
	Scoring   Scoring   `yaml:"scoring" json:"scoring"`
	Selection Selection `yaml:"selection" json:"selection"`
	Signals   Signals   `yaml:"signals" json:"signals"`
	Fallback  Fallback  `yaml:"fallback" json:"fallback"`
}

// Meta identifies the strategy revision.
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Weights are the five factor weights. They must sum to 1.
type Weights struct {
	Liquidity float64 `yaml:"liquidity" json:"liquidity"`
	Risk      float64 `yaml:"risk" json:"risk"`
	Return    float64 `yaml:"return" json:"return"`
	Premium   float64 `yaml:"premium" json:"premium"`
	Sentiment float64 `yaml:"sentiment" json:"sentiment"`
}

// Sum returns the weight total.
func (w Weights) Sum() float64 {
	return w.Liquidity + w.Risk + w.Return + w.Premium + w.Sentiment
}

// Scoring holds the normalization caps of the sub-score formulas.
type Scoring struct {
	// VolumeCapCNY is the daily turnover that maps to a full liquidity
	// volume score, in yuan.
	VolumeCapCNY float64 `yaml:"volume_cap_cny" json:"volume_cap_cny"`
	// ScaleCap is the fund scale (billions) mapping to a full scale score.
	ScaleCap float64 `yaml:"scale_cap" json:"scale_cap"`
	// DefaultScale stands in when the fund scale is unknown.
	DefaultScale float64 `yaml:"default_scale" json:"default_scale"`
}

// Selection holds pool construction parameters.
type Selection struct {
	// TopK is the number of entries per bucket.
	TopK int `yaml:"top_k" json:"top_k"`
	// StableRiskThreshold routes records with a risk sub-score at or
	// above it into the stable bucket.
	StableRiskThreshold float64 `yaml:"stable_risk_threshold" json:"stable_risk_threshold"`
}

// Signals holds the action thresholds applied to total scores.
type Signals struct {
	BuyThreshold  float64 `yaml:"buy_threshold" json:"buy_threshold"`
	HoldThreshold float64 `yaml:"hold_threshold" json:"hold_threshold"`
	// Position sizes per bucket, as fractions of the book.
	StablePositionPct     float64 `yaml:"stable_position_pct" json:"stable_position_pct"`
	AggressivePositionPct float64 `yaml:"aggressive_position_pct" json:"aggressive_position_pct"`
}

// Fallback lists the symbols used to pad a bucket that selection
// could not fill.
type Fallback struct {
	Stable     []string `yaml:"stable" json:"stable"`
	Aggressive []string `yaml:"aggressive" json:"aggressive"`
}
