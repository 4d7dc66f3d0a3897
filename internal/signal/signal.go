// Package signal turns pool entries into concrete action signals.
// The decision uses the total score only; the per-bucket position
// sizes come from the strategy file.
package signal

import (
	"fmt"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/internal/strategy"
)

// Action is the recommended operation for one pool entry.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionHold Action = "hold"
	ActionSell Action = "sell"
)

// Label returns the push-message wording for the action.
func (a Action) Label() string {
	switch a {
	case ActionBuy:
		return "买入"
	case ActionHold:
		return "持有"
	default:
		return "卖出"
	}
}

// holdFraction scales the bucket position down when the signal is
// hold rather than buy.
const holdFraction = 0.5

// Signal is the decision for one pool entry.
type Signal struct {
	Symbol      string     `json:"symbol"`
	Name        string     `json:"name"`
	Bucket      etf.Bucket `json:"bucket"`
	Action      Action     `json:"action"`
	PositionPct float64    `json:"position_pct"` // percent of the book, 0-100
	Total       float64    `json:"total_score"`
	Rationale   string     `json:"rationale"`
}

// Calculator applies the strategy thresholds to scored entries.
type Calculator struct {
	signals strategy.Signals
}

// NewCalculator reads the thresholds from the strategy file.
func NewCalculator(cfg *strategy.Config) *Calculator {
	return &Calculator{signals: cfg.Signals}
}

// Decide maps one pool entry to an action signal.
func (c *Calculator) Decide(entry etf.PoolEntry) Signal {
	total := entry.Score.Total
	bucketPct := c.signals.StablePositionPct
	if entry.Bucket == etf.BucketAggressive {
		bucketPct = c.signals.AggressivePositionPct
	}

	sig := Signal{
		Symbol: entry.Symbol,
		Name:   entry.Name,
		Bucket: entry.Bucket,
		Total:  total,
	}
	switch {
	case total >= c.signals.BuyThreshold:
		sig.Action = ActionBuy
		sig.PositionPct = bucketPct * 100
		sig.Rationale = fmt.Sprintf("总分%.1f不低于买入阈值%.0f", total, c.signals.BuyThreshold)
	case total >= c.signals.HoldThreshold:
		sig.Action = ActionHold
		sig.PositionPct = bucketPct * holdFraction * 100
		sig.Rationale = fmt.Sprintf("总分%.1f处于持有区间[%.0f, %.0f)", total, c.signals.HoldThreshold, c.signals.BuyThreshold)
	default:
		sig.Action = ActionSell
		sig.PositionPct = 0
		sig.Rationale = fmt.Sprintf("总分%.1f低于持有阈值%.0f", total, c.signals.HoldThreshold)
	}
	return sig
}

// DecideAll maps a whole pool in entry order.
func (c *Calculator) DecideAll(p *etf.Pool) []Signal {
	signals := make([]Signal, 0, len(p.Entries))
	for _, entry := range p.Entries {
		signals = append(signals, c.Decide(entry))
	}
	return signals
}
