package etf

import "math"

// ScoreRecord holds the five sub-scores and the weighted total for one
// symbol. Every field is on a 0-100 scale. Records are recomputed from
// the current series on each scoring pass and only snapshotted into
// pool artifacts, never treated as authoritative state.
type ScoreRecord struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name,omitempty"`
	Liquidity float64 `json:"liquidity_score"`
	Risk      float64 `json:"risk_score"`
	Return    float64 `json:"return_score"`
	Premium   float64 `json:"premium_score"`
	Sentiment float64 `json:"sentiment_score"`
	Total     float64 `json:"total_score"`
}

// Round1 rounds every component to one decimal, matching the
// precision of the persisted pool artifacts.
func (r ScoreRecord) Round1() ScoreRecord {
	round := func(v float64) float64 {
		return math.Round(v*10) / 10
	}
	r.Liquidity = round(r.Liquidity)
	r.Risk = round(r.Risk)
	r.Return = round(r.Return)
	r.Premium = round(r.Premium)
	r.Sentiment = round(r.Sentiment)
	r.Total = round(r.Total)
	return r
}
