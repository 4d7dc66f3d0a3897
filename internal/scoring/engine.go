// Package scoring computes the five-factor score for one fund from
// its daily series and auxiliary market data. The formulas are pure;
// every network-derived input arrives through Aux so a score is
// reproducible from its inputs.
package scoring

import (
	"math"
	"sort"

	"github.com/luofan/yupen/internal/etf"
	"github.com/luofan/yupen/internal/strategy"
	"github.com/luofan/yupen/pkg/logger"
)

// Session counts for the return lookbacks.
const (
	oneYearSessions   = 252
	threeYearSessions = 756
)

// neutralScore stands in when an input is missing entirely. Missing
// data must never zero a factor, only pull it to the middle.
const neutralScore = 60

// shortHistoryRiskScore applies when fewer than minRiskReturns daily
// returns exist: not enough history to condemn, not enough to trust.
const (
	shortHistoryRiskScore = 70
	minRiskReturns        = 30
)

const liquidityLookback = 30

// Aux carries the non-series inputs of a score. Zero values mean
// "unknown" and map to the neutral treatment of each factor.
type Aux struct {
	// PremiumPct is the price premium over IOPV in percent.
	PremiumPct float64
	// HasPremium marks PremiumPct as actually observed.
	HasPremium bool
	// Holdings is the latest constituent table, possibly empty.
	Holdings []etf.Holding
	// Scale is the fund scale in billions, 0 when unknown.
	Scale float64
}

// Engine scores funds under one strategy revision.
type Engine struct {
	weights strategy.Weights
	scoring strategy.Scoring
	logger  *logger.Logger
}

// NewEngine creates a scoring engine from the loaded strategy.
func NewEngine(cfg *strategy.Config, log *logger.Logger) *Engine {
	return &Engine{
		weights: cfg.Weights,
		scoring: cfg.Scoring,
		logger:  log,
	}
}

// Score computes the full record for one fund. The caller guarantees
// series is sorted ascending; an empty series still yields a record
// built from neutral and zero components rather than an error, so a
// sparse symbol never aborts a pool run.
func (e *Engine) Score(symbol etf.Symbol, name string, series etf.Series, aux Aux) etf.ScoreRecord {
	closes := series.Closes()
	returns := dailyReturns(closes)

	record := etf.ScoreRecord{
		Symbol:    symbol.String(),
		Name:      name,
		Liquidity: e.liquidityScore(series, aux),
		Risk:      e.riskScore(returns),
		Return:    e.returnScore(closes, returns),
		Premium:   e.premiumScore(aux),
		Sentiment: e.sentimentScore(aux),
	}

	record.Total = record.Liquidity*e.weights.Liquidity +
		record.Risk*e.weights.Risk +
		record.Return*e.weights.Return +
		record.Premium*e.weights.Premium +
		record.Sentiment*e.weights.Sentiment

	return record.Round1()
}

// liquidityScore blends recent average turnover against the volume
// cap with fund scale against the scale cap, 60/40.
func (e *Engine) liquidityScore(series etf.Series, aux Aux) float64 {
	volumes := series.Volumes()
	if len(volumes) > liquidityLookback {
		volumes = volumes[len(volumes)-liquidityLookback:]
	}

	volumeScore := clamp(mean(volumes) / e.scoring.VolumeCapCNY * 100)

	scale := aux.Scale
	if scale == 0 {
		scale = e.scoring.DefaultScale
	}
	scaleScore := clamp(scale / e.scoring.ScaleCap * 100)

	return volumeScore*0.6 + scaleScore*0.4
}

// riskScore penalizes annualized volatility and max drawdown, 60/40.
// Volatility uses the full history; the drawdown leg looks at the
// trailing year only, so a crash the fund has long recovered from
// stops counting against it.
func (e *Engine) riskScore(returns []float64) float64 {
	if len(returns) < minRiskReturns {
		return shortHistoryRiskScore
	}

	annualVolPct := stddev(returns) * math.Sqrt(tradingDaysPerYear) * 100

	recent := returns
	if len(recent) > oneYearSessions {
		recent = recent[len(recent)-oneYearSessions:]
	}
	drawdownPct := maxDrawdown(recent) * 100

	volScore := math.Max(0, 100-2*annualVolPct)
	ddScore := math.Max(0, 100-2*drawdownPct)

	return volScore*0.6 + ddScore*0.4
}

// returnScore blends one-year return, three-year return and Sharpe
// ratio 30/40/30. With under three years of history the three-year
// leg extrapolates a positive one-year return and carries a negative
// one through unscaled.
func (e *Engine) returnScore(closes, returns []float64) float64 {
	var oneYearPct float64
	if len(closes) >= oneYearSessions {
		oneYearPct = (closes[len(closes)-1]/closes[len(closes)-oneYearSessions] - 1) * 100
	}

	var threeYearPct float64
	switch {
	case len(closes) >= threeYearSessions:
		threeYearPct = (closes[len(closes)-1]/closes[len(closes)-threeYearSessions] - 1) * 100
	case oneYearPct > 0:
		threeYearPct = oneYearPct * 3
	default:
		threeYearPct = oneYearPct
	}

	oneYearScore := clamp(oneYearPct * 2)
	threeYearScore := clamp(threeYearPct)
	sharpeScore := clamp(sharpeRatio(returns) * 10)

	return oneYearScore*0.3 + threeYearScore*0.4 + sharpeScore*0.3
}

// premiumScore rewards quotes near NAV: full marks at zero premium,
// five points off per percent of deviation, with a bonus for a mild
// premium and a smaller one for a mild discount.
func (e *Engine) premiumScore(aux Aux) float64 {
	if !aux.HasPremium {
		return neutralScore
	}

	p := aux.PremiumPct
	score := math.Max(0, 100-5*math.Abs(p))
	if p >= 0.5 && p <= 1.5 {
		score = math.Min(100, score+10)
	}
	if p >= -1 && p < 0 {
		score = math.Min(100, score+5)
	}
	return score
}

// sentimentScore blends leader concentration (top-five holding
// weight) with breadth (one diversity point per five constituents,
// capped at ten), 60/40.
func (e *Engine) sentimentScore(aux Aux) float64 {
	if len(aux.Holdings) == 0 {
		return neutralScore
	}

	weights := make([]float64, len(aux.Holdings))
	for i, h := range aux.Holdings {
		weights[i] = h.Weight
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(weights)))

	top5 := 0.0
	for i, w := range weights {
		if i == 5 {
			break
		}
		top5 += w
	}

	leaderScore := math.Min(100, top5*150)
	diversity := math.Min(10, float64(len(aux.Holdings)/5))
	diversityScore := math.Min(100, diversity*10)

	return leaderScore*0.6 + diversityScore*0.4
}
