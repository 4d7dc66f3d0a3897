package scoring

import "math"

// tradingDaysPerYear annualizes daily return statistics.
const tradingDaysPerYear = 252

// dailyReturns converts a close series into simple daily returns.
func dailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	return returns
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// maxDrawdown returns the deepest peak-to-trough loss of the
// compounded return path, as a fraction.
func maxDrawdown(returns []float64) float64 {
	equity := 1.0
	peak := 1.0
	worst := 0.0
	for _, r := range returns {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if dd := 1 - equity/peak; dd > worst {
			worst = dd
		}
	}
	return worst
}

// sharpeRatio is the annualized mean-over-volatility of daily returns
// with a zero risk-free rate.
func sharpeRatio(returns []float64) float64 {
	sd := stddev(returns)
	if sd == 0 {
		return 0
	}
	return mean(returns) / sd * math.Sqrt(tradingDaysPerYear)
}

// clamp bounds v to [0, 100].
func clamp(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}
