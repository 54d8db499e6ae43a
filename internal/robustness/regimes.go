package robustness

import (
	"math"
	"sort"

	"github.com/yourusername/alphalab/internal/backtest"
	"github.com/yourusername/alphalab/internal/models"
)

const (
	RegimeHighVolatility = "high_volatility"
	RegimeLowVolatility  = "low_volatility"
	RegimeTrend          = "trend"
	RegimeNonTrend       = "non_trend"
)

func regimeLabels() []string {
	return []string{RegimeHighVolatility, RegimeLowVolatility, RegimeTrend, RegimeNonTrend}
}

// proxyReturns computes the equal-weight daily close-to-close return of all
// symbols over their common date index. The first observation is 0.
func proxyReturns(data map[string]*models.PriceSeries, n int) []float64 {
	proxy := make([]float64, n)
	count := 0
	for _, series := range data {
		closes := series.Closes()
		for t := 1; t < n; t++ {
			proxy[t] += closes[t]/closes[t-1] - 1.0
		}
		count++
	}
	if count > 1 {
		for t := range proxy {
			proxy[t] /= float64(count)
		}
	}
	return proxy
}

// regimeMasks classifies each day of the common index into volatility and
// trend regimes based on rolling statistics of the proxy return. A day is
// unclassified (absent from both masks of a pair) until its rolling window is
// fully inside the return history, and classified by comparison against the
// median of all classified days, so each pair splits the classified days into
// two near-halves.
func regimeMasks(proxy []float64, volatilityWindow, trendWindow int) map[string][]bool {
	volatility := rollingSampleStd(proxy, volatilityWindow)
	trend := rollingAbsMean(proxy, trendWindow)

	masks := map[string][]bool{}
	masks[RegimeHighVolatility], masks[RegimeLowVolatility] = splitByMedian(volatility)
	masks[RegimeTrend], masks[RegimeNonTrend] = splitByMedian(trend)
	return masks
}

// rollingSampleStd computes the trailing sample standard deviation of the
// window ending at each index. The first valid index is window, since the
// return at index 0 is a placeholder rather than an observation.
func rollingSampleStd(returns []float64, window int) []float64 {
	out := nanSlice(len(returns))
	for t := window; t < len(returns); t++ {
		out[t] = sampleStd(returns[t-window+1 : t+1])
	}
	return out
}

func rollingAbsMean(returns []float64, window int) []float64 {
	out := nanSlice(len(returns))
	for t := window; t < len(returns); t++ {
		sum := 0.0
		for _, value := range returns[t-window+1 : t+1] {
			sum += value
		}
		out[t] = math.Abs(sum / float64(window))
	}
	return out
}

// splitByMedian partitions valid observations into above-median and
// at-or-below-median masks.
func splitByMedian(values []float64) (above, below []bool) {
	valid := make([]float64, 0, len(values))
	for _, value := range values {
		if !math.IsNaN(value) {
			valid = append(valid, value)
		}
	}
	above = make([]bool, len(values))
	below = make([]bool, len(values))
	if len(valid) == 0 {
		return above, below
	}

	threshold := median(valid)
	for i, value := range values {
		if math.IsNaN(value) {
			continue
		}
		if value > threshold {
			above[i] = true
		} else {
			below[i] = true
		}
	}
	return above, below
}

// regimeMetrics recomputes metrics from the baseline result restricted to the
// masked days. The engine is not re-run: a regime is a conditional view of
// the baseline path, not a separate trading history. The metrics calculator
// treats the first kept day as the view's entry observation.
func regimeMetrics(baseline *backtest.Result, mask []bool, annualizationFactor int) (backtest.Metrics, int, error) {
	var returns, turnover, exposure []float64
	for t, keep := range mask {
		if !keep {
			continue
		}
		returns = append(returns, baseline.DailyReturns[t])
		turnover = append(turnover, baseline.Turnover[t])
		exposure = append(exposure, baseline.Exposure[t])
	}
	if len(turnover) == 0 {
		return backtest.Metrics{}, 0, models.NewRobustnessError("regime has no classified days, extend the date range or shrink the windows")
	}
	return backtest.CalculateMetrics(returns, turnover, exposure, annualizationFactor), len(turnover), nil
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, value := range values {
		sum += value
	}
	avg := sum / float64(len(values))
	variance := 0.0
	for _, value := range values {
		diff := value - avg
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(len(values)-1))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
