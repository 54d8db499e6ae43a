package backtest

import (
	"math"
)

// DefaultAnnualizationFactor is the fixed trading-day annualization factor.
const DefaultAnnualizationFactor = 252

// Metrics holds the deterministic performance metrics of one backtest.
// Every division-by-zero edge case resolves to the sentinel 0 rather than
// NaN/Inf so downstream aggregation never sees a non-finite value.
type Metrics struct {
	AnnualizedReturn       float64 `json:"annualized_return"`
	AnnualizedVolatility   float64 `json:"annualized_volatility"`
	SharpeRatio            float64 `json:"sharpe_ratio"`
	MaxDrawdown            float64 `json:"max_drawdown"`
	CalmarRatio            float64 `json:"calmar_ratio"`
	AverageDailyTurnover   float64 `json:"average_daily_turnover"`
	AverageGrossExposure   float64 `json:"average_gross_exposure"`
	PercentagePositiveDays float64 `json:"percentage_positive_days"`
}

// MetricKeys returns the metric names in their canonical reporting order.
func MetricKeys() []string {
	return []string{
		"annualized_return",
		"annualized_volatility",
		"sharpe_ratio",
		"max_drawdown",
		"calmar_ratio",
		"average_daily_turnover",
		"average_gross_exposure",
		"percentage_positive_days",
	}
}

// Map returns the metrics as a name-keyed dictionary.
func (m Metrics) Map() map[string]float64 {
	return map[string]float64{
		"annualized_return":        m.AnnualizedReturn,
		"annualized_volatility":    m.AnnualizedVolatility,
		"sharpe_ratio":             m.SharpeRatio,
		"max_drawdown":             m.MaxDrawdown,
		"calmar_ratio":             m.CalmarRatio,
		"average_daily_turnover":   m.AverageDailyTurnover,
		"average_gross_exposure":   m.AverageGrossExposure,
		"percentage_positive_days": m.PercentagePositiveDays,
	}
}

// IsFinite reports whether every metric value is finite.
func (m Metrics) IsFinite() bool {
	for _, value := range m.Map() {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return false
		}
	}
	return true
}

// CalculateMetrics computes the metric set from a daily net-return series
// plus the matching turnover and gross-exposure series. The return series
// covers the full in-range index: its first observation is the entry day,
// which carries no price return but does carry the entry cost. It counts
// toward return, volatility and drawdown statistics; the positive-day
// fraction is taken over the non-first observations only.
func CalculateMetrics(returns, turnover, exposure []float64, annualizationFactor int) Metrics {
	if annualizationFactor <= 0 {
		annualizationFactor = DefaultAnnualizationFactor
	}

	metrics := Metrics{
		AverageDailyTurnover: mean(turnover),
		AverageGrossExposure: mean(exposure),
	}
	if len(returns) == 0 {
		return metrics
	}

	factor := float64(annualizationFactor)
	metrics.AnnualizedReturn = mean(returns) * factor
	metrics.AnnualizedVolatility = sampleStdDev(returns) * math.Sqrt(factor)
	if metrics.AnnualizedVolatility > 0 {
		metrics.SharpeRatio = metrics.AnnualizedReturn / metrics.AnnualizedVolatility
	}

	metrics.MaxDrawdown = MaxDrawdown(EquityCurve(returns))
	if metrics.MaxDrawdown < 0 {
		metrics.CalmarRatio = metrics.AnnualizedReturn / math.Abs(metrics.MaxDrawdown)
	}

	if valid := returns[1:]; len(valid) > 0 {
		positive := 0
		for _, value := range valid {
			if value > 0 {
				positive++
			}
		}
		metrics.PercentagePositiveDays = float64(positive) / float64(len(valid))
	}

	return metrics
}

// EquityCurve compounds returns into a cumulative equity curve. Point i is
// the product of (1 + r_j) for j <= i, with 1.0 as the starting equity.
func EquityCurve(returns []float64) []float64 {
	curve := make([]float64, len(returns))
	equity := 1.0
	for i, value := range returns {
		equity *= 1.0 + value
		curve[i] = equity
	}
	return curve
}

// MaxDrawdown returns the minimum of equity_t/runningMax(equity)_t - 1,
// a non-positive number. An empty or non-decreasing curve yields 0.
func MaxDrawdown(curve []float64) float64 {
	maxDD := 0.0
	peak := math.Inf(-1)
	for _, value := range curve {
		if value > peak {
			peak = value
		}
		if peak <= 0 {
			continue
		}
		drawdown := value/peak - 1.0
		if drawdown < maxDD {
			maxDD = drawdown
		}
	}
	return maxDD
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values))
}

// sampleStdDev is the ddof=1 standard deviation; fewer than 2 observations
// yield 0 by definition.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	avg := mean(values)
	variance := 0.0
	for _, value := range values {
		diff := value - avg
		variance += diff * diff
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}
