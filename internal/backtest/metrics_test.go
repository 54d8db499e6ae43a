package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquityCurveCompounds(t *testing.T) {
	curve := EquityCurve([]float64{0.10, -0.50, 1.0})
	assert.InDeltaSlice(t, []float64{1.10, 0.55, 1.10}, curve, 1e-12)
}

func TestMaxDrawdownIsNonPositive(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown(nil))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1.0, 1.1, 1.2}))

	// peak 1.2, trough 0.6
	dd := MaxDrawdown([]float64{1.0, 1.2, 0.6, 0.9})
	assert.InDelta(t, -0.5, dd, 1e-12)
	assert.LessOrEqual(t, dd, 0.0)
}

func TestCalculateMetricsKnownValues(t *testing.T) {
	// first observation is the entry day (no price return)
	returns := []float64{0, 0.01, -0.01, 0.02, 0.0}
	turnover := []float64{1, 0, 0, 0, 0}
	exposure := []float64{1, 1, 1, 1, 1}

	m := CalculateMetrics(returns, turnover, exposure, 252)

	assert.InDelta(t, 0.004*252, m.AnnualizedReturn, 1e-12)
	assert.InDelta(t, sampleStdDev(returns)*math.Sqrt(252), m.AnnualizedVolatility, 1e-12)
	assert.InDelta(t, m.AnnualizedReturn/m.AnnualizedVolatility, m.SharpeRatio, 1e-12)
	assert.InDelta(t, 0.2, m.AverageDailyTurnover, 1e-12)
	assert.InDelta(t, 1.0, m.AverageGrossExposure, 1e-12)
	// positive days counted over the 4 non-entry observations
	assert.InDelta(t, 0.5, m.PercentagePositiveDays, 1e-12)
	assert.True(t, m.IsFinite())
}

func TestCalculateMetricsEntryCostInReturnStatistics(t *testing.T) {
	free := CalculateMetrics([]float64{0, 0.01, 0.01}, []float64{1, 0, 0}, []float64{1, 1, 1}, 252)
	paid := CalculateMetrics([]float64{-0.005, 0.01, 0.01}, []float64{1, 0, 0}, []float64{1, 1, 1}, 252)

	assert.Less(t, paid.AnnualizedReturn, free.AnnualizedReturn)
	assert.Less(t, paid.SharpeRatio, free.SharpeRatio)
	// the entry day never counts as a positive or negative trading day
	assert.Equal(t, free.PercentagePositiveDays, paid.PercentagePositiveDays)
}

func TestCalculateMetricsZeroVarianceSentinels(t *testing.T) {
	// constant returns: volatility 0, so sharpe resolves to 0 not Inf
	m := CalculateMetrics([]float64{0.01, 0.01, 0.01}, []float64{0, 0, 0}, []float64{1, 1, 1}, 252)
	assert.Equal(t, 0.0, m.AnnualizedVolatility)
	assert.Equal(t, 0.0, m.SharpeRatio)
	// monotonically rising equity: no drawdown, so calmar resolves to 0
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.CalmarRatio)
	assert.True(t, m.IsFinite())
}

func TestCalculateMetricsEmptyReturns(t *testing.T) {
	m := CalculateMetrics(nil, []float64{1}, []float64{1}, 252)
	assert.Equal(t, 0.0, m.AnnualizedReturn)
	assert.Equal(t, 0.0, m.SharpeRatio)
	assert.Equal(t, 0.0, m.PercentagePositiveDays)
	assert.InDelta(t, 1.0, m.AverageDailyTurnover, 1e-12)
	assert.True(t, m.IsFinite())
}

func TestCalculateMetricsSingleReturn(t *testing.T) {
	// one observation: sample std dev is undefined, sentinel 0 everywhere
	m := CalculateMetrics([]float64{0.02}, []float64{1, 0}, []float64{1, 1}, 252)
	assert.Equal(t, 0.0, m.AnnualizedVolatility)
	assert.Equal(t, 0.0, m.SharpeRatio)
	assert.Equal(t, 0.0, m.PercentagePositiveDays)
	assert.InDelta(t, 0.02*252, m.AnnualizedReturn, 1e-12)
}

func TestCalmarRatioWithDrawdown(t *testing.T) {
	returns := []float64{0.10, -0.20, 0.05}
	m := CalculateMetrics(returns, []float64{0, 0, 0}, []float64{1, 1, 1}, 252)
	require.Less(t, m.MaxDrawdown, 0.0)
	assert.InDelta(t, m.AnnualizedReturn/math.Abs(m.MaxDrawdown), m.CalmarRatio, 1e-12)
}

func TestMetricKeysMatchMap(t *testing.T) {
	m := Metrics{}
	mapped := m.Map()
	keys := MetricKeys()
	require.Len(t, mapped, len(keys))
	for _, key := range keys {
		_, ok := mapped[key]
		assert.True(t, ok, "metric key %s missing from Map", key)
	}
}
