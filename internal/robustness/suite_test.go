package robustness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/alphalab/internal/backtest"
	"github.com/yourusername/alphalab/internal/models"
	"github.com/yourusername/alphalab/internal/strategy"
)

func day(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 0, 0, 0, 0, time.UTC)
}

// testData builds a deterministic 120-day two-symbol universe with enough
// movement for every regime to classify some days.
func testData() map[string]*models.PriceSeries {
	start := day(2024, 1, 1)
	es := &models.PriceSeries{Symbol: "ES"}
	cl := &models.PriceSeries{Symbol: "CL"}
	esPrice, clPrice := 100.0, 70.0
	for i := 0; i < 120; i++ {
		// drifting saw-tooth, amplitude grows in the back half
		step := 1.0
		if i >= 60 {
			step = 2.5
		}
		if i%3 == 0 {
			esPrice += step
			clPrice -= step / 2
		} else {
			esPrice -= step / 2
			clPrice += step / 3
		}
		date := start.AddDate(0, 0, i)
		es.Bars = append(es.Bars, models.Bar{Date: date, Open: esPrice, High: esPrice, Low: esPrice, Close: esPrice, Volume: 1000})
		cl.Bars = append(cl.Bars, models.Bar{Date: date, Open: clPrice, High: clPrice, Low: clPrice, Close: clPrice, Volume: 1000})
	}
	return map[string]*models.PriceSeries{"ES": es, "CL": cl}
}

func testSettings() Settings {
	return Settings{
		WalkForwardSplits: 3,
		ParameterGrid:     map[string][]float64{"lookback": {2, 5}},
		CostStressBPS:     []float64{0, 10},
		VolatilityWindow:  10,
		TrendWindow:       15,
		Workers:           2,
	}
}

func testEngineConfig() backtest.Config {
	return backtest.Config{
		StrategyParams:      map[string]float64{"lookback": 3},
		TransactionCostBPS:  5,
		LeverageCap:         1.0,
		MaxPosition:         1.0,
		AnnualizationFactor: 252,
	}
}

func runSuite(t *testing.T, settings Settings, engineConfig backtest.Config) *Result {
	t.Helper()
	strat, err := strategy.Resolve("trend_following")
	require.NoError(t, err)
	suite, err := NewSuite(settings, engineConfig, strat, nil)
	require.NoError(t, err)
	result, err := suite.Run(context.Background(), testData())
	require.NoError(t, err)
	return result
}

func TestSuiteScenarioPlan(t *testing.T) {
	result := runSuite(t, testSettings(), testEngineConfig())

	// 3 walk-forward + 2 grid + 2 cost + 4 regimes
	require.Len(t, result.Scenarios, 11)

	var ids []string
	for _, sc := range result.Scenarios {
		ids = append(ids, string(sc.Axis)+"/"+sc.ID)
	}
	assert.Equal(t, []string{
		"walk_forward/wf_1", "walk_forward/wf_2", "walk_forward/wf_3",
		"parameter_grid/lookback=2", "parameter_grid/lookback=5",
		"cost_stress/cost_0bps", "cost_stress/cost_10bps",
		"regime/high_volatility", "regime/low_volatility", "regime/non_trend", "regime/trend",
	}, ids)
}

func TestSuiteScenariosSucceed(t *testing.T) {
	result := runSuite(t, testSettings(), testEngineConfig())

	require.NotNil(t, result.Baseline)
	for _, sc := range result.Scenarios {
		assert.True(t, sc.Succeeded, "scenario %s/%s failed: %s", sc.Axis, sc.ID, sc.ErrMessage)
		assert.Positive(t, sc.Observations)
	}

	for _, axis := range Axes() {
		summary, ok := result.Summaries[axis]
		require.True(t, ok, "missing summary for axis %s", axis)
		assert.Zero(t, summary.Failures)
		assert.Contains(t, summary.Mean, "sharpe_ratio")
		assert.Contains(t, summary.Median, "max_drawdown")
		assert.Contains(t, summary.StdDev, "annualized_return")
	}
}

func TestSuiteDeterminism(t *testing.T) {
	first := runSuite(t, testSettings(), testEngineConfig())
	second := runSuite(t, testSettings(), testEngineConfig())

	require.Equal(t, len(first.Scenarios), len(second.Scenarios))
	for i := range first.Scenarios {
		assert.Equal(t, first.Scenarios[i], second.Scenarios[i])
	}
	assert.Equal(t, first.Summaries, second.Summaries)
}

func TestSuiteWalkForwardCoversAllDays(t *testing.T) {
	result := runSuite(t, testSettings(), testEngineConfig())

	total := 0
	for _, sc := range result.Scenarios {
		if sc.Axis == AxisWalkForward {
			total += sc.Observations
		}
	}
	assert.Equal(t, 120, total)
}

func TestSuiteScenarioFailureIsolation(t *testing.T) {
	settings := testSettings()
	// lookback 0 is rejected by the strategy; only that scenario should fail
	settings.ParameterGrid = map[string][]float64{"lookback": {0, 5}}

	result := runSuite(t, settings, testEngineConfig())

	var failed, succeeded int
	for _, sc := range result.Scenarios {
		if sc.Axis != AxisParameterGrid {
			assert.True(t, sc.Succeeded)
			continue
		}
		if sc.Succeeded {
			succeeded++
		} else {
			failed++
			assert.Equal(t, models.KindStrategy, sc.ErrKind)
			assert.NotEmpty(t, sc.ErrMessage)
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, result.Summaries[AxisParameterGrid].Failures)
}

func TestSuiteCostStressMonotonic(t *testing.T) {
	settings := testSettings()
	settings.CostStressBPS = []float64{0, 10, 50}

	result := runSuite(t, settings, testEngineConfig())

	byID := map[string]ScenarioResult{}
	for _, sc := range result.Scenarios {
		if sc.Axis == AxisCostStress {
			byID[sc.ID] = sc
		}
	}
	require.Len(t, byID, 3)
	assert.Greater(t, byID["cost_0bps"].Metrics.AnnualizedReturn, byID["cost_10bps"].Metrics.AnnualizedReturn)
	assert.Greater(t, byID["cost_10bps"].Metrics.AnnualizedReturn, byID["cost_50bps"].Metrics.AnnualizedReturn)
}

func TestSuiteStructuralErrors(t *testing.T) {
	strat, err := strategy.Resolve("trend_following")
	require.NoError(t, err)

	_, err = NewSuite(Settings{WalkForwardSplits: 1, CostStressBPS: []float64{0}, VolatilityWindow: 5, TrendWindow: 5}, testEngineConfig(), strat, nil)
	assert.Equal(t, models.KindRobustness, models.KindOf(err))

	_, err = NewSuite(Settings{WalkForwardSplits: 2, VolatilityWindow: 5, TrendWindow: 5}, testEngineConfig(), strat, nil)
	assert.Equal(t, models.KindRobustness, models.KindOf(err))

	// a grid key with no values would silently drop the whole axis
	emptyGrid := testSettings()
	emptyGrid.ParameterGrid = map[string][]float64{"lookback": {}}
	_, err = NewSuite(emptyGrid, testEngineConfig(), strat, nil)
	assert.Equal(t, models.KindRobustness, models.KindOf(err))

	suite, err := NewSuite(testSettings(), testEngineConfig(), strat, nil)
	require.NoError(t, err)
	_, err = suite.Run(context.Background(), map[string]*models.PriceSeries{})
	assert.Equal(t, models.KindRobustness, models.KindOf(err))
}

func TestWalkForwardSegmentSizes(t *testing.T) {
	dates := make([]time.Time, 10)
	for i := range dates {
		dates[i] = day(2024, 1, 1).AddDate(0, 0, i)
	}
	segments := walkForwardSegments(dates, 3)
	require.Len(t, segments, 3)
	assert.Len(t, segments[0], 4)
	assert.Len(t, segments[1], 3)
	assert.Len(t, segments[2], 3)
	assert.Equal(t, dates[0], segments[0][0])
	assert.Equal(t, dates[9], segments[2][2])
}

func TestGridCombinationsAndIDs(t *testing.T) {
	combos := gridCombinations(map[string][]float64{
		"lookback": {10, 20},
		"entry_z":  {1, 1.5},
	})
	require.Len(t, combos, 4)

	var ids []string
	for _, combo := range combos {
		ids = append(ids, gridScenarioID(combo))
	}
	assert.Equal(t, []string{
		"entry_z=1,lookback=10",
		"entry_z=1,lookback=20",
		"entry_z=1.5,lookback=10",
		"entry_z=1.5,lookback=20",
	}, ids)
}

func TestRegimeMasksPartitionClassifiedDays(t *testing.T) {
	proxy := proxyReturns(testData(), 120)
	masks := regimeMasks(proxy, 10, 15)

	for t0 := 0; t0 < 120; t0++ {
		if t0 >= 10 {
			assert.True(t, masks[RegimeHighVolatility][t0] != masks[RegimeLowVolatility][t0],
				"day %d must be in exactly one volatility regime", t0)
		} else {
			assert.False(t, masks[RegimeHighVolatility][t0] || masks[RegimeLowVolatility][t0])
		}
		if t0 >= 15 {
			assert.True(t, masks[RegimeTrend][t0] != masks[RegimeNonTrend][t0])
		}
	}
}

func TestRenderMarkdownAndCSV(t *testing.T) {
	result := runSuite(t, testSettings(), testEngineConfig())

	report := RenderMarkdown(result, day(2024, 6, 1))
	assert.Contains(t, report, "# Robustness Report: trend_following")
	assert.Contains(t, report, "## Axis: walk_forward")
	assert.Contains(t, report, "## Axis: regime")
	assert.Contains(t, report, "sharpe_ratio")

	csv := RenderCSV(result)
	assert.Contains(t, csv, "axis,scenario_id,succeeded,observations")
	assert.Contains(t, csv, "walk_forward,wf_1,true")
	assert.Contains(t, csv, "regime,high_volatility,true")
}
