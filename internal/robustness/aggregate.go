package robustness

import (
	"github.com/yourusername/alphalab/internal/backtest"
)

// AxisSummary aggregates the metrics of an axis's successful scenarios.
// Dispersion uses the sample standard deviation; a single scenario reports 0.
type AxisSummary struct {
	Scenarios int                `json:"scenarios"`
	Failures  int                `json:"failures"`
	Mean      map[string]float64 `json:"mean"`
	Median    map[string]float64 `json:"median"`
	StdDev    map[string]float64 `json:"std_dev"`
}

// Summarize aggregates the scenario results of one axis. The second return is
// false when the axis has no scenarios at all.
func Summarize(results []ScenarioResult, axis Axis) (AxisSummary, bool) {
	summary := AxisSummary{
		Mean:   map[string]float64{},
		Median: map[string]float64{},
		StdDev: map[string]float64{},
	}

	var succeeded []ScenarioResult
	for _, result := range results {
		if result.Axis != axis {
			continue
		}
		summary.Scenarios++
		if result.Succeeded {
			succeeded = append(succeeded, result)
		} else {
			summary.Failures++
		}
	}
	if summary.Scenarios == 0 {
		return AxisSummary{}, false
	}

	for _, key := range backtest.MetricKeys() {
		values := make([]float64, 0, len(succeeded))
		for _, result := range succeeded {
			values = append(values, result.Metrics.Map()[key])
		}
		if len(values) == 0 {
			continue
		}
		summary.Mean[key] = meanOf(values)
		summary.Median[key] = median(values)
		summary.StdDev[key] = sampleStd(values)
	}
	return summary, true
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values))
}
