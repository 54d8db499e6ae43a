package robustness

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/alphalab/internal/backtest"
)

// RenderMarkdown renders the suite result as a human-readable report. The
// layout is stable so reports diff cleanly between runs.
func RenderMarkdown(result *Result, generatedAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Robustness Report: %s\n\n", result.StrategyName)
	fmt.Fprintf(&b, "Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339))

	b.WriteString("## Baseline\n\n")
	if result.Baseline != nil {
		writeMetricsTable(&b, result.Baseline.Metrics)
		fmt.Fprintf(&b, "\nObservations: %d\n\n", result.Baseline.Observations())
	} else {
		fmt.Fprintf(&b, "Baseline run failed: %s\n\n", result.BaselineErr)
	}

	for _, axis := range Axes() {
		summary, ok := result.Summaries[axis]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "## Axis: %s\n\n", axis)
		fmt.Fprintf(&b, "Scenarios: %d, failed: %d\n\n", summary.Scenarios, summary.Failures)

		b.WriteString("| metric | mean | median | std dev |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, key := range backtest.MetricKeys() {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				key, cell(summary.Mean[key]), cell(summary.Median[key]), cell(summary.StdDev[key]))
		}
		b.WriteString("\n")

		b.WriteString("| scenario | observations | sharpe | ann. return | max drawdown |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, sc := range result.Scenarios {
			if sc.Axis != axis {
				continue
			}
			if !sc.Succeeded {
				fmt.Fprintf(&b, "| %s | - | failed: %s | | |\n", sc.ID, sc.ErrKind)
				continue
			}
			fmt.Fprintf(&b, "| %s | %d | %s | %s | %s |\n",
				sc.ID, sc.Observations,
				cell(sc.Metrics.SharpeRatio), cell(sc.Metrics.AnnualizedReturn), cell(sc.Metrics.MaxDrawdown))
		}
		b.WriteString("\n")
	}

	var failed []ScenarioResult
	for _, sc := range result.Scenarios {
		if !sc.Succeeded {
			failed = append(failed, sc)
		}
	}
	if len(failed) > 0 {
		b.WriteString("## Failures\n\n")
		for _, sc := range failed {
			fmt.Fprintf(&b, "- `%s/%s`: %s\n", sc.Axis, sc.ID, sc.ErrMessage)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderCSV renders every scenario as one CSV row for downstream analysis.
func RenderCSV(result *Result) string {
	var b strings.Builder

	b.WriteString("axis,scenario_id,succeeded,observations")
	for _, key := range backtest.MetricKeys() {
		b.WriteString(",")
		b.WriteString(key)
	}
	b.WriteString(",error_kind\n")

	for _, sc := range result.Scenarios {
		fmt.Fprintf(&b, "%s,%s,%t,%d", sc.Axis, csvEscape(sc.ID), sc.Succeeded, sc.Observations)
		metrics := sc.Metrics.Map()
		for _, key := range backtest.MetricKeys() {
			b.WriteString(",")
			if sc.Succeeded {
				b.WriteString(cell(metrics[key]))
			}
		}
		b.WriteString(",")
		b.WriteString(string(sc.ErrKind))
		b.WriteString("\n")
	}
	return b.String()
}

func writeMetricsTable(b *strings.Builder, metrics backtest.Metrics) {
	b.WriteString("| metric | value |\n")
	b.WriteString("|---|---|\n")
	values := metrics.Map()
	for _, key := range backtest.MetricKeys() {
		fmt.Fprintf(b, "| %s | %s |\n", key, cell(values[key]))
	}
}

// csvEscape quotes fields containing commas; grid scenario ids do.
func csvEscape(field string) string {
	if strings.ContainsAny(field, ",\"\n") {
		return "\"" + strings.ReplaceAll(field, "\"", "\"\"") + "\""
	}
	return field
}

func cell(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
