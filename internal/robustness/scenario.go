package robustness

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/alphalab/internal/backtest"
	"github.com/yourusername/alphalab/internal/models"
)

// Axis identifies one robustness dimension.
type Axis string

const (
	AxisWalkForward   Axis = "walk_forward"
	AxisParameterGrid Axis = "parameter_grid"
	AxisCostStress    Axis = "cost_stress"
	AxisRegime        Axis = "regime"
)

// Axes returns the axes in their canonical reporting order.
func Axes() []Axis {
	return []Axis{AxisWalkForward, AxisParameterGrid, AxisCostStress, AxisRegime}
}

// ScenarioResult is the outcome of one planned scenario. A failed scenario
// carries its error classification instead of metrics and never aborts the
// rest of the suite.
type ScenarioResult struct {
	ID           string           `json:"id"`
	Axis         Axis             `json:"axis"`
	Observations int              `json:"observations"`
	Metrics      backtest.Metrics `json:"metrics"`
	Succeeded    bool             `json:"succeeded"`
	ErrKind      models.ErrorKind `json:"error_kind,omitempty"`
	ErrMessage   string           `json:"error_message,omitempty"`
}

// scenario is a planned run. Exactly one of the override fields is set,
// matching its axis; regime scenarios are derived from the baseline result
// instead of re-running the engine.
type scenario struct {
	id     string
	axis   Axis
	dates  []time.Time        // walk_forward: restrict data to these dates
	params map[string]float64 // parameter_grid: full parameter override
	cost   float64            // cost_stress: transaction cost override
	regime string             // regime: mask label
}

// walkForwardSegments splits n observations into count contiguous segments.
// The first n%count segments receive one extra observation so segment sizes
// differ by at most one.
func walkForwardSegments(dates []time.Time, count int) [][]time.Time {
	n := len(dates)
	base := n / count
	extra := n % count

	segments := make([][]time.Time, 0, count)
	offset := 0
	for i := 0; i < count; i++ {
		size := base
		if i < extra {
			size++
		}
		segments = append(segments, dates[offset:offset+size])
		offset += size
	}
	return segments
}

// gridCombinations expands a parameter grid into the cartesian product of its
// values. Keys are iterated in sorted order so the expansion is deterministic.
func gridCombinations(grid map[string][]float64) []map[string]float64 {
	keys := make([]string, 0, len(grid))
	for key := range grid {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	combos := []map[string]float64{{}}
	for _, key := range keys {
		next := make([]map[string]float64, 0, len(combos)*len(grid[key]))
		for _, combo := range combos {
			for _, value := range grid[key] {
				extended := make(map[string]float64, len(combo)+1)
				for k, v := range combo {
					extended[k] = v
				}
				extended[key] = value
				next = append(next, extended)
			}
		}
		combos = next
	}
	return combos
}

// gridScenarioID renders a parameter combination as a stable identifier:
// sorted key=value pairs joined with commas.
func gridScenarioID(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = key + "=" + formatParam(params[key])
	}
	return strings.Join(parts, ",")
}

func costScenarioID(bps float64) string {
	return "cost_" + formatParam(bps) + "bps"
}

func formatParam(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
