// Package robustness stress-tests a strategy along four deterministic axes:
// walk-forward segments, a parameter grid, transaction cost stress, and
// market regime conditioning.
package robustness

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/alphalab/internal/backtest"
	"github.com/yourusername/alphalab/internal/config"
	telemetry "github.com/yourusername/alphalab/internal/metrics"
	"github.com/yourusername/alphalab/internal/models"
	"github.com/yourusername/alphalab/internal/strategy"
)

const defaultWorkers = 4

// Settings holds the suite parameters.
type Settings struct {
	WalkForwardSplits int
	ParameterGrid     map[string][]float64
	CostStressBPS     []float64
	VolatilityWindow  int
	TrendWindow       int
	Workers           int
}

// SettingsFromConfig builds suite settings from the application config.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		WalkForwardSplits: cfg.Robustness.WalkForwardSplits,
		ParameterGrid:     cfg.Robustness.ParameterGrid,
		CostStressBPS:     cfg.Robustness.CostStressBPS,
		VolatilityWindow:  cfg.Robustness.VolatilityWindow,
		TrendWindow:       cfg.Robustness.TrendWindow,
		Workers:           cfg.Robustness.Workers,
	}
}

func (s Settings) validate() error {
	if s.WalkForwardSplits < 2 {
		return models.NewRobustnessError("walk-forward splits must be >= 2, got %d", s.WalkForwardSplits)
	}
	if len(s.CostStressBPS) == 0 {
		return models.NewRobustnessError("cost stress requires at least one bps level")
	}
	for _, bps := range s.CostStressBPS {
		if bps < 0 {
			return models.NewRobustnessError("cost stress bps must be >= 0, got %g", bps)
		}
	}
	for key, values := range s.ParameterGrid {
		if len(values) == 0 {
			return models.NewRobustnessError("parameter grid key %q has no values", key)
		}
	}
	if s.VolatilityWindow < 2 || s.TrendWindow < 2 {
		return models.NewRobustnessError(
			"regime windows must be >= 2, got volatility=%d trend=%d",
			s.VolatilityWindow, s.TrendWindow,
		)
	}
	return nil
}

// Result is the complete outcome of one suite run.
type Result struct {
	StrategyName string               `json:"strategy_name"`
	Baseline     *backtest.Result     `json:"baseline,omitempty"`
	BaselineErr  string               `json:"baseline_error,omitempty"`
	Scenarios    []ScenarioResult     `json:"scenarios"`
	Summaries    map[Axis]AxisSummary `json:"summaries"`
}

// Suite plans and executes robustness scenarios for one strategy.
type Suite struct {
	settings     Settings
	engineConfig backtest.Config
	strategy     strategy.Strategy
	logger       *logrus.Logger
}

// NewSuite creates a robustness suite.
func NewSuite(settings Settings, engineConfig backtest.Config, strat strategy.Strategy, logger *logrus.Logger) (*Suite, error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}
	if strat == nil {
		return nil, models.NewRobustnessError("strategy must not be nil")
	}
	if logger == nil {
		logger = logrus.New()
	}
	if settings.Workers <= 0 {
		settings.Workers = defaultWorkers
	}
	return &Suite{settings: settings, engineConfig: engineConfig, strategy: strat, logger: logger}, nil
}

// Run executes the full suite. The scenario plan is fixed up front, scenarios
// run in parallel, and an individual scenario failure is recorded in its
// result rather than aborting the suite. The suite itself fails only on a
// structural defect or when every scenario fails.
func (s *Suite) Run(ctx context.Context, data map[string]*models.PriceSeries) (*Result, error) {
	started := time.Now()

	if len(data) == 0 {
		return nil, models.NewRobustnessError("no price series supplied")
	}
	for _, series := range data {
		if err := series.Validate(); err != nil {
			return nil, err
		}
	}
	dates := models.CommonDates(data)
	if len(dates) == 0 {
		return nil, models.NewDataValidationError("symbols share no common dates")
	}
	if len(dates) < s.settings.WalkForwardSplits {
		return nil, models.NewRobustnessError(
			"%d observations cannot be split into %d walk-forward segments",
			len(dates), s.settings.WalkForwardSplits,
		)
	}

	result := &Result{
		StrategyName: s.strategy.Name(),
		Summaries:    map[Axis]AxisSummary{},
	}

	baseline, baselineErr := s.runBaseline(ctx, data)
	result.Baseline = baseline
	if baselineErr != nil {
		result.BaselineErr = baselineErr.Error()
		s.logger.WithError(baselineErr).Warn("Baseline run failed, regime scenarios will be skipped")
	}

	var masks map[string][]bool
	if baseline != nil {
		masks = regimeMasks(
			proxyReturns(restrictAll(data, dates), len(dates)),
			s.settings.VolatilityWindow,
			s.settings.TrendWindow,
		)
	}

	plan := s.plan(dates)
	s.logger.WithFields(logrus.Fields{
		"strategy":  s.strategy.Name(),
		"scenarios": len(plan),
		"workers":   s.settings.Workers,
	}).Info("Robustness suite starting")

	results := make([]ScenarioResult, len(plan))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.settings.Workers)
	for i, sc := range plan {
		i, sc := i, sc
		group.Go(func() error {
			results[i] = s.runScenario(groupCtx, sc, data, baseline, baselineErr, masks)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, models.WrapError(models.KindRobustness, err, "scenario execution aborted")
	}
	if err := ctx.Err(); err != nil {
		return nil, models.WrapError(models.KindRobustness, err, "robustness suite canceled")
	}

	sortScenarios(results)
	result.Scenarios = results

	succeeded := 0
	for _, sc := range results {
		if sc.Succeeded {
			succeeded++
		}
	}
	if succeeded == 0 {
		return nil, models.NewRobustnessError("all %d scenarios failed", len(results))
	}

	for _, axis := range Axes() {
		if summary, ok := Summarize(results, axis); ok {
			result.Summaries[axis] = summary
		}
	}

	telemetry.SuiteDuration.Observe(time.Since(started).Seconds())
	s.logger.WithFields(logrus.Fields{
		"scenarios":   len(results),
		"succeeded":   succeeded,
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("Robustness suite completed")

	return result, nil
}

func (s *Suite) runBaseline(ctx context.Context, data map[string]*models.PriceSeries) (*backtest.Result, error) {
	engine, err := backtest.NewEngine(s.engineConfig, s.strategy, s.logger)
	if err != nil {
		return nil, err
	}
	return engine.Run(ctx, data)
}

// plan produces the deterministic scenario list. Walk-forward segments come
// first, then grid combinations, cost levels, and regimes.
func (s *Suite) plan(dates []time.Time) []scenario {
	var plan []scenario

	for i, segment := range walkForwardSegments(dates, s.settings.WalkForwardSplits) {
		plan = append(plan, scenario{
			id:    "wf_" + strconv.Itoa(i+1),
			axis:  AxisWalkForward,
			dates: segment,
		})
	}

	if len(s.settings.ParameterGrid) > 0 {
		for _, combo := range gridCombinations(s.settings.ParameterGrid) {
			merged := make(map[string]float64, len(s.engineConfig.StrategyParams)+len(combo))
			for key, value := range s.engineConfig.StrategyParams {
				merged[key] = value
			}
			for key, value := range combo {
				merged[key] = value
			}
			plan = append(plan, scenario{
				id:     gridScenarioID(combo),
				axis:   AxisParameterGrid,
				params: merged,
			})
		}
	}

	for _, bps := range s.settings.CostStressBPS {
		plan = append(plan, scenario{
			id:   costScenarioID(bps),
			axis: AxisCostStress,
			cost: bps,
		})
	}

	for _, label := range regimeLabels() {
		plan = append(plan, scenario{
			id:     label,
			axis:   AxisRegime,
			regime: label,
		})
	}

	return plan
}

func (s *Suite) runScenario(
	ctx context.Context,
	sc scenario,
	data map[string]*models.PriceSeries,
	baseline *backtest.Result,
	baselineErr error,
	masks map[string][]bool,
) ScenarioResult {
	telemetry.ScenariosRun.WithLabelValues(string(sc.axis)).Inc()
	result := ScenarioResult{ID: sc.id, Axis: sc.axis}

	record := func(metrics backtest.Metrics, observations int, err error) ScenarioResult {
		if err != nil {
			telemetry.ScenarioFailures.WithLabelValues(string(sc.axis)).Inc()
			result.ErrKind = models.KindOf(err)
			result.ErrMessage = err.Error()
			s.logger.WithFields(logrus.Fields{
				"axis":     sc.axis,
				"scenario": sc.id,
			}).WithError(err).Warn("Scenario failed")
			return result
		}
		result.Succeeded = true
		result.Metrics = metrics
		result.Observations = observations
		return result
	}

	if sc.axis == AxisRegime {
		if baseline == nil {
			return record(backtest.Metrics{}, 0, models.WrapError(
				models.KindRobustness, baselineErr, "baseline run failed, regime %s cannot be evaluated", sc.regime,
			))
		}
		metrics, observations, err := regimeMetrics(baseline, masks[sc.regime], s.engineConfig.AnnualizationFactor)
		return record(metrics, observations, err)
	}

	engineConfig := s.engineConfig
	scenarioData := data
	switch sc.axis {
	case AxisWalkForward:
		keep := make(map[time.Time]bool, len(sc.dates))
		for _, date := range sc.dates {
			keep[date] = true
		}
		scenarioData = restrictAllTo(data, keep)
	case AxisParameterGrid:
		engineConfig.StrategyParams = sc.params
	case AxisCostStress:
		engineConfig.TransactionCostBPS = sc.cost
	}

	engine, err := backtest.NewEngine(engineConfig, s.strategy, s.logger)
	if err != nil {
		return record(backtest.Metrics{}, 0, err)
	}
	run, err := engine.Run(ctx, scenarioData)
	if err != nil {
		return record(backtest.Metrics{}, 0, err)
	}
	return record(run.Metrics, run.Observations(), nil)
}

var axisRank = map[Axis]int{
	AxisWalkForward:   0,
	AxisParameterGrid: 1,
	AxisCostStress:    2,
	AxisRegime:        3,
}

func sortScenarios(results []ScenarioResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if axisRank[results[i].Axis] != axisRank[results[j].Axis] {
			return axisRank[results[i].Axis] < axisRank[results[j].Axis]
		}
		return results[i].ID < results[j].ID
	})
}

func restrictAll(data map[string]*models.PriceSeries, dates []time.Time) map[string]*models.PriceSeries {
	keep := make(map[time.Time]bool, len(dates))
	for _, date := range dates {
		keep[date] = true
	}
	return restrictAllTo(data, keep)
}

func restrictAllTo(data map[string]*models.PriceSeries, keep map[time.Time]bool) map[string]*models.PriceSeries {
	restricted := make(map[string]*models.PriceSeries, len(data))
	for symbol, series := range data {
		restricted[symbol] = series.Restrict(keep)
	}
	return restricted
}
