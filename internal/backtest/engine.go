package backtest

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/alphalab/internal/config"
	telemetry "github.com/yourusername/alphalab/internal/metrics"
	"github.com/yourusername/alphalab/internal/models"
	"github.com/yourusername/alphalab/internal/strategy"
)

// Config holds the engine parameters for a single run.
type Config struct {
	StrategyParams      map[string]float64
	TransactionCostBPS  float64
	LeverageCap         float64
	MaxPosition         float64
	AnnualizationFactor int
	SymbolWeights       map[string]float64
}

// FromConfig builds an engine configuration from the application config.
func FromConfig(cfg *config.Config) Config {
	return Config{
		StrategyParams:      cfg.Strategy.Params,
		TransactionCostBPS:  cfg.Backtest.TransactionCostBPS,
		LeverageCap:         cfg.Backtest.LeverageCap,
		MaxPosition:         cfg.Backtest.MaxPosition,
		AnnualizationFactor: cfg.Backtest.AnnualizationFactor,
		SymbolWeights:       cfg.Backtest.SymbolWeights,
	}
}

// Validate checks the engine configuration.
func (c Config) Validate() error {
	if c.TransactionCostBPS < 0 {
		return models.NewBacktestError("transaction cost must be >= 0 bps, got %g", c.TransactionCostBPS)
	}
	if c.LeverageCap <= 0 {
		return models.NewBacktestError("leverage cap must be > 0, got %g", c.LeverageCap)
	}
	if c.MaxPosition <= 0 || c.MaxPosition > 1.0 {
		return models.NewBacktestError("max position must be in (0, 1], got %g", c.MaxPosition)
	}
	if c.AnnualizationFactor <= 0 {
		return models.NewBacktestError("annualization factor must be > 0, got %d", c.AnnualizationFactor)
	}
	for symbol, weight := range c.SymbolWeights {
		if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			return models.NewBacktestError("symbol weight for %q must be finite and >= 0, got %g", symbol, weight)
		}
	}
	return nil
}

// Engine runs deterministic daily backtests. Signals computed from data up to
// day t-1 are executed at the close of day t, so a position never earns the
// return of the day whose data produced it.
type Engine struct {
	config   Config
	strategy strategy.Strategy
	logger   *logrus.Logger
}

// NewEngine creates a backtest engine for the given strategy.
func NewEngine(cfg Config, strat strategy.Strategy, logger *logrus.Logger) (*Engine, error) {
	if strat == nil {
		return nil, models.NewBacktestError("strategy must not be nil")
	}
	if logger == nil {
		logger = logrus.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{config: cfg, strategy: strat, logger: logger}, nil
}

// Run executes one backtest over the given per-symbol price series. All
// series are restricted to their common dates before signal generation.
func (e *Engine) Run(ctx context.Context, data map[string]*models.PriceSeries) (*Result, error) {
	started := time.Now()

	if len(data) == 0 {
		return nil, models.NewBacktestError("no price series supplied")
	}

	symbols := make([]string, 0, len(data))
	for symbol := range data {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		if err := data[symbol].Validate(); err != nil {
			return nil, err
		}
	}

	dates := models.CommonDates(data)
	if len(dates) == 0 {
		return nil, models.NewDataValidationError("symbols share no common dates")
	}
	keep := make(map[time.Time]bool, len(dates))
	for _, date := range dates {
		keep[date] = true
	}
	n := len(dates)

	restricted := make(map[string]*models.PriceSeries, len(symbols))
	capped := make(map[string][]float64, len(symbols))
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, models.WrapError(models.KindBacktest, err, "backtest canceled")
		}

		series := data[symbol].Restrict(keep)
		restricted[symbol] = series

		raw, err := e.strategy.GeneratePositions(series, e.config.StrategyParams)
		if err != nil {
			if models.KindOf(err) != "" {
				return nil, err
			}
			return nil, models.WrapError(models.KindStrategy, err, "strategy %s failed for %s", e.strategy.Name(), symbol)
		}
		if err := raw.Validate(dates); err != nil {
			return nil, err
		}

		values := raw.Clip(e.config.MaxPosition).Values
		if weight, ok := e.config.SymbolWeights[symbol]; ok {
			for i := range values {
				values[i] *= weight
			}
		}
		capped[symbol] = values
	}

	// Joint leverage scaling: when summed absolute positions exceed the cap
	// on a given day, all positions that day are scaled down proportionally.
	for t := 0; t < n; t++ {
		gross := 0.0
		for _, symbol := range symbols {
			gross += math.Abs(capped[symbol][t])
		}
		if gross > e.config.LeverageCap {
			scale := e.config.LeverageCap / gross
			for _, symbol := range symbols {
				capped[symbol][t] *= scale
			}
		}
	}

	grossReturns := make([]float64, n)
	totalTurnover := make([]float64, n)
	totalCosts := make([]float64, n)
	totalExposure := make([]float64, n)
	perSymbol := make(map[string]SymbolDiagnostics, len(symbols))

	for _, symbol := range symbols {
		closes := restricted[symbol].Closes()
		positions := capped[symbol]

		executed := make([]float64, n)
		for t := 1; t < n; t++ {
			executed[t] = positions[t-1]
		}

		turnover := Turnover(positions)
		costs := Costs(turnover, e.config.TransactionCostBPS)
		exposure := Exposure(positions)

		contribution := 0.0
		for t := 1; t < n; t++ {
			priceReturn := closes[t]/closes[t-1] - 1.0
			pnl := executed[t] * priceReturn
			grossReturns[t] += pnl
			contribution += pnl
		}
		for t := 0; t < n; t++ {
			totalTurnover[t] += turnover[t]
			totalCosts[t] += costs[t]
			totalExposure[t] += exposure[t]
			contribution -= costs[t]
		}

		perSymbol[symbol] = SymbolDiagnostics{
			AverageTurnover: mean(turnover),
			AverageExposure: mean(exposure),
			NetContribution: contribution,
			FinalPosition:   positions[n-1],
		}
	}

	// Costs are subtracted on the date the turnover occurs, so the entry
	// turnover on day zero is paid for on day zero.
	netReturns := make([]float64, n)
	for t := 0; t < n; t++ {
		netReturns[t] = grossReturns[t] - totalCosts[t]
	}

	equity := EquityCurve(netReturns)
	metrics := CalculateMetrics(netReturns, totalTurnover, totalExposure, e.config.AnnualizationFactor)
	if !metrics.IsFinite() {
		return nil, models.NewBacktestError("metrics contain non-finite values, check input data")
	}

	telemetry.BacktestsRun.Inc()
	telemetry.BacktestDuration.Observe(time.Since(started).Seconds())

	e.logger.WithFields(logrus.Fields{
		"strategy":     e.strategy.Name(),
		"symbols":      len(symbols),
		"observations": n,
		"sharpe":       metrics.SharpeRatio,
		"duration_ms":  time.Since(started).Milliseconds(),
	}).Debug("Backtest completed")

	return &Result{
		Dates:        dates,
		DailyReturns: netReturns,
		Equity:       equity,
		Turnover:     totalTurnover,
		Exposure:     totalExposure,
		Metrics:      metrics,
		PerSymbol:    perSymbol,
	}, nil
}
