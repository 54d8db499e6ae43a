// Package config provides configuration management for AlphaLab.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/alphalab/internal/models"
)

const dateLayout = "2006-01-02"

// Config represents the complete application configuration. It is immutable
// after loading and is serialized verbatim into every experiment record.
type Config struct {
	App         AppConfig         `mapstructure:"app" yaml:"app" validate:"required"`
	Data        DataConfig        `mapstructure:"data" yaml:"data" validate:"required"`
	Strategy    StrategyConfig    `mapstructure:"strategy" yaml:"strategy" validate:"required"`
	Backtest    BacktestConfig    `mapstructure:"backtest" yaml:"backtest" validate:"required"`
	Robustness  RobustnessConfig  `mapstructure:"robustness" yaml:"robustness" validate:"required"`
	Experiments ExperimentsConfig `mapstructure:"experiments" yaml:"experiments"`
	Database    DatabaseConfig    `mapstructure:"database" yaml:"database" validate:"required"`
	Metrics     MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
	Output      OutputConfig      `mapstructure:"output" yaml:"output"`
}

// AppConfig represents application-level configuration.
type AppConfig struct {
	Name        string `mapstructure:"name" yaml:"name" validate:"required"`
	Environment string `mapstructure:"environment" yaml:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level" validate:"required,loglevel"`
}

// DataConfig represents market data settings for a research run.
type DataConfig struct {
	Provider        string   `mapstructure:"provider" yaml:"provider" validate:"required,oneof=eodhd csv"`
	Symbols         []string `mapstructure:"symbols" yaml:"symbols" validate:"required,min=1,dive,required"`
	Start           string   `mapstructure:"start" yaml:"start" validate:"required,datetime=2006-01-02"`
	End             string   `mapstructure:"end" yaml:"end" validate:"required,datetime=2006-01-02"`
	CSVDir          string   `mapstructure:"csv_dir" yaml:"csv_dir"`
	APIKey          string   `mapstructure:"api_key" yaml:"api_key"`
	CacheTTLSeconds int      `mapstructure:"cache_ttl_seconds" yaml:"cache_ttl_seconds" validate:"gte=0"`
}

// DateRange returns the parsed inclusive start/end dates in UTC.
func (d DataConfig) DateRange() (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout, d.Start, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, models.NewConfigError("invalid data.start %q: %v", d.Start, err)
	}
	end, err := time.ParseInLocation(dateLayout, d.End, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, models.NewConfigError("invalid data.end %q: %v", d.End, err)
	}
	return start, end, nil
}

// StrategyConfig represents the strategy selection and baseline parameters.
type StrategyConfig struct {
	Name   string             `mapstructure:"name" yaml:"name" validate:"required"`
	Params map[string]float64 `mapstructure:"params" yaml:"params"`
}

// BacktestConfig represents backtest engine configuration.
type BacktestConfig struct {
	TransactionCostBPS  float64            `mapstructure:"transaction_cost_bps" yaml:"transaction_cost_bps" validate:"gte=0"`
	LeverageCap         float64            `mapstructure:"leverage_cap" yaml:"leverage_cap" validate:"required,gt=0"`
	MaxPosition         float64            `mapstructure:"max_position" yaml:"max_position" validate:"required,gt=0"`
	AnnualizationFactor int                `mapstructure:"annualization_factor" yaml:"annualization_factor" validate:"required,gt=0"`
	SymbolWeights       map[string]float64 `mapstructure:"symbol_weights" yaml:"symbol_weights,omitempty"`
}

// RobustnessConfig represents the robustness suite axes.
type RobustnessConfig struct {
	WalkForwardSplits int                  `mapstructure:"walk_forward_splits" yaml:"walk_forward_splits" validate:"required,gte=2"`
	ParameterGrid     map[string][]float64 `mapstructure:"parameter_grid" yaml:"parameter_grid,omitempty"`
	CostStressBPS     []float64            `mapstructure:"cost_stress_bps" yaml:"cost_stress_bps" validate:"required,min=1,dive,gte=0"`
	VolatilityWindow  int                  `mapstructure:"volatility_window" yaml:"volatility_window" validate:"required,gte=2"`
	TrendWindow       int                  `mapstructure:"trend_window" yaml:"trend_window" validate:"required,gte=2"`
	Workers           int                  `mapstructure:"workers" yaml:"workers" validate:"gte=0"`
}

// ExperimentsConfig represents experiment tracking settings.
type ExperimentsConfig struct {
	Tags []string `mapstructure:"tags" yaml:"tags,omitempty"`
}

// DatabaseConfig represents the experiment store connection settings.
type DatabaseConfig struct {
	Host           string `mapstructure:"host" yaml:"host" validate:"required"`
	Port           int    `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	Name           string `mapstructure:"name" yaml:"name" validate:"required"`
	User           string `mapstructure:"user" yaml:"user" validate:"required"`
	Password       string `mapstructure:"password" yaml:"password"`
	SSLMode        string `mapstructure:"ssl_mode" yaml:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" yaml:"max_connections" validate:"required,gt=0"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// MetricsConfig represents Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// OutputConfig represents artifact output settings.
type OutputConfig struct {
	ArtifactsDir string `mapstructure:"artifacts_dir" yaml:"artifacts_dir" validate:"required"`
}

// IsDevelopment checks whether the application runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks whether the application runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
