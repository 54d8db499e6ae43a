package config

import (
	"bytes"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/alphalab/internal/models"
)

// Load reads and parses the configuration from file and environment
// variables. Environment variable placeholders in the YAML file (${VAR})
// are expanded before parsing; ALPHALAB_-prefixed variables override any
// file value.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.NewConfigError("config file not found at %s", configPath)
		}
		return nil, models.WrapError(models.KindConfig, err, "failed to read config file %s", configPath)
	}

	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, models.WrapError(models.KindConfig, err, "failed to parse config file %s", configPath)
	}

	v.SetEnvPrefix("ALPHALAB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, models.WrapError(models.KindConfig, err, "failed to unmarshal configuration")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "alphalab")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("data.provider", "csv")
	v.SetDefault("data.cache_ttl_seconds", 3600)
	v.SetDefault("backtest.transaction_cost_bps", 5.0)
	v.SetDefault("backtest.leverage_cap", 1.0)
	v.SetDefault("backtest.max_position", 1.0)
	v.SetDefault("backtest.annualization_factor", 252)
	v.SetDefault("robustness.walk_forward_splits", 4)
	v.SetDefault("robustness.cost_stress_bps", []float64{0, 5, 10, 25, 50})
	v.SetDefault("robustness.volatility_window", 20)
	v.SetDefault("robustness.trend_window", 50)
	v.SetDefault("robustness.workers", 4)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("output.artifacts_dir", "artifacts")
}
