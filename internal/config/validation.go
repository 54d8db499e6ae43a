package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/alphalab/internal/models"
)

// Validate validates the configuration using struct tags plus cross-field
// rules. Every failure is reported as a config error.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.RegisterValidation("environment", validateEnvironment); err != nil {
		return models.WrapError(models.KindConfig, err, "failed to register environment rule")
	}
	if err := v.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return models.WrapError(models.KindConfig, err, "failed to register loglevel rule")
	}

	if err := v.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return models.NewConfigError("configuration validation failed:\n%s", formatValidationErrors(validationErrors))
		}
		return models.WrapError(models.KindConfig, err, "configuration validation failed")
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	}
	return false
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

func validateCrossField(cfg *Config) error {
	start, end, err := cfg.Data.DateRange()
	if err != nil {
		return err
	}
	if start.After(end) {
		return models.NewConfigError("data.start %s must not be after data.end %s", cfg.Data.Start, cfg.Data.End)
	}

	seen := map[string]bool{}
	for _, symbol := range cfg.Data.Symbols {
		trimmed := strings.TrimSpace(symbol)
		if trimmed == "" {
			return models.NewConfigError("data.symbols must not contain empty entries")
		}
		if seen[trimmed] {
			return models.NewConfigError("data.symbols contains duplicate symbol %q", trimmed)
		}
		seen[trimmed] = true
	}

	if cfg.Data.Provider == "csv" && cfg.Data.CSVDir == "" {
		return models.NewConfigError("data.csv_dir is required when data.provider is csv")
	}

	if cfg.Backtest.MaxPosition > 1.0 {
		return models.NewConfigError("backtest.max_position must be <= 1.0, got %g", cfg.Backtest.MaxPosition)
	}
	for symbol, weight := range cfg.Backtest.SymbolWeights {
		if weight < 0 {
			return models.NewConfigError("backtest.symbol_weights[%q] must be >= 0, got %g", symbol, weight)
		}
		if !seen[symbol] {
			return models.NewConfigError("backtest.symbol_weights references unknown symbol %q", symbol)
		}
	}

	for key, values := range cfg.Robustness.ParameterGrid {
		if strings.TrimSpace(key) == "" {
			return models.NewConfigError("robustness.parameter_grid keys must be non-empty")
		}
		if len(values) == 0 {
			return models.NewConfigError("robustness.parameter_grid[%q] must be a non-empty list of values", key)
		}
	}

	if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
		return models.NewConfigError("production environment requires database ssl_mode 'require' or 'verify-full'")
	}

	// Guard against far-future end dates that would silently truncate data.
	if end.After(time.Now().UTC().AddDate(1, 0, 0)) {
		return models.NewConfigError("data.end %s is more than a year in the future", cfg.Data.End)
	}

	return nil
}

func formatValidationErrors(validationErrors validator.ValidationErrors) string {
	var builder strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		switch fieldError.Tag() {
		case "required":
			fmt.Fprintf(&builder, "- field %q is required\n", field)
		case "oneof":
			fmt.Fprintf(&builder, "- field %q has invalid value %v\n", field, fieldError.Value())
		case "environment":
			fmt.Fprintf(&builder, "- field %q must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&builder, "- field %q must be one of: debug, info, warn, error\n", field)
		case "datetime":
			fmt.Fprintf(&builder, "- field %q must be a YYYY-MM-DD date, got %v\n", field, fieldError.Value())
		default:
			fmt.Fprintf(&builder, "- field %q failed validation: %s\n", field, fieldError.Tag())
		}
	}
	return builder.String()
}
