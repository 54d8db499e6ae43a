// Package strategy defines the target-position strategy plugin interface and
// the shipped example strategies.
package strategy

import (
	"github.com/yourusername/alphalab/internal/models"
)

// Strategy turns a price series and a parameter mapping into a target
// position path. Implementations must be pure: same inputs, same output, and
// the position at date t may only use bars at or before t. The engine applies
// the execution lag, so strategies never see future data effects either way.
type Strategy interface {
	Name() string
	RequiredColumns() []string
	GeneratePositions(series *models.PriceSeries, params map[string]float64) (*models.PositionSeries, error)
}

// paramOrDefault reads a numeric parameter with a fallback.
func paramOrDefault(params map[string]float64, key string, fallback float64) float64 {
	if value, ok := params[key]; ok {
		return value
	}
	return fallback
}
