package strategy

import (
	"math"

	"github.com/yourusername/alphalab/internal/models"
)

func init() {
	Register("mean_reversion", func() Strategy { return &MeanReversion{} })
}

// MeanReversion fades stretched closes: it shorts when the close sits more
// than an entry threshold of rolling standard deviations above its rolling
// mean, goes long below, and stays flat inside the band.
type MeanReversion struct{}

// Name returns the registry name.
func (s *MeanReversion) Name() string { return "mean_reversion" }

// RequiredColumns returns the market data columns the signal consumes.
func (s *MeanReversion) RequiredColumns() []string { return []string{"close"} }

// GeneratePositions computes the z-score fade position path. Parameters:
// "window" (default 10) rolling window length, "entry_z" (default 1.0)
// z-score band half-width.
func (s *MeanReversion) GeneratePositions(series *models.PriceSeries, params map[string]float64) (*models.PositionSeries, error) {
	window := int(paramOrDefault(params, "window", 10))
	entryZ := paramOrDefault(params, "entry_z", 1.0)
	if window < 2 {
		return nil, models.NewStrategyError("mean_reversion: window must be >= 2, got %d", window)
	}
	if entryZ <= 0 {
		return nil, models.NewStrategyError("mean_reversion: entry_z must be > 0, got %g", entryZ)
	}

	closes := series.Closes()
	positions := &models.PositionSeries{
		Symbol: series.Symbol,
		Dates:  series.Dates(),
		Values: make([]float64, len(closes)),
	}
	for i := range closes {
		if i < window-1 {
			continue
		}
		slice := closes[i-window+1 : i+1]
		avg := 0.0
		for _, value := range slice {
			avg += value
		}
		avg /= float64(window)

		variance := 0.0
		for _, value := range slice {
			diff := value - avg
			variance += diff * diff
		}
		variance /= float64(window - 1)
		std := math.Sqrt(variance)
		if std == 0 {
			continue
		}

		z := (closes[i] - avg) / std
		switch {
		case z > entryZ:
			positions.Values[i] = -1.0
		case z < -entryZ:
			positions.Values[i] = 1.0
		}
	}
	return positions, nil
}
