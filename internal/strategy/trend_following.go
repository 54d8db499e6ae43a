package strategy

import (
	"github.com/yourusername/alphalab/internal/models"
)

func init() {
	Register("trend_following", func() Strategy { return &TrendFollowing{} })
}

// TrendFollowing holds the sign of the close-to-close lookback return:
// long after a positive lookback return, short after a negative one, flat
// until the lookback window has filled.
type TrendFollowing struct{}

// Name returns the registry name.
func (s *TrendFollowing) Name() string { return "trend_following" }

// RequiredColumns returns the market data columns the signal consumes.
func (s *TrendFollowing) RequiredColumns() []string { return []string{"close"} }

// GeneratePositions computes the momentum-sign position path. Parameters:
// "lookback" (default 20), the return lookback window in trading days.
func (s *TrendFollowing) GeneratePositions(series *models.PriceSeries, params map[string]float64) (*models.PositionSeries, error) {
	lookback := int(paramOrDefault(params, "lookback", 20))
	if lookback < 1 {
		return nil, models.NewStrategyError("trend_following: lookback must be >= 1, got %d", lookback)
	}

	closes := series.Closes()
	positions := &models.PositionSeries{
		Symbol: series.Symbol,
		Dates:  series.Dates(),
		Values: make([]float64, len(closes)),
	}
	for i := range closes {
		if i < lookback {
			continue
		}
		momentum := closes[i]/closes[i-lookback] - 1.0
		switch {
		case momentum > 0:
			positions.Values[i] = 1.0
		case momentum < 0:
			positions.Values[i] = -1.0
		}
	}
	return positions, nil
}
