package backtest

import "math"

// Cost and exposure model. Pure measurement over a position path: the
// leverage cap and max-position constraint are enforced upstream, so no
// clipping happens here.

// Turnover returns |position_t - position_{t-1}| per date, with the
// pre-range position treated as 0. The first in-range date therefore carries
// the full entry turnover |position_0|.
func Turnover(positions []float64) []float64 {
	turnover := make([]float64, len(positions))
	previous := 0.0
	for i, position := range positions {
		turnover[i] = math.Abs(position - previous)
		previous = position
	}
	return turnover
}

// Costs converts a turnover series to a per-date cost series at a fixed
// transaction-cost rate in basis points. Costs are always >= 0.
func Costs(turnover []float64, bps float64) []float64 {
	rate := bps / 10000.0
	costs := make([]float64, len(turnover))
	for i, value := range turnover {
		costs[i] = value * rate
	}
	return costs
}

// Exposure returns |position_t| per date.
func Exposure(positions []float64) []float64 {
	exposure := make([]float64, len(positions))
	for i, position := range positions {
		exposure[i] = math.Abs(position)
	}
	return exposure
}
