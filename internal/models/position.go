package models

import (
	"math"
	"time"
)

// PositionSeries is a target-position path for one symbol, aligned 1:1 to the
// date index of the price series it was generated from. A value at date t may
// only depend on information available at or before t; the engine enforces
// the execution lag, so the series itself is just the signal path.
type PositionSeries struct {
	Symbol string      `json:"symbol"`
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// Len returns the number of observations.
func (p *PositionSeries) Len() int {
	return len(p.Values)
}

// Validate checks alignment against the generating index and rejects
// non-finite values. Misaligned or NaN output is a strategy defect, not a
// data defect.
func (p *PositionSeries) Validate(index []time.Time) error {
	if len(p.Dates) != len(p.Values) {
		return NewStrategyError(
			"position series for symbol %q has %d dates but %d values",
			p.Symbol, len(p.Dates), len(p.Values),
		)
	}
	if len(p.Dates) != len(index) {
		return NewStrategyError(
			"position series for symbol %q has %d rows, price series has %d",
			p.Symbol, len(p.Dates), len(index),
		)
	}
	for i, date := range p.Dates {
		if !date.Equal(index[i]) {
			return NewStrategyError(
				"position series for symbol %q is misaligned at row %d (%s != %s)",
				p.Symbol, i, date.Format("2006-01-02"), index[i].Format("2006-01-02"),
			)
		}
		if math.IsNaN(p.Values[i]) || math.IsInf(p.Values[i], 0) {
			return NewStrategyError("position series for symbol %q has a non-finite value at row %d", p.Symbol, i)
		}
	}
	return nil
}

// Clip returns a copy with every value clipped to [-limit, limit].
func (p *PositionSeries) Clip(limit float64) *PositionSeries {
	clipped := &PositionSeries{
		Symbol: p.Symbol,
		Dates:  append([]time.Time(nil), p.Dates...),
		Values: make([]float64, len(p.Values)),
	}
	for i, value := range p.Values {
		clipped.Values[i] = math.Max(-limit, math.Min(limit, value))
	}
	return clipped
}
