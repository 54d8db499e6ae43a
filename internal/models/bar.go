package models

import (
	"math"
	"time"
)

// Bar is one daily OHLCV observation. Dates are UTC midnight; the continuous
// contract adjustment is assumed to be applied by the data provider.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is an ordered-by-date daily bar table for one symbol.
type PriceSeries struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// Len returns the number of bars.
func (s *PriceSeries) Len() int {
	return len(s.Bars)
}

// Dates returns the date index of the series.
func (s *PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Bars))
	for i, bar := range s.Bars {
		dates[i] = bar.Date
	}
	return dates
}

// Closes returns the close price column.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, bar := range s.Bars {
		closes[i] = bar.Close
	}
	return closes
}

// Validate enforces the price series invariants: non-empty, strictly
// increasing UTC dates, finite OHLCV values, high >= max(open, close, low)
// and low <= min(open, close).
func (s *PriceSeries) Validate() error {
	if len(s.Bars) == 0 {
		return NewDataValidationError("price series for symbol %q is empty", s.Symbol)
	}
	for i, bar := range s.Bars {
		if bar.Date.IsZero() {
			return NewDataValidationError("price series for symbol %q has a zero date at row %d", s.Symbol, i)
		}
		if bar.Date.Location() != time.UTC {
			return NewDataValidationError("price series for symbol %q has a non-UTC date at row %d", s.Symbol, i)
		}
		if i > 0 && !s.Bars[i-1].Date.Before(bar.Date) {
			return NewDataValidationError(
				"price series for symbol %q has a non-increasing date at row %d (%s -> %s)",
				s.Symbol, i, s.Bars[i-1].Date.Format("2006-01-02"), bar.Date.Format("2006-01-02"),
			)
		}
		for _, value := range []float64{bar.Open, bar.High, bar.Low, bar.Close, bar.Volume} {
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return NewDataValidationError("price series for symbol %q has a non-finite value at row %d", s.Symbol, i)
			}
		}
		if bar.Close <= 0 {
			return NewDataValidationError("price series for symbol %q has a non-positive close at row %d", s.Symbol, i)
		}
		if bar.High < bar.Low {
			return NewDataValidationError("price series for symbol %q has high < low at row %d", s.Symbol, i)
		}
		if bar.High < bar.Open || bar.High < bar.Close {
			return NewDataValidationError("price series for symbol %q has high below open/close at row %d", s.Symbol, i)
		}
		if bar.Low > bar.Open || bar.Low > bar.Close {
			return NewDataValidationError("price series for symbol %q has low above open/close at row %d", s.Symbol, i)
		}
	}
	return nil
}

// Restrict returns a copy holding only bars whose dates appear in keep.
// Bar order is preserved.
func (s *PriceSeries) Restrict(keep map[time.Time]bool) *PriceSeries {
	subset := &PriceSeries{Symbol: s.Symbol}
	for _, bar := range s.Bars {
		if keep[bar.Date] {
			subset.Bars = append(subset.Bars, bar)
		}
	}
	return subset
}

// CommonDates returns the ascending intersection of the date indices of all
// given series. The result is empty when the intersection is empty.
func CommonDates(series map[string]*PriceSeries) []time.Time {
	counts := make(map[time.Time]int)
	total := 0
	var reference *PriceSeries
	for _, s := range series {
		total++
		if reference == nil {
			reference = s
		}
		for _, bar := range s.Bars {
			counts[bar.Date]++
		}
	}
	if reference == nil {
		return nil
	}

	var ordered []time.Time
	for _, bar := range reference.Bars {
		if counts[bar.Date] == total {
			ordered = append(ordered, bar.Date)
		}
	}
	return ordered
}
