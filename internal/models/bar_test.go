package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 0, 0, 0, 0, time.UTC)
}

func flatBar(date time.Time, price float64) Bar {
	return Bar{Date: date, Open: price, High: price, Low: price, Close: price, Volume: 1000}
}

func seriesFromCloses(symbol string, start time.Time, closes ...float64) *PriceSeries {
	s := &PriceSeries{Symbol: symbol}
	for i, c := range closes {
		s.Bars = append(s.Bars, flatBar(start.AddDate(0, 0, i), c))
	}
	return s
}

func TestPriceSeriesValidateAccepts(t *testing.T) {
	s := seriesFromCloses("ES", day(2024, 1, 1), 100, 101, 102)
	require.NoError(t, s.Validate())
}

func TestPriceSeriesValidateRejects(t *testing.T) {
	base := day(2024, 1, 1)

	cases := map[string]*PriceSeries{
		"empty": {Symbol: "ES"},
		"non-increasing dates": {Symbol: "ES", Bars: []Bar{
			flatBar(base, 100), flatBar(base, 101),
		}},
		"non-utc date": {Symbol: "ES", Bars: []Bar{
			flatBar(base.In(time.FixedZone("EST", -5*3600)), 100),
		}},
		"non-positive close": {Symbol: "ES", Bars: []Bar{
			{Date: base, Open: 1, High: 1, Low: 0, Close: 0, Volume: 1},
		}},
		"high below low": {Symbol: "ES", Bars: []Bar{
			{Date: base, Open: 100, High: 99, Low: 100, Close: 100, Volume: 1},
		}},
		"high below close": {Symbol: "ES", Bars: []Bar{
			{Date: base, Open: 100, High: 100, Low: 99, Close: 101, Volume: 1},
		}},
	}

	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			err := s.Validate()
			require.Error(t, err)
			assert.Equal(t, KindDataValidation, KindOf(err))
		})
	}
}

func TestPriceSeriesValidateRejectsNaN(t *testing.T) {
	s := seriesFromCloses("ES", day(2024, 1, 1), 100)
	s.Bars[0].Open = math.NaN()
	err := s.Validate()
	require.Error(t, err)
	assert.Equal(t, KindDataValidation, KindOf(err))
}

func TestRestrictKeepsOrder(t *testing.T) {
	s := seriesFromCloses("ES", day(2024, 1, 1), 100, 101, 102, 103)
	keep := map[time.Time]bool{
		day(2024, 1, 2): true,
		day(2024, 1, 4): true,
	}
	subset := s.Restrict(keep)
	require.Equal(t, 2, subset.Len())
	assert.Equal(t, []float64{101, 103}, subset.Closes())
	assert.Equal(t, "ES", subset.Symbol)
}

func TestCommonDatesIntersection(t *testing.T) {
	es := seriesFromCloses("ES", day(2024, 1, 1), 100, 101, 102, 103) // Jan 1-4
	cl := seriesFromCloses("CL", day(2024, 1, 2), 70, 71, 72, 73)    // Jan 2-5

	dates := CommonDates(map[string]*PriceSeries{"ES": es, "CL": cl})
	require.Len(t, dates, 3)
	assert.Equal(t, day(2024, 1, 2), dates[0])
	assert.Equal(t, day(2024, 1, 4), dates[2])
}

func TestCommonDatesEmptyIntersection(t *testing.T) {
	es := seriesFromCloses("ES", day(2024, 1, 1), 100, 101)
	cl := seriesFromCloses("CL", day(2024, 2, 1), 70, 71)
	assert.Empty(t, CommonDates(map[string]*PriceSeries{"ES": es, "CL": cl}))
}
