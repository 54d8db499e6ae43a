package backtest

import (
	"bytes"
	"strconv"
	"time"
)

// SymbolDiagnostics summarizes one symbol's contribution to a backtest.
type SymbolDiagnostics struct {
	AverageTurnover float64 `json:"average_turnover"`
	AverageExposure float64 `json:"average_exposure"`
	NetContribution float64 `json:"net_contribution"`
	FinalPosition   float64 `json:"final_position"`
}

// Result is the immutable output of one engine run. The first in-range date
// is the entry observation: it earns no price return, but its entry turnover
// and the cost charged on it appear in the turnover, return and equity
// series. Only the positive-day fraction skips it.
type Result struct {
	Dates        []time.Time                  `json:"dates"`
	DailyReturns []float64                    `json:"daily_returns"`
	Equity       []float64                    `json:"equity_curve"`
	Turnover     []float64                    `json:"turnover"`
	Exposure     []float64                    `json:"exposure"`
	Metrics      Metrics                      `json:"metrics"`
	PerSymbol    map[string]SymbolDiagnostics `json:"per_symbol"`
}

// Observations returns the number of in-range dates.
func (r *Result) Observations() int {
	return len(r.Dates)
}

// EquityCurveCSV renders the daily series as CSV for downstream tooling.
func (r *Result) EquityCurveCSV() string {
	var buf bytes.Buffer
	buf.WriteString("date,equity,daily_return,turnover,exposure\n")
	for i, date := range r.Dates {
		buf.WriteString(date.Format("2006-01-02"))
		buf.WriteString(",")
		buf.WriteString(formatFloat(r.Equity[i]))
		buf.WriteString(",")
		buf.WriteString(formatFloat(r.DailyReturns[i]))
		buf.WriteString(",")
		buf.WriteString(formatFloat(r.Turnover[i]))
		buf.WriteString(",")
		buf.WriteString(formatFloat(r.Exposure[i]))
		buf.WriteString("\n")
	}
	return buf.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
