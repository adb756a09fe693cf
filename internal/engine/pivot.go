package engine

import (
	"math"
	"sort"

	"stock-dashboard/internal/date"
	"stock-dashboard/internal/types"
)

type cellKey struct {
	day    date.Date
	ticker string
}

type cellAgg struct {
	sum   float64
	count int
}

// Pivot lays the view out as one close-price column per ticker present in
// the view, indexed by sorted distinct dates. Rows sharing (ticker, date) are
// averaged; cells with no row are NaN.
func Pivot(v *types.View) *types.Matrix {
	m := &types.Matrix{Dates: []date.Date{}, Tickers: []string{}, Values: [][]float64{}}
	if v.Empty() {
		return m
	}

	cells := make(map[cellKey]*cellAgg)
	days := make(map[date.Date]struct{})
	tickers := make(map[string]struct{})
	for _, r := range v.Records {
		k := cellKey{r.Date, r.Ticker}
		agg := cells[k]
		if agg == nil {
			agg = &cellAgg{}
			cells[k] = agg
		}
		agg.sum += r.Close
		agg.count++
		days[r.Date] = struct{}{}
		tickers[r.Ticker] = struct{}{}
	}

	for d := range days {
		m.Dates = append(m.Dates, d)
	}
	sort.Slice(m.Dates, func(i, j int) bool { return m.Dates[i].Before(m.Dates[j]) })
	for tk := range tickers {
		m.Tickers = append(m.Tickers, tk)
	}
	sort.Strings(m.Tickers)

	m.Values = make([][]float64, len(m.Dates))
	for i, d := range m.Dates {
		row := make([]float64, len(m.Tickers))
		for j, tk := range m.Tickers {
			if agg, ok := cells[cellKey{d, tk}]; ok {
				row[j] = agg.sum / float64(agg.count)
			} else {
				row[j] = math.NaN()
			}
		}
		m.Values[i] = row
	}
	return m
}
