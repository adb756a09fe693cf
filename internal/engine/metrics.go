package engine

import (
	"math"

	"stock-dashboard/internal/types"
)

const (
	reasonNoRows     = "no rows in range"
	reasonNoStartRow = "no row on start date"
	reasonZeroStart  = "start price is zero"
)

// Metrics computes latest price, period change and percent change for every
// ticker in the view's resolved selection, in ticker order. A ticker whose
// start row is missing is reported with Available false instead of a zero
// start price.
func Metrics(v *types.View) []types.Metric {
	if v == nil {
		return []types.Metric{}
	}

	byTicker := make(map[string][]types.Record)
	for _, r := range v.Records {
		byTicker[r.Ticker] = append(byTicker[r.Ticker], r)
	}

	policy := v.Spec.StartPolicy
	if policy == "" {
		policy = types.StartExact
	}

	out := make([]types.Metric, 0, len(v.Tickers))
	for _, tk := range v.Tickers {
		out = append(out, tickerMetric(tk, byTicker[tk], v.Spec, policy))
	}
	return out
}

// tickerMetric expects rows sorted by date, as produced by Filter.
func tickerMetric(ticker string, rows []types.Record, spec types.FilterSpec, policy types.StartPolicy) types.Metric {
	m := types.Metric{Ticker: ticker, Points: len(rows), PctDelta: math.NaN()}
	if len(rows) == 0 {
		m.Reason = reasonNoRows
		return m
	}

	// the last row on the max date wins ties
	latest := rows[0]
	for _, r := range rows[1:] {
		if !r.Date.Before(latest.Date) {
			latest = r
		}
	}
	m.Latest, m.LatestDate = latest.Close, latest.Date

	start, ok := startRow(rows, spec, policy)
	if !ok {
		m.Reason = reasonNoStartRow
		return m
	}
	m.Start, m.StartDate = start.Close, start.Date
	m.Delta = m.Latest - m.Start
	m.Available = true

	if m.Start == 0 {
		m.Reason = reasonZeroStart
		return m
	}
	m.PctDelta = m.Delta / m.Start * 100
	return m
}

func startRow(rows []types.Record, spec types.FilterSpec, policy types.StartPolicy) (types.Record, bool) {
	if policy == types.StartFirst {
		first := rows[0]
		for _, r := range rows[1:] {
			if r.Date.Before(first.Date) {
				first = r
			}
		}
		return first, true
	}
	for _, r := range rows {
		if r.Date == spec.Start {
			return r, true
		}
	}
	return types.Record{}, false
}
