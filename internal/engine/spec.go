package engine

import (
	"stock-dashboard/internal/date"
	"stock-dashboard/internal/types"
)

// DefaultSpec fills unset bounds from the table's date range, the way the
// dashboard's date pickers start out covering the whole dataset.
func DefaultSpec(t *types.Table, tickers []string, start, end date.Date, policy types.StartPolicy) types.FilterSpec {
	min, max, ok := t.DateRange()
	if ok {
		if start.IsZero() {
			start = min
		}
		if end.IsZero() {
			end = max
		}
	}
	if policy == "" {
		policy = types.StartExact
	}
	return types.FilterSpec{
		Tickers:     tickers,
		Start:       start,
		End:         end,
		StartPolicy: policy,
	}
}
