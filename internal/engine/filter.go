package engine

import (
	"sort"

	"stock-dashboard/internal/types"
)

// Filter returns the rows of t with spec.Start <= Date <= spec.End whose
// ticker is selected, stable-sorted by date. An empty spec.Tickers selects
// every ticker in t. Start after End yields an empty view.
func Filter(t *types.Table, spec types.FilterSpec) *types.View {
	view := &types.View{
		Spec:    spec,
		Tickers: resolveTickers(t, spec.Tickers),
		Records: []types.Record{},
	}
	if t.Empty() || spec.Start.After(spec.End) {
		return view
	}

	selected := make(map[string]struct{}, len(spec.Tickers))
	for _, tk := range spec.Tickers {
		selected[tk] = struct{}{}
	}

	for _, r := range t.Records {
		if !r.Date.Between(spec.Start, spec.End) {
			continue
		}
		if len(selected) > 0 {
			if _, ok := selected[r.Ticker]; !ok {
				continue
			}
		}
		view.Records = append(view.Records, r)
	}

	sort.SliceStable(view.Records, func(i, j int) bool {
		return view.Records[i].Date.Before(view.Records[j].Date)
	})
	return view
}

// resolveTickers returns the explicit selection sorted and deduplicated, or
// every distinct ticker of t when the selection is empty.
func resolveTickers(t *types.Table, tickers []string) []string {
	if len(tickers) == 0 {
		return t.Tickers()
	}
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, tk := range tickers {
		if _, ok := seen[tk]; ok {
			continue
		}
		seen[tk] = struct{}{}
		out = append(out, tk)
	}
	sort.Strings(out)
	return out
}
