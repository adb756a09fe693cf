package main

import (
	"stock-dashboard/internal/server"
	"stock-dashboard/internal/types"
)

type resultJSON struct {
	Spec    types.FilterSpec   `json:"spec"`
	Tickers []string           `json:"tickers"`
	Rows    int                `json:"rows"`
	Metrics []server.MetricDTO `json:"metrics"`
}

func jsonResult(res *types.Result) resultJSON {
	out := resultJSON{
		Spec:    res.View.Spec,
		Tickers: res.View.Tickers,
		Rows:    len(res.View.Records),
		Metrics: make([]server.MetricDTO, 0, len(res.Metrics)),
	}
	for _, m := range res.Metrics {
		out.Metrics = append(out.Metrics, server.NewMetricDTO(m))
	}
	return out
}
