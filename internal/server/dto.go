package server

import (
	"math"

	"stock-dashboard/internal/types"
)

// JSON has no NaN, so undefined numbers are encoded as null.

type matrixDTO struct {
	Dates   []string     `json:"dates"`
	Tickers []string     `json:"tickers"`
	Values  [][]*float64 `json:"values"`
}

// MetricDTO is the wire form of a types.Metric. Values that are not
// available are null and their dates are omitted.
type MetricDTO struct {
	Ticker     string   `json:"ticker"`
	Latest     *float64 `json:"latest"`
	LatestDate string   `json:"latest_date,omitempty"`
	Start      *float64 `json:"start"`
	StartDate  string   `json:"start_date,omitempty"`
	Delta      *float64 `json:"delta"`
	PctDelta   *float64 `json:"pct_delta"`
	Points     int      `json:"points"`
	Available  bool     `json:"available"`
	Reason     string   `json:"reason,omitempty"`
}

type viewResponse struct {
	Spec    types.FilterSpec `json:"spec"`
	Tickers []string         `json:"tickers"`
	Empty   bool             `json:"empty"`
	Message string           `json:"message,omitempty"`
	Rows    []types.Record   `json:"rows"`
	Matrix  matrixDTO        `json:"matrix"`
	Metrics []MetricDTO      `json:"metrics"`
}

func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func toMatrixDTO(m *types.Matrix) matrixDTO {
	out := matrixDTO{Dates: []string{}, Tickers: []string{}, Values: [][]*float64{}}
	if m == nil {
		return out
	}
	out.Tickers = append(out.Tickers, m.Tickers...)
	for i, d := range m.Dates {
		out.Dates = append(out.Dates, d.String())
		row := make([]*float64, len(m.Values[i]))
		for j, v := range m.Values[i] {
			row[j] = optional(v)
		}
		out.Values = append(out.Values, row)
	}
	return out
}

// NewMetricDTO converts m, dropping start values when the metric is unavailable.
func NewMetricDTO(m types.Metric) MetricDTO {
	out := MetricDTO{
		Ticker:    m.Ticker,
		Points:    m.Points,
		Available: m.Available,
		Reason:    m.Reason,
	}
	if m.Points > 0 {
		out.Latest = optional(m.Latest)
		out.LatestDate = m.LatestDate.String()
	}
	if m.Available {
		out.Start = optional(m.Start)
		out.StartDate = m.StartDate.String()
		out.Delta = optional(m.Delta)
	}
	if m.PctDefined() {
		out.PctDelta = optional(m.PctDelta)
	}
	return out
}

func toViewResponse(res *types.Result) viewResponse {
	out := viewResponse{
		Spec:    res.View.Spec,
		Tickers: res.View.Tickers,
		Empty:   res.Empty(),
		Rows:    res.View.Records,
		Matrix:  toMatrixDTO(res.Matrix),
		Metrics: make([]MetricDTO, 0, len(res.Metrics)),
	}
	if out.Rows == nil {
		out.Rows = []types.Record{}
	}
	if out.Tickers == nil {
		out.Tickers = []string{}
	}
	if out.Empty {
		out.Message = "No data found for the selected criteria."
	}
	for _, m := range res.Metrics {
		out.Metrics = append(out.Metrics, NewMetricDTO(m))
	}
	return out
}
