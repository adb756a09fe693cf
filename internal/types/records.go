package types

import (
	"errors"
	"math"
	"sort"

	"stock-dashboard/internal/date"
)

// Record is one row of the canonical price table.
type Record struct {
	Ticker string    `json:"ticker"`
	Date   date.Date `json:"date"`
	Open   float64   `json:"open,omitempty"`
	High   float64   `json:"high,omitempty"`
	Low    float64   `json:"low,omitempty"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume,omitempty"`
}

// Table is an ordered, immutable-after-load sequence of records.
type Table struct {
	Records []Record
}

// NewTable wraps records in a Table.
func NewTable(records []Record) *Table {
	return &Table{Records: records}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// Tickers returns the sorted distinct tickers present in the table.
func (t *Table) Tickers() []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range t.Records {
		if _, ok := seen[r.Ticker]; ok {
			continue
		}
		seen[r.Ticker] = struct{}{}
		out = append(out, r.Ticker)
	}
	sort.Strings(out)
	return out
}

// DateRange returns the earliest and latest dates in the table.
// ok is false for an empty table.
func (t *Table) DateRange() (min, max date.Date, ok bool) {
	if t.Empty() {
		return date.Date{}, date.Date{}, false
	}
	min, max = t.Records[0].Date, t.Records[0].Date
	for _, r := range t.Records[1:] {
		if r.Date.Before(min) {
			min = r.Date
		}
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return min, max, true
}

// StartPolicy selects which row provides the start price of a period.
type StartPolicy string

const (
	// StartExact uses the row dated exactly on FilterSpec.Start.
	StartExact StartPolicy = "EXACT"
	// StartFirst uses the earliest row present in the view.
	StartFirst StartPolicy = "FIRST"
)

// ErrInvalidRange is returned by FilterSpec.Validate when Start is after End.
var ErrInvalidRange = errors.New("start date is after end date")

// FilterSpec selects rows by ticker and inclusive date interval.
// An empty Tickers slice selects every ticker.
type FilterSpec struct {
	Tickers     []string    `json:"tickers"`
	Start       date.Date   `json:"start"`
	End         date.Date   `json:"end"`
	StartPolicy StartPolicy `json:"start_policy,omitempty"`
}

// Validate reports ErrInvalidRange when Start > End.
func (f FilterSpec) Validate() error {
	if f.Start.After(f.End) {
		return ErrInvalidRange
	}
	switch f.StartPolicy {
	case "", StartExact, StartFirst:
		return nil
	default:
		return errors.New("start policy must be EXACT or FIRST, got " + string(f.StartPolicy))
	}
}

// View is the subset of a table matching a FilterSpec, sorted by date.
type View struct {
	Spec    FilterSpec `json:"spec"`
	Tickers []string   `json:"tickers"` // resolved selection
	Records []Record   `json:"records"`
}

// Empty reports whether no rows matched.
func (v *View) Empty() bool { return v == nil || len(v.Records) == 0 }

// Matrix is a date-indexed, ticker-columned grid of closing prices.
// Values[i][j] is the close of Tickers[j] on Dates[i], NaN when absent.
type Matrix struct {
	Dates   []date.Date
	Tickers []string
	Values  [][]float64
}

// Column returns the series for ticker, or nil when the ticker is absent.
func (m *Matrix) Column(ticker string) []float64 {
	for j, t := range m.Tickers {
		if t != ticker {
			continue
		}
		col := make([]float64, len(m.Dates))
		for i := range m.Dates {
			col[i] = m.Values[i][j]
		}
		return col
	}
	return nil
}

// Metric holds period statistics for one ticker.
type Metric struct {
	Ticker     string    `json:"ticker"`
	Latest     float64   `json:"latest"`
	LatestDate date.Date `json:"latest_date"`
	Start      float64   `json:"start"`
	StartDate  date.Date `json:"start_date"`
	Delta      float64   `json:"delta"`
	PctDelta   float64   `json:"pct_delta"`
	Points     int       `json:"points"`
	Available  bool      `json:"available"`
	Reason     string    `json:"reason,omitempty"`
}

// PctDefined reports whether the percent change could be computed.
func (m Metric) PctDefined() bool {
	return m.Available && !math.IsNaN(m.PctDelta) && !math.IsInf(m.PctDelta, 0)
}

// Result bundles everything the presentation layer needs for one query.
type Result struct {
	View    *View    `json:"view"`
	Matrix  *Matrix  `json:"-"`
	Metrics []Metric `json:"metrics"`
}

// Empty reports whether the query matched no rows.
func (r *Result) Empty() bool { return r == nil || r.View.Empty() }
