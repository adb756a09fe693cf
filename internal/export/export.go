// Package export writes query results as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"stock-dashboard/internal/types"
)

// WriteRows writes the view's rows in date order.
func WriteRows(out io.Writer, v *types.View) error {
	w := csv.NewWriter(out)
	headers := []string{"date", "ticker", "open", "high", "low", "close", "volume"}
	if err := w.Write(headers); err != nil {
		return err
	}
	if v != nil {
		for _, r := range v.Records {
			rec := []string{r.Date.String(), r.Ticker, num(r.Open), num(r.High), num(r.Low), num(r.Close), strconv.FormatInt(r.Volume, 10)}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

// WriteMatrix writes one row per date and one column per ticker. Missing
// cells are left empty.
func WriteMatrix(out io.Writer, m *types.Matrix) error {
	w := csv.NewWriter(out)
	if m == nil {
		m = &types.Matrix{}
	}
	headers := append([]string{"date"}, m.Tickers...)
	if err := w.Write(headers); err != nil {
		return err
	}
	for i, d := range m.Dates {
		rec := make([]string, 0, len(m.Tickers)+1)
		rec = append(rec, d.String())
		for _, v := range m.Values[i] {
			rec = append(rec, num(v))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteMetrics writes one row per ticker. Unavailable values are empty and
// the reason column says why.
func WriteMetrics(out io.Writer, ms []types.Metric) error {
	w := csv.NewWriter(out)
	headers := []string{"ticker", "latest", "latest_date", "start", "start_date", "delta", "pct_delta", "points", "reason"}
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, m := range ms {
		rec := []string{m.Ticker, "", "", "", "", "", "", strconv.Itoa(m.Points), m.Reason}
		if m.Points > 0 {
			rec[1], rec[2] = fmt.Sprintf("%.2f", m.Latest), m.LatestDate.String()
		}
		if m.Available {
			rec[3], rec[4] = fmt.Sprintf("%.2f", m.Start), m.StartDate.String()
			rec[5] = fmt.Sprintf("%.2f", m.Delta)
		}
		if m.PctDefined() {
			rec[6] = fmt.Sprintf("%.2f", m.PctDelta)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteFiles writes rows.csv, matrix.csv and metrics.csv for res into dir
// and returns their paths.
func WriteFiles(dir string, res *types.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"rows.csv", func(w io.Writer) error { return WriteRows(w, res.View) }},
		{"matrix.csv", func(w io.Writer) error { return WriteMatrix(w, res.Matrix) }},
		{"metrics.csv", func(w io.Writer) error { return WriteMetrics(w, res.Metrics) }},
	}

	paths := make([]string, 0, len(writers))
	for _, wr := range writers {
		path := filepath.Join(dir, wr.name)
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		if err := wr.write(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func num(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
