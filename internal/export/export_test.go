package export

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"stock-dashboard/internal/date"
	"stock-dashboard/internal/types"
)

func TestWriteRows(t *testing.T) {
	v := &types.View{Records: []types.Record{
		{Ticker: "AAPL", Date: date.New(2020, 1, 1), Close: 100, Volume: 10},
	}}
	var buf bytes.Buffer
	if err := WriteRows(&buf, v); err != nil {
		t.Fatal(err)
	}
	want := "date,ticker,open,high,low,close,volume\n2020-01-01,AAPL,0,0,0,100,10\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestWriteMatrixLeavesMissingCellsEmpty(t *testing.T) {
	m := &types.Matrix{
		Dates:   []date.Date{date.New(2020, 1, 1), date.New(2020, 1, 2)},
		Tickers: []string{"AAPL", "MSFT"},
		Values:  [][]float64{{100, math.NaN()}, {110.5, 50}},
	}
	var buf bytes.Buffer
	if err := WriteMatrix(&buf, m); err != nil {
		t.Fatal(err)
	}
	want := "date,AAPL,MSFT\n2020-01-01,100,\n2020-01-02,110.5,50\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestWriteMetrics(t *testing.T) {
	ms := []types.Metric{
		{Ticker: "AAPL", Latest: 110, LatestDate: date.New(2020, 1, 2), Start: 100, StartDate: date.New(2020, 1, 1), Delta: 10, PctDelta: 10, Points: 2, Available: true},
		{Ticker: "MSFT", Latest: 50, LatestDate: date.New(2020, 1, 2), PctDelta: math.NaN(), Points: 1, Reason: "no row on start date"},
		{Ticker: "ZERO", Latest: 5, LatestDate: date.New(2020, 1, 2), StartDate: date.New(2020, 1, 1), Delta: 5, PctDelta: math.NaN(), Points: 2, Available: true, Reason: "start price is zero"},
	}
	var buf bytes.Buffer
	if err := WriteMetrics(&buf, ms); err != nil {
		t.Fatal(err)
	}
	want := "ticker,latest,latest_date,start,start_date,delta,pct_delta,points,reason\n" +
		"AAPL,110.00,2020-01-02,100.00,2020-01-01,10.00,10.00,2,\n" +
		"MSFT,50.00,2020-01-02,,,,,1,no row on start date\n" +
		"ZERO,5.00,2020-01-02,0.00,2020-01-01,5.00,,2,start price is zero\n"
	if buf.String() != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, buf.String())
	}
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	res := &types.Result{View: &types.View{}, Matrix: &types.Matrix{}, Metrics: []types.Metric{}}

	paths, err := WriteFiles(dir, res)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 3 {
		t.Fatalf("Expected 3 files, got %v", paths)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "matrix.csv"))
	if string(data) != "date\n" {
		t.Errorf("Expected header-only matrix, got %q", data)
	}
}
