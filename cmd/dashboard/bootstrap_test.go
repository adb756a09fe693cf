package main

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"stock-dashboard/internal/date"
	"stock-dashboard/internal/store"
	"stock-dashboard/internal/types"
)

func testConfig(t *testing.T, yaml string) *store.Config {
	t.Helper()
	cfg, err := store.ParseConfig([]byte(yaml))
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func testTable() *types.Table {
	return types.NewTable([]types.Record{
		{Ticker: "AAPL", Date: date.New(2020, 1, 1), Close: 100},
		{Ticker: "MSFT", Date: date.New(2020, 1, 9), Close: 50},
	})
}

func TestFilterFlagsOverrideConfig(t *testing.T) {
	cfg := testConfig(t, "data: {path: x}\nfilter: {tickers: [MSFT], start: 2020-01-02}\n")

	f := filterFlags{tickers: "AAPL, MSFT", policy: "first"}
	spec, err := f.spec(cfg, testTable())
	if err != nil {
		t.Fatal(err)
	}
	if len(spec.Tickers) != 2 || spec.Tickers[0] != "AAPL" {
		t.Errorf("Expected flag tickers, got %v", spec.Tickers)
	}
	if spec.Start != date.New(2020, 1, 2) || spec.End != date.New(2020, 1, 9) {
		t.Errorf("Expected configured start and table end, got %s - %s", spec.Start, spec.End)
	}
	if spec.StartPolicy != types.StartFirst {
		t.Errorf("Expected FIRST, got %s", spec.StartPolicy)
	}
}

func TestFilterFlagsRejectInvertedRange(t *testing.T) {
	cfg := testConfig(t, "data: {path: x}\n")
	f := filterFlags{start: "2020-01-09", end: "2020-01-01"}
	if _, err := f.spec(cfg, testTable()); !errors.Is(err, types.ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange, got %v", err)
	}

	f = filterFlags{start: "soon"}
	if _, err := f.spec(cfg, testTable()); err == nil || !strings.Contains(err.Error(), "-start") {
		t.Errorf("Expected -start error, got %v", err)
	}
}

func TestJSONResultEncodesNaNAsNull(t *testing.T) {
	res := &types.Result{
		View:    &types.View{Tickers: []string{"ZERO"}},
		Metrics: []types.Metric{{Ticker: "ZERO", PctDelta: math.NaN(), Available: true}},
	}
	b, err := json.Marshal(jsonResult(res))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(string(b), `"pct_delta":null`) {
		t.Errorf("Expected null pct_delta, got %s", b)
	}
}

func TestJSONResultOmitsUnavailableStart(t *testing.T) {
	res := &types.Result{
		View: &types.View{Tickers: []string{"MSFT"}},
		Metrics: []types.Metric{{
			Ticker: "MSFT", Latest: 50, LatestDate: date.New(2020, 1, 9),
			PctDelta: math.NaN(), Points: 1, Reason: "no row on start date",
		}},
	}
	b, err := json.Marshal(jsonResult(res))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	out := string(b)
	for _, want := range []string{`"start":null`, `"delta":null`, `"latest":50`, `"latest_date":"2020-01-09"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %s in %s", want, out)
		}
	}
	if strings.Contains(out, "start_date") {
		t.Errorf("Expected no start_date for an unavailable metric, got %s", out)
	}
}

type closingSource struct {
	closed int
}

func (s *closingSource) Name() string { return "closing" }

func (s *closingSource) Fetch(ctx context.Context, dir string) ([]string, error) {
	return nil, nil
}

func (s *closingSource) Close() error {
	s.closed++
	return nil
}

type plainSource struct{}

func (plainSource) Name() string { return "plain" }

func (plainSource) Fetch(ctx context.Context, dir string) ([]string, error) { return nil, nil }

func TestCloserForReleasesSource(t *testing.T) {
	src := &closingSource{}
	closerFor(context.Background(), src)()
	if src.closed != 1 {
		t.Errorf("Expected source closed once, got %d", src.closed)
	}

	// sources without Close get a no-op
	closerFor(context.Background(), plainSource{})()
}

func TestNewLoaderWithoutSource(t *testing.T) {
	cfg := testConfig(t, "data:\n  path: data\n")
	loader, release, err := newLoader(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if loader == nil || release == nil {
		t.Fatal("Expected a loader and a release func")
	}
	release()
}
