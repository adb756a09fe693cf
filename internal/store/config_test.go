package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stock-dashboard/internal/date"
	"stock-dashboard/internal/types"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("data:\n  path: data\n"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Filter.StartPolicy != "EXACT" {
		t.Errorf("Expected default start policy EXACT, got %s", cfg.Filter.StartPolicy)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected default addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Report.Currency != "USD" || cfg.ReportRows() != 10 {
		t.Errorf("Unexpected report defaults %+v", cfg.Report)
	}
	if cfg.Bulk.ClickHouse.Table != "market_ticks" {
		t.Errorf("Expected market_ticks, got %s", cfg.Bulk.ClickHouse.Table)
	}
}

func TestParseConfigZeroLastRows(t *testing.T) {
	cfg, err := ParseConfig([]byte("data:\n  path: data\nreport:\n  last_rows: 0\n"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.ReportRows() != 0 {
		t.Errorf("Expected explicit last_rows 0 to be kept, got %d", cfg.ReportRows())
	}

	if _, err := ParseConfig([]byte("data:\n  path: data\nreport:\n  last_rows: -1\n")); err == nil {
		t.Error("Expected error for negative last_rows")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data:
  path: ./prices
  pattern: "*.csv"
  max_files: 5
filter:
  tickers: [AAPL, MSFT]
  start: 2020-01-01
  end: 2020-12-31
  start_policy: first
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := types.Descriptor{Path: "./prices", Pattern: "*.csv", MaxFiles: 5}
	if cfg.Data != want {
		t.Errorf("Expected %+v, got %+v", want, cfg.Data)
	}
	if cfg.Filter.StartPolicy != "FIRST" {
		t.Errorf("Expected FIRST, got %s", cfg.Filter.StartPolicy)
	}
	start, end, err := cfg.FilterDates()
	if err != nil {
		t.Fatal(err)
	}
	if start != date.New(2020, 1, 1) || end != date.New(2020, 12, 31) {
		t.Errorf("Unexpected filter dates %s - %s", start, end)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DASHBOARD_DATA_PATH", "/srv/prices")
	t.Setenv("DASHBOARD_ADDR", ":9090")

	cfg, err := ParseConfig([]byte("data:\n  path: data\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Data.Path != "/srv/prices" {
		t.Errorf("Expected /srv/prices, got %s", cfg.Data.Path)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Expected :9090, got %s", cfg.Server.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing path", "data: {}\n", "data.path"},
		{"bad source", "data: {path: x, source: ftp}\n", "data.source"},
		{"bad pattern", "data: {path: x, pattern: '[a-'}\n", "data.pattern"},
		{"bad policy", "data: {path: x}\nfilter: {start_policy: LAST}\n", "start_policy"},
		{"bad date", "data: {path: x}\nfilter: {start: someday}\n", "filter.start"},
		{"http without targets", "data: {path: x, source: http}\n", "bulk.http.targets"},
		{"scrape without placeholder", "data: {path: x, source: scrape}\nbulk: {scrape: {url_template: 'http://x'}}\n", "{symbol}"},
		{"kite without credentials", "data: {path: x, source: kite}\nbulk: {kite: {symbols: [TCS]}}\n", "KITE_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateRange(t *testing.T) {
	_, err := ParseConfig([]byte("data: {path: x}\nfilter: {start: 2020-02-01, end: 2020-01-01}\n"))
	if !errors.Is(err, types.ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange, got %v", err)
	}
}
