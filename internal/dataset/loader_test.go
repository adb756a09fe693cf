package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stock-dashboard/internal/date"
	"stock-dashboard/internal/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadSingleFileWithTicker(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "prices.csv", "Date,Ticker,Open,High,Low,Close,Volume\n"+
		"2020-01-01,AAPL,99,101,98,100,1000\n"+
		"2020-01-02,AAPL,100,111,99,110,2000\n"+
		"2020-01-01,MSFT,49,51,48,50,\n")

	ds, err := New().Load(context.Background(), types.Descriptor{Path: p})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ds.Table.Len() != 3 {
		t.Fatalf("Expected 3 rows, got %d", ds.Table.Len())
	}

	first := ds.Table.Records[0]
	want := types.Record{Ticker: "AAPL", Date: date.MustParse("2020-01-01"), Open: 99, High: 101, Low: 98, Close: 100, Volume: 1000}
	if first != want {
		t.Errorf("Expected %+v, got %+v", want, first)
	}
	if ds.Table.Records[2].Ticker != "MSFT" || ds.Table.Records[2].Volume != 0 {
		t.Errorf("Expected MSFT row with blank volume, got %+v", ds.Table.Records[2])
	}
}

func TestLoadDirectorySkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AAPL.csv", "Date,Close\n2020-01-01,100\n2020-01-02,110\n")
	writeFile(t, dir, "BROKEN.csv", "Date,Close\n2020-01-01,100\nnot-a-date,5\n")
	writeFile(t, dir, "NODATE.csv", "Day of week,Close\nMon,1\n")
	writeFile(t, dir, "notes.txt", "ignored")

	ds, err := New().Load(context.Background(), types.Descriptor{Path: dir})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ds.Table.Len() != 2 {
		t.Fatalf("Expected 2 rows from the valid file, got %d", ds.Table.Len())
	}
	for _, r := range ds.Table.Records {
		if r.Ticker != "AAPL" {
			t.Errorf("Expected ticker derived from file name, got %q", r.Ticker)
		}
	}
	if len(ds.Files) != 1 {
		t.Errorf("Expected 1 accepted file, got %v", ds.Files)
	}
	if len(ds.Skipped) != 2 {
		t.Fatalf("Expected 2 skipped files, got %v", ds.Skipped)
	}
	if !strings.Contains(ds.Skipped[0].Reason, "line 3") {
		t.Errorf("Expected line number in skip reason, got %q", ds.Skipped[0].Reason)
	}
}

func TestLoadAllFilesFail(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "")
	writeFile(t, dir, "b.csv", "Date,Open\n2020-01-01,1\n")

	_, err := New().Load(context.Background(), types.Descriptor{Path: dir})
	if !errors.Is(err, ErrNoValidData) {
		t.Fatalf("Expected ErrNoValidData, got %v", err)
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Expected *LoadError, got %T", err)
	}
	if len(le.Skipped) != 2 {
		t.Errorf("Expected 2 skipped files, got %d", len(le.Skipped))
	}
}

func TestLoadMissingPath(t *testing.T) {
	_, err := New().Load(context.Background(), types.Descriptor{Path: filepath.Join(t.TempDir(), "nope")})
	if !errors.Is(err, ErrNoValidData) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected ErrNoValidData wrapping ErrNotExist, got %v", err)
	}
}

func TestLoadHeaderOnlyIsEmptyNotError(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "empty.csv", "Date,Close\n")

	ds, err := New().Load(context.Background(), types.Descriptor{Path: p})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !ds.Table.Empty() {
		t.Errorf("Expected empty table, got %d rows", ds.Table.Len())
	}
}

func TestLoadCachesByDescriptor(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "AAPL.csv", "Date,Close\n2020-01-01,100\n")
	l := New()
	ctx := context.Background()

	first, err := l.Load(ctx, types.Descriptor{Path: dir})
	if err != nil {
		t.Fatal(err)
	}

	// the source is gone, only the cache can answer now
	if err := os.Remove(p); err != nil {
		t.Fatal(err)
	}

	second, err := l.Load(ctx, types.Descriptor{Path: dir + string(filepath.Separator)})
	if err != nil {
		t.Fatalf("Expected cached result, got %v", err)
	}
	if second.Table.Len() != first.Table.Len() {
		t.Fatalf("Expected %d rows, got %d", first.Table.Len(), second.Table.Len())
	}
	for i := range first.Table.Records {
		if first.Table.Records[i] != second.Table.Records[i] {
			t.Errorf("Row %d differs between calls", i)
		}
	}

	if !l.Invalidate(types.Descriptor{Path: dir}) {
		t.Error("Expected Invalidate to drop the entry")
	}
	if _, err := l.Load(ctx, types.Descriptor{Path: dir}); !errors.Is(err, ErrNoValidData) {
		t.Errorf("Expected reload to fail after invalidation, got %v", err)
	}
}

func TestLoadDistinctDescriptorsAreDistinctEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AAPL.csv", "Date,Close\n2020-01-01,100\n")
	l := New()
	ctx := context.Background()

	a, err := l.Load(ctx, types.Descriptor{Path: dir})
	if err != nil {
		t.Fatal(err)
	}
	b, err := l.Load(ctx, types.Descriptor{Path: dir, DefaultTicker: "APPLE"})
	if err != nil {
		t.Fatal(err)
	}
	if a.Table.Records[0].Ticker != "AAPL" || b.Table.Records[0].Ticker != "APPLE" {
		t.Errorf("Expected AAPL and APPLE, got %s and %s", a.Table.Records[0].Ticker, b.Table.Records[0].Ticker)
	}

	l.ClearCache()
	if l.cache.Len() != 0 {
		t.Errorf("Expected empty cache, got %d", l.cache.Len())
	}
}

func TestLoadPatternAndMaxFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_prices.csv", "Date,Close\n2020-01-01,1\n")
	writeFile(t, dir, "b_prices.csv", "Date,Close\n2020-01-01,2\n")
	writeFile(t, dir, "c_other.csv", "Date,Close\n2020-01-01,3\n")

	ds, err := New().Load(context.Background(), types.Descriptor{Path: dir, Pattern: "*_prices.csv", MaxFiles: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Files) != 1 || filepath.Base(ds.Files[0]) != "a_prices.csv" {
		t.Errorf("Expected only a_prices.csv, got %v", ds.Files)
	}
}

func TestLoadDropsRowsWithoutTicker(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "mixed.csv", "Symbol,Date,Close Price\nINFY,02-Jan-2020,\"1,234.50\"\n,03-Jan-2020,1\n")

	ds, err := New().Load(context.Background(), types.Descriptor{Path: p})
	if err != nil {
		t.Fatal(err)
	}
	if ds.Table.Len() != 1 || ds.DroppedRows != 1 {
		t.Fatalf("Expected 1 row and 1 dropped, got %d and %d", ds.Table.Len(), ds.DroppedRows)
	}
	if ds.Table.Records[0].Close != 1234.5 {
		t.Errorf("Expected close 1234.5, got %f", ds.Table.Records[0].Close)
	}
}

type stubSource struct {
	calls int
	files map[string]string
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(_ context.Context, dir string) ([]string, error) {
	s.calls++
	paths := []string{}
	for name, content := range s.files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func TestLoadRunsBulkSourceOnce(t *testing.T) {
	src := &stubSource{files: map[string]string{"TCS.csv": "Date,Close\n2020-01-01,3000\n"}}
	l := New(WithSource(src))
	d := types.Descriptor{Path: filepath.Join(t.TempDir(), "download"), Source: "stub"}

	for i := 0; i < 2; i++ {
		ds, err := l.Load(context.Background(), d)
		if err != nil {
			t.Fatal(err)
		}
		if ds.Table.Records[0].Ticker != "TCS" {
			t.Errorf("Expected TCS, got %s", ds.Table.Records[0].Ticker)
		}
	}
	if src.calls != 1 {
		t.Errorf("Expected one acquisition, got %d", src.calls)
	}
}

func TestLoadUnknownSource(t *testing.T) {
	_, err := New().Load(context.Background(), types.Descriptor{Path: t.TempDir(), Source: "nope"})
	if !errors.Is(err, errUnknownSource) {
		t.Errorf("Expected errUnknownSource, got %v", err)
	}
}

func TestLoadTickerFromEscapedFileName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "M%26M.csv", "Date,Close\n2020-01-01,100\n")
	writeFile(t, dir, "M_M.csv", "Date,Close\n2020-01-01,200\n")

	ds, err := New().Load(context.Background(), types.Descriptor{Path: dir})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got := ds.Table.Tickers()
	if len(got) != 2 || got[0] != "M&M" || got[1] != "M_M" {
		t.Errorf("Expected tickers [M&M M_M], got %v", got)
	}
}
