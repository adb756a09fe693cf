package bulk

import (
	"os"
	"path/filepath"
	"testing"

	"stock-dashboard/internal/date"
	"stock-dashboard/internal/types"
)

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "AAPL.csv")
	records := []types.Record{
		{Ticker: "AAPL", Date: date.New(2020, 1, 2), Open: 1.5, High: 2, Low: 1, Close: 1.75, Volume: 300},
	}

	if err := WriteCSV(path, records); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "Date,Ticker,Open,High,Low,Close,Volume\n2020-01-02,AAPL,1.5,2,1,1.75,300\n"
	if string(data) != want {
		t.Errorf("Expected %q, got %q", want, string(data))
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"RELIANCE":   "RELIANCE.csv",
		"M&M":        "M%26M.csv",
		"M_M":        "M_M.csv",
		"BRK.B":      "BRK.B.csv",
		"BAJAJ-AUTO": "BAJAJ-AUTO.csv",
		"A/B":        "A%2FB.csv",
		" ":          "_.csv",
	}
	for in, want := range tests {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestSymbolReversesFileName(t *testing.T) {
	seen := map[string]string{}
	for _, sym := range []string{"M&M", "M_M", "M M", "BRK.B", "A/B", "100%", "NIFTY 50"} {
		name := FileName(sym)
		if other, dup := seen[name]; dup {
			t.Errorf("Expected distinct file names, %q and %q both map to %s", sym, other, name)
		}
		seen[name] = sym
		if got := Symbol(filepath.Join("data", name)); got != sym {
			t.Errorf("Symbol(%s): expected %q, got %q", name, sym, got)
		}
	}
	if got := Symbol("50%off.csv"); got != "50%off" {
		t.Errorf("Expected invalid escape to be kept, got %q", got)
	}
}
