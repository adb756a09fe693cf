// Package bulk holds the helpers shared by acquisition sources: the
// canonical CSV layout they write and the file naming they use.
package bulk

import (
	"encoding/csv"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"stock-dashboard/internal/interfaces"
	"stock-dashboard/internal/types"
)

// Source is an acquisition collaborator that fills a directory with files
// the dataset loader can parse.
type Source = interfaces.BulkSource

// Header is the column layout written by WriteCSV.
var Header = []string{"Date", "Ticker", "Open", "High", "Low", "Close", "Volume"}

// WriteCSV writes records to path in the canonical layout, creating the
// parent directory when needed.
func WriteCSV(path string, records []types.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Date.String(),
			r.Ticker,
			formatFloat(r.Open),
			formatFloat(r.High),
			formatFloat(r.Low),
			formatFloat(r.Close),
			strconv.FormatInt(r.Volume, 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return out.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FileName returns a safe file name for a symbol. Bytes outside
// [A-Za-z0-9._-] are percent-encoded so distinct symbols never share a
// file, e.g. "M&M" -> "M%26M.csv". Symbol reverses it.
func FileName(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return "_.csv"
	}
	var b strings.Builder
	for i := 0; i < len(symbol); i++ {
		c := symbol[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '.', c == '_':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String() + ".csv"
}

// Symbol recovers the symbol from a file name written by FileName. Names
// that are not valid escapes are returned without their extension.
func Symbol(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if s, err := url.PathUnescape(base); err == nil {
		return s
	}
	return base
}
