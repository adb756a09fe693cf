package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"stock-dashboard/internal/date"
	"stock-dashboard/internal/types"
)

// columnAliases lists accepted header names per canonical column, in
// priority order: "close" wins over "adj close" when both are present.
var columnAliases = map[string][]string{
	"date":   {"date", "timestamp", "datetime", "day", "trade date"},
	"close":  {"close", "close price", "closing price", "adj close", "last", "ltp"},
	"ticker": {"ticker", "symbol", "tradingsymbol", "name"},
	"open":   {"open", "open price"},
	"high":   {"high", "high price"},
	"low":    {"low", "low price"},
	"volume": {"volume", "vol", "shares traded"},
}

type columns struct {
	date, close, ticker, open, high, low, volume int
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", ".", "").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

func mapColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		n := normalizeHeader(h)
		if _, dup := index[n]; !dup {
			index[n] = i
		}
	}
	find := func(col string) int {
		for _, alias := range columnAliases[col] {
			if i, ok := index[alias]; ok {
				return i
			}
		}
		return -1
	}

	cols := columns{
		date:   find("date"),
		close:  find("close"),
		ticker: find("ticker"),
		open:   find("open"),
		high:   find("high"),
		low:    find("low"),
		volume: find("volume"),
	}
	if cols.date < 0 {
		return cols, errMissingDate
	}
	if cols.close < 0 {
		return cols, errMissingClose
	}
	return cols, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// parseOptional returns 0 for a blank cell.
func parseOptional(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return parseNumber(s)
}

// parseCSV reads a whole CSV file. Any unparseable date or close value fails
// the file; rows with a blank ticker cell are dropped and counted.
func parseCSV(path, ticker string) ([]types.Record, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return readCSV(f, ticker)
}

func readCSV(in io.Reader, ticker string) ([]types.Record, int, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, errEmptyFile
	}
	if err != nil {
		return nil, 0, err
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, 0, err
	}

	records := []types.Record{}
	dropped := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		line, _ := r.FieldPos(0)

		rec, ok, err := parseRow(row, cols, ticker)
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped, nil
}

func parseRow(row []string, cols columns, ticker string) (types.Record, bool, error) {
	var rec types.Record

	if cols.ticker >= 0 {
		ticker = field(row, cols.ticker)
		if ticker == "" {
			return rec, false, nil
		}
	}
	rec.Ticker = ticker

	day, err := date.Parse(field(row, cols.date))
	if err != nil {
		return rec, false, err
	}
	rec.Date = day

	if rec.Close, err = parseNumber(field(row, cols.close)); err != nil {
		return rec, false, fmt.Errorf("close: %w", err)
	}
	if rec.Open, err = parseOptional(field(row, cols.open)); err != nil {
		return rec, false, fmt.Errorf("open: %w", err)
	}
	if rec.High, err = parseOptional(field(row, cols.high)); err != nil {
		return rec, false, fmt.Errorf("high: %w", err)
	}
	if rec.Low, err = parseOptional(field(row, cols.low)); err != nil {
		return rec, false, fmt.Errorf("low: %w", err)
	}
	vol, err := parseOptional(field(row, cols.volume))
	if err != nil {
		return rec, false, fmt.Errorf("volume: %w", err)
	}
	rec.Volume = int64(vol)

	return rec, true, nil
}
