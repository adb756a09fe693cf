package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"stock-dashboard/internal/date"
	"stock-dashboard/internal/types"
)

// julianUnixEpoch is the Julian day number of 1970-01-01, used by INT96 timestamps.
const julianUnixEpoch = 2440588

var errNullDate = errors.New("null date")

type dateDecoder func(v parquet.Value) (date.Date, error)

// parquetDateDecoder picks a conversion from the Date leaf's physical and
// logical type. Timestamps are read in their declared unit.
func parquetDateDecoder(t parquet.Type) (dateDecoder, error) {
	lt := t.LogicalType()
	switch t.Kind() {
	case parquet.Int64:
		if lt == nil || lt.Timestamp == nil {
			return nil, fmt.Errorf("date column is int64 without a timestamp unit")
		}
		var unit time.Duration
		switch u := lt.Timestamp.Unit; {
		case u.Nanos != nil:
			unit = time.Nanosecond
		case u.Micros != nil:
			unit = time.Microsecond
		case u.Millis != nil:
			unit = time.Millisecond
		default:
			return nil, fmt.Errorf("date column has an unknown timestamp unit")
		}
		perSecond := int64(time.Second / unit)
		return func(v parquet.Value) (date.Date, error) {
			n := v.Int64()
			return date.Of(time.Unix(n/perSecond, (n%perSecond)*int64(unit)).UTC()), nil
		}, nil

	case parquet.Int32:
		if lt == nil || lt.Date == nil {
			return nil, fmt.Errorf("date column is int32 without a DATE annotation")
		}
		return func(v parquet.Value) (date.Date, error) {
			return date.New(1970, time.January, 1).Add(int(v.Int32())), nil
		}, nil

	case parquet.Int96:
		return func(v parquet.Value) (date.Date, error) {
			return date.New(1970, time.January, 1).Add(int(v.Int96()[2]) - julianUnixEpoch), nil
		}, nil

	case parquet.ByteArray:
		return func(v parquet.Value) (date.Date, error) {
			return date.Parse(strings.TrimSpace(string(v.ByteArray())))
		}, nil
	}
	return nil, fmt.Errorf("unsupported date column type %v", t)
}

func parquetNumber(v parquet.Value) (float64, error) {
	var x float64
	switch v.Kind() {
	case parquet.Double:
		x = v.Double()
	case parquet.Float:
		x = float64(v.Float())
	case parquet.Int32:
		x = float64(v.Int32())
	case parquet.Int64:
		x = float64(v.Int64())
	default:
		return 0, fmt.Errorf("unsupported number type %v", v.Kind())
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("invalid number %v", x)
	}
	return x, nil
}

// parquetOptional returns 0 for a missing column or a null cell.
func parquetOptional(cells []parquet.Value, i int) (float64, error) {
	if i < 0 || cells[i].IsNull() {
		return 0, nil
	}
	return parquetNumber(cells[i])
}

// parseParquet reads a flat parquet table with the same rules as parseCSV:
// a null or bad date, or a null or non-finite close, fails the whole file.
// Rows with a null or blank ticker are dropped and counted.
func parseParquet(path, ticker string) ([]types.Record, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}
	if info.Size() == 0 {
		return nil, 0, errEmptyFile
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, 0, err
	}
	schema := pf.Schema()

	paths := schema.Columns()
	header := make([]string, len(paths))
	for i, p := range paths {
		header[i] = strings.Join(p, ".")
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, 0, err
	}

	leaf, _ := schema.Lookup(paths[cols.date]...)
	decodeDate, err := parquetDateDecoder(leaf.Node.Type())
	if err != nil {
		return nil, 0, err
	}

	records := []types.Record{}
	dropped := 0
	rowNum := 0
	cells := make([]parquet.Value, len(paths))

	for _, rg := range pf.RowGroups() {
		err := eachRow(rg, func(row parquet.Row) error {
			rowNum++
			for i := range cells {
				cells[i] = parquet.Value{}
			}
			for _, v := range row {
				if c := v.Column(); c >= 0 && c < len(cells) {
					cells[c] = v
				}
			}

			rec := types.Record{Ticker: ticker}
			var err error
			if cells[cols.date].IsNull() {
				return fmt.Errorf("row %d: %w", rowNum, errNullDate)
			}
			if rec.Date, err = decodeDate(cells[cols.date]); err != nil {
				return fmt.Errorf("row %d: bad date: %w", rowNum, err)
			}
			if cells[cols.close].IsNull() {
				return fmt.Errorf("row %d: null close", rowNum)
			}
			if rec.Close, err = parquetNumber(cells[cols.close]); err != nil {
				return fmt.Errorf("row %d: bad close: %w", rowNum, err)
			}
			if rec.Open, err = parquetOptional(cells, cols.open); err != nil {
				return fmt.Errorf("row %d: bad open: %w", rowNum, err)
			}
			if rec.High, err = parquetOptional(cells, cols.high); err != nil {
				return fmt.Errorf("row %d: bad high: %w", rowNum, err)
			}
			if rec.Low, err = parquetOptional(cells, cols.low); err != nil {
				return fmt.Errorf("row %d: bad low: %w", rowNum, err)
			}
			vol, err := parquetOptional(cells, cols.volume)
			if err != nil {
				return fmt.Errorf("row %d: bad volume: %w", rowNum, err)
			}
			rec.Volume = int64(vol)

			if cols.ticker >= 0 {
				tk := cells[cols.ticker]
				if tk.IsNull() || tk.Kind() != parquet.ByteArray || strings.TrimSpace(string(tk.ByteArray())) == "" {
					dropped++
					return nil
				}
				rec.Ticker = strings.TrimSpace(string(tk.ByteArray()))
			}
			records = append(records, rec)
			return nil
		})
		if err != nil {
			return nil, 0, err
		}
	}
	return records, dropped, nil
}

func eachRow(rg parquet.RowGroup, fn func(parquet.Row) error) error {
	rows := rg.Rows()
	defer rows.Close()

	buf := make([]parquet.Row, 128)
	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			if ferr := fn(row); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}
