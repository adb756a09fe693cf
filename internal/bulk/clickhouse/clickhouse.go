// Package clickhouse builds daily price files from a ClickHouse tick table.
package clickhouse

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"stock-dashboard/internal/bulk"
	"stock-dashboard/internal/date"
	"stock-dashboard/internal/logger"
	"stock-dashboard/internal/metrics"
	"stock-dashboard/internal/types"
)

const sourceName = "clickhouse"

type Params struct {
	Addr     string
	Database string
	Username string
	Password string
	// Table has the market_ticks layout: timestamp, symbol and the
	// open/high/low/close price and volume columns.
	Table   string
	Symbols []string
	From    date.Date
	To      date.Date
}

type Source struct {
	p    Params
	conn driver.Conn
}

var _ bulk.Source = (*Source)(nil)

// New opens a native-protocol connection. The connection is lazy; the
// first Fetch reports an unreachable server.
func New(p Params) (*Source, error) {
	if p.Table == "" {
		p.Table = "market_ticks"
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{p.Addr},
		Auth: clickhouse.Auth{
			Database: p.Database,
			Username: p.Username,
			Password: p.Password,
		},
		Protocol:    clickhouse.Native,
		DialTimeout: 10 * time.Second,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &Source{p: p, conn: conn}, nil
}

func (s *Source) Name() string { return sourceName }

func (s *Source) Close() error { return s.conn.Close() }

// dailyRow is one symbol-day aggregated from ticks.
type dailyRow struct {
	Symbol string
	Day    time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

func buildQuery(p Params) (string, []any) {
	var (
		where []string
		args  []any
	)
	if len(p.Symbols) > 0 {
		where = append(where, "has(?, symbol)")
		args = append(args, p.Symbols)
	}
	if !p.From.IsZero() {
		where = append(where, "toDate(timestamp) >= ?")
		args = append(args, p.From.Time())
	}
	if !p.To.IsZero() {
		where = append(where, "toDate(timestamp) <= ?")
		args = append(args, p.To.Time())
	}

	var b strings.Builder
	b.WriteString("SELECT symbol, toDate(timestamp) AS day, ")
	b.WriteString("argMin(open_price, timestamp), max(high_price), min(low_price), ")
	b.WriteString("argMax(close_price, timestamp), max(volume) ")
	fmt.Fprintf(&b, "FROM %s", p.Table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" GROUP BY symbol, day ORDER BY symbol, day")
	return b.String(), args
}

// Fetch writes one CSV per symbol found in the tick table.
func (s *Source) Fetch(ctx context.Context, dir string) ([]string, error) {
	query, args := buildQuery(s.p)
	logger.Debug(ctx, "Querying daily closes", "query", query)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("daily close query failed: %w", err)
	}
	defer rows.Close()

	var daily []dailyRow
	for rows.Next() {
		var r dailyRow
		if err := rows.Scan(&r.Symbol, &r.Day, &r.Open, &r.High, &r.Low, &r.Close, &r.Volume); err != nil {
			return nil, err
		}
		daily = append(daily, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	grouped := groupBySymbol(daily)
	symbols := make([]string, 0, len(grouped))
	for sym := range grouped {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	paths := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		path := filepath.Join(dir, bulk.FileName(sym))
		if err := bulk.WriteCSV(path, grouped[sym]); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	metrics.BulkFiles(sourceName, len(paths))
	logger.Info(ctx, "ClickHouse export completed", "table", s.p.Table, "symbols", len(paths), "rows", len(daily))
	return paths, nil
}

func groupBySymbol(rows []dailyRow) map[string][]types.Record {
	out := make(map[string][]types.Record)
	for _, r := range rows {
		out[r.Symbol] = append(out[r.Symbol], types.Record{
			Ticker: r.Symbol,
			Date:   date.Of(r.Day),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return out
}
