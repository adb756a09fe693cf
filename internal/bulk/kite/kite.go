// Package kite downloads daily candles from Zerodha Kite Connect.
package kite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"stock-dashboard/internal/bulk"
	"stock-dashboard/internal/date"
	"stock-dashboard/internal/logger"
	"stock-dashboard/internal/metrics"
	"stock-dashboard/internal/types"
)

const sourceName = "kite"

var errMissingCredentials = errors.New("missing API key/access token")

type Params struct {
	APIKey      string
	AccessToken string
	Exchange    string
	Symbols     []string
	// Lookback is used when From is zero.
	Lookback time.Duration
	From     date.Date
	To       date.Date
}

// historyAPI is the part of the Kite client the source needs.
type historyAPI interface {
	GetInstrumentsByExchange(exchange string) (kiteconnect.Instruments, error)
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
}

type Source struct {
	p       Params
	api     historyAPI
	breaker *gobreaker.CircuitBreaker
	mapper  *instrumentMapper
}

var _ bulk.Source = (*Source)(nil)

func New(p Params) (*Source, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, errMissingCredentials
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return newSource(p, kc), nil
}

func newSource(p Params, api historyAPI) *Source {
	if p.Exchange == "" {
		p.Exchange = "NSE"
	}
	if p.Lookback == 0 {
		p.Lookback = 365 * 24 * time.Hour
	}
	return &Source{
		p:       p,
		api:     api,
		breaker: newBreaker(),
		mapper:  newInstrumentMapper(),
	}
}

func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kite-historical",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(context.Background(), "Circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})
}

func (s *Source) Name() string { return sourceName }

// Fetch writes one CSV per symbol. Symbols that are unknown or fail to
// download are logged and left out.
func (s *Source) Fetch(ctx context.Context, dir string) ([]string, error) {
	if err := s.loadInstruments(); err != nil {
		return nil, err
	}

	from, to := s.window()
	paths := make([]string, 0, len(s.p.Symbols))
	var lastErr error

	for _, symbol := range s.p.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		token, ok := s.mapper.getToken(symbol)
		if !ok {
			lastErr = fmt.Errorf("unknown symbol %s on %s", symbol, s.p.Exchange)
			logger.Warn(ctx, "Symbol not found in instrument list", "symbol", symbol, "exchange", s.p.Exchange)
			continue
		}

		candles, err := s.history(token, from, to)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", symbol, err)
			logger.ErrorWithErr(ctx, "Failed to fetch historical data", err, "symbol", symbol)
			continue
		}

		path := filepath.Join(dir, bulk.FileName(symbol))
		if err := bulk.WriteCSV(path, toRecords(symbol, candles)); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	metrics.BulkFiles(sourceName, len(paths))
	if len(paths) == 0 && lastErr != nil {
		return nil, lastErr
	}

	logger.Info(ctx, "Kite historical download completed",
		"symbols", len(s.p.Symbols),
		"files", len(paths),
		"from", from.Format(time.DateOnly),
		"to", to.Format(time.DateOnly))
	return paths, nil
}

func (s *Source) window() (time.Time, time.Time) {
	to := s.p.To
	if to.IsZero() {
		to = date.Today()
	}
	if !s.p.From.IsZero() {
		return s.p.From.Time(), to.Time()
	}
	return to.Time().Add(-s.p.Lookback), to.Time()
}

func (s *Source) loadInstruments() error {
	if s.mapper.size() > 0 {
		return nil
	}
	res, err := s.breaker.Execute(func() (interface{}, error) {
		return s.api.GetInstrumentsByExchange(s.p.Exchange)
	})
	if err != nil {
		return fmt.Errorf("failed to load instruments for %s: %w", s.p.Exchange, err)
	}
	for _, inst := range res.(kiteconnect.Instruments) {
		s.mapper.addMapping(inst.Tradingsymbol, inst.InstrumentToken)
	}
	return nil
}

func (s *Source) history(token int, from, to time.Time) ([]kiteconnect.HistoricalData, error) {
	res, err := s.breaker.Execute(func() (interface{}, error) {
		return s.api.GetHistoricalData(token, "day", from, to, false, false)
	})
	if err != nil {
		return nil, err
	}
	return res.([]kiteconnect.HistoricalData), nil
}

func toRecords(symbol string, candles []kiteconnect.HistoricalData) []types.Record {
	records := make([]types.Record, 0, len(candles))
	for _, c := range candles {
		records = append(records, types.Record{
			Ticker: strings.ToUpper(symbol),
			Date:   date.Of(c.Date.Time),
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: int64(c.Volume),
		})
	}
	return records
}
