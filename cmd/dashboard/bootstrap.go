package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"stock-dashboard/internal/bulk"
	"stock-dashboard/internal/bulk/clickhouse"
	"stock-dashboard/internal/bulk/httpcsv"
	"stock-dashboard/internal/bulk/kite"
	"stock-dashboard/internal/bulk/scrape"
	"stock-dashboard/internal/cache"
	"stock-dashboard/internal/dataset"
	"stock-dashboard/internal/dataset/datasetobs"
	"stock-dashboard/internal/date"
	"stock-dashboard/internal/engine"
	"stock-dashboard/internal/engine/engineobs"
	"stock-dashboard/internal/interfaces"
	"stock-dashboard/internal/logger"
	"stock-dashboard/internal/store"
	"stock-dashboard/internal/types"
)

// app holds state shared by every subcommand.
type app struct {
	configPath string
	cfg        *store.Config
}

func (a *app) config(ctx context.Context) (*store.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := store.LoadConfig(a.configPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", a.configPath)
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

// newSource builds the named bulk source from configuration.
func newSource(cfg *store.Config, name string) (bulk.Source, error) {
	switch name {
	case "http":
		fc, err := cache.NewFileCache(cfg.Bulk.HTTP.CacheDir, cfg.CacheTTL())
		if err != nil {
			return nil, err
		}
		targets := make([]httpcsv.Target, 0, len(cfg.Bulk.HTTP.Targets))
		for _, t := range cfg.Bulk.HTTP.Targets {
			targets = append(targets, httpcsv.Target{Name: t.Name, URL: t.URL})
		}
		client := httpcsv.NewClient(httpcsv.WithTimeout(cfg.HTTPTimeout()), httpcsv.WithLogging(true))
		retry := httpcsv.DefaultRetryConfig()
		retry.MaxAttempts = cfg.Bulk.HTTP.MaxAttempts
		return httpcsv.New(client, fc, targets, retry), nil
	case "kite":
		return kite.New(kite.Params{
			APIKey:      cfg.Env.KiteAPIKey,
			AccessToken: cfg.Env.KiteAccessToken,
			Exchange:    cfg.Bulk.Kite.Exchange,
			Symbols:     cfg.Bulk.Kite.Symbols,
			Lookback:    time.Duration(cfg.Bulk.Kite.LookbackDays) * 24 * time.Hour,
		})
	case "scrape":
		return scrape.New(scrape.Params{
			URLTemplate:   cfg.Bulk.Scrape.URLTemplate,
			TableSelector: cfg.Bulk.Scrape.TableSelector,
			Symbols:       cfg.Bulk.Scrape.Symbols,
			Timeout:       time.Duration(cfg.Bulk.Scrape.TimeoutSeconds) * time.Second,
			RateLimit:     time.Duration(cfg.Bulk.Scrape.RateLimitMs) * time.Millisecond,
		}), nil
	case "clickhouse":
		return clickhouse.New(clickhouse.Params{
			Addr:     cfg.Bulk.ClickHouse.Addr,
			Database: cfg.Bulk.ClickHouse.Database,
			Username: cfg.Bulk.ClickHouse.Username,
			Password: cfg.Env.ClickHousePassword,
			Table:    cfg.Bulk.ClickHouse.Table,
			Symbols:  cfg.Bulk.ClickHouse.Symbols,
		})
	default:
		return nil, fmt.Errorf("unknown bulk source %q", name)
	}
}

// closerFor returns a func that releases src if it holds a connection.
func closerFor(ctx context.Context, src bulk.Source) func() {
	c, ok := src.(io.Closer)
	if !ok {
		return func() {}
	}
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn(ctx, "Failed to close bulk source", "error", err)
		}
	}
}

// newLoader returns the observed loader, with the configured bulk source
// registered when the descriptor names one. The returned func releases
// that source and must be called when the command exits.
func newLoader(ctx context.Context, cfg *store.Config) (interfaces.DatasetLoader, func(), error) {
	var opts []dataset.Option
	release := func() {}
	if cfg.Data.Source != "" {
		src, err := newSource(cfg, cfg.Data.Source)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create %s source: %w", cfg.Data.Source, err)
		}
		opts = append(opts, dataset.WithSource(src))
		release = closerFor(ctx, src)
	}
	return datasetobs.Wrap(dataset.New(opts...)), release, nil
}

func newEngine() interfaces.Engine {
	return engineobs.Wrap(engine.New())
}

// filterFlags are the filter options shared by commands that query.
type filterFlags struct {
	tickers string
	start   string
	end     string
	policy  string
}

// spec merges flags over configured defaults and resolves unset bounds
// against the table.
func (f *filterFlags) spec(cfg *store.Config, t *types.Table) (types.FilterSpec, error) {
	start, end, err := cfg.FilterDates()
	if err != nil {
		return types.FilterSpec{}, err
	}
	if f.start != "" {
		if start, err = date.Parse(f.start); err != nil {
			return types.FilterSpec{}, fmt.Errorf("invalid -start: %w", err)
		}
	}
	if f.end != "" {
		if end, err = date.Parse(f.end); err != nil {
			return types.FilterSpec{}, fmt.Errorf("invalid -end: %w", err)
		}
	}

	tickers := cfg.Filter.Tickers
	if f.tickers != "" {
		tickers = nil
		for _, tk := range strings.Split(f.tickers, ",") {
			if tk = strings.TrimSpace(tk); tk != "" {
				tickers = append(tickers, tk)
			}
		}
	}

	policy := types.StartPolicy(cfg.Filter.StartPolicy)
	if f.policy != "" {
		policy = types.StartPolicy(strings.ToUpper(f.policy))
	}

	spec := engine.DefaultSpec(t, tickers, start, end, policy)
	if err := spec.Validate(); err != nil {
		return types.FilterSpec{}, err
	}
	return spec, nil
}

func printErr(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
