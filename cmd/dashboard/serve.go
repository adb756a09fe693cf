package main

import (
	"context"
	"flag"
	"time"

	"github.com/google/subcommands"

	"stock-dashboard/internal/logger"
	"stock-dashboard/internal/server"
	"stock-dashboard/internal/types"
)

type serveCmd struct {
	*app
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the dashboard JSON API" }
func (*serveCmd) Usage() string {
	return `dashboard serve [-addr :8080]

  Loads the configured dataset once, then serves /api/tickers, /api/range,
  /api/view, /api/dataset, /api/cache/clear, /metrics and /healthz.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "listen address (default: server.addr from config)")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := c.config(ctx)
	if err != nil {
		printErr(err)
		return subcommands.ExitFailure
	}
	loader, release, err := newLoader(ctx, cfg)
	if err != nil {
		printErr(err)
		return subcommands.ExitFailure
	}
	defer release()

	// a dataset that cannot be loaded at all is terminal
	if _, err := loader.Load(ctx, cfg.Data); err != nil {
		printErr(err)
		return subcommands.ExitFailure
	}

	start, end, err := cfg.FilterDates()
	if err != nil {
		printErr(err)
		return subcommands.ExitFailure
	}

	addr := cfg.Server.Addr
	if c.addr != "" {
		addr = c.addr
	}

	srv := server.New(server.Params{
		Addr:       addr,
		Descriptor: cfg.Data,
		Defaults: types.FilterSpec{
			Tickers:     cfg.Filter.Tickers,
			Start:       start,
			End:         end,
			StartPolicy: types.StartPolicy(cfg.Filter.StartPolicy),
		},
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}, loader, newEngine())

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.ErrorWithErr(ctx, "HTTP server failed", err)
		printErr(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
