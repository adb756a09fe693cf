package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"stock-dashboard/internal/export"
	"stock-dashboard/internal/logger"
	"stock-dashboard/internal/report"
)

type viewCmd struct {
	*app
	filter filterFlags
	format string
	out    string
	rows   int
	style  string
}

func (*viewCmd) Name() string     { return "view" }
func (*viewCmd) Synopsis() string { return "show latest prices and period change for a selection" }
func (*viewCmd) Usage() string {
	return `dashboard view [-tickers A,B] [-start <date>] [-end <date>] [-policy EXACT|FIRST] [-format report|json|csv] [-out <dir>]

  Loads the configured dataset, filters it and prints metrics per ticker.
  Dates default to the first and last day present in the data.
`
}

func (c *viewCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.filter.tickers, "tickers", "", "comma separated tickers (default: configured selection, or all)")
	f.StringVar(&c.filter.start, "start", "", "first day of the period")
	f.StringVar(&c.filter.end, "end", "", "last day of the period")
	f.StringVar(&c.filter.policy, "policy", "", "start price policy: EXACT (row on start date) or FIRST (earliest row)")
	f.StringVar(&c.format, "format", "report", "output format: report, json or csv")
	f.StringVar(&c.out, "out", "", "directory for csv output (default: metrics to stdout)")
	f.IntVar(&c.rows, "rows", -1, "number of trailing rows in the report (default from config)")
	f.StringVar(&c.style, "style", "", "report style: auto, dark, light or notty")
}

func (c *viewCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	ds, err := loader.Load(ctx, cfg.Data)
	if err != nil {
		printErr(err)
		return subcommands.ExitFailure
	}
	for _, s := range ds.Skipped {
		fmt.Fprintf(os.Stderr, "skipped %s: %s\n", s.Path, s.Reason)
	}

	spec, err := c.filter.spec(cfg, ds.Table)
	if err != nil {
		printErr(err)
		return subcommands.ExitUsageError
	}

	res := newEngine().Query(ctx, ds.Table, spec)

	switch c.format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(jsonResult(res))
	case "csv":
		if c.out == "" {
			err = export.WriteMetrics(os.Stdout, res.Metrics)
			break
		}
		var paths []string
		if paths, err = export.WriteFiles(c.out, res); err == nil {
			for _, p := range paths {
				fmt.Println(p)
			}
		}
	case "report":
		opts := report.Options{
			Title:    cfg.Report.Title,
			Currency: cfg.Report.Currency,
			Style:    cfg.Report.Style,
			LastRows: cfg.ReportRows(),
		}
		if c.rows >= 0 {
			opts.LastRows = c.rows
		}
		if c.style != "" {
			opts.Style = c.style
		}
		var out string
		if out, err = report.Render(res, opts); err == nil {
			fmt.Print(out)
		}
	default:
		printErr(fmt.Errorf("unknown format %q", c.format))
		return subcommands.ExitUsageError
	}

	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to write output", err, "format", c.format)
		printErr(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
