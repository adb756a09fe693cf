package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
)

type tickersCmd struct {
	*app
}

func (*tickersCmd) Name() string     { return "tickers" }
func (*tickersCmd) Synopsis() string { return "list tickers and the date range of the dataset" }
func (*tickersCmd) Usage() string {
	return `dashboard tickers

  Loads the configured dataset and prints its tickers, date range and
  any files that were skipped.
`
}

func (c *tickersCmd) SetFlags(*flag.FlagSet) {}

func (c *tickersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	fmt.Printf("Tickers: %s\n", strings.Join(ds.Table.Tickers(), ", "))
	if min, max, ok := ds.Table.DateRange(); ok {
		fmt.Printf("Range:   %s to %s\n", min, max)
	}
	fmt.Printf("Rows:    %d from %d file(s)\n", ds.Table.Len(), len(ds.Files))
	if ds.DroppedRows > 0 {
		fmt.Printf("Dropped: %d row(s) without ticker\n", ds.DroppedRows)
	}
	for _, s := range ds.Skipped {
		fmt.Printf("Skipped: %s (%s)\n", s.Path, s.Reason)
	}
	return subcommands.ExitSuccess
}
