package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"stock-dashboard/internal/logger"
)

type fetchCmd struct {
	*app
	source string
	dir    string
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "download price files with a bulk source" }
func (*fetchCmd) Usage() string {
	return `dashboard fetch [-source http|kite|scrape|clickhouse] [-dir <dir>]

  Runs a bulk source once and writes its files into dir, so later runs
  can load them as a plain directory.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.source, "source", "", "bulk source (default: data.source from config)")
	f.StringVar(&c.dir, "dir", "", "target directory (default: data.path from config)")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := c.config(ctx)
	if err != nil {
		printErr(err)
		return subcommands.ExitFailure
	}

	name, dir := c.source, c.dir
	if name == "" {
		name = cfg.Data.Source
	}
	if dir == "" {
		dir = cfg.Data.Path
	}
	if name == "" {
		printErr(fmt.Errorf("no bulk source given and data.source is empty"))
		return subcommands.ExitUsageError
	}

	src, err := newSource(cfg, name)
	if err != nil {
		printErr(err)
		return subcommands.ExitFailure
	}
	defer closerFor(ctx, src)()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		printErr(err)
		return subcommands.ExitFailure
	}

	timer := logger.StartOperation(ctx, "bulk.Fetch", "source", name, "dir", dir)
	paths, err := src.Fetch(timer.GetContext(), dir)
	if err != nil {
		timer.EndWithError(err)
		printErr(err)
		return subcommands.ExitFailure
	}
	timer.End("files", len(paths))

	for _, p := range paths {
		fmt.Println(p)
	}
	return subcommands.ExitSuccess
}
