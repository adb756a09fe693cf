package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"stock-dashboard/internal/logger"
)

func main() {
	_ = godotenv.Load()

	a := &app{}
	flag.StringVar(&a.configPath, "config", "config.yaml", "path to the YAML configuration file")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(&viewCmd{app: a}, "")
	commander.Register(&tickersCmd{app: a}, "")
	commander.Register(&fetchCmd{app: a}, "")
	commander.Register(&serveCmd{app: a}, "")

	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(int(subcommands.ExitFailure))
	}
	logger.Debug(context.Background(), "Logger initialized", "tracing", logger.IsTracingEnabled())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = logger.Shutdown(shutdownCtx)
	cancel()

	os.Exit(int(status))
}
