package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsinha/sentinel/pkg/interfaces/cli/commands"
)

func main() {
	// Command line flags
	var (
		scenarioDir = flag.String(
			"scenario",
			"",
			"Path to scenario directory containing CSV files",
		)
		configFile  = flag.String("config", "", "Path to YAML configuration file (optional)")
		materials   = flag.String("materials", "", "Comma separated materials to plan (default: all with forecasts)")
		outputDir   = flag.String("output", "", "Output directory for results (optional)")
		format      = flag.String("format", "text", "Output format: text, json, csv")
		workers     = flag.Int("workers", 0, "Concurrent planning tasks (default: from config)")
		store       = flag.String("store", "", "Decision store: memory, sqlite, postgres")
		dsn         = flag.String("dsn", "", "Decision store path or connection string")
		exportTo    = flag.String("export", "", "Report export: none, fs, s3")
		metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
		verbose     = flag.Bool("verbose", false, "Enable verbose output")
		help        = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	config := commands.Config{
		ScenarioDir: *scenarioDir,
		ConfigFile:  *configFile,
		Materials:   *materials,
		OutputDir:   *outputDir,
		Format:      *format,
		Workers:     *workers,
		Store:       *store,
		DSN:         *dsn,
		Export:      *exportTo,
		MetricsAddr: *metricsAddr,
		Verbose:     *verbose,
		Help:        *help,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := commands.NewPlanCommand(config)
	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
