package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vsinha/sentinel/pkg/application/dto"
	"github.com/vsinha/sentinel/pkg/application/services/decision"
	"github.com/vsinha/sentinel/pkg/application/services/optimization"
	"github.com/vsinha/sentinel/pkg/application/services/orchestration"
	"github.com/vsinha/sentinel/pkg/application/services/reconciliation"
	"github.com/vsinha/sentinel/pkg/application/services/simulation"
	"github.com/vsinha/sentinel/pkg/domain/entities"
	"github.com/vsinha/sentinel/pkg/infrastructure/config"
	"github.com/vsinha/sentinel/pkg/infrastructure/events"
	"github.com/vsinha/sentinel/pkg/infrastructure/export"
	"github.com/vsinha/sentinel/pkg/infrastructure/logging"
	"github.com/vsinha/sentinel/pkg/infrastructure/metrics"
	"github.com/vsinha/sentinel/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/sentinel/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/sentinel/pkg/interfaces/cli/output"
)

// Config holds configuration for the plan command. Zero values leave the loaded
// configuration file untouched.
type Config struct {
	ScenarioDir string
	ConfigFile  string
	Materials   string
	OutputDir   string
	Format      string
	Workers     int
	Store       string
	DSN         string
	Export      string
	MetricsAddr string
	Verbose     bool
	Help        bool
}

// PlanCommand runs one planning cycle over a scenario directory
type PlanCommand struct {
	config Config
}

// NewPlanCommand creates a new plan command with the given configuration
func NewPlanCommand(config Config) *PlanCommand {
	return &PlanCommand{
		config: config,
	}
}

// Execute runs the plan command
func (c *PlanCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}

	if c.config.Verbose {
		c.printHeader(cfg)
	}

	scenario, err := csv.NewLoader().LoadScenario(c.config.ScenarioDir)
	if err != nil {
		return fmt.Errorf("error loading scenario: %w", err)
	}
	logger.Info().
		Int("forecasts", len(scenario.Forecasts)).
		Int("history", len(scenario.History)).
		Int("prices", len(scenario.Prices)).
		Int("inventory", len(scenario.Inventory)).
		Msg("scenario loaded")

	catalog, err := cfg.Catalog()
	if err != nil {
		return err
	}
	materialRepo := memory.NewMaterialRepository(len(catalog))
	if err := materialRepo.LoadMaterials(catalog); err != nil {
		return fmt.Errorf("failed to load materials into repository: %w", err)
	}

	decisionRepo, err := openDecisionRepository(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := decisionRepo.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close decision store")
		}
	}()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		stop := serveMetrics(cfg.Metrics.Addr, m, logger)
		defer stop()
	}

	eventStore := events.NewInMemoryEventStoreWithLogger(logger)
	if err := eventStore.Subscribe(events.PlanningEventTypes, &events.HandlerFunc{
		Types: events.PlanningEventTypes,
		Fn: func(event events.Event) error {
			logger.Trace().Str("event", event.Type()).Str("stream", event.StreamID()).Int("version", event.Version()).Msg("event published")
			return nil
		},
	}); err != nil {
		return fmt.Errorf("failed to subscribe to planning events: %w", err)
	}

	orchestrator := orchestration.NewPlanningOrchestrator(
		materialRepo,
		decisionRepo,
		reconciliation.NewReconciler(cfg.Regions),
		optimization.NewOptimizerWithConfig(optimization.Config{
			Policy:  cfg.PolicyParams(),
			Timeout: cfg.Planning.SolveTimeout,
			Logger:  logger,
		}),
		simulation.NewSimulator(
			simulation.WithNumSimulations(cfg.Simulation.NumSimulations),
			simulation.WithSeed(cfg.Simulation.Seed),
			simulation.WithLogger(logger),
		),
		decision.NewSynthesizerWithConfig(decision.Config{HoldRiskThreshold: cfg.Planning.HoldRiskThreshold}),
		orchestration.Config{
			Workers:        cfg.Planning.Workers,
			Countries:      cfg.Countries(),
			Horizon:        cfg.Planning.Horizon,
			PeriodDays:     cfg.Planning.PeriodDays,
			DemandStdRatio: cfg.Planning.DemandStdRatio,
			DefaultStock:   cfg.Planning.DefaultStock,
			LeadTimeStd:    cfg.Simulation.LeadTimeStd,
			Policy:         cfg.PolicyParams(),
			Logger:         logger,
		},
	).WithEventStore(eventStore).WithMetrics(m)

	if c.config.Verbose {
		fmt.Println("🔄 Running planning cycle...")
	}

	result, err := orchestrator.Run(ctx, dto.PlanningRequest{
		Materials: parseMaterials(c.config.Materials),
		Scenario:  scenario,
	})
	if err != nil {
		return fmt.Errorf("error running planning cycle: %w", err)
	}

	err = output.Generate(result, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		InputDir:  c.config.ScenarioDir,
	})
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	exporter, err := export.New(ctx, cfg.Export)
	if err != nil {
		return fmt.Errorf("failed to create exporter: %w", err)
	}
	if exporter != nil {
		location, err := exporter.Export(ctx, export.ReportKey(result.RunID), result)
		if err != nil {
			return fmt.Errorf("failed to export report: %w", err)
		}
		logger.Info().Str("location", location).Msg("planning report exported")
	}

	if len(result.Failures) > 0 {
		logger.Warn().Int("failures", len(result.Failures)).Msg("planning cycle completed with failures")
	}
	if c.config.Verbose {
		fmt.Println("🏁 Planning cycle complete!")
	}
	return nil
}

// loadConfig reads the configuration file and applies command line overrides
func (c *PlanCommand) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.config.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if c.config.Workers > 0 {
		cfg.Planning.Workers = c.config.Workers
	}
	if c.config.Store != "" {
		cfg.Storage.Driver = c.config.Store
	}
	if c.config.DSN != "" {
		cfg.Storage.DSN = c.config.DSN
	}
	if c.config.Export != "" {
		cfg.Export.Driver = c.config.Export
	}
	if c.config.MetricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = c.config.MetricsAddr
	}
	if c.config.Verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// validateInputs validates the command configuration
func (c *PlanCommand) validateInputs() error {
	if c.config.ScenarioDir == "" {
		return fmt.Errorf("must specify a -scenario directory")
	}
	switch c.config.Format {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("unsupported output format: %s", c.config.Format)
	}
	return nil
}

func parseMaterials(list string) []entities.MaterialName {
	var materials []entities.MaterialName
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			materials = append(materials, entities.MaterialName(name))
		}
	}
	return materials
}

// serveMetrics exposes the registry until the returned stop func is called
func serveMetrics(addr string, m *metrics.Metrics, logger zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

// printHeader prints the command header information
func (c *PlanCommand) printHeader(cfg *config.Config) {
	fmt.Printf("🚀 Sentinel Procurement Engine\n")
	fmt.Printf("Scenario: %s\n", c.config.ScenarioDir)
	if c.config.ConfigFile != "" {
		fmt.Printf("Config: %s\n", c.config.ConfigFile)
	}
	fmt.Printf("Materials in catalog: %d\n", len(cfg.Materials))
	fmt.Printf("Workers: %d\n", cfg.Planning.Workers)
	fmt.Printf("Decision store: %s\n", cfg.Storage.Driver)
	fmt.Printf("Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Printf("Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Println()
}

// showHelp displays the help message
func (c *PlanCommand) showHelp() {
	fmt.Printf(`Sentinel - Procurement decisions for cable raw materials

USAGE:
    sentinel -scenario <directory> [options]

OPTIONS:
    -scenario <dir>       Path to scenario directory containing CSV files
    -config <file>        YAML configuration file (optional)
    -materials <list>     Comma separated materials to plan (default: all with forecasts)
    -output <dir>         Output directory for results (optional)
    -format <fmt>         Output format: text, json, csv (default: text)
    -workers <n>          Concurrent planning tasks (default: from config)
    -store <driver>       Decision store: memory, sqlite, postgres
    -dsn <dsn>            Decision store path or connection string
    -export <driver>      Report export: none, fs, s3
    -metrics-addr <addr>  Serve Prometheus metrics on this address during the run
    -verbose              Enable verbose output
    -help                 Show this help message

SCENARIO DIRECTORY STRUCTURE:
    scenario_name/
    ├── forecasts.csv   # Country demand forecasts
    ├── prices.csv      # Predicted price path per material
    ├── history.csv     # Historical demand actuals (optional)
    └── inventory.csv   # Stock on hand (optional)

CSV FILE FORMATS:

forecasts.csv:
    region,country,material,date,predicted_demand
    MENA,Egypt,Copper Tape,2026-01-05,150

prices.csv:
    material,period,predicted_price,current_price
    Copper Tape,0,9150,9100

history.csv:
    material,country,date,demand
    Copper Tape,Egypt,2025-11-01,30

inventory.csv:
    material,country,current_stock,daily_demand_std
    Copper Tape,Egypt,120,2.5

ENVIRONMENT:
    SENTINEL_STORAGE_DRIVER, SENTINEL_STORAGE_DSN, SENTINEL_EXPORT_DRIVER,
    SENTINEL_EXPORT_BUCKET, SENTINEL_WORKERS, SENTINEL_SIMULATIONS, SENTINEL_SEED,
    SENTINEL_LOG_LEVEL, SENTINEL_LOG_FORMAT, SENTINEL_METRICS_ADDR

EXAMPLES:
    # Plan the example scenario
    sentinel -scenario example/scenario -verbose

    # Plan two materials and keep decisions in SQLite
    sentinel -scenario example/scenario -materials "Copper Tape,XLPE" -store sqlite -dsn data/sentinel.db

    # Write CSV results and export the JSON report
    sentinel -scenario example/scenario -format csv -output results/ -export fs
`)
}
