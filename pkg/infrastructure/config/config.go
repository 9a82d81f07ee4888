package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/sentinel/pkg/domain/entities"
	"github.com/vsinha/sentinel/pkg/domain/services"
)

// envPrefix namespaces every environment override
const envPrefix = "SENTINEL_"

// Config is the complete runtime configuration of the decision engine
type Config struct {
	Materials  []MaterialConfig    `yaml:"materials"`
	Regions    map[string][]string `yaml:"regions"`
	Policy     PolicyConfig        `yaml:"policy"`
	Simulation SimulationConfig    `yaml:"simulation"`
	Planning   PlanningConfig      `yaml:"planning"`
	Storage    StorageConfig       `yaml:"storage"`
	Export     ExportConfig        `yaml:"export"`
	Metrics    MetricsConfig       `yaml:"metrics"`
	Logging    LoggingConfig       `yaml:"logging"`
}

// MaterialConfig is one catalog entry. HoldingCostPct falls back to the policy default.
type MaterialConfig struct {
	Name           string   `yaml:"name"`
	Category       string   `yaml:"category"`
	LeadTimeDays   int      `yaml:"lead_time_days"`
	HoldingCostPct *float64 `yaml:"holding_cost_pct,omitempty"`
}

// PolicyConfig holds the procurement policy constants
type PolicyConfig struct {
	DefaultHoldingPct float64 `yaml:"default_holding_pct"`
	MetalInterestRate float64 `yaml:"metal_interest_rate"`
	RiskBufferDays    int     `yaml:"risk_buffer_days"`
	SafetyMultiplier  float64 `yaml:"safety_multiplier"`
	BaseCoverRatio    float64 `yaml:"base_cover_ratio"`
}

// SimulationConfig configures the stockout-risk simulator
type SimulationConfig struct {
	NumSimulations int     `yaml:"num_simulations"`
	Seed           uint64  `yaml:"seed"`
	LeadTimeStd    float64 `yaml:"lead_time_std"`
}

// PlanningConfig configures the planning run
type PlanningConfig struct {
	// Horizon caps the number of forecast periods planned; zero plans every period
	Horizon           int           `yaml:"horizon"`
	Workers           int           `yaml:"workers"`
	SolveTimeout      time.Duration `yaml:"solve_timeout"`
	HoldRiskThreshold float64       `yaml:"hold_risk_threshold"`
	// DemandStdRatio estimates daily demand deviation when inventory data has none
	DemandStdRatio float64 `yaml:"demand_std_ratio"`
	// DefaultStock is used for material/country pairs missing from the inventory feed
	DefaultStock float64 `yaml:"default_stock"`
	// PeriodDays is the length of one forecast period
	PeriodDays int `yaml:"period_days"`
}

// StorageConfig selects the decision store
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// ExportConfig selects where planning reports are written
type ExportConfig struct {
	Driver       string `yaml:"driver"`
	Dir          string `yaml:"dir"`
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	Prefix       string `yaml:"prefix"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig configures structured logging
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load returns the default configuration overlaid with the YAML file at path (if
// any) and then with SENTINEL_* environment variables
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.overlay(data); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlay decodes YAML on top of the current values. A regions block replaces the
// default hierarchy instead of merging into it.
func (c *Config) overlay(data []byte) error {
	defaults := c.Regions
	c.Regions = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}
	if len(c.Regions) == 0 {
		c.Regions = defaults
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	integer := func(name string, dst *int) error {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
			}
			*dst = n
		}
		return nil
	}

	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("STORAGE_DSN", &c.Storage.DSN)
	str("EXPORT_DRIVER", &c.Export.Driver)
	str("EXPORT_DIR", &c.Export.Dir)
	str("EXPORT_BUCKET", &c.Export.Bucket)
	str("EXPORT_REGION", &c.Export.Region)
	str("EXPORT_ENDPOINT", &c.Export.Endpoint)
	str("METRICS_ADDR", &c.Metrics.Addr)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)

	if err := integer("WORKERS", &c.Planning.Workers); err != nil {
		return err
	}
	if err := integer("SIMULATIONS", &c.Simulation.NumSimulations); err != nil {
		return err
	}
	if v, ok := lookup(envPrefix + "SEED"); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sSEED: %w", envPrefix, err)
		}
		c.Simulation.Seed = seed
	}
	if c.Metrics.Addr != "" {
		c.Metrics.Enabled = true
	}
	return nil
}

// Validate checks the configuration for values the engine cannot run with
func (c *Config) Validate() error {
	if _, err := c.Catalog(); err != nil {
		return err
	}
	if c.Planning.Workers < 1 {
		return fmt.Errorf("planning.workers must be at least 1, got %d", c.Planning.Workers)
	}
	if c.Planning.Horizon < 0 {
		return fmt.Errorf("planning.horizon cannot be negative, got %d", c.Planning.Horizon)
	}
	if c.Planning.PeriodDays < 1 {
		return fmt.Errorf("planning.period_days must be at least 1, got %d", c.Planning.PeriodDays)
	}
	if c.Planning.HoldRiskThreshold < 0 || c.Planning.HoldRiskThreshold > 1 {
		return fmt.Errorf("planning.hold_risk_threshold must be within [0, 1], got %g", c.Planning.HoldRiskThreshold)
	}
	if c.Simulation.LeadTimeStd < 0 {
		return fmt.Errorf("simulation.lead_time_std cannot be negative, got %g", c.Simulation.LeadTimeStd)
	}

	switch c.Storage.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported storage driver: %s (expected: memory, sqlite, or postgres)", c.Storage.Driver)
	}
	switch c.Export.Driver {
	case "", "none", "fs":
	case "s3":
		if c.Export.Bucket == "" {
			return fmt.Errorf("export.bucket is required for the s3 exporter")
		}
	default:
		return fmt.Errorf("unsupported export driver: %s (expected: none, fs, or s3)", c.Export.Driver)
	}
	return nil
}

// Catalog converts the configured materials into validated entities
func (c *Config) Catalog() ([]*entities.Material, error) {
	seen := make(map[string]struct{}, len(c.Materials))
	materials := make([]*entities.Material, 0, len(c.Materials))
	for i, mc := range c.Materials {
		if _, dup := seen[mc.Name]; dup {
			return nil, fmt.Errorf("materials[%d]: duplicate material %s", i, mc.Name)
		}
		seen[mc.Name] = struct{}{}

		category, err := entities.ParseCategory(mc.Category)
		if err != nil {
			return nil, fmt.Errorf("materials[%d]: %w", i, err)
		}
		holding := c.Policy.DefaultHoldingPct
		if mc.HoldingCostPct != nil {
			holding = *mc.HoldingCostPct
		}
		material, err := entities.NewMaterial(entities.MaterialName(mc.Name), category, mc.LeadTimeDays, holding)
		if err != nil {
			return nil, fmt.Errorf("materials[%d]: %w", i, err)
		}
		materials = append(materials, material)
	}
	return materials, nil
}

// PolicyParams returns the category policy constants
func (c *Config) PolicyParams() services.PolicyParams {
	return services.PolicyParams{
		MetalInterestRate: c.Policy.MetalInterestRate,
		RiskBufferDays:    c.Policy.RiskBufferDays,
		SafetyMultiplier:  c.Policy.SafetyMultiplier,
		BaseCoverRatio:    c.Policy.BaseCoverRatio,
	}
}

// Countries returns every configured country in sorted order
func (c *Config) Countries() []string {
	var countries []string
	for _, members := range c.Regions {
		countries = append(countries, members...)
	}
	sort.Strings(countries)
	return countries
}

// RegionOf returns the region a country belongs to, or "" when unknown
func (c *Config) RegionOf(country string) string {
	for region, members := range c.Regions {
		for _, member := range members {
			if strings.EqualFold(member, country) {
				return region
			}
		}
	}
	return ""
}
