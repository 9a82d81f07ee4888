package config

import "github.com/vsinha/sentinel/pkg/domain/services"

// DefaultLeadTimeDays applies to catalog materials without a specific lead time
const DefaultLeadTimeDays = 30

// Default returns the built-in configuration: the cable materials catalog, the
// six sales regions and the standard procurement policy
func Default() *Config {
	policy := services.DefaultPolicyParams()

	return &Config{
		Materials: defaultMaterials(),
		Regions: map[string][]string{
			"MENA":  {"Egypt", "UAE", "Saudi Arabia"},
			"APAC":  {"China", "India", "Japan", "S.Korea", "Australia"},
			"EU":    {"Germany", "Italy", "France", "Spain", "UK"},
			"NA":    {"USA", "Canada"},
			"LATAM": {"Brazil", "Chile", "Mexico", "Argentina"},
			"SSA":   {"South Africa", "Nigeria", "Kenya"},
		},
		Policy: PolicyConfig{
			DefaultHoldingPct: 0.02,
			MetalInterestRate: policy.MetalInterestRate,
			RiskBufferDays:    policy.RiskBufferDays,
			SafetyMultiplier:  policy.SafetyMultiplier,
			BaseCoverRatio:    policy.BaseCoverRatio,
		},
		Simulation: SimulationConfig{
			NumSimulations: 1000,
			Seed:           42,
			LeadTimeStd:    2.0,
		},
		Planning: PlanningConfig{
			Workers:        4,
			DemandStdRatio: 0.2,
			DefaultStock:   100,
			PeriodDays:     7,
		},
		Storage: StorageConfig{Driver: "memory"},
		Export:  ExportConfig{Driver: "none", Dir: "reports", Region: "us-east-1"},
		Metrics: MetricsConfig{Addr: ""},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func defaultMaterials() []MaterialConfig {
	catalog := []struct {
		category string
		names    []string
	}{
		{"Polymer", []string{"PVC", "XLPE", "PE", "LSF"}},
		{"Shielding", []string{"Copper", "Aluminum", "GSW", "GST", "Copper Tape", "Aluminum Tape"}},
		{"Screening", []string{"Mica Tape", "Water-blocking"}},
	}

	var materials []MaterialConfig
	for _, group := range catalog {
		for _, name := range group.names {
			leadTime := DefaultLeadTimeDays
			if name == "Copper Tape" {
				leadTime = 45
			}
			materials = append(materials, MaterialConfig{
				Name:         name,
				Category:     group.category,
				LeadTimeDays: leadTime,
			})
		}
	}
	return materials
}
