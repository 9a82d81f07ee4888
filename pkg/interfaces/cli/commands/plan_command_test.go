package commands

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vsinha/sentinel/pkg/infrastructure/repositories/sqlite"
)

func writeScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"forecasts.csv": strings.Join([]string{
			"region,country,material,date,predicted_demand",
			"MENA,Egypt,Copper Tape,2026-01-05,150",
			"MENA,Egypt,Copper Tape,2026-01-12,120",
			"EU,Germany,Copper Tape,2026-01-05,100",
			"EU,Germany,Copper Tape,2026-01-12,90",
			"MENA,Egypt,Mica Tape,2026-01-05,20",
			"MENA,Egypt,Mica Tape,2026-01-12,0",
		}, "\n"),
		"prices.csv": strings.Join([]string{
			"material,period,predicted_price,current_price",
			"Copper Tape,0,9150,9100",
			"Copper Tape,1,9300,",
			"Mica Tape,0,40,40",
			"Mica Tape,1,41,",
		}, "\n"),
		"history.csv": strings.Join([]string{
			"material,country,date,demand",
			"Copper Tape,Egypt,2025-11-01,60",
			"Copper Tape,Germany,2025-11-01,40",
		}, "\n"),
		"inventory.csv": strings.Join([]string{
			"material,country,current_stock,daily_demand_std",
			"Copper Tape,Egypt,0,2.5",
		}, "\n"),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content+"\n"), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	return dir
}

func TestPlanCommand_ValidateInputs(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"ok", Config{ScenarioDir: "x", Format: "text"}, false},
		{"missing_scenario", Config{Format: "text"}, true},
		{"bad_format", Config{ScenarioDir: "x", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPlanCommand(tt.config).validateInputs()
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPlanCommand_LoadConfigOverrides(t *testing.T) {
	cmd := NewPlanCommand(Config{
		Workers:     3,
		Store:       "sqlite",
		DSN:         "data/x.db",
		Export:      "fs",
		MetricsAddr: ":0",
		Verbose:     true,
	})

	cfg, err := cmd.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Planning.Workers != 3 || cfg.Storage.Driver != "sqlite" || cfg.Storage.DSN != "data/x.db" {
		t.Errorf("Expected flag overrides, got %+v %+v", cfg.Planning, cfg.Storage)
	}
	if cfg.Export.Driver != "fs" || !cfg.Metrics.Enabled || cfg.Logging.Level != "debug" {
		t.Errorf("Expected export, metrics and debug overrides, got %+v %+v %+v", cfg.Export, cfg.Metrics, cfg.Logging)
	}
}

func TestPlanCommand_RejectsUnknownStore(t *testing.T) {
	_, err := NewPlanCommand(Config{Store: "mongo"}).loadConfig()
	if err == nil {
		t.Error("Expected unknown store driver to be rejected")
	}
}

func TestParseMaterials(t *testing.T) {
	got := parseMaterials(" Copper Tape, XLPE ,,")
	if len(got) != 2 || got[0] != "Copper Tape" || got[1] != "XLPE" {
		t.Errorf("Expected [Copper Tape XLPE], got %v", got)
	}
	if parseMaterials("") != nil {
		t.Error("Expected nil for empty list")
	}
}

func TestPlanCommand_Execute(t *testing.T) {
	scenario := writeScenario(t)
	outputDir := filepath.Join(t.TempDir(), "out")
	dbPath := filepath.Join(t.TempDir(), "sentinel.db")

	cmd := NewPlanCommand(Config{
		ScenarioDir: scenario,
		Materials:   "Copper Tape",
		OutputDir:   outputDir,
		Format:      "csv",
		Workers:     2,
		Store:       "sqlite",
		DSN:         dbPath,
	})
	if err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	file, err := os.Open(filepath.Join(outputDir, "decisions.csv"))
	if err != nil {
		t.Fatalf("Expected decisions.csv: %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(rows) < 3 {
		t.Fatalf("Expected a decision per configured country, got %d rows", len(rows))
	}

	ctx := context.Background()
	repo, err := sqlite.NewDecisionRepository(ctx, dbPath)
	if err != nil {
		t.Fatalf("Reopen store failed: %v", err)
	}
	defer repo.Close()

	stored, err := repo.ListDecisions(ctx, "Copper Tape")
	if err != nil {
		t.Fatalf("ListDecisions failed: %v", err)
	}
	if len(stored) != len(rows)-1 {
		t.Errorf("Expected %d persisted decisions, got %d", len(rows)-1, len(stored))
	}

	latest, err := repo.LatestDecision(ctx, "Copper Tape", "Egypt")
	if err != nil {
		t.Fatalf("LatestDecision failed: %v", err)
	}
	if latest.Decision.Signal.String() != "BUY" {
		t.Errorf("Expected BUY for Egypt with no stock, got %s", latest.Decision.Signal)
	}
}

func TestPlanCommand_ExecuteExportsReport(t *testing.T) {
	t.Setenv("SENTINEL_EXPORT_DIR", filepath.Join(t.TempDir(), "reports"))
	scenario := writeScenario(t)

	cmd := NewPlanCommand(Config{
		ScenarioDir: scenario,
		Materials:   "Mica Tape",
		Format:      "json",
		OutputDir:   t.TempDir(),
		Export:      "fs",
	})
	if err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(os.Getenv("SENTINEL_EXPORT_DIR"), "planning-*.json"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("Expected one exported report, got %v", matches)
	}
}

func TestPlanCommand_MissingScenarioFiles(t *testing.T) {
	cmd := NewPlanCommand(Config{ScenarioDir: t.TempDir(), Format: "text"})
	if err := cmd.Execute(context.Background()); err == nil {
		t.Error("Expected error for empty scenario directory")
	}
}
