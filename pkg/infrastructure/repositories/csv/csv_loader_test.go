package csv

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ForecastsFile, `region,country,material,date,predicted_demand
MENA,Egypt,Copper Tape,2026-01-05,150
MENA,Saudi Arabia,Copper Tape,2026-01-05,300.5
`)
	writeFile(t, dir, PricesFile, `material,period,predicted_price,current_price
Copper Tape,0,87,85
Copper Tape,1,92,
`)
	writeFile(t, dir, InventoryFile, `material,country,current_stock,daily_demand_std
Copper Tape,Egypt,100,4.5
`)

	scenario, err := NewLoader().LoadScenario(dir)
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}

	if len(scenario.Forecasts) != 2 {
		t.Fatalf("Expected 2 forecasts, got %d", len(scenario.Forecasts))
	}
	if !scenario.Forecasts[1].PredictedDemand.Equal(decimal.RequireFromString("300.5")) {
		t.Errorf("Expected demand 300.5, got %s", scenario.Forecasts[1].PredictedDemand)
	}
	if len(scenario.Prices) != 2 || scenario.Prices[0].CurrentPrice != 85 || scenario.Prices[1].CurrentPrice != 0 {
		t.Errorf("Unexpected prices: %+v", scenario.Prices)
	}
	if len(scenario.Inventory) != 1 || scenario.Inventory[0].DailyDemandStd != 4.5 {
		t.Errorf("Unexpected inventory: %+v", scenario.Inventory)
	}
	if scenario.History != nil {
		t.Errorf("Expected no history without history.csv, got %+v", scenario.History)
	}
}

func TestLoadScenario_MissingRequiredFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ForecastsFile, "region,country,material,date,predicted_demand\nEU,Italy,PVC,2026-01-05,10\n")

	_, err := NewLoader().LoadScenario(dir)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected missing prices file error, got %v", err)
	}
}

func TestLoadForecasts_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		message string
	}{
		{"header_mismatch", "country,region,material,date,predicted_demand\nEgypt,MENA,PVC,2026-01-05,1\n", "header mismatch"},
		{"no_rows", "region,country,material,date,predicted_demand\n", "at least one data row"},
		{"bad_date", "region,country,material,date,predicted_demand\nMENA,Egypt,PVC,05/01/2026,1\n", "row 2: invalid date"},
		{"negative_demand", "region,country,material,date,predicted_demand\nMENA,Egypt,PVC,2026-01-05,-4\n", "row 2: validation error"},
		{"short_row", "region,country,material,date,predicted_demand\nMENA,Egypt,PVC,2026-01-05,1\nMENA,Egypt\n", "row 3: expected 5 columns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), ForecastsFile, tt.content)
			_, err := NewLoader().LoadForecasts(path)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("Expected error containing %q, got %v", tt.message, err)
			}
		})
	}
}

func TestLoadHistory(t *testing.T) {
	path := writeFile(t, t.TempDir(), HistoryFile, "\ufeffmaterial,country,date,demand\nXLPE,India,2025-11-01,40\nXLPE,Japan,2025-11-01,60\n")

	history, err := NewLoader().LoadHistory(path)
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(history) != 2 || history[1].Country != "Japan" {
		t.Errorf("Unexpected history: %+v", history)
	}
}

func TestLoadPrices_InvalidPeriod(t *testing.T) {
	path := writeFile(t, t.TempDir(), PricesFile, "material,period,predicted_price,current_price\nPVC,-1,10,10\n")

	if _, err := NewLoader().LoadPrices(path); err == nil || !strings.Contains(err.Error(), "invalid period") {
		t.Errorf("Expected invalid period error, got %v", err)
	}
}

func TestLoadInventory_NegativeStock(t *testing.T) {
	path := writeFile(t, t.TempDir(), InventoryFile, "material,country,current_stock,daily_demand_std\nPVC,India,-5,1\n")

	if _, err := NewLoader().LoadInventory(path); err == nil || !strings.Contains(err.Error(), "current_stock") {
		t.Errorf("Expected current_stock validation error, got %v", err)
	}
}
