package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vsinha/sentinel/pkg/application/dto"
	"github.com/vsinha/sentinel/pkg/domain/entities"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	InputDir  string
	// Writer receives stdout output; nil means os.Stdout
	Writer io.Writer
}

const (
	DecisionsFile = "decisions.csv"
	PlansFile     = "plans.csv"
	FailuresFile  = "failures.csv"
	JSONFile      = "planning_results.json"
	TextFile      = "planning_results.txt"
)

// Generate creates output in the specified format
func Generate(result *dto.PlanningResult, config Config) error {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	switch config.Format {
	case "text":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(result *dto.PlanningResult, config Config) error {
	w := config.Writer
	if config.OutputDir != "" {
		if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		filename := filepath.Join(config.OutputDir, TextFile)
		file, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create text file: %w", err)
		}
		defer file.Close()
		w = io.MultiWriter(config.Writer, file)
		defer func() {
			if config.Verbose {
				fmt.Fprintf(config.Writer, "💾 Results saved to: %s\n", filename)
			}
		}()
	}

	counts := result.SignalCounts()
	fmt.Fprintf(w, "📊 Procurement Decision Summary\n")
	fmt.Fprintf(w, "===============================\n\n")
	fmt.Fprintf(w, "Run: %s\n", result.RunID)
	fmt.Fprintf(w, "Materials: %d\n", len(result.Reconciliations))
	fmt.Fprintf(w, "Decisions: %d (BUY %d, WAIT %d, HOLD %d)\n",
		len(result.Tasks), counts[entities.SignalBuy], counts[entities.SignalWait], counts[entities.SignalHold])
	fmt.Fprintf(w, "Failures: %d\n", len(result.Failures))
	fmt.Fprintf(w, "Planning Time: %v\n\n", result.Duration.Round(time.Millisecond))

	if config.Verbose && len(result.Reconciliations) > 0 {
		fmt.Fprintf(w, "🔗 Reconciliation:\n")
		fmt.Fprintf(w, "%-16s %-10s %-10s %-8s\n", "Material", "Direction", "Countries", "Periods")
		fmt.Fprintf(w, "%-16s %-10s %-10s %-8s\n", "----------------", "----------", "----------", "--------")
		for _, recon := range result.Reconciliations {
			fmt.Fprintf(w, "%-16s %-10s %-10d %-8d\n",
				recon.Material, recon.Direction, countCountries(recon.Country), len(recon.Global))
		}
		fmt.Fprintln(w)
	}

	if len(result.Tasks) > 0 {
		fmt.Fprintf(w, "📋 Decisions:\n")
		fmt.Fprintf(w, "%-16s %-14s %-6s %-12s %-10s %-10s %-12s\n",
			"Material", "Country", "Signal", "Buy Qty", "Confidence", "Risk", "Total Cost")
		fmt.Fprintf(w, "%-16s %-14s %-6s %-12s %-10s %-10s %-12s\n",
			"----------------", "--------------", "------", "------------", "----------", "----------", "------------")

		for _, task := range result.Tasks {
			d := task.Decision.Decision
			fmt.Fprintf(w, "%-16s %-14s %-6s %-12s %-10s %-10s %-12s\n",
				d.Material,
				d.Country,
				d.Signal,
				d.BuyQty.StringFixed(2),
				fmt.Sprintf("%.0f%%", d.Confidence),
				fmt.Sprintf("%.2f%%", task.Risk.StockoutProbability*100),
				task.Plan.TotalCost.StringFixed(2))
			if config.Verbose {
				fmt.Fprintf(w, "    %s\n", d.Rationale)
			}
		}
		fmt.Fprintln(w)
	}

	if len(result.Failures) > 0 {
		fmt.Fprintf(w, "⚠️  Failures:\n")
		fmt.Fprintf(w, "%-16s %-14s %-10s %s\n", "Material", "Country", "Stage", "Error")
		fmt.Fprintf(w, "%-16s %-14s %-10s %s\n", "----------------", "--------------", "----------", "-----")
		for _, failure := range result.Failures {
			fmt.Fprintf(w, "%-16s %-14s %-10s %s\n", failure.Material, failure.Country, failure.Stage, failure.Message)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.PlanningResult, config Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.Writer, string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, JSONFile)
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Writer, "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput creates CSV output
func generateCSVOutput(result *dto.PlanningResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	decisionsFile := filepath.Join(config.OutputDir, DecisionsFile)
	if err := writeDecisionsCSV(result.Tasks, decisionsFile); err != nil {
		return fmt.Errorf("failed to write decisions CSV: %w", err)
	}

	plansFile := filepath.Join(config.OutputDir, PlansFile)
	if err := writePlansCSV(result.Tasks, plansFile); err != nil {
		return fmt.Errorf("failed to write plans CSV: %w", err)
	}

	failuresFile := filepath.Join(config.OutputDir, FailuresFile)
	if err := writeFailuresCSV(result.Failures, failuresFile); err != nil {
		return fmt.Errorf("failed to write failures CSV: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.Writer, "💾 CSV results saved to:\n")
		fmt.Fprintf(config.Writer, "  Decisions: %s\n", decisionsFile)
		fmt.Fprintf(config.Writer, "  Plans: %s\n", plansFile)
		fmt.Fprintf(config.Writer, "  Failures: %s\n", failuresFile)
	}
	return nil
}

func writeDecisionsCSV(tasks []dto.TaskResult, filename string) error {
	rows := [][]string{{
		"id", "material", "country", "category", "signal", "confidence", "risk_pct",
		"buy_qty", "current_price", "predicted_price", "avg_ending_stock", "worst_case_stock", "rationale",
	}}
	for _, task := range tasks {
		d := task.Decision.Decision
		rows = append(rows, []string{
			task.Decision.ID,
			string(d.Material),
			d.Country,
			task.Category.String(),
			d.Signal.String(),
			formatFloat(d.Confidence),
			formatFloat(d.RiskPct),
			d.BuyQty.String(),
			formatFloat(d.CurrentPrice),
			formatFloat(d.PredictedPrice),
			formatFloat(task.Risk.AvgEndingStock),
			formatFloat(task.Risk.WorstCaseStock),
			d.Rationale,
		})
	}
	return writeCSV(filename, rows)
}

func writePlansCSV(tasks []dto.TaskResult, filename string) error {
	rows := [][]string{{"material", "country", "period", "demand", "price", "buy_qty", "ending_stock"}}
	for _, task := range tasks {
		for _, period := range task.Plan.Periods {
			rows = append(rows, []string{
				string(task.Material),
				task.Country,
				strconv.Itoa(period.Index),
				period.Demand.String(),
				period.Price.String(),
				period.BuyQty.String(),
				period.EndingStock.String(),
			})
		}
	}
	return writeCSV(filename, rows)
}

func writeFailuresCSV(failures []dto.TaskFailure, filename string) error {
	rows := [][]string{{"material", "country", "stage", "error"}}
	for _, failure := range failures {
		rows = append(rows, []string{string(failure.Material), failure.Country, failure.Stage, failure.Message})
	}
	return writeCSV(filename, rows)
}

func writeCSV(filename string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func countCountries(rows []entities.ReconciledForecast) int {
	seen := make(map[string]struct{})
	for _, row := range rows {
		seen[row.Country] = struct{}{}
	}
	return len(seen)
}
