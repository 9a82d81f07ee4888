package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/sentinel/pkg/application/dto"
	"github.com/vsinha/sentinel/pkg/application/services/decision"
	"github.com/vsinha/sentinel/pkg/application/services/optimization"
	"github.com/vsinha/sentinel/pkg/application/services/orchestration"
	"github.com/vsinha/sentinel/pkg/application/services/reconciliation"
	"github.com/vsinha/sentinel/pkg/application/services/simulation"
	"github.com/vsinha/sentinel/pkg/domain/entities"
	"github.com/vsinha/sentinel/pkg/infrastructure/repositories/memory"
)

func main() {
	fmt.Println("🏭 Cable Materials Procurement Example")
	fmt.Println("======================================")
	fmt.Println()

	regions := map[string][]string{
		"MENA": {"Egypt", "Saudi Arabia"},
		"EU":   {"Germany"},
	}

	materialRepo := memory.NewMaterialRepository(2)
	decisionRepo := memory.NewDecisionRepository()
	if err := materialRepo.LoadMaterials(setupMaterials()); err != nil {
		log.Fatal(err)
	}

	scenario := setupScenario(regions)

	config := orchestration.DefaultConfig()
	config.Countries = []string{"Egypt", "Germany", "Saudi Arabia"}

	orchestrator := orchestration.NewPlanningOrchestrator(
		materialRepo,
		decisionRepo,
		reconciliation.NewReconciler(regions),
		optimization.NewOptimizer(),
		simulation.NewSimulator(simulation.WithNumSimulations(2000), simulation.WithSeed(42)),
		decision.NewSynthesizer(),
		config,
	)

	fmt.Println("🚀 Planning Copper Tape and XLPE...")
	result, err := orchestrator.Run(context.Background(), dto.PlanningRequest{Scenario: scenario})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("📊 Planning Results:")
	fmt.Printf("  Reconciled Materials: %d\n", len(result.Reconciliations))
	fmt.Printf("  Decisions: %d\n", len(result.Tasks))
	fmt.Printf("  Failures: %d\n", len(result.Failures))
	fmt.Println()

	if len(result.Reconciliations) > 0 {
		fmt.Println("🧮 Reconciliation:")
		for _, rec := range result.Reconciliations {
			total := decimal.Zero
			for _, row := range rec.Global {
				total = total.Add(row.Value)
			}
			fmt.Printf("  %s: %s (global demand %s over %d periods)\n",
				rec.Material, rec.Direction, total.StringFixed(2), len(rec.Global))
		}
		fmt.Println()
	}

	if len(result.Tasks) > 0 {
		fmt.Println("📝 Procurement Decisions:")
		for _, task := range result.Tasks {
			d := task.Decision.Decision
			fmt.Printf("  %s / %s: %s %s units (confidence %.0f%%)\n",
				d.Material, d.Country, d.Signal, d.BuyQty.StringFixed(2), d.Confidence)
			fmt.Printf("    Stockout risk: %.1f%% | %s\n", d.RiskPct*100, d.Rationale)
		}
		fmt.Println()
	}

	if len(result.Failures) > 0 {
		fmt.Println("🚨 Failed Tasks:")
		for _, failure := range result.Failures {
			fmt.Printf("  %s / %s (%s): %s\n", failure.Material, failure.Country, failure.Stage, failure.Message)
		}
		fmt.Println()
	}

	stored, err := decisionRepo.ListDecisions(context.Background(), "Copper Tape")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("💾 Stored %d Copper Tape decisions\n", len(stored))
	fmt.Println("✅ Procurement analysis complete!")
}

func setupMaterials() []*entities.Material {
	copper, err := entities.NewMaterial("Copper Tape", entities.Shielding, 45, 0.02)
	if err != nil {
		log.Fatal(err)
	}
	xlpe, err := entities.NewMaterial("XLPE", entities.Polymer, 30, 0.02)
	if err != nil {
		log.Fatal(err)
	}
	return []*entities.Material{copper, xlpe}
}

func setupScenario(regions map[string][]string) *dto.Scenario {
	baseDate := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	scenario := &dto.Scenario{}

	// Weekly demand per country, lumpy in MENA and steady in the EU
	demand := map[string][]int64{
		"Egypt":        {150, 120, 0, 80},
		"Saudi Arabia": {300, 0, 210, 95},
		"Germany":      {100, 110, 90, 105},
	}

	for _, material := range []entities.MaterialName{"Copper Tape", "XLPE"} {
		for region, countries := range regions {
			for _, country := range countries {
				for week, qty := range demand[country] {
					record, err := entities.NewForecastRecord(
						region,
						country,
						material,
						baseDate.AddDate(0, 0, 7*week),
						decimal.NewFromInt(qty),
					)
					if err != nil {
						log.Fatal(err)
					}
					scenario.Forecasts = append(scenario.Forecasts, *record)
				}
			}
		}
	}

	// Copper is rising, XLPE is easing
	for period, price := range []float64{9100, 9250, 9400, 9600} {
		scenario.Prices = append(scenario.Prices, entities.PricePoint{
			Material: "Copper Tape", Period: period, PredictedPrice: price, CurrentPrice: 9000,
		})
	}
	for period, price := range []float64{2100, 2050, 2000, 1980} {
		scenario.Prices = append(scenario.Prices, entities.PricePoint{
			Material: "XLPE", Period: period, PredictedPrice: price, CurrentPrice: 2150,
		})
	}

	// Both materials are top-down reconciled, so they need historical country shares
	for _, material := range []entities.MaterialName{"Copper Tape", "XLPE"} {
		for _, obs := range []struct {
			country string
			qty     int64
		}{{"Egypt", 30}, {"Saudi Arabia", 50}, {"Germany", 20}} {
			scenario.History = append(scenario.History, entities.DemandObservation{
				Material: material,
				Country:  obs.country,
				Date:     baseDate.AddDate(0, -1, 0),
				Demand:   decimal.NewFromInt(obs.qty),
			})
		}
	}

	position, err := entities.NewInventoryPosition("Copper Tape", "Egypt", 40, 5)
	if err != nil {
		log.Fatal(err)
	}
	scenario.Inventory = append(scenario.Inventory, *position)

	return scenario
}
