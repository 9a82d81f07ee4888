package dto

import (
	"time"

	"github.com/vsinha/sentinel/pkg/domain/entities"
)

// Scenario is the complete input of one planning run
type Scenario struct {
	Forecasts []entities.ForecastRecord
	History   []entities.DemandObservation
	Prices    []entities.PricePoint
	Inventory []entities.InventoryPosition
}

// PlanningRequest selects what a planning run covers. An empty Materials list
// plans every catalog material that has forecasts in the scenario.
type PlanningRequest struct {
	Materials []entities.MaterialName
	Scenario  *Scenario
}

// MaterialReconciliation is the coherent forecast view used to plan one material
type MaterialReconciliation struct {
	Material  entities.MaterialName         `json:"material"`
	Direction string                        `json:"direction"`
	Country   []entities.ReconciledForecast `json:"country"`
	Regional  []entities.ReconciledForecast `json:"regional"`
	Global    []entities.ReconciledForecast `json:"global"`
}

// TaskResult is the outcome of one successful material/country task
type TaskResult struct {
	Material entities.MaterialName    `json:"material"`
	Country  string                   `json:"country"`
	Category entities.Category        `json:"category"`
	Plan     *entities.ProcurementPlan `json:"plan"`
	Risk     *entities.RiskAssessment  `json:"risk"`
	Decision *entities.DecisionRecord  `json:"decision"`
}

// TaskFailure records a task that produced no decision
type TaskFailure struct {
	Material entities.MaterialName `json:"material"`
	Country  string                `json:"country"`
	Stage    string                `json:"stage"`
	Message  string                `json:"error"`
	Err      error                 `json:"-"`
}

// PlanningResult contains the complete output of a planning run
type PlanningResult struct {
	RunID           string                   `json:"run_id"`
	PlanningDate    time.Time                `json:"planning_date"`
	Duration        time.Duration            `json:"duration_ns"`
	Reconciliations []MaterialReconciliation `json:"reconciliations"`
	Tasks           []TaskResult             `json:"tasks"`
	Failures        []TaskFailure            `json:"failures"`
}

// SignalCounts tallies decisions by signal
func (r *PlanningResult) SignalCounts() map[entities.Signal]int {
	counts := make(map[entities.Signal]int)
	for _, task := range r.Tasks {
		if task.Decision != nil {
			counts[task.Decision.Decision.Signal]++
		}
	}
	return counts
}
