package events

import (
	"fmt"

	"github.com/vsinha/sentinel/pkg/domain/entities"
)

const (
	ForecastReconciledEvent = "forecast.reconciled"
	PlanCreatedEvent        = "plan.created"
	RiskAssessedEvent       = "risk.assessed"
	DecisionIssuedEvent     = "decision.issued"
	PlanningFailedEvent     = "planning.failed"
)

// PlanningEventTypes lists every event a planning run publishes
var PlanningEventTypes = []string{
	ForecastReconciledEvent,
	PlanCreatedEvent,
	RiskAssessedEvent,
	DecisionIssuedEvent,
	PlanningFailedEvent,
}

// StreamFor returns the stream of a material/country pair
func StreamFor(material entities.MaterialName, country string) string {
	return fmt.Sprintf("%s:%s", material, country)
}

// ForecastReconciled is published once per material after reconciliation
type ForecastReconciled struct {
	Material  entities.MaterialName `json:"material"`
	Direction string                `json:"direction"`
	Countries int                   `json:"countries"`
	Periods   int                   `json:"periods"`
}

// PlanCreated carries the optimizer output of one task
type PlanCreated struct {
	Country string                    `json:"country"`
	Plan    *entities.ProcurementPlan `json:"plan"`
}

// RiskAssessed carries the simulator output of one task
type RiskAssessed struct {
	Material entities.MaterialName    `json:"material"`
	Country  string                   `json:"country"`
	Risk     *entities.RiskAssessment `json:"risk"`
}

// DecisionIssued carries a persisted decision
type DecisionIssued struct {
	Record *entities.DecisionRecord `json:"record"`
}

// PlanningFailed reports a task that produced no decision
type PlanningFailed struct {
	Material entities.MaterialName `json:"material"`
	Country  string                `json:"country"`
	Reason   string                `json:"reason"`
}
