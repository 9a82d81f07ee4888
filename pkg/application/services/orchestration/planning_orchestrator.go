package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/vsinha/sentinel/pkg/application/dto"
	"github.com/vsinha/sentinel/pkg/application/services/decision"
	"github.com/vsinha/sentinel/pkg/application/services/optimization"
	"github.com/vsinha/sentinel/pkg/application/services/reconciliation"
	"github.com/vsinha/sentinel/pkg/application/services/simulation"
	"github.com/vsinha/sentinel/pkg/domain/entities"
	"github.com/vsinha/sentinel/pkg/domain/repositories"
	"github.com/vsinha/sentinel/pkg/domain/services"
	"github.com/vsinha/sentinel/pkg/infrastructure/events"
	"github.com/vsinha/sentinel/pkg/infrastructure/metrics"
)

// Stages a task can fail in
const (
	StageCatalog    = "catalog"
	StageReconcile  = "reconcile"
	StagePrices     = "prices"
	StageOptimize   = "optimize"
	StageSimulate   = "simulate"
	StageSynthesize = "synthesize"
	StagePersist    = "persist"
)

// Config holds orchestrator configuration
type Config struct {
	Workers int
	// Countries are the fan-out targets of every material, in addition to any
	// country present in the material's forecasts
	Countries []string
	// Horizon caps the planned periods; zero plans every forecast period
	Horizon        int
	PeriodDays     int
	DemandStdRatio float64
	DefaultStock   float64
	LeadTimeStd    float64
	Policy         services.PolicyParams
	Logger         zerolog.Logger
}

// DefaultConfig returns the default orchestrator configuration
func DefaultConfig() Config {
	return Config{
		Workers:        4,
		PeriodDays:     7,
		DemandStdRatio: 0.2,
		DefaultStock:   100,
		LeadTimeStd:    simulation.DefaultLeadTimeStd,
		Policy:         services.DefaultPolicyParams(),
		Logger:         zerolog.Nop(),
	}
}

// PlanningOrchestrator runs reconcile, optimize, simulate and synthesize for every
// material/country pair of a scenario on a bounded worker pool
type PlanningOrchestrator struct {
	materialRepo repositories.MaterialRepository
	decisionRepo repositories.DecisionRepository
	reconciler   *reconciliation.Reconciler
	optimizer    *optimization.Optimizer
	simulator    *simulation.Simulator
	synthesizer  *decision.Synthesizer
	eventStore   events.EventStore
	metrics      *metrics.Metrics
	config       Config
}

// NewPlanningOrchestrator creates a new planning orchestrator
func NewPlanningOrchestrator(
	materialRepo repositories.MaterialRepository,
	decisionRepo repositories.DecisionRepository,
	reconciler *reconciliation.Reconciler,
	optimizer *optimization.Optimizer,
	simulator *simulation.Simulator,
	synthesizer *decision.Synthesizer,
	config Config,
) *PlanningOrchestrator {
	return &PlanningOrchestrator{
		materialRepo: materialRepo,
		decisionRepo: decisionRepo,
		reconciler:   reconciler,
		optimizer:    optimizer,
		simulator:    simulator,
		synthesizer:  synthesizer,
		config:       config,
	}
}

// WithEventStore returns a copy of the orchestrator that publishes planning events
func (po *PlanningOrchestrator) WithEventStore(store events.EventStore) *PlanningOrchestrator {
	clone := *po
	clone.eventStore = store
	return &clone
}

// WithMetrics returns a copy of the orchestrator that records Prometheus metrics
func (po *PlanningOrchestrator) WithMetrics(m *metrics.Metrics) *PlanningOrchestrator {
	clone := *po
	clone.metrics = m
	return &clone
}

// planningTask owns everything one material/country task reads
type planningTask struct {
	material       *entities.Material
	country        string
	demand         []float64
	prices         []float64
	currentPrice   float64
	predictedPrice float64
	position       *entities.InventoryPosition
}

// collector gathers task outcomes from concurrent workers
type collector struct {
	mu       sync.Mutex
	tasks    []dto.TaskResult
	failures []dto.TaskFailure
}

func (c *collector) addTask(task dto.TaskResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, task)
}

func (c *collector) addFailure(failure dto.TaskFailure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, failure)
}

// Run performs a complete planning run. Task failures are reported in the result and
// never abort other tasks; only cancellation of ctx fails the run as a whole.
func (po *PlanningOrchestrator) Run(ctx context.Context, req dto.PlanningRequest) (*dto.PlanningResult, error) {
	if req.Scenario == nil {
		return nil, fmt.Errorf("no scenario provided for planning")
	}

	start := time.Now()
	result := &dto.PlanningResult{
		RunID:           uuid.NewString(),
		PlanningDate:    start.UTC(),
		Reconciliations: []dto.MaterialReconciliation{},
	}
	logger := po.config.Logger.With().Str("run_id", result.RunID).Logger()

	index := indexScenario(req.Scenario)
	materials, catalogFailures, err := po.selectMaterials(req.Materials, index)
	if err != nil {
		return nil, err
	}

	c := &collector{}
	for _, failure := range catalogFailures {
		po.recordFailure(c, failure, nil)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(po.workers())

	for _, material := range materials {
		if gctx.Err() != nil {
			break
		}

		recon, tasks, failure := po.prepareMaterial(material, index)
		if failure != nil {
			po.recordFailure(c, *failure, nil)
			continue
		}
		result.Reconciliations = append(result.Reconciliations, *recon)

		for _, task := range tasks {
			g.Go(func() error {
				return po.runTask(gctx, task, c)
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("planning run cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("planning run cancelled: %w", err)
	}

	sort.Slice(c.tasks, func(i, j int) bool {
		return taskLess(c.tasks[i].Material, c.tasks[i].Country, c.tasks[j].Material, c.tasks[j].Country)
	})
	sort.SliceStable(c.failures, func(i, j int) bool {
		return taskLess(c.failures[i].Material, c.failures[i].Country, c.failures[j].Material, c.failures[j].Country)
	})
	result.Tasks = c.tasks
	result.Failures = c.failures
	if result.Tasks == nil {
		result.Tasks = []dto.TaskResult{}
	}
	if result.Failures == nil {
		result.Failures = []dto.TaskFailure{}
	}
	result.Duration = time.Since(start)

	logger.Info().
		Int("materials", len(result.Reconciliations)).
		Int("decisions", len(result.Tasks)).
		Int("failures", len(result.Failures)).
		Dur("elapsed", result.Duration).
		Msg("planning run complete")

	return result, nil
}

func (po *PlanningOrchestrator) workers() int {
	if po.config.Workers < 1 {
		return 1
	}
	return po.config.Workers
}

// selectMaterials resolves the requested materials against the catalog. An empty
// request selects every catalog material that has forecasts.
func (po *PlanningOrchestrator) selectMaterials(requested []entities.MaterialName, index *scenarioIndex) ([]*entities.Material, []dto.TaskFailure, error) {
	var materials []*entities.Material
	var failures []dto.TaskFailure

	if len(requested) == 0 {
		all, err := po.materialRepo.GetAllMaterials()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load material catalog: %w", err)
		}
		for _, material := range all {
			if len(index.forecasts[material.Name]) > 0 {
				materials = append(materials, material)
			}
		}
	} else {
		seen := make(map[entities.MaterialName]struct{}, len(requested))
		for _, name := range requested {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}

			material, err := po.materialRepo.GetMaterial(name)
			if err != nil {
				failures = append(failures, dto.TaskFailure{
					Material: name,
					Stage:    StageCatalog,
					Message:  err.Error(),
					Err:      err,
				})
				continue
			}
			materials = append(materials, material)
		}
	}

	sort.Slice(materials, func(i, j int) bool { return materials[i].Name < materials[j].Name })
	return materials, failures, nil
}

// prepareMaterial reconciles a material's forecasts in its category's direction and
// builds one task per target country
func (po *PlanningOrchestrator) prepareMaterial(material *entities.Material, index *scenarioIndex) (*dto.MaterialReconciliation, []planningTask, *dto.TaskFailure) {
	materialFailure := func(stage string, err error) *dto.TaskFailure {
		return &dto.TaskFailure{Material: material.Name, Stage: stage, Message: err.Error(), Err: err}
	}

	policy, err := services.PolicyFor(material.Category, po.config.Policy)
	if err != nil {
		return nil, nil, materialFailure(StageCatalog, err)
	}

	weights := po.reconciler.CalculateHistoricalWeights(index.history[material.Name])
	if policy.Reconciliation() == services.TopDown && len(weights) == 0 && hasDemand(index.forecasts[material.Name]) {
		return nil, nil, materialFailure(StageReconcile, entities.NewValidationError("history", "no historical weights for top-down reconciliation"))
	}
	reconciled := po.reconciler.Reconcile(policy.Reconciliation(), index.forecasts[material.Name], weights)

	recon := &dto.MaterialReconciliation{
		Material:  material.Name,
		Direction: reconciled.Direction.String(),
		Country:   reconciled.Country,
		Regional:  reconciled.Regional,
		Global:    reconciled.Global,
	}

	prices := index.prices[material.Name]
	if len(prices) == 0 {
		return nil, nil, materialFailure(StagePrices, entities.NewValidationError("prices", "no price path for material"))
	}

	// Global rows of one material are ordered by date, one per period
	horizon := min(len(reconciled.Global), len(prices))
	if po.config.Horizon > 0 {
		horizon = min(horizon, po.config.Horizon)
	}
	if horizon == 0 {
		return nil, nil, materialFailure(StagePrices, entities.NewValidationError("demand", "no forecast periods for material"))
	}

	periodOf := make(map[int64]int, horizon)
	for t := 0; t < horizon; t++ {
		periodOf[reconciled.Global[t].Date.Unix()] = t
	}

	demandByCountry := make(map[string][]float64)
	for _, country := range po.config.Countries {
		demandByCountry[country] = make([]float64, horizon)
	}
	for _, row := range reconciled.Country {
		series, exists := demandByCountry[row.Country]
		if !exists {
			series = make([]float64, horizon)
			demandByCountry[row.Country] = series
		}
		if t, ok := periodOf[row.Date.Unix()]; ok {
			series[t] += row.Value.InexactFloat64()
		}
	}

	pricePath := make([]float64, horizon)
	for t := range pricePath {
		pricePath[t] = prices[t].PredictedPrice
	}

	countries := make([]string, 0, len(demandByCountry))
	for country := range demandByCountry {
		countries = append(countries, country)
	}
	sort.Strings(countries)

	tasks := make([]planningTask, 0, len(countries))
	for _, country := range countries {
		tasks = append(tasks, planningTask{
			material:       material,
			country:        country,
			demand:         demandByCountry[country],
			prices:         pricePath,
			currentPrice:   prices[0].CurrentPrice,
			predictedPrice: prices[0].PredictedPrice,
			position:       index.inventory[inventoryKey{material: material.Name, country: country}],
		})
	}

	po.publish(string(material.Name), events.ForecastReconciledEvent, events.ForecastReconciled{
		Material:  material.Name,
		Direction: recon.Direction,
		Countries: len(countries),
		Periods:   horizon,
	})
	po.config.Logger.Debug().
		Str("material", string(material.Name)).
		Str("direction", recon.Direction).
		Int("countries", len(countries)).
		Int("periods", horizon).
		Msg("forecasts reconciled")

	return recon, tasks, nil
}

// runTask executes one material/country pipeline. It returns an error only when the
// run is cancelled; every other failure is recorded and swallowed.
func (po *PlanningOrchestrator) runTask(ctx context.Context, task planningTask, c *collector) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stream := events.StreamFor(task.material.Name, task.country)
	fail := func(stage string, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		po.recordFailure(c, dto.TaskFailure{
			Material: task.material.Name,
			Country:  task.country,
			Stage:    stage,
			Message:  err.Error(),
			Err:      err,
		}, err)
		return nil
	}

	stock := po.config.DefaultStock
	dailyMean := stat.Mean(task.demand, nil) / float64(po.periodDays())
	dailyStd := dailyMean * po.config.DemandStdRatio
	if task.position != nil {
		stock = task.position.CurrentStock
		if task.position.DailyDemandStd > 0 {
			dailyStd = task.position.DailyDemandStd
		}
	}

	solveStart := time.Now()
	plan, err := po.optimizer.Optimize(ctx, optimization.PlanRequest{
		Material:     task.material,
		Prices:       task.prices,
		Demand:       task.demand,
		CurrentStock: stock,
	})
	po.metrics.ObserveSolve(time.Since(solveStart))
	if err != nil {
		return fail(StageOptimize, err)
	}
	po.publish(stream, events.PlanCreatedEvent, events.PlanCreated{Country: task.country, Plan: plan})

	input := simulation.NewSimulationInput(stock, dailyMean, dailyStd, float64(task.material.LeadTimeDays))
	input.LeadTimeStd = po.config.LeadTimeStd
	risk, err := po.simulator.Run(ctx, input)
	if err != nil {
		return fail(StageSimulate, err)
	}
	po.publish(stream, events.RiskAssessedEvent, events.RiskAssessed{Material: task.material.Name, Country: task.country, Risk: risk})
	po.metrics.SetStockoutProbability(string(task.material.Name), task.country, risk.StockoutProbability)

	d, err := po.synthesizer.Synthesize(decision.SynthesisInput{
		Material:       task.material.Name,
		Country:        task.country,
		Plan:           plan,
		Risk:           risk,
		CurrentPrice:   task.currentPrice,
		PredictedPrice: task.predictedPrice,
	})
	if err != nil {
		return fail(StageSynthesize, err)
	}

	record := &entities.DecisionRecord{
		ID:        uuid.NewString(),
		Decision:  *d,
		CreatedAt: time.Now().UTC(),
	}
	if err := po.decisionRepo.SaveDecision(ctx, record); err != nil {
		return fail(StagePersist, err)
	}
	po.publish(stream, events.DecisionIssuedEvent, events.DecisionIssued{Record: record})

	po.metrics.DecisionIssued(d.Signal.String())
	po.metrics.TaskCompleted(metrics.OutcomeSuccess)
	c.addTask(dto.TaskResult{
		Material: task.material.Name,
		Country:  task.country,
		Category: task.material.Category,
		Plan:     plan,
		Risk:     risk,
		Decision: record,
	})

	po.config.Logger.Debug().
		Str("material", string(task.material.Name)).
		Str("country", task.country).
		Str("signal", d.Signal.String()).
		Float64("stockout_probability", risk.StockoutProbability).
		Msg("decision issued")
	return nil
}

func (po *PlanningOrchestrator) periodDays() int {
	if po.config.PeriodDays < 1 {
		return 1
	}
	return po.config.PeriodDays
}

func (po *PlanningOrchestrator) recordFailure(c *collector, failure dto.TaskFailure, err error) {
	c.addFailure(failure)
	if err == nil {
		err = failure.Err
	}

	outcome := metrics.OutcomeError
	switch {
	case errors.Is(err, entities.ErrValidation):
		outcome = metrics.OutcomeValidationError
	case errors.Is(err, entities.ErrOptimization):
		outcome = metrics.OutcomeOptimizationError
	}
	po.metrics.TaskCompleted(outcome)

	stream := string(failure.Material)
	if failure.Country != "" {
		stream = events.StreamFor(failure.Material, failure.Country)
	}
	po.publish(stream, events.PlanningFailedEvent, events.PlanningFailed{
		Material: failure.Material,
		Country:  failure.Country,
		Reason:   failure.Message,
	})

	po.config.Logger.Warn().
		Str("material", string(failure.Material)).
		Str("country", failure.Country).
		Str("stage", failure.Stage).
		Err(err).
		Msg("planning task failed")
}

func (po *PlanningOrchestrator) publish(stream, eventType string, data any) {
	if po.eventStore == nil {
		return
	}
	if err := po.eventStore.AppendEvent(stream, events.NewEvent(eventType, stream, data)); err != nil {
		po.config.Logger.Warn().Str("stream", stream).Str("event", eventType).Err(err).Msg("failed to publish event")
	}
}

// hasDemand reports whether any forecast carries a positive quantity
func hasDemand(records []entities.ForecastRecord) bool {
	for _, record := range records {
		if record.PredictedDemand.IsPositive() {
			return true
		}
	}
	return false
}

func taskLess(materialA entities.MaterialName, countryA string, materialB entities.MaterialName, countryB string) bool {
	if materialA != materialB {
		return materialA < materialB
	}
	return countryA < countryB
}
