package optimization

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/vsinha/sentinel/pkg/domain/entities"
	"github.com/vsinha/sentinel/pkg/domain/services"
)

// QuantityPlaces is the precision buy quantities are reported at
const QuantityPlaces = 6

// zeroTolerance treats solver noise below this value as zero
const zeroTolerance = 1e-9

// Config holds optimizer configuration
type Config struct {
	Policy services.PolicyParams
	// Timeout bounds a single solve; zero means no deadline beyond the caller's context
	Timeout time.Duration
	Logger  zerolog.Logger
}

// DefaultConfig returns the default optimizer configuration
func DefaultConfig() Config {
	return Config{
		Policy: services.DefaultPolicyParams(),
		Logger: zerolog.Nop(),
	}
}

// PlanRequest is the input of one optimizer invocation. Prices and Demand are per
// planning period and must have the same length.
type PlanRequest struct {
	Material     *entities.Material
	Prices       []float64
	Demand       []float64
	CurrentStock float64
}

// Optimizer computes cost-minimal multi-period purchase plans
type Optimizer struct {
	config Config
	solver Solver
}

// NewOptimizer creates an optimizer with default configuration and the simplex solver
func NewOptimizer() *Optimizer {
	return NewOptimizerWithConfig(DefaultConfig())
}

// NewOptimizerWithConfig creates an optimizer with custom configuration
func NewOptimizerWithConfig(config Config) *Optimizer {
	return &Optimizer{
		config: config,
		solver: NewSimplexSolver(),
	}
}

// WithSolver returns a copy of the optimizer that uses the given solver backend
func (o *Optimizer) WithSolver(solver Solver) *Optimizer {
	clone := *o
	clone.solver = solver
	return &clone
}

// WithTimeout returns a copy of the optimizer with a per-solve deadline
func (o *Optimizer) WithTimeout(timeout time.Duration) *Optimizer {
	clone := *o
	clone.config.Timeout = timeout
	return &clone
}

// Optimize builds and solves the procurement LP for one material.
//
// Variables per period t are buy[t], stock[t] and a surplus slack that turns the
// safety floor stock[t] >= floor into an equality. Malformed input is rejected with
// a ValidationError before any solve; any solver failure, including a deadline, is
// an OptimizationError and no plan is returned.
func (o *Optimizer) Optimize(ctx context.Context, req PlanRequest) (*entities.ProcurementPlan, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	policy, err := services.PolicyFor(req.Material.Category, o.config.Policy)
	if err != nil {
		return nil, entities.NewValidationError("category", err.Error())
	}

	floor := policy.SafetyStock(stat.Mean(req.Demand, nil), req.Material.LeadTimeDays)
	stockCostFactor := req.Material.HoldingCostPct + policy.CapitalCostFactor()
	program := buildProgram(req, floor, stockCostFactor)

	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	solution, err := o.solver.Solve(ctx, program)
	if err != nil {
		o.config.Logger.Warn().
			Str("material", string(req.Material.Name)).
			Err(err).
			Msg("procurement solve failed")
		return nil, entities.NewOptimizationError(req.Material.Name, err)
	}

	horizon := len(req.Prices)
	if len(solution.X) != 3*horizon {
		return nil, entities.NewOptimizationError(req.Material.Name,
			fmt.Errorf("solver returned %d values, expected %d", len(solution.X), 3*horizon))
	}

	plan := buildPlan(req, solution.X[:horizon], floor, stockCostFactor)
	plan.Category = req.Material.Category

	o.config.Logger.Debug().
		Str("material", string(req.Material.Name)).
		Int("periods", horizon).
		Float64("safety_stock", floor).
		Float64("objective", solution.Objective).
		Dur("elapsed", time.Since(start)).
		Msg("procurement plan solved")

	return plan, nil
}

func validateRequest(req PlanRequest) error {
	if req.Material == nil {
		return entities.NewValidationError("material", "required")
	}
	if len(req.Prices) == 0 {
		return entities.NewValidationError("prices", "planning horizon is empty")
	}
	if len(req.Prices) != len(req.Demand) {
		return entities.NewValidationError("demand",
			fmt.Sprintf("horizon mismatch: %d prices, %d demand periods", len(req.Prices), len(req.Demand)))
	}
	if !isFinite(req.CurrentStock) || req.CurrentStock < 0 {
		return entities.NewValidationError("current_stock", fmt.Sprintf("must be a non-negative number, got %g", req.CurrentStock))
	}
	for t, price := range req.Prices {
		if !isFinite(price) || price < 0 {
			return entities.NewValidationError("prices", fmt.Sprintf("period %d: must be a non-negative number, got %g", t, price))
		}
	}
	for t, demand := range req.Demand {
		if !isFinite(demand) || demand < 0 {
			return entities.NewValidationError("demand", fmt.Sprintf("period %d: must be a non-negative number, got %g", t, demand))
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// buildProgram lays out columns as [buy[0..n), stock[0..n), surplus[0..n)] and rows
// as [balance[0..n), floor[0..n)]
func buildProgram(req PlanRequest, floor, stockCostFactor float64) *LinearProgram {
	n := len(req.Prices)
	buy := func(t int) int { return t }
	stock := func(t int) int { return n + t }
	surplus := func(t int) int { return 2*n + t }

	objective := make([]float64, 3*n)
	constraints := mat.NewDense(2*n, 3*n, nil)
	rhs := make([]float64, 2*n)

	for t := 0; t < n; t++ {
		objective[buy(t)] = req.Prices[t]
		objective[stock(t)] = req.Prices[t] * stockCostFactor

		// stock[t] - stock[t-1] - buy[t] = -demand[t]
		constraints.Set(t, stock(t), 1)
		constraints.Set(t, buy(t), -1)
		rhs[t] = -req.Demand[t]
		if t == 0 {
			rhs[t] += req.CurrentStock
		} else {
			constraints.Set(t, stock(t-1), -1)
		}

		// stock[t] - surplus[t] = floor
		constraints.Set(n+t, stock(t), 1)
		constraints.Set(n+t, surplus(t), -1)
		rhs[n+t] = floor
	}

	return &LinearProgram{Objective: objective, Constraints: constraints, RHS: rhs}
}

// buildPlan rounds the solver's buy quantities and recomputes ending stock from the
// balance equation in decimal, so stock[t] = stock[t-1] + buy[t] - demand[t] holds exactly
func buildPlan(req PlanRequest, buys []float64, floor, stockCostFactor float64) *entities.ProcurementPlan {
	stockCost := decimal.NewFromFloat(stockCostFactor)
	stock := decimal.NewFromFloat(req.CurrentStock)
	totalCost := decimal.Zero

	periods := make([]entities.PlanPeriod, len(buys))
	for t, raw := range buys {
		buy := decimal.Zero
		if raw > zeroTolerance {
			buy = decimal.NewFromFloat(raw).Round(QuantityPlaces)
		}
		demand := decimal.NewFromFloat(req.Demand[t])
		price := decimal.NewFromFloat(req.Prices[t])

		stock = stock.Add(buy).Sub(demand)
		if stock.IsNegative() {
			// rounding residue; top up the buy so stock never goes negative
			buy = buy.Sub(stock)
			stock = decimal.Zero
		}

		totalCost = totalCost.Add(buy.Mul(price)).Add(stock.Mul(price).Mul(stockCost))
		periods[t] = entities.PlanPeriod{
			Index:       t,
			Demand:      demand,
			Price:       price,
			BuyQty:      buy,
			EndingStock: stock,
		}
	}

	return &entities.ProcurementPlan{
		Material:      req.Material.Name,
		StartingStock: decimal.NewFromFloat(req.CurrentStock),
		SafetyStock:   decimal.NewFromFloat(floor),
		TotalCost:     totalCost.Round(2),
		Periods:       periods,
	}
}
