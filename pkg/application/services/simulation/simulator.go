package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/vsinha/sentinel/pkg/domain/entities"
)

const (
	// DefaultNumSimulations is the number of Monte Carlo runs per assessment
	DefaultNumSimulations = 1000
	// DefaultSeed seeds the generator when no seed is configured
	DefaultSeed uint64 = 42
	// DefaultLeadTimeStd is the lead time standard deviation in days
	DefaultLeadTimeStd = 2.0
	// MinLeadTimeDays is the lower clip applied to sampled lead times
	MinLeadTimeDays = 1.0
	// WorstCaseQuantile is the ending-stock quantile reported as the worst case
	WorstCaseQuantile = 0.05

	// cancellation is checked every batch runs
	batchSize = 256
)

// SimulationInput describes one stockout-risk question for a material/country pair
type SimulationInput struct {
	CurrentStock    float64
	DailyDemandMean float64
	DailyDemandStd  float64
	LeadTimeMean    float64
	LeadTimeStd     float64
}

// NewSimulationInput creates an input with the default lead time deviation
func NewSimulationInput(currentStock, dailyDemandMean, dailyDemandStd, leadTimeMean float64) SimulationInput {
	return SimulationInput{
		CurrentStock:    currentStock,
		DailyDemandMean: dailyDemandMean,
		DailyDemandStd:  dailyDemandStd,
		LeadTimeMean:    leadTimeMean,
		LeadTimeStd:     DefaultLeadTimeStd,
	}
}

// Simulator estimates stockout risk by sampling lead time and lead-time demand.
// Each Run draws from its own generator seeded from the simulator's seed, so a
// given input always yields the same assessment regardless of call order.
type Simulator struct {
	numSimulations int
	seed           uint64
	logger         zerolog.Logger
}

// Option configures a Simulator
type Option func(*Simulator)

// WithNumSimulations sets the number of runs per assessment
func WithNumSimulations(n int) Option {
	return func(s *Simulator) {
		s.numSimulations = n
	}
}

// WithSeed sets the generator seed
func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		s.seed = seed
	}
}

// WithLogger sets the logger used for run summaries
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// NewSimulator creates a simulator with 1000 runs and seed 42 unless overridden
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		numSimulations: DefaultNumSimulations,
		seed:           DefaultSeed,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.numSimulations <= 0 {
		s.numSimulations = DefaultNumSimulations
	}
	return s
}

// NumSimulations returns the configured number of runs
func (s *Simulator) NumSimulations() int {
	return s.numSimulations
}

// Run performs the Monte Carlo assessment. Probability is rounded to 4 places,
// stock figures to 2.
func (s *Simulator) Run(ctx context.Context, input SimulationInput) (*entities.RiskAssessment, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	src := rand.NewPCG(s.seed, s.seed)
	leadTime := distuv.Normal{Mu: input.LeadTimeMean, Sigma: input.LeadTimeStd, Src: src}

	endings := make([]float64, s.numSimulations)
	stockouts := 0
	for i := range endings {
		if i%batchSize == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("simulation cancelled after %d runs: %w", i, err)
			}
		}

		lt := math.Max(leadTime.Rand(), MinLeadTimeDays)
		demand := distuv.Normal{
			Mu:    input.DailyDemandMean * lt,
			Sigma: input.DailyDemandStd * math.Sqrt(lt),
			Src:   src,
		}
		totalDemand := math.Max(demand.Rand(), 0)

		endings[i] = input.CurrentStock - totalDemand
		if endings[i] < 0 {
			stockouts++
		}
	}

	avg := stat.Mean(endings, nil)
	sort.Float64s(endings)
	worst := percentile(endings, WorstCaseQuantile)

	assessment := &entities.RiskAssessment{
		StockoutProbability: round(float64(stockouts)/float64(s.numSimulations), 4),
		AvgEndingStock:      round(avg, 2),
		WorstCaseStock:      round(worst, 2),
		Simulations:         s.numSimulations,
	}

	s.logger.Debug().
		Float64("current_stock", input.CurrentStock).
		Float64("stockout_probability", assessment.StockoutProbability).
		Float64("worst_case_stock", assessment.WorstCaseStock).
		Msg("risk simulation complete")

	return assessment, nil
}

func validateInput(input SimulationInput) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"current_stock", input.CurrentStock},
		{"daily_demand_mean", input.DailyDemandMean},
		{"daily_demand_std", input.DailyDemandStd},
		{"lead_time_mean", input.LeadTimeMean},
		{"lead_time_std", input.LeadTimeStd},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return entities.NewValidationError(f.name, "must be a finite number")
		}
		if f.value < 0 {
			return entities.NewValidationError(f.name, fmt.Sprintf("cannot be negative, got %g", f.value))
		}
	}
	return nil
}

// percentile interpolates linearly between the closest ranks at (n-1)*p, the
// default method of numpy.percentile. sorted must be ascending and non-empty.
func percentile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
