package decision

import (
	"fmt"
	"math"

	"github.com/vsinha/sentinel/pkg/domain/entities"
)

const (
	// MaxConfidence is reported when the forecast agrees with the observed price
	MaxConfidence = 98.0
	// MinConfidence is the floor for strongly diverging forecasts
	MinConfidence = 60.0
	// divergencePenalty converts relative price divergence into confidence points
	divergencePenalty = 500.0
	// priceEpsilon guards the divergence ratio against a zero current price
	priceEpsilon = 1e-9
)

// Config holds synthesizer configuration
type Config struct {
	// HoldRiskThreshold turns a WAIT into HOLD when the stockout probability reaches it.
	// Zero disables HOLD.
	HoldRiskThreshold float64
}

// SynthesisInput is everything known about one material/country pair after
// optimization and simulation
type SynthesisInput struct {
	Material       entities.MaterialName
	Country        string
	Plan           *entities.ProcurementPlan
	Risk           *entities.RiskAssessment
	CurrentPrice   float64
	PredictedPrice float64
}

// Synthesizer maps a plan and its risk assessment to a single signal
type Synthesizer struct {
	config Config
}

// NewSynthesizer creates a synthesizer that emits only BUY and WAIT
func NewSynthesizer() *Synthesizer {
	return NewSynthesizerWithConfig(Config{})
}

// NewSynthesizerWithConfig creates a synthesizer with custom configuration
func NewSynthesizerWithConfig(config Config) *Synthesizer {
	return &Synthesizer{config: config}
}

// Synthesize produces the decision. It has no side effects.
func (s *Synthesizer) Synthesize(input SynthesisInput) (*entities.Decision, error) {
	if input.Plan == nil {
		return nil, entities.NewValidationError("plan", "required")
	}
	if input.Risk == nil {
		return nil, entities.NewValidationError("risk", "required")
	}
	if !validPrice(input.CurrentPrice) {
		return nil, entities.NewValidationError("current_price", fmt.Sprintf("must be a finite non-negative number, got %g", input.CurrentPrice))
	}
	if !validPrice(input.PredictedPrice) {
		return nil, entities.NewValidationError("predicted_price", fmt.Sprintf("must be a finite non-negative number, got %g", input.PredictedPrice))
	}

	buyQty := input.Plan.FirstBuy()
	signal := entities.SignalWait
	switch {
	case buyQty.IsPositive():
		signal = entities.SignalBuy
	case s.config.HoldRiskThreshold > 0 && input.Risk.StockoutProbability >= s.config.HoldRiskThreshold:
		signal = entities.SignalHold
	}

	confidence := Confidence(input.CurrentPrice, input.PredictedPrice)

	return &entities.Decision{
		Material:       input.Material,
		Country:        input.Country,
		Signal:         signal,
		Confidence:     confidence,
		RiskPct:        input.Risk.StockoutProbability,
		BuyQty:         buyQty,
		CurrentPrice:   input.CurrentPrice,
		PredictedPrice: input.PredictedPrice,
		Rationale:      rationale(signal, input, confidence),
	}, nil
}

// Confidence degrades from 98 towards 60 as the predicted price diverges from the
// observed one. The result is truncated to a whole number.
func Confidence(currentPrice, predictedPrice float64) float64 {
	divergence := math.Abs(predictedPrice-currentPrice) / (currentPrice + priceEpsilon)
	raw := math.Trunc(MaxConfidence - divergence*divergencePenalty)
	return math.Max(MinConfidence, math.Min(MaxConfidence, raw))
}

func validPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func rationale(signal entities.Signal, input SynthesisInput, confidence float64) string {
	risk := input.Risk.StockoutProbability * 100
	switch signal {
	case entities.SignalBuy:
		return fmt.Sprintf("buy %s now at %.2f (forecast %.2f, %.0f%% confidence); stockout risk %.1f%%",
			input.Plan.FirstBuy().StringFixed(2), input.CurrentPrice, input.PredictedPrice, confidence, risk)
	case entities.SignalHold:
		return fmt.Sprintf("plan needs no purchase but stockout risk is %.1f%%; hold stock and review", risk)
	default:
		return fmt.Sprintf("no purchase needed this period; stockout risk %.1f%%", risk)
	}
}
