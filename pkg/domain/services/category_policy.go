package services

import (
	"fmt"

	"github.com/vsinha/sentinel/pkg/domain/entities"
)

// ReconciliationDirection selects how a category's forecasts are made coherent
type ReconciliationDirection int

const (
	// BottomUp aggregates country forecasts into regional and global totals
	BottomUp ReconciliationDirection = iota
	// TopDown distributes the global forecast to countries by historical share
	TopDown
)

// String method for ReconciliationDirection enum
func (d ReconciliationDirection) String() string {
	switch d {
	case BottomUp:
		return "bottom-up"
	case TopDown:
		return "top-down"
	default:
		return "unknown"
	}
}

// PolicyParams holds the numeric constants shared by category policies
type PolicyParams struct {
	// MetalInterestRate is the per-period cost of capital charged on metal stock
	MetalInterestRate float64
	// RiskBufferDays is added to the lead time of materials with shipping risk
	RiskBufferDays int
	// SafetyMultiplier scales the lead-time based safety buffer
	SafetyMultiplier float64
	// BaseCoverRatio is the fraction of average demand held as safety stock otherwise
	BaseCoverRatio float64
}

// DefaultPolicyParams returns the standard procurement policy constants
func DefaultPolicyParams() PolicyParams {
	return PolicyParams{
		MetalInterestRate: 0.0003,
		RiskBufferDays:    7,
		SafetyMultiplier:  1.2,
		BaseCoverRatio:    0.5,
	}
}

// CategoryPolicy captures everything that differs between material categories
type CategoryPolicy interface {
	Category() entities.Category
	// SafetyStock returns the minimum end-of-period inventory for the given average demand
	SafetyStock(avgDemand float64, leadTimeDays int) float64
	// CapitalCostFactor is added to the holding cost fraction of every stocked unit
	CapitalCostFactor() float64
	Reconciliation() ReconciliationDirection
}

// PolicyFor returns the policy of a category. Every Category value has exactly one policy.
func PolicyFor(category entities.Category, params PolicyParams) (CategoryPolicy, error) {
	switch category {
	case entities.Shielding:
		return shieldingPolicy{params: params}, nil
	case entities.Polymer:
		return polymerPolicy{params: params}, nil
	case entities.Screening:
		return screeningPolicy{params: params}, nil
	default:
		return nil, fmt.Errorf("no policy for category %s", category)
	}
}

// shieldingPolicy covers LME-linked metals: capital is expensive and shares are macro-driven
type shieldingPolicy struct {
	params PolicyParams
}

func (p shieldingPolicy) Category() entities.Category { return entities.Shielding }

func (p shieldingPolicy) SafetyStock(avgDemand float64, _ int) float64 {
	return avgDemand * p.params.BaseCoverRatio
}

func (p shieldingPolicy) CapitalCostFactor() float64 { return p.params.MetalInterestRate }

func (p shieldingPolicy) Reconciliation() ReconciliationDirection { return TopDown }

// polymerPolicy covers oil-derived compounds
type polymerPolicy struct {
	params PolicyParams
}

func (p polymerPolicy) Category() entities.Category { return entities.Polymer }

func (p polymerPolicy) SafetyStock(avgDemand float64, _ int) float64 {
	return avgDemand * p.params.BaseCoverRatio
}

func (p polymerPolicy) CapitalCostFactor() float64 { return 0 }

func (p polymerPolicy) Reconciliation() ReconciliationDirection { return TopDown }

// screeningPolicy covers specialty tapes with lumpy, project-driven demand and long risky lead times
type screeningPolicy struct {
	params PolicyParams
}

func (p screeningPolicy) Category() entities.Category { return entities.Screening }

func (p screeningPolicy) SafetyStock(avgDemand float64, leadTimeDays int) float64 {
	estimatedLeadTime := float64(leadTimeDays + p.params.RiskBufferDays)
	return avgDemand * estimatedLeadTime * p.params.SafetyMultiplier
}

func (p screeningPolicy) CapitalCostFactor() float64 { return 0 }

func (p screeningPolicy) Reconciliation() ReconciliationDirection { return BottomUp }
