package entities

import (
	"github.com/shopspring/decimal"
)

// PlanPeriod is the purchase and resulting inventory for one planning period
type PlanPeriod struct {
	Index       int
	Demand      decimal.Decimal
	Price       decimal.Decimal
	BuyQty      decimal.Decimal
	EndingStock decimal.Decimal
}

// ProcurementPlan is the optimizer output for one material over a planning horizon.
// It is created fresh on every optimizer invocation and never mutated after return.
type ProcurementPlan struct {
	Material      MaterialName
	Category      Category
	StartingStock decimal.Decimal
	SafetyStock   decimal.Decimal
	TotalCost     decimal.Decimal
	Periods       []PlanPeriod
}

// BuyQuantities returns the plan as a period index to buy quantity mapping
func (p *ProcurementPlan) BuyQuantities() map[int]float64 {
	quantities := make(map[int]float64, len(p.Periods))
	for _, period := range p.Periods {
		quantities[period.Index] = period.BuyQty.InexactFloat64()
	}
	return quantities
}

// FirstBuy returns the buy quantity of period 0, or zero for an empty plan
func (p *ProcurementPlan) FirstBuy() decimal.Decimal {
	if len(p.Periods) == 0 {
		return decimal.Zero
	}
	return p.Periods[0].BuyQty
}

// TotalBuy returns the quantity purchased across the horizon
func (p *ProcurementPlan) TotalBuy() decimal.Decimal {
	total := decimal.Zero
	for _, period := range p.Periods {
		total = total.Add(period.BuyQty)
	}
	return total
}

// RiskAssessment is the Monte Carlo stockout-risk result for one material/country pair
type RiskAssessment struct {
	StockoutProbability float64 `json:"stockout_probability"`
	AvgEndingStock      float64 `json:"avg_ending_stock"`
	WorstCaseStock      float64 `json:"worst_case_stock"`
	Simulations         int     `json:"simulations"`
}
