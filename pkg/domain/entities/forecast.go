package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AggregationLevel represents the granularity of a reconciled forecast
type AggregationLevel int

const (
	LevelCountry AggregationLevel = iota
	LevelRegion
	LevelGlobal
)

// String method for AggregationLevel enum
func (l AggregationLevel) String() string {
	switch l {
	case LevelCountry:
		return "country"
	case LevelRegion:
		return "region"
	case LevelGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// ForecastRecord is a per-country demand prediction produced by the forecasting collaborator
type ForecastRecord struct {
	Region          string
	Country         string
	Material        MaterialName
	Date            time.Time
	PredictedDemand decimal.Decimal
}

// NewForecastRecord creates a validated ForecastRecord
func NewForecastRecord(region, country string, material MaterialName, date time.Time, predictedDemand decimal.Decimal) (*ForecastRecord, error) {
	if string(material) == "" {
		return nil, NewValidationError("material", "cannot be empty")
	}
	if country == "" {
		return nil, NewValidationError("country", "cannot be empty")
	}
	if predictedDemand.IsNegative() {
		return nil, NewValidationError("predicted_demand", fmt.Sprintf("cannot be negative, got %s", predictedDemand))
	}

	return &ForecastRecord{
		Region:          region,
		Country:         country,
		Material:        material,
		Date:            date,
		PredictedDemand: predictedDemand,
	}, nil
}

// ReconciledForecast is a forecast value that is consistent across aggregation levels.
// Region is empty at the global level; Country is empty above the country level.
type ReconciledForecast struct {
	Material MaterialName
	Region   string
	Country  string
	Date     time.Time
	Level    AggregationLevel
	Value    decimal.Decimal
}

// DemandObservation is one historical demand actual used to derive country shares
type DemandObservation struct {
	Material MaterialName
	Country  string
	Date     time.Time
	Demand   decimal.Decimal
}

// HistoricalWeight is the time-averaged share of a country in a material's total demand
type HistoricalWeight struct {
	Material MaterialName
	Country  string
	Weight   decimal.Decimal
}
