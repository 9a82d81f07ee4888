package entities

import "fmt"

// PricePoint is one period of a material's predicted price path
type PricePoint struct {
	Material       MaterialName
	Period         int
	PredictedPrice float64
	// CurrentPrice is the observed market price at planning time; only period 0 is read
	CurrentPrice float64
}

// InventoryPosition is the stock on hand of a material in one country
type InventoryPosition struct {
	Material       MaterialName
	Country        string
	CurrentStock   float64
	DailyDemandStd float64
}

// NewInventoryPosition creates a validated InventoryPosition
func NewInventoryPosition(material MaterialName, country string, currentStock, dailyDemandStd float64) (*InventoryPosition, error) {
	if string(material) == "" {
		return nil, NewValidationError("material", "cannot be empty")
	}
	if country == "" {
		return nil, NewValidationError("country", "cannot be empty")
	}
	if currentStock < 0 {
		return nil, NewValidationError("current_stock", fmt.Sprintf("cannot be negative, got %g", currentStock))
	}
	if dailyDemandStd < 0 {
		return nil, NewValidationError("daily_demand_std", fmt.Sprintf("cannot be negative, got %g", dailyDemandStd))
	}
	return &InventoryPosition{
		Material:       material,
		Country:        country,
		CurrentStock:   currentStock,
		DailyDemandStd: dailyDemandStd,
	}, nil
}
