package orchestration

import (
	"sort"

	"github.com/vsinha/sentinel/pkg/application/dto"
	"github.com/vsinha/sentinel/pkg/domain/entities"
)

type inventoryKey struct {
	material entities.MaterialName
	country  string
}

// scenarioIndex groups scenario rows by material for task preparation
type scenarioIndex struct {
	forecasts map[entities.MaterialName][]entities.ForecastRecord
	history   map[entities.MaterialName][]entities.DemandObservation
	prices    map[entities.MaterialName][]entities.PricePoint
	inventory map[inventoryKey]*entities.InventoryPosition
}

func indexScenario(scenario *dto.Scenario) *scenarioIndex {
	index := &scenarioIndex{
		forecasts: make(map[entities.MaterialName][]entities.ForecastRecord),
		history:   make(map[entities.MaterialName][]entities.DemandObservation),
		prices:    make(map[entities.MaterialName][]entities.PricePoint),
		inventory: make(map[inventoryKey]*entities.InventoryPosition),
	}

	for _, record := range scenario.Forecasts {
		index.forecasts[record.Material] = append(index.forecasts[record.Material], record)
	}
	for _, obs := range scenario.History {
		index.history[obs.Material] = append(index.history[obs.Material], obs)
	}
	for _, point := range scenario.Prices {
		index.prices[point.Material] = append(index.prices[point.Material], point)
	}
	for _, points := range index.prices {
		sort.SliceStable(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	}
	for i := range scenario.Inventory {
		position := &scenario.Inventory[i]
		index.inventory[inventoryKey{material: position.Material, country: position.Country}] = position
	}
	return index
}
