package reconciliation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/sentinel/pkg/domain/entities"
	"github.com/vsinha/sentinel/pkg/domain/services"
)

// Result holds a coherent view of one set of forecasts at every aggregation level
type Result struct {
	Direction services.ReconciliationDirection
	Country   []entities.ReconciledForecast
	Regional  []entities.ReconciledForecast
	Global    []entities.ReconciledForecast
}

// Reconciler enforces consistency between country, regional and global forecasts
type Reconciler struct {
	countryRegion map[string]string
}

// NewReconciler creates a reconciler for the given region to countries hierarchy.
// A nil hierarchy is allowed; regions then come from the forecast records only.
func NewReconciler(regions map[string][]string) *Reconciler {
	countryRegion := make(map[string]string)
	for region, countries := range regions {
		for _, country := range countries {
			countryRegion[country] = region
		}
	}
	return &Reconciler{countryRegion: countryRegion}
}

type periodKey struct {
	material entities.MaterialName
	day      int64
}

type regionKey struct {
	region string
	periodKey
}

type countryKey struct {
	country string
	periodKey
}

func keyOf(material entities.MaterialName, date time.Time) periodKey {
	return periodKey{material: material, day: date.Unix()}
}

// ReconcileBottomUp sums country forecasts into regional totals, then regional totals
// into global totals. Aggregation is exact; empty input yields empty tables.
func (r *Reconciler) ReconcileBottomUp(records []entities.ForecastRecord) (regional, global []entities.ReconciledForecast) {
	regionTotals := make(map[regionKey]*entities.ReconciledForecast)
	for _, record := range records {
		region := r.regionOf(record.Region, record.Country)
		key := regionKey{region: region, periodKey: keyOf(record.Material, record.Date)}
		agg, exists := regionTotals[key]
		if !exists {
			agg = &entities.ReconciledForecast{
				Material: record.Material,
				Region:   region,
				Date:     record.Date,
				Level:    entities.LevelRegion,
				Value:    decimal.Zero,
			}
			regionTotals[key] = agg
		}
		agg.Value = agg.Value.Add(record.PredictedDemand)
	}

	regional = make([]entities.ReconciledForecast, 0, len(regionTotals))
	for _, agg := range regionTotals {
		regional = append(regional, *agg)
	}
	sortForecasts(regional)

	return regional, r.sumToGlobal(regional)
}

// CountryLevel returns the raw records as country-level forecasts, merging duplicates
func (r *Reconciler) CountryLevel(records []entities.ForecastRecord) []entities.ReconciledForecast {
	totals := make(map[countryKey]*entities.ReconciledForecast)
	for _, record := range records {
		key := countryKey{country: record.Country, periodKey: keyOf(record.Material, record.Date)}
		agg, exists := totals[key]
		if !exists {
			agg = &entities.ReconciledForecast{
				Material: record.Material,
				Region:   r.regionOf(record.Region, record.Country),
				Country:  record.Country,
				Date:     record.Date,
				Level:    entities.LevelCountry,
				Value:    decimal.Zero,
			}
			totals[key] = agg
		}
		agg.Value = agg.Value.Add(record.PredictedDemand)
	}

	country := make([]entities.ReconciledForecast, 0, len(totals))
	for _, agg := range totals {
		country = append(country, *agg)
	}
	sortForecasts(country)
	return country
}

// ReconcileTopDown distributes each global (material, date) value to countries by their
// historical weight. Materials without any weight row are skipped, not fabricated.
func (r *Reconciler) ReconcileTopDown(global []entities.ReconciledForecast, weights []entities.HistoricalWeight) []entities.ReconciledForecast {
	byMaterial := make(map[entities.MaterialName][]entities.HistoricalWeight)
	for _, w := range weights {
		byMaterial[w.Material] = append(byMaterial[w.Material], w)
	}

	reconciled := make([]entities.ReconciledForecast, 0, len(global)*4)
	for _, row := range global {
		for _, w := range byMaterial[row.Material] {
			reconciled = append(reconciled, entities.ReconciledForecast{
				Material: row.Material,
				Region:   r.countryRegion[w.Country],
				Country:  w.Country,
				Date:     row.Date,
				Level:    entities.LevelCountry,
				Value:    row.Value.Mul(w.Weight),
			})
		}
	}
	sortForecasts(reconciled)
	return reconciled
}

// CalculateHistoricalWeights derives, per material, the mean over periods of each
// country's share of that period's total demand. Periods whose total is zero are
// excluded; a country absent from a counted period contributes a zero share.
func (r *Reconciler) CalculateHistoricalWeights(history []entities.DemandObservation) []entities.HistoricalWeight {
	type periodDemand struct {
		total     decimal.Decimal
		byCountry map[string]decimal.Decimal
	}

	periods := make(map[periodKey]*periodDemand)
	countries := make(map[entities.MaterialName]map[string]struct{})
	for _, obs := range history {
		key := keyOf(obs.Material, obs.Date)
		pd, exists := periods[key]
		if !exists {
			pd = &periodDemand{total: decimal.Zero, byCountry: make(map[string]decimal.Decimal)}
			periods[key] = pd
		}
		pd.total = pd.total.Add(obs.Demand)
		pd.byCountry[obs.Country] = pd.byCountry[obs.Country].Add(obs.Demand)

		if countries[obs.Material] == nil {
			countries[obs.Material] = make(map[string]struct{})
		}
		countries[obs.Material][obs.Country] = struct{}{}
	}

	shareSums := make(map[entities.MaterialName]map[string]decimal.Decimal)
	counted := make(map[entities.MaterialName]int64)
	for key, pd := range periods {
		if !pd.total.IsPositive() {
			continue
		}
		counted[key.material]++
		if shareSums[key.material] == nil {
			shareSums[key.material] = make(map[string]decimal.Decimal)
		}
		for country, demand := range pd.byCountry {
			shareSums[key.material][country] = shareSums[key.material][country].Add(demand.Div(pd.total))
		}
	}

	var weights []entities.HistoricalWeight
	for material, n := range counted {
		periodsCounted := decimal.NewFromInt(n)
		for country := range countries[material] {
			weights = append(weights, entities.HistoricalWeight{
				Material: material,
				Country:  country,
				Weight:   shareSums[material][country].Div(periodsCounted),
			})
		}
	}

	sort.Slice(weights, func(i, j int) bool {
		if weights[i].Material != weights[j].Material {
			return weights[i].Material < weights[j].Material
		}
		return weights[i].Country < weights[j].Country
	})
	return weights
}

// Reconcile applies exactly one direction to a set of records. Bottom-up keeps the
// country forecasts and aggregates them; top-down first forms the global view by
// aggregation and then redistributes it by historical weight, deriving regional
// totals from the distributed country values so all three levels agree.
func (r *Reconciler) Reconcile(direction services.ReconciliationDirection, records []entities.ForecastRecord, weights []entities.HistoricalWeight) Result {
	regional, global := r.ReconcileBottomUp(records)
	if direction == services.BottomUp {
		return Result{
			Direction: direction,
			Country:   r.CountryLevel(records),
			Regional:  regional,
			Global:    global,
		}
	}

	country := r.ReconcileTopDown(global, weights)
	return Result{
		Direction: direction,
		Country:   country,
		Regional:  r.sumCountriesToRegions(country),
		Global:    global,
	}
}

func (r *Reconciler) sumToGlobal(regional []entities.ReconciledForecast) []entities.ReconciledForecast {
	globalTotals := make(map[periodKey]*entities.ReconciledForecast)
	for _, row := range regional {
		key := keyOf(row.Material, row.Date)
		agg, exists := globalTotals[key]
		if !exists {
			agg = &entities.ReconciledForecast{
				Material: row.Material,
				Date:     row.Date,
				Level:    entities.LevelGlobal,
				Value:    decimal.Zero,
			}
			globalTotals[key] = agg
		}
		agg.Value = agg.Value.Add(row.Value)
	}

	global := make([]entities.ReconciledForecast, 0, len(globalTotals))
	for _, agg := range globalTotals {
		global = append(global, *agg)
	}
	sortForecasts(global)
	return global
}

func (r *Reconciler) sumCountriesToRegions(country []entities.ReconciledForecast) []entities.ReconciledForecast {
	totals := make(map[regionKey]*entities.ReconciledForecast)
	for _, row := range country {
		key := regionKey{region: row.Region, periodKey: keyOf(row.Material, row.Date)}
		agg, exists := totals[key]
		if !exists {
			agg = &entities.ReconciledForecast{
				Material: row.Material,
				Region:   row.Region,
				Date:     row.Date,
				Level:    entities.LevelRegion,
				Value:    decimal.Zero,
			}
			totals[key] = agg
		}
		agg.Value = agg.Value.Add(row.Value)
	}

	regional := make([]entities.ReconciledForecast, 0, len(totals))
	for _, agg := range totals {
		regional = append(regional, *agg)
	}
	sortForecasts(regional)
	return regional
}

// regionOf falls back to the configured hierarchy when a record carries no region
func (r *Reconciler) regionOf(recordRegion, country string) string {
	if recordRegion != "" {
		return recordRegion
	}
	return r.countryRegion[country]
}

func sortForecasts(rows []entities.ReconciledForecast) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Material != b.Material {
			return a.Material < b.Material
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return a.Country < b.Country
	})
}
