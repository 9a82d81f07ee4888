package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/sentinel/pkg/domain/entities"
	"github.com/vsinha/sentinel/pkg/infrastructure/repositories/memory"
)

// MustDate parses a YYYY-MM-DD date - panics on parse error
func MustDate(s string) time.Time {
	date, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return date
}

// MustForecast is a helper for tests - panics on validation error
func MustForecast(region, country, material, date, demand string) entities.ForecastRecord {
	record, err := entities.NewForecastRecord(
		region,
		country,
		entities.MaterialName(material),
		MustDate(date),
		decimal.RequireFromString(demand),
	)
	if err != nil {
		panic(err)
	}
	return *record
}

// MustObservation builds a historical demand actual
func MustObservation(material, country, date, demand string) entities.DemandObservation {
	return entities.DemandObservation{
		Material: entities.MaterialName(material),
		Country:  country,
		Date:     MustDate(date),
		Demand:   decimal.RequireFromString(demand),
	}
}

// mustCreateMaterial is a helper for tests - panics on validation error
func mustCreateMaterial(name string, category entities.Category, leadTime int, holding float64) *entities.Material {
	material, err := entities.NewMaterial(entities.MaterialName(name), category, leadTime, holding)
	if err != nil {
		panic(err)
	}
	return material
}

// SampleRegions returns a reduced region hierarchy used across tests
func SampleRegions() map[string][]string {
	return map[string][]string{
		"MENA": {"Egypt", "Saudi Arabia"},
		"EU":   {"Germany", "Italy"},
	}
}

// SampleMaterials returns one material per category
func SampleMaterials() []*entities.Material {
	return []*entities.Material{
		mustCreateMaterial("Copper Tape", entities.Shielding, 45, 0.02),
		mustCreateMaterial("XLPE", entities.Polymer, 30, 0.02),
		mustCreateMaterial("Mica Tape", entities.Screening, 60, 0.02),
	}
}

// SampleForecasts returns four weekly periods of lumpy country forecasts for every sample material
func SampleForecasts() []entities.ForecastRecord {
	dates := []string{"2026-01-05", "2026-01-12", "2026-01-19", "2026-01-26"}
	rows := []struct {
		region, country string
		demand          []string
	}{
		{"MENA", "Egypt", []string{"150", "120.5", "0", "80"}},
		{"MENA", "Saudi Arabia", []string{"300", "0", "210.25", "95"}},
		{"EU", "Germany", []string{"100", "110", "90", "105.75"}},
		{"EU", "Italy", []string{"40", "35", "55", "60"}},
	}

	var records []entities.ForecastRecord
	for _, material := range []string{"Copper Tape", "XLPE", "Mica Tape"} {
		for _, row := range rows {
			for i, date := range dates {
				records = append(records, MustForecast(row.region, row.country, material, date, row.demand[i]))
			}
		}
	}
	return records
}

// SampleHistory returns two months of historical actuals with one zero-demand period
func SampleHistory() []entities.DemandObservation {
	var history []entities.DemandObservation
	for _, material := range []string{"Copper Tape", "XLPE"} {
		history = append(history,
			MustObservation(material, "Egypt", "2025-11-01", "30"),
			MustObservation(material, "Saudi Arabia", "2025-11-01", "50"),
			MustObservation(material, "Germany", "2025-11-01", "20"),
			MustObservation(material, "Egypt", "2025-12-01", "10"),
			MustObservation(material, "Saudi Arabia", "2025-12-01", "30"),
			MustObservation(material, "Germany", "2025-12-01", "40"),
			MustObservation(material, "Italy", "2025-12-01", "20"),
			MustObservation(material, "Egypt", "2026-01-01", "0"),
			MustObservation(material, "Germany", "2026-01-01", "0"),
		)
	}
	return history
}

// BuildSampleMaterialRepository loads the sample catalog into an in-memory repository
func BuildSampleMaterialRepository() *memory.MaterialRepository {
	materialRepo := memory.NewMaterialRepository(3)
	if err := materialRepo.LoadMaterials(SampleMaterials()); err != nil {
		panic(err)
	}
	return materialRepo
}
