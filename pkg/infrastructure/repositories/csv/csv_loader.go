package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/sentinel/pkg/application/dto"
	"github.com/vsinha/sentinel/pkg/domain/entities"
)

// Scenario file names inside a scenario directory
const (
	ForecastsFile = "forecasts.csv"
	HistoryFile   = "history.csv"
	PricesFile    = "prices.csv"
	InventoryFile = "inventory.csv"
)

const dateLayout = "2006-01-02"

var (
	forecastHeader  = []string{"region", "country", "material", "date", "predicted_demand"}
	historyHeader   = []string{"material", "country", "date", "demand"}
	pricesHeader    = []string{"material", "period", "predicted_price", "current_price"}
	inventoryHeader = []string{"material", "country", "current_stock", "daily_demand_std"}
)

// Loader handles loading planning scenarios from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadScenario reads a scenario directory. Forecasts and prices are required;
// history and inventory are optional.
func (l *Loader) LoadScenario(dir string) (*dto.Scenario, error) {
	forecasts, err := l.LoadForecasts(filepath.Join(dir, ForecastsFile))
	if err != nil {
		return nil, err
	}
	prices, err := l.LoadPrices(filepath.Join(dir, PricesFile))
	if err != nil {
		return nil, err
	}

	history, err := l.LoadHistory(filepath.Join(dir, HistoryFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	inventory, err := l.LoadInventory(filepath.Join(dir, InventoryFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &dto.Scenario{
		Forecasts: forecasts,
		History:   history,
		Prices:    prices,
		Inventory: inventory,
	}, nil
}

// LoadForecasts loads country-level demand forecasts
func (l *Loader) LoadForecasts(filename string) ([]entities.ForecastRecord, error) {
	rows, err := readRows(filename, "forecasts", forecastHeader)
	if err != nil {
		return nil, err
	}

	records := make([]entities.ForecastRecord, 0, len(rows))
	for i, row := range rows {
		record, err := parseForecast(row)
		if err != nil {
			return nil, fmt.Errorf("forecasts CSV row %d: %w", i+2, err)
		}
		records = append(records, *record)
	}
	return records, nil
}

// LoadHistory loads historical demand actuals
func (l *Loader) LoadHistory(filename string) ([]entities.DemandObservation, error) {
	rows, err := readRows(filename, "history", historyHeader)
	if err != nil {
		return nil, err
	}

	history := make([]entities.DemandObservation, 0, len(rows))
	for i, row := range rows {
		obs, err := parseObservation(row)
		if err != nil {
			return nil, fmt.Errorf("history CSV row %d: %w", i+2, err)
		}
		history = append(history, obs)
	}
	return history, nil
}

// LoadPrices loads predicted price paths
func (l *Loader) LoadPrices(filename string) ([]entities.PricePoint, error) {
	rows, err := readRows(filename, "prices", pricesHeader)
	if err != nil {
		return nil, err
	}

	prices := make([]entities.PricePoint, 0, len(rows))
	for i, row := range rows {
		point, err := parsePricePoint(row)
		if err != nil {
			return nil, fmt.Errorf("prices CSV row %d: %w", i+2, err)
		}
		prices = append(prices, point)
	}
	return prices, nil
}

// LoadInventory loads stock positions
func (l *Loader) LoadInventory(filename string) ([]entities.InventoryPosition, error) {
	rows, err := readRows(filename, "inventory", inventoryHeader)
	if err != nil {
		return nil, err
	}

	positions := make([]entities.InventoryPosition, 0, len(rows))
	for i, row := range rows {
		stock, err := parseFloat("current_stock", row[2])
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: %w", i+2, err)
		}
		std, err := parseFloat("daily_demand_std", row[3])
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: %w", i+2, err)
		}
		position, err := entities.NewInventoryPosition(entities.MaterialName(strings.TrimSpace(row[0])), strings.TrimSpace(row[1]), stock, std)
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: %w", i+2, err)
		}
		positions = append(positions, *position)
	}
	return positions, nil
}

// readRows opens a CSV file, validates its header and returns the data rows
func readRows(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	rows := records[1:]
	for i, row := range rows {
		if len(row) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(row))
		}
	}
	return rows, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		// tolerate a UTF-8 BOM on the first column
		name := strings.TrimPrefix(actual[i], "\ufeff")
		if strings.ToLower(strings.TrimSpace(name)) != col {
			return false
		}
	}
	return true
}

func parseForecast(row []string) (*entities.ForecastRecord, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(row[3]))
	if err != nil {
		return nil, fmt.Errorf("invalid date: %s", row[3])
	}
	demand, err := decimal.NewFromString(strings.TrimSpace(row[4]))
	if err != nil {
		return nil, fmt.Errorf("invalid predicted_demand: %s", row[4])
	}
	return entities.NewForecastRecord(
		strings.TrimSpace(row[0]),
		strings.TrimSpace(row[1]),
		entities.MaterialName(strings.TrimSpace(row[2])),
		date,
		demand,
	)
}

func parseObservation(row []string) (entities.DemandObservation, error) {
	material := strings.TrimSpace(row[0])
	country := strings.TrimSpace(row[1])
	if material == "" || country == "" {
		return entities.DemandObservation{}, fmt.Errorf("material and country are required")
	}
	date, err := time.Parse(dateLayout, strings.TrimSpace(row[2]))
	if err != nil {
		return entities.DemandObservation{}, fmt.Errorf("invalid date: %s", row[2])
	}
	demand, err := decimal.NewFromString(strings.TrimSpace(row[3]))
	if err != nil || demand.IsNegative() {
		return entities.DemandObservation{}, fmt.Errorf("invalid demand: %s", row[3])
	}
	return entities.DemandObservation{
		Material: entities.MaterialName(material),
		Country:  country,
		Date:     date,
		Demand:   demand,
	}, nil
}

func parsePricePoint(row []string) (entities.PricePoint, error) {
	material := strings.TrimSpace(row[0])
	if material == "" {
		return entities.PricePoint{}, fmt.Errorf("material is required")
	}
	period, err := strconv.Atoi(strings.TrimSpace(row[1]))
	if err != nil || period < 0 {
		return entities.PricePoint{}, fmt.Errorf("invalid period: %s", row[1])
	}
	predicted, err := parseFloat("predicted_price", row[2])
	if err != nil {
		return entities.PricePoint{}, err
	}
	current := 0.0
	if strings.TrimSpace(row[3]) != "" {
		if current, err = parseFloat("current_price", row[3]); err != nil {
			return entities.PricePoint{}, err
		}
	}
	return entities.PricePoint{
		Material:       entities.MaterialName(material),
		Period:         period,
		PredictedPrice: predicted,
		CurrentPrice:   current,
	}, nil
}

// parseFloat accepts only finite numbers; range checks belong to the planners
func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", field, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s: %s", field, s)
	}
	return v, nil
}
