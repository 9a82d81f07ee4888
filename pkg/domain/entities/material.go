package entities

import (
	"fmt"
	"strings"
)

// MaterialName identifies a procured commodity material (e.g. "Copper Tape")
type MaterialName string

// Category represents the material classification that selects cost and safety-stock policy
type Category int

const (
	Shielding Category = iota
	Polymer
	Screening
)

// Categories lists every known category in declaration order
var Categories = []Category{Shielding, Polymer, Screening}

// String method for Category enum
func (c Category) String() string {
	switch c {
	case Shielding:
		return "Shielding"
	case Polymer:
		return "Polymer"
	case Screening:
		return "Screening"
	default:
		return "Unknown"
	}
}

// ParseCategory converts a category name into a Category
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shielding":
		return Shielding, nil
	case "polymer":
		return Polymer, nil
	case "screening":
		return Screening, nil
	default:
		return Shielding, fmt.Errorf("invalid category: %s (expected: Shielding, Polymer, or Screening)", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Material is immutable reference data describing a procured material
type Material struct {
	Name           MaterialName
	Category       Category
	LeadTimeDays   int
	HoldingCostPct float64
}

// NewMaterial creates a validated Material
func NewMaterial(name MaterialName, category Category, leadTimeDays int, holdingCostPct float64) (*Material, error) {
	if strings.TrimSpace(string(name)) == "" {
		return nil, NewValidationError("material", "name cannot be empty")
	}
	if category.String() == "Unknown" {
		return nil, NewValidationError("category", fmt.Sprintf("unknown category %d", int(category)))
	}
	if leadTimeDays < 0 {
		return nil, NewValidationError("lead_time_days", fmt.Sprintf("cannot be negative, got %d", leadTimeDays))
	}
	if holdingCostPct < 0 {
		return nil, NewValidationError("holding_cost_pct", fmt.Sprintf("cannot be negative, got %g", holdingCostPct))
	}

	return &Material{
		Name:           name,
		Category:       category,
		LeadTimeDays:   leadTimeDays,
		HoldingCostPct: holdingCostPct,
	}, nil
}
