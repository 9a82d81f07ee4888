package services

import (
	"math"
	"testing"

	"github.com/vsinha/sentinel/pkg/domain/entities"
)

func TestPolicyFor_EveryCategoryHasPolicy(t *testing.T) {
	params := DefaultPolicyParams()
	for _, category := range entities.Categories {
		policy, err := PolicyFor(category, params)
		if err != nil {
			t.Fatalf("PolicyFor(%s) failed: %v", category, err)
		}
		if policy.Category() != category {
			t.Errorf("Expected policy for %s, got %s", category, policy.Category())
		}
	}
}

func TestPolicyFor_UnknownCategory(t *testing.T) {
	if _, err := PolicyFor(entities.Category(42), DefaultPolicyParams()); err == nil {
		t.Error("Expected error for unknown category")
	}
}

func TestCategoryPolicy_SafetyStock(t *testing.T) {
	params := DefaultPolicyParams()

	tests := []struct {
		name      string
		category  entities.Category
		avgDemand float64
		leadTime  int
		expected  float64
	}{
		{"screening_uses_lead_time_buffer", entities.Screening, 10, 30, 10 * 37 * 1.2},
		{"shielding_half_cover", entities.Shielding, 10, 45, 5},
		{"polymer_half_cover", entities.Polymer, 8, 30, 4},
		{"zero_demand_zero_floor", entities.Screening, 0, 60, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := PolicyFor(tt.category, params)
			if err != nil {
				t.Fatalf("PolicyFor failed: %v", err)
			}
			got := policy.SafetyStock(tt.avgDemand, tt.leadTime)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Expected safety stock %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCategoryPolicy_CapitalCostOnlyForMetals(t *testing.T) {
	params := DefaultPolicyParams()
	for _, category := range entities.Categories {
		policy, _ := PolicyFor(category, params)
		factor := policy.CapitalCostFactor()
		if category == entities.Shielding && factor != params.MetalInterestRate {
			t.Errorf("Expected shielding capital cost %v, got %v", params.MetalInterestRate, factor)
		}
		if category != entities.Shielding && factor != 0 {
			t.Errorf("Expected no capital cost for %s, got %v", category, factor)
		}
	}
}

func TestCategoryPolicy_ReconciliationDirection(t *testing.T) {
	params := DefaultPolicyParams()
	expected := map[entities.Category]ReconciliationDirection{
		entities.Shielding: TopDown,
		entities.Polymer:   TopDown,
		entities.Screening: BottomUp,
	}
	for category, direction := range expected {
		policy, _ := PolicyFor(category, params)
		if policy.Reconciliation() != direction {
			t.Errorf("%s: expected %s, got %s", category, direction, policy.Reconciliation())
		}
	}
}
