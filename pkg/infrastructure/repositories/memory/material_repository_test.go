package memory

import (
	"strings"
	"testing"

	"github.com/vsinha/sentinel/pkg/domain/entities"
)

func TestMaterialRepository_SaveAndGet(t *testing.T) {
	repo := NewMaterialRepository(2)

	material, err := entities.NewMaterial("Copper Tape", entities.Shielding, 45, 0.02)
	if err != nil {
		t.Fatalf("Failed to create material: %v", err)
	}
	if err := repo.SaveMaterial(material); err != nil {
		t.Fatalf("Failed to save material: %v", err)
	}

	retrieved, err := repo.GetMaterial("Copper Tape")
	if err != nil {
		t.Fatalf("Failed to get material: %v", err)
	}
	if retrieved.Category != entities.Shielding {
		t.Errorf("Expected category Shielding, got %s", retrieved.Category)
	}
	if retrieved.LeadTimeDays != 45 {
		t.Errorf("Expected lead time 45, got %d", retrieved.LeadTimeDays)
	}
}

func TestMaterialRepository_Duplicate(t *testing.T) {
	repo := NewMaterialRepository(2)
	material, _ := entities.NewMaterial("XLPE", entities.Polymer, 30, 0.02)

	if err := repo.SaveMaterial(material); err != nil {
		t.Fatalf("Failed to save material: %v", err)
	}
	err := repo.SaveMaterial(material)
	if err == nil {
		t.Fatal("Expected error for duplicate material")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("Expected duplicate error, got %v", err)
	}
}

func TestMaterialRepository_NotFound(t *testing.T) {
	repo := NewMaterialRepository(0)
	if _, err := repo.GetMaterial("Unobtainium"); err == nil {
		t.Error("Expected error for unknown material")
	}
}

func TestMaterialRepository_GetAllKeepsLoadOrder(t *testing.T) {
	repo := NewMaterialRepository(3)
	names := []entities.MaterialName{"PVC", "GSW", "Mica Tape"}
	categories := []entities.Category{entities.Polymer, entities.Shielding, entities.Screening}

	var materials []*entities.Material
	for i, name := range names {
		m, err := entities.NewMaterial(name, categories[i], 30, 0.02)
		if err != nil {
			t.Fatalf("Failed to create material: %v", err)
		}
		materials = append(materials, m)
	}
	if err := repo.LoadMaterials(materials); err != nil {
		t.Fatalf("Failed to load materials: %v", err)
	}

	all, _ := repo.GetAllMaterials()
	if len(all) != len(names) {
		t.Fatalf("Expected %d materials, got %d", len(names), len(all))
	}
	for i, m := range all {
		if m.Name != names[i] {
			t.Errorf("Position %d: expected %s, got %s", i, names[i], m.Name)
		}
	}
}
