package memory

import (
	"fmt"

	"github.com/vsinha/sentinel/pkg/domain/entities"
	"github.com/vsinha/sentinel/pkg/domain/repositories"
)

// MaterialRepository provides in-memory material catalog storage
type MaterialRepository struct {
	materials    []entities.Material
	materialsMap map[entities.MaterialName]int
}

// NewMaterialRepository creates a new in-memory material repository
func NewMaterialRepository(expectedMaterials int) *MaterialRepository {
	return &MaterialRepository{
		materials:    make([]entities.Material, 0, expectedMaterials),
		materialsMap: make(map[entities.MaterialName]int, expectedMaterials),
	}
}

// Verify interface compliance
var _ repositories.MaterialRepository = (*MaterialRepository)(nil)

// LoadMaterials loads materials into the repository
func (r *MaterialRepository) LoadMaterials(materials []*entities.Material) error {
	for _, material := range materials {
		if err := r.SaveMaterial(material); err != nil {
			return err
		}
	}
	return nil
}

// SaveMaterial adds a material, rejecting duplicate names
func (r *MaterialRepository) SaveMaterial(material *entities.Material) error {
	if _, exists := r.materialsMap[material.Name]; exists {
		return fmt.Errorf("duplicate material: %s", material.Name)
	}
	r.materialsMap[material.Name] = len(r.materials)
	r.materials = append(r.materials, *material)
	return nil
}

// GetMaterial returns catalog data for a material
func (r *MaterialRepository) GetMaterial(name entities.MaterialName) (*entities.Material, error) {
	index, exists := r.materialsMap[name]
	if !exists {
		return nil, fmt.Errorf("material not found: %s", name)
	}
	return &r.materials[index], nil
}

// GetAllMaterials returns all materials in load order
func (r *MaterialRepository) GetAllMaterials() ([]*entities.Material, error) {
	materials := make([]*entities.Material, 0, len(r.materials))
	for i := range r.materials {
		materials = append(materials, &r.materials[i])
	}
	return materials, nil
}
