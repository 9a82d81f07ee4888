package repositories

import "github.com/vsinha/sentinel/pkg/domain/entities"

// MaterialRepository provides access to the material catalog
type MaterialRepository interface {
	GetMaterial(name entities.MaterialName) (*entities.Material, error)
	GetAllMaterials() ([]*entities.Material, error)
	LoadMaterials(materials []*entities.Material) error
}
