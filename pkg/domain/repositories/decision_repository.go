package repositories

import (
	"context"
	"errors"

	"github.com/vsinha/sentinel/pkg/domain/entities"
)

// ErrDecisionNotFound is returned when no decision exists for a material and country
var ErrDecisionNotFound = errors.New("decision not found")

// DecisionRepository persists issued decisions and serves the latest signal per
// material and country
type DecisionRepository interface {
	SaveDecision(ctx context.Context, record *entities.DecisionRecord) error
	// ListDecisions returns decisions for a material, oldest first. An empty material lists all.
	ListDecisions(ctx context.Context, material entities.MaterialName) ([]*entities.DecisionRecord, error)
	LatestDecision(ctx context.Context, material entities.MaterialName, country string) (*entities.DecisionRecord, error)
	Close() error
}
