package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/sentinel/pkg/domain/entities"
	"github.com/vsinha/sentinel/pkg/domain/repositories"
)

type latestKey struct {
	material entities.MaterialName
	country  string
}

// DecisionRepository keeps issued decisions in memory. It is safe for concurrent use
// by planning workers.
type DecisionRepository struct {
	mu      sync.RWMutex
	records []entities.DecisionRecord
	latest  map[latestKey]int
}

// NewDecisionRepository creates a new in-memory decision repository
func NewDecisionRepository() *DecisionRepository {
	return &DecisionRepository{
		records: []entities.DecisionRecord{},
		latest:  make(map[latestKey]int),
	}
}

// Verify interface compliance
var _ repositories.DecisionRepository = (*DecisionRepository)(nil)

// SaveDecision appends a decision and makes it the latest for its material and country
func (r *DecisionRepository) SaveDecision(ctx context.Context, record *entities.DecisionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.ID == "" {
		return fmt.Errorf("decision record requires an id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := latestKey{material: record.Decision.Material, country: record.Decision.Country}
	r.latest[key] = len(r.records)
	r.records = append(r.records, *record)
	return nil
}

// ListDecisions returns decisions for a material in save order; empty material lists all
func (r *DecisionRepository) ListDecisions(ctx context.Context, material entities.MaterialName) ([]*entities.DecisionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*entities.DecisionRecord
	for i := range r.records {
		if material != "" && r.records[i].Decision.Material != material {
			continue
		}
		record := r.records[i]
		records = append(records, &record)
	}
	return records, nil
}

// LatestDecision returns the most recently saved decision for a material and country
func (r *DecisionRepository) LatestDecision(ctx context.Context, material entities.MaterialName, country string) (*entities.DecisionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.latest[latestKey{material: material, country: country}]
	if !exists {
		return nil, fmt.Errorf("%s/%s: %w", material, country, repositories.ErrDecisionNotFound)
	}
	record := r.records[index]
	return &record, nil
}

// Close is a no-op for the in-memory store
func (r *DecisionRepository) Close() error {
	return nil
}
