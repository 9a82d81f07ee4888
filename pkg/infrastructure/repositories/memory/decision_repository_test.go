package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vsinha/sentinel/pkg/domain/entities"
	"github.com/vsinha/sentinel/pkg/domain/repositories"
)

func decisionRecord(id string, material entities.MaterialName, country string, signal entities.Signal) *entities.DecisionRecord {
	return &entities.DecisionRecord{
		ID: id,
		Decision: entities.Decision{
			Material: material,
			Country:  country,
			Signal:   signal,
		},
		CreatedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestDecisionRepository_LatestWins(t *testing.T) {
	ctx := context.Background()
	repo := NewDecisionRepository()

	if err := repo.SaveDecision(ctx, decisionRecord("1", "Copper", "Egypt", entities.SignalWait)); err != nil {
		t.Fatalf("Failed to save decision: %v", err)
	}
	if err := repo.SaveDecision(ctx, decisionRecord("2", "Copper", "Egypt", entities.SignalBuy)); err != nil {
		t.Fatalf("Failed to save decision: %v", err)
	}

	latest, err := repo.LatestDecision(ctx, "Copper", "Egypt")
	if err != nil {
		t.Fatalf("Failed to get latest decision: %v", err)
	}
	if latest.ID != "2" || latest.Decision.Signal != entities.SignalBuy {
		t.Errorf("Expected latest decision 2/BUY, got %s/%s", latest.ID, latest.Decision.Signal)
	}

	history, _ := repo.ListDecisions(ctx, "Copper")
	if len(history) != 2 {
		t.Errorf("Expected 2 decisions in history, got %d", len(history))
	}
}

func TestDecisionRepository_NotFound(t *testing.T) {
	repo := NewDecisionRepository()
	_, err := repo.LatestDecision(context.Background(), "Copper", "Chile")
	if !errors.Is(err, repositories.ErrDecisionNotFound) {
		t.Errorf("Expected ErrDecisionNotFound, got %v", err)
	}
}

func TestDecisionRepository_RequiresID(t *testing.T) {
	repo := NewDecisionRepository()
	if err := repo.SaveDecision(context.Background(), decisionRecord("", "PVC", "India", entities.SignalWait)); err == nil {
		t.Error("Expected error for record without id")
	}
}

func TestDecisionRepository_CancelledContext(t *testing.T) {
	repo := NewDecisionRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := repo.SaveDecision(ctx, decisionRecord("1", "PVC", "India", entities.SignalWait)); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestDecisionRepository_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	repo := NewDecisionRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			country := fmt.Sprintf("Country-%d", i%5)
			if err := repo.SaveDecision(ctx, decisionRecord(fmt.Sprint(i), "GST", country, entities.SignalWait)); err != nil {
				t.Errorf("Failed to save decision: %v", err)
			}
		}(i)
	}
	wg.Wait()

	all, _ := repo.ListDecisions(ctx, "")
	if len(all) != 50 {
		t.Errorf("Expected 50 decisions, got %d", len(all))
	}
}
