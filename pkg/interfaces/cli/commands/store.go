package commands

import (
	"context"
	"fmt"

	"github.com/vsinha/sentinel/pkg/domain/repositories"
	"github.com/vsinha/sentinel/pkg/infrastructure/config"
	"github.com/vsinha/sentinel/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/sentinel/pkg/infrastructure/repositories/postgres"
	"github.com/vsinha/sentinel/pkg/infrastructure/repositories/sqlite"
)

// openDecisionRepository opens the decision store selected by the storage config
func openDecisionRepository(ctx context.Context, storage config.StorageConfig) (repositories.DecisionRepository, error) {
	switch storage.Driver {
	case "", "memory":
		return memory.NewDecisionRepository(), nil
	case "sqlite":
		repo, err := sqlite.NewDecisionRepository(ctx, storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite decision store: %w", err)
		}
		return repo, nil
	case "postgres":
		repo, err := postgres.NewDecisionRepository(ctx, storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres decision store: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", storage.Driver)
	}
}
