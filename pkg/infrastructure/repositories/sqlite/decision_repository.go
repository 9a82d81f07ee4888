package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/vsinha/sentinel/pkg/infrastructure/repositories/sqlstore"
)

// DefaultPath is used when no database path is configured
const DefaultPath = "sentinel.db"

var dialect = sqlstore.Dialect{
	Name: "sqlite",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS decisions (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			material TEXT NOT NULL,
			country TEXT NOT NULL,
			signal TEXT NOT NULL,
			confidence REAL NOT NULL,
			risk_pct REAL NOT NULL,
			buy_qty TEXT NOT NULL,
			current_price REAL NOT NULL,
			predicted_price REAL NOT NULL,
			rationale TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS decisions_material_country ON decisions (material, country)`,
	},
	Placeholder: func(int) string { return "?" },
}

// NewDecisionRepository opens (creating if needed) a SQLite decision store at path
func NewDecisionRepository(ctx context.Context, path string) (*sqlstore.DecisionRepository, error) {
	if path == "" {
		path = DefaultPath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single writer avoids SQLITE_BUSY under concurrent planning workers
	db.SetMaxOpenConns(1)

	repo, err := sqlstore.New(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}
