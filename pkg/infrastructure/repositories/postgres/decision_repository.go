// Package postgres opens the decision store on Postgres through the pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/vsinha/sentinel/pkg/infrastructure/repositories/sqlstore"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/sentinel?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var dialect = sqlstore.Dialect{
	Name: "postgres",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS decisions (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			material TEXT NOT NULL,
			country TEXT NOT NULL,
			signal TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			risk_pct DOUBLE PRECISION NOT NULL,
			buy_qty TEXT NOT NULL,
			current_price DOUBLE PRECISION NOT NULL,
			predicted_price DOUBLE PRECISION NOT NULL,
			rationale TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS decisions_material_country ON decisions (material, country)`,
	},
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
}

// NewDecisionRepository connects to dsn (falls back to defaultDSN) and ensures the schema
func NewDecisionRepository(ctx context.Context, dsn string) (*sqlstore.DecisionRepository, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	repo, err := sqlstore.New(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OverrideSQLOpen swaps the sql.Open implementation for tests and returns a restore func
func OverrideSQLOpen(fn func(driverName, dsn string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}
