// Package sqlstore implements the decision repository on database/sql. The sqlite
// and postgres packages supply the driver, dialect and schema.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/sentinel/pkg/domain/entities"
	"github.com/vsinha/sentinel/pkg/domain/repositories"
)

// Dialect captures the SQL differences between backends
type Dialect struct {
	Name string
	// Schema holds the statements that create the decisions table and its indexes
	Schema []string
	// Placeholder renders the n-th (1-based) bind parameter
	Placeholder func(n int) string
}

// DecisionRepository persists decisions in a "decisions" table
type DecisionRepository struct {
	db      *sql.DB
	dialect Dialect
}

// Verify interface compliance
var _ repositories.DecisionRepository = (*DecisionRepository)(nil)

// New applies the dialect schema and returns a repository on db
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*DecisionRepository, error) {
	for _, stmt := range dialect.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("apply %s schema: %w", dialect.Name, err)
		}
	}
	return &DecisionRepository{db: db, dialect: dialect}, nil
}

const columns = "id, material, country, signal, confidence, risk_pct, buy_qty, current_price, predicted_price, rationale, created_at"

// SaveDecision inserts a decision record
func (r *DecisionRepository) SaveDecision(ctx context.Context, record *entities.DecisionRecord) error {
	if record.ID == "" {
		return fmt.Errorf("decision record requires an id")
	}

	placeholders := make([]string, 11)
	for i := range placeholders {
		placeholders[i] = r.dialect.Placeholder(i + 1)
	}
	query := fmt.Sprintf("INSERT INTO decisions (%s) VALUES (%s)", columns, strings.Join(placeholders, ", "))

	d := record.Decision
	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		string(d.Material),
		d.Country,
		d.Signal.String(),
		d.Confidence,
		d.RiskPct,
		d.BuyQty.String(),
		d.CurrentPrice,
		d.PredictedPrice,
		d.Rationale,
		record.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert decision %s: %w", record.ID, err)
	}
	return nil
}

// ListDecisions returns decisions for a material in insertion order; empty material lists all
func (r *DecisionRepository) ListDecisions(ctx context.Context, material entities.MaterialName) ([]*entities.DecisionRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM decisions", columns)
	var args []any
	if material != "" {
		query += " WHERE material = " + r.dialect.Placeholder(1)
		args = append(args, string(material))
	}
	query += " ORDER BY seq"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*entities.DecisionRecord
	for rows.Next() {
		record, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return records, nil
}

// LatestDecision returns the most recently inserted decision for a material and country
func (r *DecisionRepository) LatestDecision(ctx context.Context, material entities.MaterialName, country string) (*entities.DecisionRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM decisions WHERE material = %s AND country = %s ORDER BY seq DESC LIMIT 1",
		columns, r.dialect.Placeholder(1), r.dialect.Placeholder(2))

	record, err := scanDecision(r.db.QueryRowContext(ctx, query, string(material), country))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", material, country, repositories.ErrDecisionNotFound)
	}
	return record, err
}

// Close closes the underlying database
func (r *DecisionRepository) Close() error {
	return r.db.Close()
}

// DB exposes the underlying handle for tests and migrations
func (r *DecisionRepository) DB() *sql.DB { return r.db }

type scanner interface {
	Scan(dest ...any) error
}

func scanDecision(row scanner) (*entities.DecisionRecord, error) {
	var (
		record    entities.DecisionRecord
		material  string
		signal    string
		buyQty    string
		createdAt int64
	)
	d := &record.Decision
	err := row.Scan(&record.ID, &material, &d.Country, &signal, &d.Confidence, &d.RiskPct,
		&buyQty, &d.CurrentPrice, &d.PredictedPrice, &d.Rationale, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan decision: %w", err)
	}

	d.Material = entities.MaterialName(material)
	if d.Signal, err = entities.ParseSignal(signal); err != nil {
		return nil, fmt.Errorf("decision %s: %w", record.ID, err)
	}
	if d.BuyQty, err = decimal.NewFromString(buyQty); err != nil {
		return nil, fmt.Errorf("decision %s: invalid buy_qty %q: %w", record.ID, buyQty, err)
	}
	record.CreatedAt = time.Unix(0, createdAt).UTC()
	return &record, nil
}
