package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gme-rota-api/internal/models"
)

// ConstraintRepository persists registry state so toggles and preset
// applications survive restarts. The in-memory registry remains the source
// of truth while the process runs.
type ConstraintRepository struct {
	db *sqlx.DB
}

// NewConstraintRepository constructs a ConstraintRepository.
func NewConstraintRepository(db *sqlx.DB) *ConstraintRepository {
	return &ConstraintRepository{db: db}
}

type constraintRow struct {
	Name          string                    `db:"name"`
	Enabled       bool                      `db:"enabled"`
	Priority      int                       `db:"priority"`
	Weight        float64                   `db:"weight"`
	Category      models.ConstraintCategory `db:"category"`
	Hard          bool                      `db:"hard"`
	Dependencies  []byte                    `db:"dependencies"`
	DisableReason *string                   `db:"disable_reason"`
	UpdatedAt     time.Time                 `db:"updated_at"`
}

// Load returns all stored constraints.
func (r *ConstraintRepository) Load(ctx context.Context) ([]models.Constraint, error) {
	const query = `SELECT name, enabled, priority, weight, category, hard, dependencies, disable_reason, updated_at
FROM constraints ORDER BY priority DESC, name ASC`
	var rows []constraintRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("load constraints: %w", err)
	}

	constraints := make([]models.Constraint, 0, len(rows))
	for _, row := range rows {
		c := models.Constraint{
			Name:          row.Name,
			Enabled:       row.Enabled,
			Priority:      row.Priority,
			Weight:        row.Weight,
			Category:      row.Category,
			Hard:          row.Hard,
			DisableReason: row.DisableReason,
			UpdatedAt:     row.UpdatedAt,
		}
		if len(row.Dependencies) > 0 {
			if err := json.Unmarshal(row.Dependencies, &c.Dependencies); err != nil {
				return nil, fmt.Errorf("decode dependencies for %s: %w", row.Name, err)
			}
		}
		constraints = append(constraints, c)
	}
	return constraints, nil
}

// UpsertBatch writes the given constraints in one transaction, inserting new
// names and replacing the stored state of existing ones.
func (r *ConstraintRepository) UpsertBatch(ctx context.Context, constraints []models.Constraint) error {
	if len(constraints) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin constraint upsert: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	const query = `INSERT INTO constraints (name, enabled, priority, weight, category, hard, dependencies, disable_reason, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (name) DO UPDATE SET
	enabled = EXCLUDED.enabled,
	priority = EXCLUDED.priority,
	weight = EXCLUDED.weight,
	category = EXCLUDED.category,
	hard = EXCLUDED.hard,
	dependencies = EXCLUDED.dependencies,
	disable_reason = EXCLUDED.disable_reason,
	updated_at = EXCLUDED.updated_at`
	for _, c := range constraints {
		deps, err := json.Marshal(c.Dependencies)
		if err != nil {
			return fmt.Errorf("encode dependencies for %s: %w", c.Name, err)
		}
		updatedAt := c.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx, query, c.Name, c.Enabled, c.Priority, c.Weight, c.Category, c.Hard, deps, c.DisableReason, updatedAt); err != nil {
			return fmt.Errorf("upsert constraint %s: %w", c.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit constraint upsert: %w", err)
	}
	commit = true
	return nil
}
