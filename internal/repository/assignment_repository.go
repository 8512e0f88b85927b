package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gme-rota-api/internal/models"
	appErrors "github.com/noah-isme/gme-rota-api/pkg/errors"
)

const assignmentColumns = "a.id, a.block_id, a.person_id, a.rotation_template_id, a.role, a.notes, a.override_reason, a.created_by, a.version, a.created_at, a.updated_at"

// AssignmentRepository manages persistence for assignments. Every update
// goes through a compare-and-set on the version column; a stale version
// never silently overwrites.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns assignments matching the filter. Date bounds resolve
// through the owning block.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	base := "FROM assignments a JOIN blocks b ON b.id = a.block_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.RangeStart != nil {
		conditions = append(conditions, fmt.Sprintf("b.date >= $%d", len(args)+1))
		args = append(args, *filter.RangeStart)
	}
	if filter.RangeEnd != nil {
		conditions = append(conditions, fmt.Sprintf("b.date <= $%d", len(args)+1))
		args = append(args, *filter.RangeEnd)
	}
	if filter.PersonID != "" {
		conditions = append(conditions, fmt.Sprintf("a.person_id = $%d", len(args)+1))
		args = append(args, filter.PersonID)
	}
	if filter.BlockID != "" {
		conditions = append(conditions, fmt.Sprintf("a.block_id = $%d", len(args)+1))
		args = append(args, filter.BlockID)
	}
	if filter.RotationID != "" {
		conditions = append(conditions, fmt.Sprintf("a.rotation_template_id = $%d", len(args)+1))
		args = append(args, filter.RotationID)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY b.date ASC, b.session ASC, a.created_at ASC", assignmentColumns, base)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// GetByID fetches an assignment by ID.
func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := fmt.Sprintf("SELECT %s FROM assignments a WHERE a.id = $1", assignmentColumns)
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// CountByBlock reports how many assignments reference a block.
func (r *AssignmentRepository) CountByBlock(ctx context.Context, blockID string) (int, error) {
	const query = `SELECT COUNT(*) FROM assignments WHERE block_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, blockID); err != nil {
		return 0, fmt.Errorf("count block assignments: %w", err)
	}
	return count, nil
}

// BulkCreate inserts a solver result atomically: either every assignment
// lands or none do.
func (r *AssignmentRepository) BulkCreate(ctx context.Context, assignments []models.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk assignment insert: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	const query = `INSERT INTO assignments (id, block_id, person_id, rotation_template_id, role, notes, override_reason, created_by, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	now := time.Now().UTC()
	for i := range assignments {
		a := &assignments[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.Version < 1 {
			a.Version = 1
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		a.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, query, a.ID, a.BlockID, a.PersonID, a.RotationTemplateID, a.Role, a.Notes, a.OverrideReason, a.CreatedBy, a.Version, a.CreatedAt, a.UpdatedAt); err != nil {
			return fmt.Errorf("bulk insert assignment for block %s person %s: %w", a.BlockID, a.PersonID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk assignment insert: %w", err)
	}
	commit = true
	return nil
}

// ApplyVersioned applies a batch of compare-and-set updates in one
// transaction. Any version mismatch rolls back the whole batch and returns
// the optimistic-lock error.
func (r *AssignmentRepository) ApplyVersioned(ctx context.Context, updates []models.VersionedUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin versioned update: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	const query = `UPDATE assignments
SET person_id = $1, rotation_template_id = $2, role = $3, notes = $4, override_reason = $5, version = version + 1, updated_at = $6
WHERE id = $7 AND version = $8`
	now := time.Now().UTC()
	for _, update := range updates {
		a := update.Assignment
		result, err := tx.ExecContext(ctx, query, a.PersonID, a.RotationTemplateID, a.Role, a.Notes, a.OverrideReason, now, a.ID, update.ExpectedVersion)
		if err != nil {
			return fmt.Errorf("versioned update assignment %s: %w", a.ID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("versioned update rows affected: %w", err)
		}
		if affected == 0 {
			return appErrors.Clone(appErrors.ErrOptimisticLock, fmt.Sprintf("assignment %s is no longer at version %d", a.ID, update.ExpectedVersion))
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit versioned update: %w", err)
	}
	commit = true
	return nil
}
