package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gme-rota-api/internal/models"
)

const runColumns = "id, idempotency_key, algorithm, range_start, range_end, timeout_seconds, status, stats, created_at, completed_at"

// ScheduleRunRepository manages persistence for solver run records.
type ScheduleRunRepository struct {
	db *sqlx.DB
}

// NewScheduleRunRepository constructs a ScheduleRunRepository.
func NewScheduleRunRepository(db *sqlx.DB) *ScheduleRunRepository {
	return &ScheduleRunRepository{db: db}
}

// Create inserts a new run record.
func (r *ScheduleRunRepository) Create(ctx context.Context, run *models.ScheduleRun) error {
	const query = `INSERT INTO schedule_runs (id, idempotency_key, algorithm, range_start, range_end, timeout_seconds, status, stats, created_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.ExecContext(ctx, query, run.ID, run.IdempotencyKey, run.Algorithm, run.RangeStart, run.RangeEnd, run.TimeoutSeconds, run.Status, run.Stats, run.CreatedAt, run.CompletedAt); err != nil {
		return fmt.Errorf("create schedule run: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a run record.
func (r *ScheduleRunRepository) Update(ctx context.Context, run *models.ScheduleRun) error {
	const query = `UPDATE schedule_runs SET status = $1, stats = $2, completed_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, run.Status, run.Stats, run.CompletedAt, run.ID)
	if err != nil {
		return fmt.Errorf("update schedule run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update schedule run rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetByID fetches a run by ID.
func (r *ScheduleRunRepository) GetByID(ctx context.Context, id string) (*models.ScheduleRun, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_runs WHERE id = $1", runColumns)
	var run models.ScheduleRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// FindByIdempotencyKey fetches the most recent run created under a key.
func (r *ScheduleRunRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.ScheduleRun, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_runs WHERE idempotency_key = $1 ORDER BY created_at DESC LIMIT 1", runColumns)
	var run models.ScheduleRun
	if err := r.db.GetContext(ctx, &run, query, key); err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns runs matching the filter, newest first.
func (r *ScheduleRunRepository) List(ctx context.Context, filter models.RunFilter) ([]models.ScheduleRun, error) {
	base := "FROM schedule_runs WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.RangeStart != nil {
		conditions = append(conditions, fmt.Sprintf("range_end >= $%d", len(args)+1))
		args = append(args, *filter.RangeStart)
	}
	if filter.RangeEnd != nil {
		conditions = append(conditions, fmt.Sprintf("range_start <= $%d", len(args)+1))
		args = append(args, *filter.RangeEnd)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d", runColumns, base, limit)
	var runs []models.ScheduleRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule runs: %w", err)
	}
	return runs, nil
}

// PruneOlderThan deletes finished runs completed before the cutoff and
// returns how many were removed. The maintenance sweep calls this on a
// schedule.
func (r *ScheduleRunRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM schedule_runs WHERE completed_at IS NOT NULL AND completed_at < $1`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune schedule runs: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune schedule runs rows affected: %w", err)
	}
	return affected, nil
}
