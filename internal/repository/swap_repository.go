package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gme-rota-api/internal/models"
)

const swapColumns = "id, type, status, from_assignment_id, to_assignment_id, from_person_id, to_person_id, from_version, to_version, inverse, created_by, created_at, committed_at, rolled_back_at"

// SwapRepository manages persistence for swap records.
type SwapRepository struct {
	db *sqlx.DB
}

// NewSwapRepository constructs a SwapRepository.
func NewSwapRepository(db *sqlx.DB) *SwapRepository {
	return &SwapRepository{db: db}
}

// Create inserts a new swap record.
func (r *SwapRepository) Create(ctx context.Context, record *models.SwapRecord) error {
	const query = `INSERT INTO swaps (id, type, status, from_assignment_id, to_assignment_id, from_person_id, to_person_id, from_version, to_version, inverse, created_by, created_at, committed_at, rolled_back_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.ExecContext(ctx, query, record.ID, record.Type, record.Status, record.FromAssignmentID, record.ToAssignmentID, record.FromPersonID, record.ToPersonID, record.FromVersion, record.ToVersion, record.Inverse, record.CreatedBy, record.CreatedAt, record.CommittedAt, record.RolledBackAt); err != nil {
		return fmt.Errorf("create swap: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a swap record.
func (r *SwapRepository) Update(ctx context.Context, record *models.SwapRecord) error {
	const query = `UPDATE swaps SET status = $1, inverse = $2, committed_at = $3, rolled_back_at = $4 WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, record.Status, record.Inverse, record.CommittedAt, record.RolledBackAt, record.ID)
	if err != nil {
		return fmt.Errorf("update swap: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update swap rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetByID fetches a swap record by ID.
func (r *SwapRepository) GetByID(ctx context.Context, id string) (*models.SwapRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM swaps WHERE id = $1", swapColumns)
	var record models.SwapRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ExpireStale marks VALIDATED swaps older than the cutoff as REJECTED so
// they cannot be committed against long-gone assignment state.
func (r *SwapRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `UPDATE swaps SET status = $1 WHERE status = $2 AND created_at < $3`
	result, err := r.db.ExecContext(ctx, query, models.SwapStatusRejected, models.SwapStatusValidated, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire stale swaps: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire stale swaps rows affected: %w", err)
	}
	return affected, nil
}
