package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gme-rota-api/internal/models"
)

const blockColumns = "id, date, session, academic_block_number, is_weekend, is_holiday, holiday_name, created_at"

// BlockRepository manages persistence for calendar blocks.
type BlockRepository struct {
	db *sqlx.DB
}

// NewBlockRepository constructs a BlockRepository.
func NewBlockRepository(db *sqlx.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

// List returns blocks matching the filter in chronological order, AM before
// PM.
func (r *BlockRepository) List(ctx context.Context, filter models.BlockFilter) ([]models.Block, error) {
	base := "FROM blocks WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.RangeStart != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.RangeStart)
	}
	if filter.RangeEnd != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.RangeEnd)
	}
	if filter.AcademicBlockNumber != nil {
		conditions = append(conditions, fmt.Sprintf("academic_block_number = $%d", len(args)+1))
		args = append(args, *filter.AcademicBlockNumber)
	}
	if filter.Session != nil {
		conditions = append(conditions, fmt.Sprintf("session = $%d", len(args)+1))
		args = append(args, *filter.Session)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY date ASC, session ASC", blockColumns, base)
	var blocks []models.Block
	if err := r.db.SelectContext(ctx, &blocks, query, args...); err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return blocks, nil
}

// GetByID fetches a block by ID.
func (r *BlockRepository) GetByID(ctx context.Context, id string) (*models.Block, error) {
	query := fmt.Sprintf("SELECT %s FROM blocks WHERE id = $1", blockColumns)
	var block models.Block
	if err := r.db.GetContext(ctx, &block, query, id); err != nil {
		return nil, err
	}
	return &block, nil
}

// BulkCreate inserts blocks in one transaction. Duplicate (date, session)
// pairs abort the batch; callers pre-filter against existing blocks.
func (r *BlockRepository) BulkCreate(ctx context.Context, blocks []models.Block) error {
	if len(blocks) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk block insert: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	const query = `INSERT INTO blocks (id, date, session, academic_block_number, is_weekend, is_holiday, holiday_name, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i := range blocks {
		b := &blocks[i]
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, query, b.ID, b.Date, b.Session, b.AcademicBlockNumber, b.IsWeekend, b.IsHoliday, b.HolidayName, b.CreatedAt); err != nil {
			return fmt.Errorf("bulk insert block %s %s: %w", b.Date.Format("2006-01-02"), b.Session, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk block insert: %w", err)
	}
	commit = true
	return nil
}

// Delete removes a block by ID.
func (r *BlockRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM blocks WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete block rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
