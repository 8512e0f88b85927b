package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gme-rota-api/internal/models"
)

// AbsenceRepository reads approved leave windows.
type AbsenceRepository struct {
	db *sqlx.DB
}

// NewAbsenceRepository constructs an AbsenceRepository.
func NewAbsenceRepository(db *sqlx.DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

// ListApproved returns approved absences overlapping the range.
func (r *AbsenceRepository) ListApproved(ctx context.Context, rangeStart, rangeEnd time.Time) ([]models.Absence, error) {
	const query = `SELECT id, person_id, start_date, end_date, approved, reason
FROM absences WHERE approved = TRUE AND start_date <= $1 AND end_date >= $2 ORDER BY start_date ASC, person_id ASC`
	var absences []models.Absence
	if err := r.db.SelectContext(ctx, &absences, query, rangeEnd, rangeStart); err != nil {
		return nil, fmt.Errorf("list approved absences: %w", err)
	}
	return absences, nil
}
