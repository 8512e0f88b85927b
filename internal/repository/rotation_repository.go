package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gme-rota-api/internal/models"
)

// RotationRepository reads rotation templates.
type RotationRepository struct {
	db *sqlx.DB
}

// NewRotationRepository constructs a RotationRepository.
func NewRotationRepository(db *sqlx.DB) *RotationRepository {
	return &RotationRepository{db: db}
}

// ListActive returns active rotation templates ordered by name.
func (r *RotationRepository) ListActive(ctx context.Context) ([]models.RotationTemplate, error) {
	const query = `SELECT id, name, activity_type, max_occupants, requires_specialty, requires_procedure_credential, supervision_required, max_supervision_ratio, created_at
FROM rotation_templates WHERE active = TRUE ORDER BY name ASC`
	var rotations []models.RotationTemplate
	if err := r.db.SelectContext(ctx, &rotations, query); err != nil {
		return nil, fmt.Errorf("list rotation templates: %w", err)
	}
	return rotations, nil
}

// GetByID fetches a rotation template by ID.
func (r *RotationRepository) GetByID(ctx context.Context, id string) (*models.RotationTemplate, error) {
	const query = `SELECT id, name, activity_type, max_occupants, requires_specialty, requires_procedure_credential, supervision_required, max_supervision_ratio, created_at
FROM rotation_templates WHERE id = $1`
	var rotation models.RotationTemplate
	if err := r.db.GetContext(ctx, &rotation, query, id); err != nil {
		return nil, err
	}
	return &rotation, nil
}
