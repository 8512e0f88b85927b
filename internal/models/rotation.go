package models

import "time"

// RotationTemplate is a reusable activity definition acting as a capacity
// and eligibility constraint source for the solver.
type RotationTemplate struct {
	ID                          string    `db:"id" json:"id"`
	Name                        string    `db:"name" json:"name"`
	ActivityType                string    `db:"activity_type" json:"activity_type"`
	MaxOccupants                int       `db:"max_occupants" json:"max_occupants"`
	RequiresSpecialty           *string   `db:"requires_specialty" json:"requires_specialty,omitempty"`
	RequiresProcedureCredential bool      `db:"requires_procedure_credential" json:"requires_procedure_credential"`
	SupervisionRequired         bool      `db:"supervision_required" json:"supervision_required"`
	MaxSupervisionRatio         int       `db:"max_supervision_ratio" json:"max_supervision_ratio"`
	CreatedAt                   time.Time `db:"created_at" json:"created_at"`
}
