package dto

import (
	"time"

	"github.com/noah-isme/gme-rota-api/internal/models"
)

// GenerateScheduleRequest instructs the orchestrator to build assignments
// for a date range using the named algorithm.
type GenerateScheduleRequest struct {
	RangeStart     time.Time `json:"rangeStart" validate:"required"`
	RangeEnd       time.Time `json:"rangeEnd" validate:"required"`
	Algorithm      string    `json:"algorithm" validate:"required,oneof=greedy propagation relaxation hybrid"`
	TimeoutSeconds int       `json:"timeoutSeconds" validate:"required,min=1"`
	IdempotencyKey string    `json:"idempotencyKey,omitempty"`
	CreatedBy      string    `json:"createdBy,omitempty"`
}

// CoverageGap reports a demand slot the solver could not fill.
type CoverageGap struct {
	BlockID    string                `json:"blockId"`
	Date       time.Time             `json:"date"`
	Session    models.Session        `json:"session"`
	RotationID string                `json:"rotationId"`
	Role       models.AssignmentRole `json:"role"`
}

// GenerateScheduleResponse returns the finalized run, the produced
// assignments, and the compliance report for the combined schedule.
type GenerateScheduleResponse struct {
	Run         models.ScheduleRun        `json:"run"`
	Assignments []models.Assignment       `json:"assignments"`
	Gaps        []CoverageGap             `json:"gaps,omitempty"`
	Validation  *models.ValidationResult  `json:"validation,omitempty"`
	Stats       models.SolverStats        `json:"stats"`
}

// RunQuery filters stored schedule runs.
type RunQuery struct {
	RangeStart *time.Time `json:"rangeStart,omitempty"`
	RangeEnd   *time.Time `json:"rangeEnd,omitempty"`
	Status     string     `json:"status,omitempty"`
}

// ValidateRequest asks for a compliance report over an assignment set.
type ValidateRequest struct {
	RangeStart  time.Time           `json:"rangeStart" validate:"required"`
	RangeEnd    time.Time           `json:"rangeEnd" validate:"required"`
	// Assignments, when nil, validates the stored schedule for the range.
	Assignments []models.Assignment `json:"assignments,omitempty"`
}
