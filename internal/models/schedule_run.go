package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// RunStatus captures the lifecycle of a solver invocation.
type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusFailed  RunStatus = "failed"
)

// ScheduleRun records one solver invocation. It is created when the
// invocation starts, finalized when the solver returns or times out, and
// never mutated afterwards. IdempotencyKey lets a retried request reattach
// to the original run instead of recomputing.
type ScheduleRun struct {
	ID             string         `db:"id" json:"id"`
	IdempotencyKey *string        `db:"idempotency_key" json:"idempotency_key,omitempty"`
	Algorithm      string         `db:"algorithm" json:"algorithm"`
	RangeStart     time.Time      `db:"range_start" json:"range_start"`
	RangeEnd       time.Time      `db:"range_end" json:"range_end"`
	TimeoutSeconds int            `db:"timeout_seconds" json:"timeout_seconds"`
	Status         RunStatus      `db:"status" json:"status"`
	Stats          types.JSONText `db:"stats" json:"stats,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	CompletedAt    *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}

// RunFilter describes query params for listing schedule runs.
type RunFilter struct {
	RangeStart *time.Time
	RangeEnd   *time.Time
	Status     string
	Limit      int
}

// SolverStats summarises one solver invocation for run records and callers.
type SolverStats struct {
	Algorithm     string  `json:"algorithm"`
	SlotsTotal    int     `json:"slots_total"`
	SlotsFilled   int     `json:"slots_filled"`
	NodesExplored int64   `json:"nodes_explored"`
	Repairs       int     `json:"repairs"`
	BestScore     float64 `json:"best_score"`
	SoftPenalty   float64 `json:"soft_penalty"`
	ElapsedMillis int64   `json:"elapsed_ms"`
	TimedOut      bool    `json:"timed_out"`
}
