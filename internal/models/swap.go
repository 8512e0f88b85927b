package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SwapType distinguishes the two supported mutation shapes.
type SwapType string

const (
	// SwapOneToOne exchanges both parties' assignments atomically.
	SwapOneToOne SwapType = "ONE_TO_ONE"
	// SwapAbsorb hands A's block to B with no reciprocal obligation.
	SwapAbsorb SwapType = "ABSORB"
)

// SwapStatus tracks the per-mutation state machine:
// Proposed -> Validated -> Committed, or Proposed -> Rejected.
type SwapStatus string

const (
	SwapStatusProposed   SwapStatus = "PROPOSED"
	SwapStatusValidated  SwapStatus = "VALIDATED"
	SwapStatusCommitted  SwapStatus = "COMMITTED"
	SwapStatusRejected   SwapStatus = "REJECTED"
	SwapStatusRolledBack SwapStatus = "ROLLED_BACK"
)

// SwapRecord captures a committed (or rejected) schedule mutation. Inverse
// holds the pre-swap assignment snapshots so the mutation can be replayed
// backwards within the rollback window.
type SwapRecord struct {
	ID               string         `db:"id" json:"id"`
	Type             SwapType       `db:"type" json:"type"`
	Status           SwapStatus     `db:"status" json:"status"`
	FromAssignmentID string         `db:"from_assignment_id" json:"from_assignment_id"`
	ToAssignmentID   *string        `db:"to_assignment_id" json:"to_assignment_id,omitempty"`
	FromPersonID     string         `db:"from_person_id" json:"from_person_id"`
	ToPersonID       string         `db:"to_person_id" json:"to_person_id"`
	FromVersion      int64          `db:"from_version" json:"from_version"`
	ToVersion        *int64         `db:"to_version" json:"to_version,omitempty"`
	Inverse          types.JSONText `db:"inverse" json:"inverse,omitempty"`
	CreatedBy        string         `db:"created_by" json:"created_by"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	CommittedAt      *time.Time     `db:"committed_at" json:"committed_at,omitempty"`
	RolledBackAt     *time.Time     `db:"rolled_back_at" json:"rolled_back_at,omitempty"`
}

// SwapInverse is the serialized pre-swap state replayed on rollback.
type SwapInverse struct {
	Assignments []Assignment `json:"assignments"`
}
