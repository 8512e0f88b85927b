package models

import "time"

// AssignmentRole marks the function a person fills within a block.
type AssignmentRole string

const (
	RolePrimary     AssignmentRole = "primary"
	RoleSupervising AssignmentRole = "supervising"
	RoleBackup      AssignmentRole = "backup"
)

// Assignment binds a person to a block, optionally under a rotation template.
// At most one assignment may exist per (block, person) pair. Version is a
// monotonic counter used for optimistic concurrency: every update must carry
// the last-seen version, and a mismatch is a conflict rather than a silent
// overwrite.
type Assignment struct {
	ID                 string         `db:"id" json:"id"`
	BlockID            string         `db:"block_id" json:"block_id"`
	PersonID           string         `db:"person_id" json:"person_id"`
	RotationTemplateID *string        `db:"rotation_template_id" json:"rotation_template_id,omitempty"`
	Role               AssignmentRole `db:"role" json:"role"`
	Notes              string         `db:"notes" json:"notes,omitempty"`
	OverrideReason     *string        `db:"override_reason" json:"override_reason,omitempty"`
	CreatedBy          string         `db:"created_by" json:"created_by"`
	Version            int64          `db:"version" json:"version"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// VersionedUpdate pairs an assignment's desired state with the version the
// caller last observed. Repositories apply these with a compare-and-set on
// the version column; a mismatch fails the whole batch.
type VersionedUpdate struct {
	Assignment      Assignment
	ExpectedVersion int64
}

// AssignmentFilter describes query params for listing assignments.
type AssignmentFilter struct {
	RangeStart *time.Time
	RangeEnd   *time.Time
	PersonID   string
	BlockID    string
	RotationID string
}
