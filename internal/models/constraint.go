package models

import "time"

// ConstraintCategory groups constraints by concern.
type ConstraintCategory string

const (
	CategoryACGME        ConstraintCategory = "ACGME"
	CategoryCoverage     ConstraintCategory = "COVERAGE"
	CategoryCapacity     ConstraintCategory = "CAPACITY"
	CategoryFairness     ConstraintCategory = "FAIRNESS"
	CategoryPreference   ConstraintCategory = "PREFERENCE"
	CategoryResilience   ConstraintCategory = "RESILIENCE"
	CategoryExperimental ConstraintCategory = "EXPERIMENTAL"
)

// Constraint is a named rule descriptor. Priority orders execution and
// tie-breaks (higher first); Weight multiplies soft-constraint penalties.
// A constraint cannot be enabled while any of its dependencies is disabled.
type Constraint struct {
	Name          string             `db:"name" json:"name"`
	Enabled       bool               `db:"enabled" json:"enabled"`
	Priority      int                `db:"priority" json:"priority"`
	Weight        float64            `db:"weight" json:"weight"`
	Category      ConstraintCategory `db:"category" json:"category"`
	Hard          bool               `db:"hard" json:"hard"`
	Dependencies  []string           `db:"-" json:"dependencies,omitempty"`
	DisableReason *string            `db:"disable_reason" json:"disable_reason,omitempty"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
}

// ConstraintFilter narrows registry listings.
type ConstraintFilter struct {
	Category *ConstraintCategory
	Enabled  *bool
}

// ConstraintSnapshot is an immutable view of the registry's enablement and
// weight state taken at the start of a solver invocation. In-flight runs keep
// the snapshot they started with even if the registry changes underneath.
type ConstraintSnapshot struct {
	TakenAt     time.Time
	Constraints map[string]Constraint
}

// Enabled reports whether the named constraint was enabled in the snapshot.
func (s ConstraintSnapshot) Enabled(name string) bool {
	c, ok := s.Constraints[name]
	return ok && c.Enabled
}

// Weight returns the soft-penalty multiplier for the named constraint, or
// zero when the constraint is absent or disabled.
func (s ConstraintSnapshot) Weight(name string) float64 {
	c, ok := s.Constraints[name]
	if !ok || !c.Enabled {
		return 0
	}
	return c.Weight
}

// Priority returns the execution priority for the named constraint.
func (s ConstraintSnapshot) Priority(name string) int {
	c, ok := s.Constraints[name]
	if !ok {
		return 0
	}
	return c.Priority
}
