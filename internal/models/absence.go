package models

import "time"

// Absence is an approved leave window supplied by the surrounding system.
// The engine treats approved absences as hard unavailability.
type Absence struct {
	ID        string    `db:"id" json:"id"`
	PersonID  string    `db:"person_id" json:"person_id"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Approved  bool      `db:"approved" json:"approved"`
	Reason    string    `db:"reason" json:"reason,omitempty"`
}

// Covers reports whether the absence spans the given date (inclusive).
func (a Absence) Covers(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(a.StartDate.Truncate(24*time.Hour)) && !d.After(a.EndDate.Truncate(24*time.Hour))
}
