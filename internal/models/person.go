package models

import "time"

// RoleClass distinguishes schedulable actor kinds.
type RoleClass string

const (
	RoleClassResident RoleClass = "resident"
	RoleClassFaculty  RoleClass = "faculty"
)

// Person is a schedulable actor. The engine only reads people; lifecycle
// management belongs to the surrounding CRUD layer.
type Person struct {
	ID                 string    `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	RoleClass          RoleClass `db:"role_class" json:"role_class"`
	PGYLevel           int       `db:"pgy_level" json:"pgy_level,omitempty"`
	Specialties        []string  `db:"-" json:"specialties,omitempty"`
	PrimaryDuty        string    `db:"primary_duty" json:"primary_duty,omitempty"`
	PerformsProcedures bool      `db:"performs_procedures" json:"performs_procedures"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// HasSpecialty reports whether the person carries the named specialty.
func (p Person) HasSpecialty(name string) bool {
	for _, s := range p.Specialties {
		if s == name {
			return true
		}
	}
	return false
}
