package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/gme-rota-api/internal/models"
	"github.com/noah-isme/gme-rota-api/internal/solver"
)

// Shared builders for the service tests. The scenario is a small residency
// program: one supervised clinic rotation, a couple of residents, and one
// attending.

func buildBlocks(start time.Time, days int) []models.Block {
	var blocks []models.Block
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d)
		for _, session := range []models.Session{models.SessionAM, models.SessionPM} {
			blocks = append(blocks, models.Block{
				ID:        fmt.Sprintf("blk-%s-%s", date.Format("0102"), session),
				Date:      date,
				Session:   session,
				IsWeekend: date.Weekday() == time.Saturday || date.Weekday() == time.Sunday,
			})
		}
	}
	return blocks
}

func buildClinic() models.RotationTemplate {
	return models.RotationTemplate{
		ID:                  "rot-clinic",
		Name:                "General Clinic",
		ActivityType:        "clinic",
		MaxOccupants:        4,
		SupervisionRequired: true,
		MaxSupervisionRatio: 4,
	}
}

func buildPeople() []models.Person {
	return []models.Person{
		{ID: "fac-1", Name: "Dr. Adeyemi", RoleClass: models.RoleClassFaculty, Specialties: []string{"internal_medicine"}},
		{ID: "res-1", Name: "Dr. Brennan", RoleClass: models.RoleClassResident, PGYLevel: 2},
	}
}

func buildSnapshot(names ...string) models.ConstraintSnapshot {
	if len(names) == 0 {
		names = []string{
			solver.ConstraintWorkHourLimit,
			solver.ConstraintRestPeriod,
			solver.ConstraintSupervisionRatio,
			solver.ConstraintCoverageMinimum,
			solver.ConstraintCapacityLimit,
			solver.ConstraintSpecialtyMatch,
			solver.ConstraintProcedureCredential,
			solver.ConstraintFairnessBalance,
			solver.ConstraintPreferenceMatch,
		}
	}
	constraints := make(map[string]models.Constraint, len(names))
	for _, name := range names {
		constraints[name] = models.Constraint{Name: name, Enabled: true, Weight: 1}
	}
	return models.ConstraintSnapshot{TakenAt: time.Now(), Constraints: constraints}
}

func buildAssignment(id string, block models.Block, personID string, role models.AssignmentRole) models.Assignment {
	rotationID := "rot-clinic"
	return models.Assignment{
		ID:                 id,
		BlockID:            block.ID,
		PersonID:           personID,
		RotationTemplateID: &rotationID,
		Role:               role,
		Version:            1,
	}
}

// coveredSchedule fills every slot of the supervised clinic across the
// blocks: faculty supervising, resident primary.
func coveredSchedule(blocks []models.Block) []models.Assignment {
	var assignments []models.Assignment
	for i, block := range blocks {
		assignments = append(assignments,
			buildAssignment(fmt.Sprintf("a-sup-%d", i), block, "fac-1", models.RoleSupervising),
			buildAssignment(fmt.Sprintf("a-pri-%d", i), block, "res-1", models.RolePrimary),
		)
	}
	return assignments
}
