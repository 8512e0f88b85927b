package solver

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/gme-rota-api/internal/models"
)

// Constraint names the solver consults on the snapshot. The registry seeds
// the same catalog; the strings are the shared contract.
const (
	ConstraintWorkHourLimit       = "acgme_80_hour_rule"
	ConstraintRestPeriod          = "acgme_rest_period"
	ConstraintSupervisionRatio    = "supervision_ratio"
	ConstraintCoverageMinimum     = "coverage_minimum"
	ConstraintCapacityLimit       = "capacity_limit"
	ConstraintSpecialtyMatch      = "specialty_match"
	ConstraintProcedureCredential = "procedure_credential"
	ConstraintFairnessBalance     = "fairness_balance"
	ConstraintPreferenceMatch     = "preference_match"
	ConstraintNoBackToBackCall    = "no_back_to_back_call"
)

// Instance is a self-contained solve problem: read-only snapshots of the
// schedulable domain plus the constraint configuration captured at
// invocation start.
type Instance struct {
	Blocks    []models.Block
	People    []models.Person
	Rotations []models.RotationTemplate
	Absences  []models.Absence
	// Existing holds live assignments in range; the solver never re-proposes
	// or double-books over them.
	Existing []models.Assignment
	// Preferences maps person ID to activity type affinity in [0,1].
	Preferences map[string]map[string]float64
	Snapshot    models.ConstraintSnapshot

	HoursPerSession   float64
	WeeklyHourCeiling float64
	CreatedBy         string
}

// Slot is one unit of coverage demand: a role to fill on a rotation within
// a block.
type Slot struct {
	Block    models.Block
	Rotation models.RotationTemplate
	Role     models.AssignmentRole
}

// Candidate is a solver result: the proposed assignments plus any demand
// slots left unfilled.
type Candidate struct {
	Assignments []models.Assignment
	Gaps        []Slot
	Score       float64
}

// DemandSlots enumerates coverage demand deterministically: blocks in
// chronological order (AM before PM), rotations by name, supervising slots
// ahead of the primary slot they cover.
func DemandSlots(blocks []models.Block, rotations []models.RotationTemplate) []Slot {
	sortedBlocks := make([]models.Block, len(blocks))
	copy(sortedBlocks, blocks)
	sort.Slice(sortedBlocks, func(i, j int) bool {
		if sortedBlocks[i].Date.Equal(sortedBlocks[j].Date) {
			return sortedBlocks[i].Session < sortedBlocks[j].Session
		}
		return sortedBlocks[i].Date.Before(sortedBlocks[j].Date)
	})

	sortedRotations := make([]models.RotationTemplate, len(rotations))
	copy(sortedRotations, rotations)
	sort.Slice(sortedRotations, func(i, j int) bool {
		return sortedRotations[i].Name < sortedRotations[j].Name
	})

	var slots []Slot
	for _, block := range sortedBlocks {
		for _, rotation := range sortedRotations {
			if rotation.SupervisionRequired {
				slots = append(slots, Slot{Block: block, Rotation: rotation, Role: models.RoleSupervising})
			}
			slots = append(slots, Slot{Block: block, Rotation: rotation, Role: models.RolePrimary})
		}
	}
	return slots
}

// openSlots returns the demand slots not already covered by the instance's
// existing assignments. All algorithms search only open slots, so a warm
// start (or a live schedule) shrinks the problem instead of double-counting
// coverage.
func openSlots(inst *Instance) []Slot {
	blocksByID := make(map[string]models.Block, len(inst.Blocks))
	for _, block := range inst.Blocks {
		blocksByID[block.ID] = block
	}
	covered := make(map[string]int)
	for _, a := range inst.Existing {
		if a.RotationTemplateID == nil {
			continue
		}
		block, ok := blocksByID[a.BlockID]
		if !ok {
			continue
		}
		covered[block.Key()+"|"+*a.RotationTemplateID+"|"+string(a.Role)]++
	}

	all := DemandSlots(inst.Blocks, inst.Rotations)
	var open []Slot
	for _, slot := range all {
		key := slot.Block.Key() + "|" + slot.Rotation.ID + "|" + string(slot.Role)
		if covered[key] > 0 {
			covered[key]--
			continue
		}
		open = append(open, slot)
	}
	return open
}

func (inst *Instance) hoursPerSession() float64 {
	if inst.HoursPerSession > 0 {
		return inst.HoursPerSession
	}
	return 6
}

func (inst *Instance) weeklyCeiling() float64 {
	if inst.WeeklyHourCeiling > 0 {
		return inst.WeeklyHourCeiling
	}
	return 80
}

// state tracks the incremental assignment set during a search. It seeds
// itself from Existing so live assignments count toward double-booking,
// capacity, and work-hour accounting.
type state struct {
	inst *Instance

	// busy: block key -> person ID -> taken.
	busy map[string]map[string]bool
	// occupancy: block key + rotation ID -> role -> count.
	occupancy map[string]map[models.AssignmentRole]int
	// hours: person ID -> total assigned hours.
	hours map[string]float64
	// sessionsByDay: person ID -> date string -> sessions assigned.
	sessionsByDay map[string]map[string]int
	// absent: person ID -> date string -> approved absence.
	absent map[string]map[string]bool

	blocksByID map[string]models.Block
	fairShare  float64

	assignments []models.Assignment
	gaps        []Slot
	score       float64
}

func newState(inst *Instance) *state {
	st := &state{
		inst:          inst,
		busy:          make(map[string]map[string]bool),
		occupancy:     make(map[string]map[models.AssignmentRole]int),
		hours:         make(map[string]float64),
		sessionsByDay: make(map[string]map[string]int),
		absent:        make(map[string]map[string]bool),
		blocksByID:    make(map[string]models.Block, len(inst.Blocks)),
	}
	for _, block := range inst.Blocks {
		st.blocksByID[block.ID] = block
	}
	for _, absence := range inst.Absences {
		if !absence.Approved {
			continue
		}
		if st.absent[absence.PersonID] == nil {
			st.absent[absence.PersonID] = make(map[string]bool)
		}
		for d := absence.StartDate; !d.After(absence.EndDate); d = d.AddDate(0, 0, 1) {
			st.absent[absence.PersonID][dayKey(d)] = true
		}
	}
	for _, a := range inst.Existing {
		block, ok := st.blocksByID[a.BlockID]
		if !ok {
			continue
		}
		st.record(block, a, false)
	}

	// Fair share: total demanded hours split across the pool.
	demand := len(DemandSlots(inst.Blocks, inst.Rotations))
	if len(inst.People) > 0 {
		st.fairShare = float64(demand) * inst.hoursPerSession() / float64(len(inst.People))
	}
	return st
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func occupancyKey(blockKey, rotationID string) string {
	return blockKey + "|" + rotationID
}

func (st *state) record(block models.Block, a models.Assignment, proposed bool) {
	key := block.Key()
	if st.busy[key] == nil {
		st.busy[key] = make(map[string]bool)
	}
	st.busy[key][a.PersonID] = true

	if a.RotationTemplateID != nil {
		occKey := occupancyKey(key, *a.RotationTemplateID)
		if st.occupancy[occKey] == nil {
			st.occupancy[occKey] = make(map[models.AssignmentRole]int)
		}
		st.occupancy[occKey][a.Role]++
	}

	st.hours[a.PersonID] += st.inst.hoursPerSession()
	if st.sessionsByDay[a.PersonID] == nil {
		st.sessionsByDay[a.PersonID] = make(map[string]int)
	}
	st.sessionsByDay[a.PersonID][dayKey(block.Date)]++

	if proposed {
		st.assignments = append(st.assignments, a)
	}
}

func (st *state) unrecord(block models.Block, a models.Assignment) {
	key := block.Key()
	delete(st.busy[key], a.PersonID)
	if a.RotationTemplateID != nil {
		occKey := occupancyKey(key, *a.RotationTemplateID)
		if st.occupancy[occKey] != nil {
			st.occupancy[occKey][a.Role]--
		}
	}
	st.hours[a.PersonID] -= st.inst.hoursPerSession()
	if st.sessionsByDay[a.PersonID] != nil {
		st.sessionsByDay[a.PersonID][dayKey(block.Date)]--
	}
	if n := len(st.assignments); n > 0 && st.assignments[n-1].ID == a.ID {
		st.assignments = st.assignments[:n-1]
	}
}

// place commits a person to a slot and returns the created assignment.
func (st *state) place(person models.Person, slot Slot, score float64) models.Assignment {
	rotationID := slot.Rotation.ID
	a := models.Assignment{
		ID:                 uuid.NewString(),
		BlockID:            slot.Block.ID,
		PersonID:           person.ID,
		RotationTemplateID: &rotationID,
		Role:               slot.Role,
		CreatedBy:          st.inst.CreatedBy,
		Version:            1,
	}
	st.record(slot.Block, a, true)
	st.score += score
	return a
}

func (st *state) unplace(a models.Assignment, slot Slot, score float64) {
	st.unrecord(slot.Block, a)
	st.score -= score
}

// eligible applies the hard feasibility checks for assigning person to slot.
func (st *state) eligible(person models.Person, slot Slot) bool {
	snapshot := st.inst.Snapshot

	if slot.Role == models.RoleSupervising && person.RoleClass != models.RoleClassFaculty {
		return false
	}
	if st.busy[slot.Block.Key()][person.ID] {
		return false
	}
	if st.absent[person.ID][dayKey(slot.Block.Date)] {
		return false
	}
	if slot.Rotation.RequiresProcedureCredential && snapshot.Enabled(ConstraintProcedureCredential) && !person.PerformsProcedures {
		return false
	}
	// Faculty must carry a required specialty; residents rotate to train.
	if slot.Rotation.RequiresSpecialty != nil && person.RoleClass == models.RoleClassFaculty {
		if snapshot.Enabled(ConstraintSpecialtyMatch) && !person.HasSpecialty(*slot.Rotation.RequiresSpecialty) {
			return false
		}
	}
	if slot.Rotation.MaxOccupants > 0 {
		total := 0
		for _, count := range st.occupancy[occupancyKey(slot.Block.Key(), slot.Rotation.ID)] {
			total += count
		}
		if total >= slot.Rotation.MaxOccupants {
			return false
		}
	}
	if snapshot.Enabled(ConstraintSupervisionRatio) && slot.Rotation.SupervisionRequired && slot.Role != models.RoleSupervising {
		occ := st.occupancy[occupancyKey(slot.Block.Key(), slot.Rotation.ID)]
		supervisors := occ[models.RoleSupervising]
		ratio := slot.Rotation.MaxSupervisionRatio
		if ratio <= 0 {
			ratio = 4
		}
		if supervisors == 0 || occ[models.RolePrimary]+occ[models.RoleBackup] >= supervisors*ratio {
			return false
		}
	}
	if snapshot.Enabled(ConstraintWorkHourLimit) && st.wouldExceedWeekly(person.ID, slot.Block.Date) {
		return false
	}
	return true
}

// wouldExceedWeekly projects the person's hours over the trailing and
// leading 7-day windows around date if one more session were added.
func (st *state) wouldExceedWeekly(personID string, date time.Time) bool {
	perDay := st.sessionsByDay[personID]
	hours := st.inst.hoursPerSession()
	ceiling := st.inst.weeklyCeiling()
	for _, start := range []time.Time{date.AddDate(0, 0, -6), date} {
		var window float64
		for i := 0; i < 7; i++ {
			window += float64(perDay[dayKey(start.AddDate(0, 0, i))]) * hours
		}
		if window+hours > ceiling {
			return true
		}
	}
	return false
}
