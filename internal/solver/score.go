package solver

import (
	"sort"

	"github.com/noah-isme/gme-rota-api/internal/models"
)

// Base weights for the greedy fitness terms. Each term is further multiplied
// by the snapshot weight of its governing constraint, so a disabled
// constraint removes its term and a tuned weight scales it. The blend was
// chosen so that fairness deficit can outrank a specialty match only when a
// person is far below fair share, which is what the coverage and fairness
// scenario tests lock in.
const (
	baseSpecialtyWeight   = 3.0
	baseFairnessWeight    = 2.0
	baseSupervisionWeight = 1.5
	basePreferenceWeight  = 1.0
)

// Ranking pairs a person with their fitness for a slot. It is the exported
// face of the greedy scorer, reused by the emergency-coverage resolver.
type Ranking struct {
	PersonID string
	Score    float64
}

// Rank lists eligible people for the slot, best first, against a fresh state
// seeded from the instance's existing assignments.
func Rank(inst *Instance, slot Slot) []Ranking {
	st := newState(inst)
	var out []Ranking
	for _, c := range st.rankCandidates(slot) {
		out = append(out, Ranking{PersonID: inst.People[c.personIdx].ID, Score: c.score})
	}
	return out
}

type ranked struct {
	personIdx int
	score     float64
	deficit   float64
}

// fairnessDeficit is the normalized shortfall below fair-share hours.
func (st *state) fairnessDeficit(personID string) float64 {
	if st.fairShare <= 0 {
		return 0
	}
	deficit := (st.fairShare - st.hours[personID]) / st.fairShare
	if deficit < 0 {
		return 0
	}
	return deficit
}

// scorePerson computes the constraint-weighted fitness of assigning the
// person to the slot.
func (st *state) scorePerson(personIdx int, slot Slot) (score, deficit float64) {
	person := st.inst.People[personIdx]
	snapshot := st.inst.Snapshot

	specialty := 0.0
	if slot.Rotation.RequiresSpecialty != nil && person.HasSpecialty(*slot.Rotation.RequiresSpecialty) {
		specialty = 1
	}

	supervision := 0.0
	if slot.Rotation.SupervisionRequired {
		switch {
		case slot.Role == models.RoleSupervising && person.RoleClass == models.RoleClassFaculty:
			supervision = 1
		case slot.Role != models.RoleSupervising && person.RoleClass == models.RoleClassResident:
			supervision = 1
		}
	}

	preference := 0.0
	if prefs := st.inst.Preferences[person.ID]; prefs != nil {
		preference = prefs[slot.Rotation.ActivityType]
	}

	deficit = st.fairnessDeficit(person.ID)

	score = baseSpecialtyWeight*snapshot.Weight(ConstraintSpecialtyMatch)*specialty +
		baseFairnessWeight*snapshot.Weight(ConstraintFairnessBalance)*deficit +
		baseSupervisionWeight*snapshot.Weight(ConstraintSupervisionRatio)*supervision +
		basePreferenceWeight*snapshot.Weight(ConstraintPreferenceMatch)*preference
	return score, deficit
}

// rankCandidates lists eligible people for the slot, best first. Ties break
// on the larger outstanding fairness deficit, then the lower person ID, so
// repeated runs are reproducible.
func (st *state) rankCandidates(slot Slot) []ranked {
	var out []ranked
	for idx := range st.inst.People {
		if !st.eligible(st.inst.People[idx], slot) {
			continue
		}
		score, deficit := st.scorePerson(idx, slot)
		out = append(out, ranked{personIdx: idx, score: score, deficit: deficit})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		if out[i].deficit != out[j].deficit {
			return out[i].deficit > out[j].deficit
		}
		return st.inst.People[out[i].personIdx].ID < st.inst.People[out[j].personIdx].ID
	})
	return out
}
