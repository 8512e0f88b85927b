package solver

import (
	"context"
	"time"

	"github.com/noah-isme/gme-rota-api/internal/models"
)

// relaxationSolver drops the integrality of the assignment problem: it
// spreads fractional weight over (slot, person) pairs proportional to score,
// smooths the fractions against per-person capacity, then rounds to an
// integral assignment and repairs the hard-constraint breaks the rounding
// introduced. There is no LP library in play; the smoothing is a fixed
// number of proportional-fitting passes, which is enough to steer the
// rounding on instances of this shape.
type relaxationSolver struct{}

const smoothingPasses = 8

func (r *relaxationSolver) Name() string { return AlgorithmRelaxation }

func (r *relaxationSolver) Solve(ctx context.Context, inst *Instance) (*Candidate, models.SolverStats, error) {
	start := time.Now()
	slots := openSlots(inst)
	stats := models.SolverStats{Algorithm: AlgorithmRelaxation, SlotsTotal: len(slots)}

	frac := r.fractionalSolution(inst, slots, &stats)

	// Rounding: walk slots in demand order and pick the highest remaining
	// fraction that is still feasible in the integral state.
	st := newState(inst)
	var unfilled []int
	for slotIdx, slot := range slots {
		select {
		case <-ctx.Done():
			stats.TimedOut = true
		default:
		}
		if stats.TimedOut {
			unfilled = append(unfilled, slotIdx)
			continue
		}
		stats.NodesExplored++
		bestIdx, bestWeight := -1, 0.0
		for personIdx := range inst.People {
			weight := frac[slotIdx][personIdx]
			if weight <= 0 {
				continue
			}
			if weight > bestWeight && st.eligible(inst.People[personIdx], slot) {
				bestIdx, bestWeight = personIdx, weight
			}
		}
		if bestIdx < 0 {
			unfilled = append(unfilled, slotIdx)
			continue
		}
		score, _ := st.scorePerson(bestIdx, slot)
		st.place(inst.People[bestIdx], slot, score)
	}

	// Repair: a greedy pass over what rounding left open restores
	// feasibility-driven coverage.
	for _, slotIdx := range unfilled {
		slot := slots[slotIdx]
		candidates := st.rankCandidates(slot)
		if len(candidates) == 0 {
			st.gaps = append(st.gaps, slot)
			continue
		}
		best := candidates[0]
		st.place(inst.People[best.personIdx], slot, best.score)
		stats.Repairs++
	}

	stats.SlotsFilled = len(st.assignments)
	stats.BestScore = st.score
	stats.ElapsedMillis = time.Since(start).Milliseconds()
	return &Candidate{Assignments: st.assignments, Gaps: st.gaps, Score: st.score}, stats, nil
}

// fractionalSolution builds score-proportional fractions per slot and
// rebalances them against each person's session capacity.
func (r *relaxationSolver) fractionalSolution(inst *Instance, slots []Slot, stats *models.SolverStats) [][]float64 {
	base := newState(inst)
	frac := make([][]float64, len(slots))
	for slotIdx, slot := range slots {
		row := make([]float64, len(inst.People))
		var sum float64
		for personIdx := range inst.People {
			if !base.eligible(inst.People[personIdx], slot) {
				continue
			}
			score, _ := base.scorePerson(personIdx, slot)
			// Uniform floor keeps zero-score eligibles in the relaxation.
			row[personIdx] = score + 0.1
			sum += row[personIdx]
		}
		if sum > 0 {
			for personIdx := range row {
				row[personIdx] /= sum
			}
		}
		frac[slotIdx] = row
	}

	// Per-person capacity: one session per block at most.
	capacity := make([]float64, len(inst.People))
	for personIdx, person := range inst.People {
		available := 0
		for _, block := range inst.Blocks {
			if !base.absent[person.ID][dayKey(block.Date)] {
				available++
			}
		}
		capacity[personIdx] = float64(available)
	}

	for pass := 0; pass < smoothingPasses; pass++ {
		stats.NodesExplored++
		adjusted := false
		load := make([]float64, len(inst.People))
		for slotIdx := range slots {
			for personIdx := range inst.People {
				load[personIdx] += frac[slotIdx][personIdx]
			}
		}
		for personIdx := range inst.People {
			if load[personIdx] <= capacity[personIdx] || load[personIdx] == 0 {
				continue
			}
			scale := capacity[personIdx] / load[personIdx]
			for slotIdx := range slots {
				frac[slotIdx][personIdx] *= scale
			}
			adjusted = true
		}
		if !adjusted {
			break
		}
		// Renormalise rows so each slot's fractions stay a distribution.
		for slotIdx := range slots {
			var sum float64
			for personIdx := range inst.People {
				sum += frac[slotIdx][personIdx]
			}
			if sum > 0 {
				for personIdx := range inst.People {
					frac[slotIdx][personIdx] /= sum
				}
			}
		}
	}
	return frac
}
