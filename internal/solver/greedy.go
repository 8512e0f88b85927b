package solver

import (
	"context"
	"time"

	"github.com/noah-isme/gme-rota-api/internal/models"
)

// greedySolver assigns each demand slot to the best-scoring eligible person
// in a single pass with no backtracking. Fast, may leave coverage gaps.
type greedySolver struct{}

func (g *greedySolver) Name() string { return AlgorithmGreedy }

func (g *greedySolver) Solve(ctx context.Context, inst *Instance) (*Candidate, models.SolverStats, error) {
	start := time.Now()
	st := newState(inst)
	slots := openSlots(inst)

	stats := models.SolverStats{Algorithm: AlgorithmGreedy, SlotsTotal: len(slots)}

	for _, slot := range slots {
		select {
		case <-ctx.Done():
			stats.TimedOut = true
		default:
		}
		if stats.TimedOut {
			st.gaps = append(st.gaps, slot)
			continue
		}
		stats.NodesExplored++
		candidates := st.rankCandidates(slot)
		if len(candidates) == 0 {
			st.gaps = append(st.gaps, slot)
			continue
		}
		best := candidates[0]
		st.place(inst.People[best.personIdx], slot, best.score)
	}

	stats.SlotsFilled = len(st.assignments)
	stats.BestScore = st.score
	stats.ElapsedMillis = time.Since(start).Milliseconds()

	return &Candidate{Assignments: st.assignments, Gaps: st.gaps, Score: st.score}, stats, nil
}
