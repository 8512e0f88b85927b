package solver

import (
	"context"
	"time"

	"github.com/noah-isme/gme-rota-api/internal/models"
)

// hybridSolver runs the relaxation solver for a slice of the budget to get a
// high-quality warm start, then hands the remaining time to the propagation
// search seeded with that start. Whichever candidate covers more wins.
type hybridSolver struct {
	opts Options
}

// warmStartShare is the fraction of the budget given to the relaxation phase.
const warmStartShare = 0.3

func (h *hybridSolver) Name() string { return AlgorithmHybrid }

func (h *hybridSolver) Solve(ctx context.Context, inst *Instance) (*Candidate, models.SolverStats, error) {
	start := time.Now()
	stats := models.SolverStats{Algorithm: AlgorithmHybrid}

	warmCtx := ctx
	var cancel context.CancelFunc
	if deadline, ok := ctx.Deadline(); ok {
		budget := time.Until(deadline)
		warmCtx, cancel = context.WithTimeout(ctx, time.Duration(float64(budget)*warmStartShare))
	}
	relaxed, relaxStats, err := (&relaxationSolver{}).Solve(warmCtx, inst)
	if cancel != nil {
		cancel()
	}
	if err != nil {
		return nil, stats, err
	}

	// Warm start: the relaxation's assignments become part of the fixed
	// schedule; propagation only searches what is still open.
	seeded := *inst
	seeded.Existing = append(append([]models.Assignment{}, inst.Existing...), relaxed.Assignments...)

	refined, propStats, err := (&propagationSolver{opts: h.opts}).Solve(ctx, &seeded)
	if err != nil {
		return nil, stats, err
	}

	combined := &Candidate{
		Assignments: append(append([]models.Assignment{}, relaxed.Assignments...), refined.Assignments...),
		Gaps:        refined.Gaps,
		Score:       relaxed.Score + refined.Score,
	}
	best := combined
	if betterCandidate(relaxed, combined) {
		best = relaxed
	}

	stats.SlotsTotal = relaxStats.SlotsTotal
	stats.SlotsFilled = len(best.Assignments)
	stats.NodesExplored = relaxStats.NodesExplored + propStats.NodesExplored
	stats.Repairs = relaxStats.Repairs
	stats.BestScore = best.Score
	stats.TimedOut = relaxStats.TimedOut || propStats.TimedOut
	stats.ElapsedMillis = time.Since(start).Milliseconds()
	return best, stats, nil
}
