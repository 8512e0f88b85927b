package solver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noah-isme/gme-rota-api/internal/models"
)

// propagationSolver runs a systematic depth-first search over demand slots
// with bounded branching and optimistic-bound pruning. Independent root
// branches are explored in parallel; workers converge on a single incumbent
// guarded by a mutex, so the shared best is never raced.
type propagationSolver struct {
	opts Options
}

func (p *propagationSolver) Name() string { return AlgorithmPropagation }

// incumbent is the best-known solution, ordered by coverage first and score
// second.
type incumbent struct {
	mu        sync.Mutex
	candidate *Candidate
}

func (inc *incumbent) offer(c *Candidate) {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	if inc.candidate == nil || betterCandidate(c, inc.candidate) {
		inc.candidate = c
	}
}

func (inc *incumbent) filled() int {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	if inc.candidate == nil {
		return -1
	}
	return len(inc.candidate.Assignments)
}

func (inc *incumbent) best() *Candidate {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	return inc.candidate
}

func betterCandidate(a, b *Candidate) bool {
	if len(a.Assignments) != len(b.Assignments) {
		return len(a.Assignments) > len(b.Assignments)
	}
	return a.Score > b.Score
}

func (p *propagationSolver) Solve(ctx context.Context, inst *Instance) (*Candidate, models.SolverStats, error) {
	start := time.Now()
	slots := openSlots(inst)
	stats := models.SolverStats{Algorithm: AlgorithmPropagation, SlotsTotal: len(slots)}

	inc := &incumbent{}
	var nodes atomic.Int64
	var timedOut atomic.Bool

	// Root branching: each worker starts from a different candidate choice
	// for the first slot (or from the unfilled root when there are more
	// workers than root candidates).
	rootChoices := p.rootChoices(inst, slots)
	workers := p.opts.Workers
	if workers > len(rootChoices) {
		workers = len(rootChoices)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(choices []int) {
			defer wg.Done()
			st := newState(inst)
			walker := &dfsWalker{
				inst:     inst,
				slots:    slots,
				opts:     p.opts,
				inc:      inc,
				nodes:    &nodes,
				timedOut: &timedOut,
				ctx:      ctx,
			}
			walker.search(st, 0, choices)
		}(rootChoices[w])
	}
	wg.Wait()

	stats.NodesExplored = nodes.Load()
	stats.TimedOut = timedOut.Load()
	stats.ElapsedMillis = time.Since(start).Milliseconds()

	best := inc.best()
	if best == nil {
		best = &Candidate{Gaps: slots}
	}
	stats.SlotsFilled = len(best.Assignments)
	stats.BestScore = best.Score
	return best, stats, nil
}

// rootChoices partitions the first slot's candidate indices across workers.
func (p *propagationSolver) rootChoices(inst *Instance, slots []Slot) [][]int {
	if len(slots) == 0 {
		return [][]int{nil}
	}
	st := newState(inst)
	candidates := st.rankCandidates(slots[0])
	limit := p.opts.BranchLimit
	if limit > len(candidates) {
		limit = len(candidates)
	}
	if limit == 0 {
		return [][]int{nil}
	}
	workers := p.opts.Workers
	if workers > limit {
		workers = limit
	}
	parts := make([][]int, workers)
	for i := 0; i < limit; i++ {
		parts[i%workers] = append(parts[i%workers], candidates[i].personIdx)
	}
	return parts
}

type dfsWalker struct {
	inst     *Instance
	slots    []Slot
	opts     Options
	inc      *incumbent
	nodes    *atomic.Int64
	timedOut *atomic.Bool
	ctx      context.Context
}

func (w *dfsWalker) expired() bool {
	if w.timedOut.Load() {
		return true
	}
	if w.nodes.Load()%64 == 0 {
		select {
		case <-w.ctx.Done():
			w.timedOut.Store(true)
			return true
		default:
		}
	}
	return false
}

// search walks slots in order. rootRestrict pins the candidate set for the
// first slot so parallel workers explore disjoint subtrees.
func (w *dfsWalker) search(st *state, depth int, rootRestrict []int) {
	if w.expired() {
		w.snapshot(st, depth)
		return
	}
	if depth == len(w.slots) {
		w.snapshot(st, depth)
		return
	}

	// Optimistic bound: even filling every remaining slot cannot beat the
	// incumbent's coverage, so prune the subtree.
	if len(st.assignments)+(len(w.slots)-depth) < w.inc.filled() {
		return
	}

	w.nodes.Add(1)
	slot := w.slots[depth]
	candidates := st.rankCandidates(slot)

	if rootRestrict != nil {
		candidates = filterByPerson(candidates, rootRestrict)
	}
	limit := w.opts.BranchLimit
	if limit > len(candidates) {
		limit = len(candidates)
	}

	if len(candidates) == 0 {
		st.gaps = append(st.gaps, slot)
		w.search(st, depth+1, nil)
		st.gaps = st.gaps[:len(st.gaps)-1]
		return
	}

	for i := 0; i < limit; i++ {
		c := candidates[i]
		a := st.place(w.inst.People[c.personIdx], slot, c.score)
		w.search(st, depth+1, nil)
		st.unplace(a, slot, c.score)
		if w.timedOut.Load() {
			return
		}
	}

	// When the slot is tight, also try leaving it open; this lets the search
	// trade one stubborn slot for several later ones.
	if len(candidates) <= w.opts.BranchLimit {
		st.gaps = append(st.gaps, slot)
		w.search(st, depth+1, nil)
		st.gaps = st.gaps[:len(st.gaps)-1]
	}
}

func (w *dfsWalker) snapshot(st *state, depth int) {
	assignments := make([]models.Assignment, len(st.assignments))
	copy(assignments, st.assignments)
	gaps := make([]Slot, len(st.gaps))
	copy(gaps, st.gaps)
	// Slots never reached count as gaps in the snapshot.
	for i := depth; i < len(w.slots); i++ {
		gaps = append(gaps, w.slots[i])
	}
	w.inc.offer(&Candidate{Assignments: assignments, Gaps: gaps, Score: st.score})
}

func filterByPerson(candidates []ranked, allowed []int) []ranked {
	allowedSet := make(map[int]bool, len(allowed))
	for _, idx := range allowed {
		allowedSet[idx] = true
	}
	var out []ranked
	for _, c := range candidates {
		if allowedSet[c.personIdx] {
			out = append(out, c)
		}
	}
	return out
}
