// Package solver implements the interchangeable schedule search strategies
// behind a single Solve interface. Algorithms are a closed set; callers pick
// one by name and supply a context deadline as the time budget.
package solver

import (
	"context"
	"fmt"

	"github.com/noah-isme/gme-rota-api/internal/models"
)

// Algorithm names accepted by New.
const (
	AlgorithmGreedy      = "greedy"
	AlgorithmPropagation = "propagation"
	AlgorithmRelaxation  = "relaxation"
	AlgorithmHybrid      = "hybrid"
)

// Options tunes search behaviour shared across algorithms.
type Options struct {
	// Workers bounds parallel branch exploration in the propagation search.
	Workers int
	// BranchLimit caps the number of candidates tried per demand slot.
	BranchLimit int
}

func (o Options) normalized() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.BranchLimit <= 0 {
		o.BranchLimit = 3
	}
	return o
}

// Solver is the single interface every algorithm satisfies. Solve honours
// the context deadline as a hard budget and returns the best candidate found
// so far rather than discarding work on expiry.
type Solver interface {
	Name() string
	Solve(ctx context.Context, inst *Instance) (*Candidate, models.SolverStats, error)
}

// New returns the solver for the named algorithm.
func New(algorithm string, opts Options) (Solver, error) {
	opts = opts.normalized()
	switch algorithm {
	case AlgorithmGreedy:
		return &greedySolver{}, nil
	case AlgorithmPropagation:
		return &propagationSolver{opts: opts}, nil
	case AlgorithmRelaxation:
		return &relaxationSolver{}, nil
	case AlgorithmHybrid:
		return &hybridSolver{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown algorithm %q", algorithm)
	}
}

// Known reports whether the algorithm name is a member of the closed set.
func Known(algorithm string) bool {
	switch algorithm {
	case AlgorithmGreedy, AlgorithmPropagation, AlgorithmRelaxation, AlgorithmHybrid:
		return true
	}
	return false
}
