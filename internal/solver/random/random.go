// Package random implements uniform random search within box constraints, as
// described by Bergstra and Bengio (JMLR 2012).
package random

import (
	"context"
	"math/rand"

	"github.com/copyleftdev/FJORD/internal/solver"
)

// Config holds the box constraints and evaluation budget.
type Config struct {
	Bounds   solver.Bounds
	NumEvals int
	// Seed for the random source; zero means time-based.
	Seed int64
}

// RandomSearch draws NumEvals independent uniform samples within the bounds,
// evaluates them in a single batch and returns the best. Ties go to the first
// sample drawn.
type RandomSearch struct {
	names    []string
	lo, hi   []float64
	numEvals int
	rng      *rand.Rand
}

// New creates a random search over the given bounds.
func New(cfg Config) (*RandomSearch, error) {
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, solver.Wrap(err, "invalid bounds").WithComponent("random").WithOp("new")
	}
	if cfg.NumEvals < 1 {
		cfg.NumEvals = 100
	}
	names, lo, hi := cfg.Bounds.Arrays()
	return &RandomSearch{
		names:    names,
		lo:       lo,
		hi:       hi,
		numEvals: cfg.NumEvals,
		rng:      solver.NewRand(cfg.Seed),
	}, nil
}

// SuggestFromBox binds an evaluation budget to box constraints.
func SuggestFromBox(numEvals int, bounds solver.Bounds) Config {
	return Config{Bounds: bounds, NumEvals: numEvals}
}

// Optimize samples and evaluates the whole budget in one batch.
func (r *RandomSearch) Optimize(ctx context.Context, f solver.Objective, maximize bool, eval solver.Evaluator) (solver.Assignment, *solver.Report, error) {
	batch := make([]solver.Assignment, r.numEvals)
	for i := range batch {
		point := make(solver.Assignment, len(r.names))
		for j, name := range r.names {
			point[name] = r.lo[j] + r.rng.Float64()*(r.hi[j]-r.lo[j])
		}
		batch[i] = point
	}

	scores, err := eval(ctx, f, batch)
	if err != nil {
		return nil, nil, err
	}

	bestIdx := 0
	for i := 1; i < len(scores); i++ {
		if maximize && scores[i] > scores[bestIdx] {
			bestIdx = i
		} else if !maximize && scores[i] < scores[bestIdx] {
			bestIdx = i
		}
	}
	return batch[bestIdx], nil, nil
}
