// Package evolib adapts the external mayfly evolutionary optimizer to the
// Solver interface. It is a thin binding: all search behavior belongs to the
// library, this package only translates the contracts.
package evolib

import (
	"context"
	"math"

	"github.com/cwbudde/mayfly"

	"github.com/copyleftdev/FJORD/internal/solver"
)

// Config holds the box constraints and the library's sizing knobs.
type Config struct {
	Bounds solver.Bounds
	// MaxIterations caps the library's generations. Defaults to 100.
	MaxIterations int
	// Population is the library's population size. Defaults to 30.
	Population int
	// Seed for the random source; zero means time-based.
	Seed int64
}

// Mayfly runs the external mayfly algorithm over the given bounds. The
// library works on a single scalar bound pair, so the widest box across all
// parameters is used.
type Mayfly struct {
	names         []string
	lo, hi        float64
	maxIterations int
	population    int
	seed          int64
}

// New creates a mayfly-backed solver.
func New(cfg Config) (*Mayfly, error) {
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, solver.Wrap(err, "invalid bounds").WithComponent("evolib").WithOp("new")
	}
	if cfg.MaxIterations < 1 {
		cfg.MaxIterations = 100
	}
	if cfg.Population < 1 {
		cfg.Population = 30
	}
	names, lo, hi := cfg.Bounds.Arrays()
	lowest, highest := lo[0], hi[0]
	for i := 1; i < len(names); i++ {
		lowest = math.Min(lowest, lo[i])
		highest = math.Max(highest, hi[i])
	}
	return &Mayfly{
		names:         names,
		lo:            lowest,
		hi:            highest,
		maxIterations: cfg.MaxIterations,
		population:    cfg.Population,
		seed:          cfg.Seed,
	}, nil
}

// SuggestFromBox sizes the library run from an evaluation budget using the
// same thresholds as the in-house population solvers.
func SuggestFromBox(numEvals int, bounds solver.Bounds) Config {
	cfg := Config{Bounds: bounds}
	switch {
	case numEvals > 200:
		cfg.Population = 50
		cfg.MaxIterations = int(math.Ceil(float64(numEvals) / 50))
	case numEvals > 10:
		cfg.Population = 10
		cfg.MaxIterations = int(math.Ceil(float64(numEvals) / 10))
	default:
		cfg.Population = numEvals
		cfg.MaxIterations = 1
	}
	return cfg
}

// Optimize delegates the search to the library. Each objective call the
// library makes is routed through the injected evaluator as a batch of one;
// the library minimizes, so scores are negated when maximizing. An error from
// the objective aborts the search and is returned after the library finishes.
func (m *Mayfly) Optimize(ctx context.Context, f solver.Objective, maximize bool, eval solver.Evaluator) (solver.Assignment, *solver.Report, error) {
	sign := 1.0
	if maximize {
		sign = -1.0
	}

	var evalErr error
	cfg := mayfly.NewDefaultConfig()
	cfg.ObjectiveFunc = func(x []float64) float64 {
		if evalErr != nil {
			return math.Inf(1)
		}
		scores, err := eval(ctx, f, []solver.Assignment{solver.ToAssignment(m.names, x)})
		if err != nil {
			evalErr = err
			return math.Inf(1)
		}
		return sign * scores[0]
	}
	cfg.ProblemSize = len(m.names)
	cfg.MaxIterations = m.maxIterations
	cfg.NPop = m.population
	cfg.LowerBound = m.lo
	cfg.UpperBound = m.hi
	cfg.Rand = solver.NewRand(m.seed)

	result, err := mayfly.Optimize(cfg)
	if evalErr != nil {
		return nil, nil, evalErr
	}
	if err != nil {
		return nil, nil, solver.Wrap(err, "mayfly run failed").WithComponent("evolib").WithOp("optimize")
	}
	return solver.ToAssignment(m.names, result.GlobalBest.Position), nil, nil
}
