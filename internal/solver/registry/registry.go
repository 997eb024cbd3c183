// Package registry maps strategy names to budget-driven solver construction,
// so callers state a budget instead of algorithm-specific knobs.
package registry

import (
	"sort"
	"strings"

	"github.com/copyleftdev/FJORD/internal/solver"
	"github.com/copyleftdev/FJORD/internal/solver/anneal"
	"github.com/copyleftdev/FJORD/internal/solver/evolib"
	"github.com/copyleftdev/FJORD/internal/solver/grid"
	"github.com/copyleftdev/FJORD/internal/solver/pswarm"
	"github.com/copyleftdev/FJORD/internal/solver/random"
	"github.com/copyleftdev/FJORD/internal/solver/simplex"
)

// Spec describes a solver request: which strategy, the search space (bounds
// for box-constrained strategies, a start point for seeded ones) and the
// evaluation budget the internal sizes are derived from.
type Spec struct {
	Strategy string
	Bounds   solver.Bounds
	Start    solver.Assignment
	NumEvals int
	Seed     int64
}

type entry struct {
	description string
	needsSeed   bool
	build       func(Spec) (solver.Solver, error)
}

var strategies = map[string]entry{
	"grid search": {
		description: "exhaustive search on an evenly spaced grid within the bounds",
		build: func(s Spec) (solver.Solver, error) {
			return grid.New(grid.SuggestFromBox(s.NumEvals, s.Bounds))
		},
	},
	"random search": {
		description: "uniform random sampling within the bounds",
		build: func(s Spec) (solver.Solver, error) {
			cfg := random.SuggestFromBox(s.NumEvals, s.Bounds)
			cfg.Seed = s.Seed
			return random.New(cfg)
		},
	},
	"nelder-mead": {
		description: "downhill simplex search from a starting point",
		needsSeed:   true,
		build: func(s Spec) (solver.Solver, error) {
			return simplex.New(simplex.SuggestFromSeed(s.NumEvals, s.Start))
		},
	},
	"particle swarm": {
		description: "particle swarm optimization within the bounds",
		build: func(s Spec) (solver.Solver, error) {
			cfg := pswarm.SuggestFromBox(s.NumEvals, s.Bounds)
			cfg.Seed = s.Seed
			return pswarm.New(cfg)
		},
	},
	"annealing": {
		description: "coupled simulated annealing within the bounds",
		build: func(s Spec) (solver.Solver, error) {
			cfg := anneal.SuggestFromBox(s.NumEvals, s.Bounds)
			cfg.Seed = s.Seed
			return anneal.New(cfg)
		},
	},
	"mayfly": {
		description: "mayfly evolutionary optimization (external library)",
		build: func(s Spec) (solver.Solver, error) {
			cfg := evolib.SuggestFromBox(s.NumEvals, s.Bounds)
			cfg.Seed = s.Seed
			return evolib.New(cfg)
		},
	},
}

// Names returns the registered strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns the one-line description of a registered strategy.
func Describe(name string) (string, bool) {
	e, ok := strategies[name]
	return e.description, ok
}

// Build constructs the solver named by the spec. The evaluation budget is
// translated into strategy-specific sizes via the strategy's own suggest
// helper; construction-time validation errors come back unchanged.
func Build(s Spec) (solver.Solver, error) {
	e, ok := strategies[s.Strategy]
	if !ok {
		return nil, solver.Newf("unknown strategy %q, have: %s", s.Strategy, strings.Join(Names(), ", ")).
			WithComponent("registry").WithOp("build")
	}
	if s.NumEvals < 1 {
		return nil, solver.Newf("evaluation budget must be positive, got %d", s.NumEvals).
			WithComponent("registry").WithOp("build")
	}
	if e.needsSeed {
		if len(s.Start) == 0 {
			return nil, solver.Newf("strategy %q needs a start point", s.Strategy).
				WithComponent("registry").WithOp("build")
		}
	} else if err := s.Bounds.Validate(); err != nil {
		return nil, err
	}
	return e.build(s)
}
