// Package solver defines the contracts shared by every search strategy:
// parameter bounds and assignments, the batch Evaluator, and the Solver
// interface itself. Concrete strategies live in subpackages.
package solver

import (
	"context"
	"math/rand"
	"sort"
	"time"
)

// Assignment maps parameter names to concrete values. An assignment always
// covers exactly the names declared in the bounds or seed a solver was
// constructed with.
type Assignment map[string]float64

// Clone returns an independent copy of the assignment.
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Names returns the parameter names in sorted order.
func (a Assignment) Names() []string {
	names := make([]string, 0, len(a))
	for k := range a {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Bounds maps parameter names to [lower, upper] box constraints.
type Bounds map[string][2]float64

// Validate checks that the bounds are non-empty and every interval satisfies
// lower <= upper. Malformed bounds are never silently corrected.
func (b Bounds) Validate() error {
	if len(b) == 0 {
		return New("no parameter bounds given").WithOp("validate")
	}
	for name, iv := range b {
		if iv[0] > iv[1] {
			return Newf("bound for %q has lower %v > upper %v", name, iv[0], iv[1]).WithOp("validate")
		}
	}
	return nil
}

// Names returns the parameter names in sorted order. Every solver iterates
// parameters in this order so runs with a fixed seed are reproducible.
func (b Bounds) Names() []string {
	names := make([]string, 0, len(b))
	for k := range b {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Arrays returns the sorted names with their lower and upper bounds as
// parallel slices, the vector form solvers work in internally.
func (b Bounds) Arrays() (names []string, lo, hi []float64) {
	names = b.Names()
	lo = make([]float64, len(names))
	hi = make([]float64, len(names))
	for i, name := range names {
		lo[i] = b[name][0]
		hi[i] = b[name][1]
	}
	return names, lo, hi
}

// ToAssignment pairs a coordinate vector with its parameter names.
func ToAssignment(names []string, x []float64) Assignment {
	a := make(Assignment, len(names))
	for i, name := range names {
		a[name] = x[i]
	}
	return a
}

// Objective scores one parameter assignment.
type Objective func(Assignment) (float64, error)

// Candidate is an evaluated parameter assignment.
type Candidate struct {
	Params Assignment `json:"params"`
	Value  float64    `json:"value"`
}

// Report is the optional diagnostic structure returned by Optimize. Only the
// coupled annealing strategy fills it in; for all others it is nil.
type Report struct {
	// Log holds every evaluated candidate, including rejected ones.
	Log []Candidate `json:"log"`
}

// Solver is the contract every search strategy implements. Optimize returns
// the best assignment found and an optional diagnostic report. An error from
// the objective or evaluator propagates out unmodified; solvers perform no
// retries or partial-failure recovery.
type Solver interface {
	Optimize(ctx context.Context, f Objective, maximize bool, eval Evaluator) (Assignment, *Report, error)
}

// Maximize runs s in maximization mode.
func Maximize(ctx context.Context, s Solver, f Objective, eval Evaluator) (Assignment, *Report, error) {
	return s.Optimize(ctx, f, true, eval)
}

// Minimize runs s in minimization mode.
func Minimize(ctx context.Context, s Solver, f Objective, eval Evaluator) (Assignment, *Report, error) {
	return s.Optimize(ctx, f, false, eval)
}

// NewRand returns the random source used by the stochastic strategies.
// A zero seed yields a time-based, non-reproducible source; any other seed
// gives reproducible draws. The source is owned by one solver instance and is
// never re-seeded mid-run.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
