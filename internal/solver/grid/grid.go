// Package grid implements exhaustive search over the Cartesian product of
// per-parameter value lists.
package grid

import (
	"context"
	"math"
	"sort"

	"github.com/copyleftdev/FJORD/internal/solver"
)

// Config holds the candidate values for every parameter.
type Config struct {
	Values map[string][]float64
}

// GridSearch evaluates every combination of the configured values in a single
// batch and returns the best one. Enumeration order is deterministic (sorted
// parameter names, last name varying fastest), so ties go to the first
// combination found.
type GridSearch struct {
	names  []string
	values [][]float64
}

// New creates a grid search over the given value lists.
func New(cfg Config) (*GridSearch, error) {
	if len(cfg.Values) == 0 {
		return nil, solver.New("no parameter values given").WithComponent("grid").WithOp("new")
	}
	names := make([]string, 0, len(cfg.Values))
	for name, vals := range cfg.Values {
		if len(vals) == 0 {
			return nil, solver.Newf("parameter %q has no values", name).WithComponent("grid").WithOp("new")
		}
		names = append(names, name)
	}
	sort.Strings(names)
	values := make([][]float64, len(names))
	for i, name := range names {
		values[i] = append([]float64(nil), cfg.Values[name]...)
	}
	return &GridSearch{names: names, values: values}, nil
}

// SuggestFromBox derives a grid from an evaluation budget and box
// constraints: each parameter gets k evenly spaced points with k chosen so
// k^dim stays within the budget, never below one point per parameter.
func SuggestFromBox(numEvals int, bounds solver.Bounds) Config {
	dim := len(bounds)
	k := 1
	if dim > 0 && numEvals > 1 {
		k = int(math.Floor(math.Pow(float64(numEvals), 1.0/float64(dim))))
		if k < 1 {
			k = 1
		}
	}
	values := make(map[string][]float64, dim)
	for name, iv := range bounds {
		values[name] = linspace(iv[0], iv[1], k)
	}
	return Config{Values: values}
}

func linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{(lo + hi) / 2}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// Optimize enumerates the full Cartesian product and evaluates it in one
// batch.
func (g *GridSearch) Optimize(ctx context.Context, f solver.Objective, maximize bool, eval solver.Evaluator) (solver.Assignment, *solver.Report, error) {
	total := 1
	for _, vals := range g.values {
		total *= len(vals)
	}

	batch := make([]solver.Assignment, 0, total)
	idx := make([]int, len(g.names))
	for {
		point := make(solver.Assignment, len(g.names))
		for i, name := range g.names {
			point[name] = g.values[i][idx[i]]
		}
		batch = append(batch, point)

		// odometer over the value lists, last name fastest
		pos := len(idx) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(g.values[pos]) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
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
