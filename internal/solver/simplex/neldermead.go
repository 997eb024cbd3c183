// Package simplex implements Nelder-Mead downhill simplex search from a
// caller-supplied starting point.
package simplex

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/FJORD/internal/solver"
)

// Standard coefficients, as in Nelder and Mead (1965).
const (
	alpha = 1.0  // reflection
	gamma = 2.0  // expansion
	rho   = -0.5 // contraction
	sigma = 0.5  // shrink
)

// Initial simplex construction: relative perturbation for non-zero
// coordinates, absolute offset for zero ones.
const (
	nonZeroDelta = 0.05
	zeroDelta    = 0.00025
)

// Config holds the starting point and termination parameters.
type Config struct {
	// Start is the seed point the initial simplex is built around.
	Start solver.Assignment
	// FTol is the convergence tolerance on |best - worst| simplex values.
	// Defaults to 1e-4.
	FTol float64
	// MaxIter caps the number of iterations. Defaults to 200 per dimension.
	MaxIter int
}

// NelderMead evolves a simplex of dim+1 vertices, minimizing internally and
// negating the objective when maximizing. Termination returns the best vertex
// found even when the iteration cap is hit before convergence; it does not
// report convergence quality.
type NelderMead struct {
	names   []string
	start   []float64
	ftol    float64
	maxIter int
}

// New creates a Nelder-Mead solver seeded at cfg.Start.
func New(cfg Config) (*NelderMead, error) {
	if len(cfg.Start) == 0 {
		return nil, solver.New("no starting point given").WithComponent("simplex").WithOp("new")
	}
	if cfg.FTol <= 0 {
		cfg.FTol = 1e-4
	}
	if cfg.MaxIter < 1 {
		cfg.MaxIter = 200 * len(cfg.Start)
	}
	names := cfg.Start.Names()
	start := make([]float64, len(names))
	for i, name := range names {
		start[i] = cfg.Start[name]
	}
	return &NelderMead{
		names:   names,
		start:   start,
		ftol:    cfg.FTol,
		maxIter: cfg.MaxIter,
	}, nil
}

// SuggestFromSeed binds a starting point; the iteration cap already follows
// from the dimensionality, so the budget is not used.
func SuggestFromSeed(numEvals int, seed solver.Assignment) Config {
	return Config{Start: seed}
}

// Optimize runs the simplex search. Each probe point goes through the
// evaluator as a batch of one.
func (nm *NelderMead) Optimize(ctx context.Context, f solver.Objective, maximize bool, eval solver.Evaluator) (solver.Assignment, *solver.Report, error) {
	probe := func(x []float64) (float64, error) {
		scores, err := eval(ctx, f, []solver.Assignment{solver.ToAssignment(nm.names, x)})
		if err != nil {
			return 0, err
		}
		if maximize {
			return -scores[0], nil
		}
		return scores[0], nil
	}

	n := len(nm.start)
	vertices := make([][]float64, 0, n+1)
	values := make([]float64, 0, n+1)

	x0 := append([]float64(nil), nm.start...)
	v0, err := probe(x0)
	if err != nil {
		return nil, nil, err
	}
	vertices = append(vertices, x0)
	values = append(values, v0)

	for k := 0; k < n; k++ {
		vert := append([]float64(nil), x0...)
		if vert[k] != 0 {
			vert[k] *= 1 + nonZeroDelta
		} else {
			vert[k] = zeroDelta
		}
		fv, err := probe(vert)
		if err != nil {
			return nil, nil, err
		}
		vertices = append(vertices, vert)
		values = append(values, fv)
	}

	for iter := 1; iter < nm.maxIter; iter++ {
		sortSimplex(vertices, values)

		if math.Abs(values[0]-values[n]) <= nm.ftol {
			break
		}

		centroid := simplexCenter(vertices[:n])

		// reflect
		xr := reflect(centroid, vertices[n], alpha)
		fr, err := probe(xr)
		if err != nil {
			return nil, nil, err
		}
		if values[0] < fr && fr < values[n-1] {
			vertices[n], values[n] = xr, fr
			continue
		}

		// expand
		if fr < values[0] {
			xe := reflect(centroid, vertices[n], gamma)
			fe, err := probe(xe)
			if err != nil {
				return nil, nil, err
			}
			if fe < fr {
				vertices[n], values[n] = xe, fe
			} else {
				vertices[n], values[n] = xr, fr
			}
			continue
		}

		// contract
		xc := reflect(centroid, vertices[n], rho)
		fc, err := probe(xc)
		if err != nil {
			return nil, nil, err
		}
		if fc < values[n] {
			vertices[n], values[n] = xc, fc
			continue
		}

		// shrink toward the best vertex, re-evaluating every moved vertex
		for i := 1; i <= n; i++ {
			vertices[i] = reflect(vertices[0], vertices[i], sigma)
			values[i], err = probe(vertices[i])
			if err != nil {
				return nil, nil, err
			}
		}
	}

	bestIdx := 0
	for i := 1; i < len(values); i++ {
		if values[i] < values[bestIdx] {
			bestIdx = i
		}
	}
	return solver.ToAssignment(nm.names, vertices[bestIdx]), nil, nil
}

// reflect returns x0 + coeff*(x0 - xw).
func reflect(x0, xw []float64, coeff float64) []float64 {
	diff := make([]float64, len(x0))
	floats.SubTo(diff, x0, xw)
	out := append([]float64(nil), x0...)
	floats.AddScaled(out, coeff, diff)
	return out
}

func simplexCenter(vertices [][]float64) []float64 {
	center := make([]float64, len(vertices[0]))
	for _, v := range vertices {
		floats.Add(center, v)
	}
	floats.Scale(1/float64(len(vertices)), center)
	return center
}

// sortSimplex orders vertices and values ascending by value. The sort is
// stable so equal-valued vertices keep their relative order.
func sortSimplex(vertices [][]float64, values []float64) {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	sortedVerts := make([][]float64, len(vertices))
	sortedVals := make([]float64, len(values))
	for i, j := range idx {
		sortedVerts[i] = vertices[j]
		sortedVals[i] = values[j]
	}
	copy(vertices, sortedVerts)
	copy(values, sortedVals)
}
