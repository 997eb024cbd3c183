package simplex

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/FJORD/internal/solver"
)

func sphere(a solver.Assignment) (float64, error) {
	sum := 0.0
	for _, v := range a {
		sum += v * v
	}
	return sum, nil
}

func TestNelderMeadConvergesOnSphere(t *testing.T) {
	nm, err := New(Config{Start: solver.Assignment{"x": 1, "y": 1}})
	require.NoError(t, err)

	best, report, err := nm.Optimize(context.Background(), sphere, false, solver.Sequential())
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Less(t, math.Abs(best["x"]), 1e-3)
	assert.Less(t, math.Abs(best["y"]), 1e-3)
}

func TestNelderMeadMaximizes(t *testing.T) {
	peak := func(a solver.Assignment) (float64, error) {
		return -(a["x"]-2)*(a["x"]-2) - (a["y"]+1)*(a["y"]+1), nil
	}

	nm, err := New(Config{Start: solver.Assignment{"x": 0.5, "y": 0.5}})
	require.NoError(t, err)

	best, _, err := nm.Optimize(context.Background(), peak, true, solver.Sequential())
	require.NoError(t, err)
	assert.InDelta(t, 2, best["x"], 1e-2)
	assert.InDelta(t, -1, best["y"], 1e-2)
}

func TestNelderMeadIsDeterministic(t *testing.T) {
	run := func() solver.Assignment {
		nm, err := New(Config{Start: solver.Assignment{"x": 1, "y": 1}})
		require.NoError(t, err)
		best, _, err := nm.Optimize(context.Background(), sphere, false, solver.Sequential())
		require.NoError(t, err)
		return best
	}
	assert.Equal(t, run(), run())
}

func TestNelderMeadDefaults(t *testing.T) {
	nm, err := New(Config{Start: solver.Assignment{"a": 1, "b": 2, "c": 3}})
	require.NoError(t, err)
	assert.Equal(t, 1e-4, nm.ftol)
	assert.Equal(t, 600, nm.maxIter)
}

func TestNelderMeadIterationCapReturnsbest(t *testing.T) {
	// a cap this small cannot converge; the solver must still return the
	// best vertex seen so far
	nm, err := New(Config{Start: solver.Assignment{"x": 1, "y": 1}, MaxIter: 3})
	require.NoError(t, err)

	best, _, err := nm.Optimize(context.Background(), sphere, false, solver.Sequential())
	require.NoError(t, err)
	require.Contains(t, best, "x")
	require.Contains(t, best, "y")
	v, err := sphere(best)
	require.NoError(t, err)
	assert.LessOrEqual(t, v, 2.0, "must not be worse than the starting point area")
}

func TestNelderMeadErrorPropagates(t *testing.T) {
	boom := errors.New("no score")
	failing := func(solver.Assignment) (float64, error) { return 0, boom }

	nm, err := New(Config{Start: solver.Assignment{"x": 1}})
	require.NoError(t, err)

	_, _, err = nm.Optimize(context.Background(), failing, false, solver.Sequential())
	assert.ErrorIs(t, err, boom)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestReflect(t *testing.T) {
	x0 := []float64{1, 1}
	xw := []float64{3, 0}

	assert.Equal(t, []float64{-1, 2}, reflect(x0, xw, 1))    // reflection
	assert.Equal(t, []float64{-3, 3}, reflect(x0, xw, 2))    // expansion
	assert.Equal(t, []float64{2, 0.5}, reflect(x0, xw, -0.5)) // contraction
}

func TestSortSimplexIsStable(t *testing.T) {
	vertices := [][]float64{{1}, {2}, {3}, {4}}
	values := []float64{5, 2, 2, 1}

	sortSimplex(vertices, values)

	assert.Equal(t, []float64{1, 2, 2, 5}, values)
	assert.Equal(t, [][]float64{{4}, {2}, {3}, {1}}, vertices)
}
