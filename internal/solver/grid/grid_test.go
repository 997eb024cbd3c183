package grid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/FJORD/internal/solver"
)

func TestGridSearchFindsExactExtremum(t *testing.T) {
	gs, err := New(Config{Values: map[string][]float64{
		"x": {1, 2, 3},
		"y": {-1, 0, 1},
	}})
	require.NoError(t, err)

	product := func(a solver.Assignment) (float64, error) { return a["x"] * a["y"], nil }

	best, report, err := gs.Optimize(context.Background(), product, true, solver.Sequential())
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Equal(t, solver.Assignment{"x": 3, "y": 1}, best)

	best, _, err = gs.Optimize(context.Background(), product, false, solver.Sequential())
	require.NoError(t, err)
	assert.Equal(t, solver.Assignment{"x": 3, "y": -1}, best)
}

func TestGridSearchTiesGoToFirstCombination(t *testing.T) {
	gs, err := New(Config{Values: map[string][]float64{
		"x": {1, 2, 3},
		"y": {-1, 0, 1},
	}})
	require.NoError(t, err)

	constant := func(solver.Assignment) (float64, error) { return 0, nil }

	// enumeration is sorted names with the last varying fastest, so the
	// first combination is the smallest value of each list
	best, _, err := gs.Optimize(context.Background(), constant, true, solver.Sequential())
	require.NoError(t, err)
	assert.Equal(t, solver.Assignment{"x": 1, "y": -1}, best)
}

func TestGridSearchSingleBatch(t *testing.T) {
	gs, err := New(Config{Values: map[string][]float64{
		"x": {1, 2},
		"y": {3, 4},
		"z": {5, 6, 7},
	}})
	require.NoError(t, err)

	calls := 0
	var seen int
	counting := func(ctx context.Context, f solver.Objective, batch []solver.Assignment) ([]float64, error) {
		calls++
		seen = len(batch)
		return solver.Sequential()(ctx, f, batch)
	}

	_, _, err = gs.Optimize(context.Background(), func(solver.Assignment) (float64, error) { return 0, nil }, false, counting)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2*2*3, seen)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Values: map[string][]float64{"x": {}}})
	assert.Error(t, err)
}

func TestSuggestFromBox(t *testing.T) {
	bounds := solver.Bounds{"x": {0, 1}, "y": {-2, 2}}

	cfg := SuggestFromBox(9, bounds)
	assert.Equal(t, []float64{0, 0.5, 1}, cfg.Values["x"])
	assert.Equal(t, []float64{-2, 0, 2}, cfg.Values["y"])

	// tiny budgets collapse to the interval midpoint
	cfg = SuggestFromBox(1, bounds)
	assert.Equal(t, []float64{0.5}, cfg.Values["x"])
	assert.Equal(t, []float64{0}, cfg.Values["y"])
}
