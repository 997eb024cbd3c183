package random

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/FJORD/internal/solver"
)

func TestRandomSearchStaysInBounds(t *testing.T) {
	bounds := solver.Bounds{"x": {-3, 7}, "y": {0.5, 0.6}}

	for _, numEvals := range []int{1, 5, 50} {
		rs, err := New(Config{Bounds: bounds, NumEvals: numEvals, Seed: 1})
		require.NoError(t, err)

		capture := func(ctx context.Context, f solver.Objective, batch []solver.Assignment) ([]float64, error) {
			assert.Len(t, batch, numEvals)
			for _, a := range batch {
				for name, iv := range bounds {
					assert.GreaterOrEqual(t, a[name], iv[0])
					assert.LessOrEqual(t, a[name], iv[1])
				}
			}
			return solver.Sequential()(ctx, f, batch)
		}

		best, report, err := rs.Optimize(context.Background(), sphere, false, capture)
		require.NoError(t, err)
		assert.Nil(t, report)
		for name, iv := range bounds {
			assert.GreaterOrEqual(t, best[name], iv[0])
			assert.LessOrEqual(t, best[name], iv[1])
		}
	}
}

func TestRandomSearchDeterministicWithSeed(t *testing.T) {
	bounds := solver.Bounds{"x": {-1, 1}, "y": {-1, 1}}

	run := func() solver.Assignment {
		rs, err := New(Config{Bounds: bounds, NumEvals: 25, Seed: 99})
		require.NoError(t, err)
		best, _, err := rs.Optimize(context.Background(), sphere, false, solver.Sequential())
		require.NoError(t, err)
		return best
	}

	assert.Equal(t, run(), run())
}

func TestRandomSearchPicksExtremum(t *testing.T) {
	rs, err := New(Config{Bounds: solver.Bounds{"x": {0, 10}}, NumEvals: 40, Seed: 3})
	require.NoError(t, err)

	identity := func(a solver.Assignment) (float64, error) { return a["x"], nil }

	var samples []float64
	capture := func(ctx context.Context, f solver.Objective, batch []solver.Assignment) ([]float64, error) {
		for _, a := range batch {
			samples = append(samples, a["x"])
		}
		return solver.Sequential()(ctx, f, batch)
	}

	best, _, err := rs.Optimize(context.Background(), identity, true, capture)
	require.NoError(t, err)

	max := samples[0]
	for _, v := range samples[1:] {
		if v > max {
			max = v
		}
	}
	assert.Equal(t, max, best["x"])
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Bounds: solver.Bounds{"x": {1, 0}}})
	assert.Error(t, err)

	// zero budget falls back to the default
	rs, err := New(Config{Bounds: solver.Bounds{"x": {0, 1}}})
	require.NoError(t, err)
	assert.Equal(t, 100, rs.numEvals)
}

func sphere(a solver.Assignment) (float64, error) {
	sum := 0.0
	for _, v := range a {
		sum += v * v
	}
	return sum, nil
}
