package registry

import (
	"context"
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

func TestNames(t *testing.T) {
	names := Names()
	assert.Equal(t, []string{"annealing", "grid search", "mayfly", "nelder-mead", "particle swarm", "random search"}, names)

	for _, name := range names {
		desc, ok := Describe(name)
		assert.True(t, ok)
		assert.NotEmpty(t, desc)
	}
}

func TestBuildBoxStrategies(t *testing.T) {
	bounds := solver.Bounds{"x": {-1, 1}, "y": {-1, 1}}

	for _, name := range []string{"grid search", "random search", "particle swarm", "annealing"} {
		t.Run(name, func(t *testing.T) {
			s, err := Build(Spec{Strategy: name, Bounds: bounds, NumEvals: 30, Seed: 5})
			require.NoError(t, err)

			best, _, err := s.Optimize(context.Background(), sphere, false, solver.Sequential())
			require.NoError(t, err)
			assert.Contains(t, best, "x")
			assert.Contains(t, best, "y")
		})
	}
}

func TestBuildNelderMead(t *testing.T) {
	s, err := Build(Spec{Strategy: "nelder-mead", Start: solver.Assignment{"x": 1, "y": 1}, NumEvals: 100})
	require.NoError(t, err)

	best, _, err := s.Optimize(context.Background(), sphere, false, solver.Sequential())
	require.NoError(t, err)
	assert.InDelta(t, 0, best["x"], 1e-2)
	assert.InDelta(t, 0, best["y"], 1e-2)
}

func TestBuildRejectsBadSpecs(t *testing.T) {
	bounds := solver.Bounds{"x": {0, 1}}

	_, err := Build(Spec{Strategy: "no such thing", Bounds: bounds, NumEvals: 10})
	assert.Error(t, err)

	_, err = Build(Spec{Strategy: "particle swarm", Bounds: bounds, NumEvals: 0})
	assert.Error(t, err)

	_, err = Build(Spec{Strategy: "nelder-mead", NumEvals: 10})
	assert.Error(t, err)

	_, err = Build(Spec{Strategy: "random search", Bounds: solver.Bounds{"x": {2, 1}}, NumEvals: 10})
	assert.Error(t, err)
}
