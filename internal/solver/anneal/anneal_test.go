package anneal

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

func TestBestIsBestEverLogged(t *testing.T) {
	csa, err := New(Config{
		Bounds:         solver.Bounds{"x": {-5, 5}, "y": {-5, 5}},
		NumProcesses:   8,
		NumGenerations: 25,
		Seed:           17,
	})
	require.NoError(t, err)

	best, report, err := csa.Optimize(context.Background(), sphere, false, solver.Sequential())
	require.NoError(t, err)
	require.NotNil(t, report)

	bestValue, err := sphere(best)
	require.NoError(t, err)
	for _, cand := range report.Log {
		assert.LessOrEqual(t, bestValue, cand.Value,
			"returned assignment must be at least as good as every logged proposal")
	}
}

func TestBestIsBestEverLoggedMaximize(t *testing.T) {
	negSphere := func(a solver.Assignment) (float64, error) {
		v, _ := sphere(a)
		return -v, nil
	}

	csa, err := New(Config{
		Bounds:         solver.Bounds{"x": {-2, 2}},
		NumProcesses:   5,
		NumGenerations: 15,
		Seed:           23,
	})
	require.NoError(t, err)

	best, report, err := csa.Optimize(context.Background(), negSphere, true, solver.Sequential())
	require.NoError(t, err)

	bestValue, err := negSphere(best)
	require.NoError(t, err)
	for _, cand := range report.Log {
		assert.GreaterOrEqual(t, bestValue, cand.Value)
	}
}

func TestLogCoversEveryEvaluation(t *testing.T) {
	const (
		processes   = 6
		generations = 10
	)
	csa, err := New(Config{
		Bounds:         solver.Bounds{"x": {-1, 1}},
		NumProcesses:   processes,
		NumGenerations: generations,
		Seed:           3,
	})
	require.NoError(t, err)

	_, report, err := csa.Optimize(context.Background(), sphere, false, solver.Sequential())
	require.NoError(t, err)
	assert.Len(t, report.Log, processes*generations)
}

func TestSingleGenerationIsOneBatch(t *testing.T) {
	csa, err := New(Config{
		Bounds:         solver.Bounds{"x": {-1, 1}},
		NumProcesses:   4,
		NumGenerations: 1,
		Seed:           9,
	})
	require.NoError(t, err)

	calls := 0
	counting := func(ctx context.Context, f solver.Objective, batch []solver.Assignment) ([]float64, error) {
		calls++
		assert.Len(t, batch, 4)
		return solver.Sequential()(ctx, f, batch)
	}

	_, report, err := csa.Optimize(context.Background(), sphere, false, counting)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, report.Log, 4)
}

func TestDeterministicWithSeed(t *testing.T) {
	run := func() (solver.Assignment, []solver.Candidate) {
		csa, err := New(Config{
			Bounds:         solver.Bounds{"x": {-3, 3}, "y": {-3, 3}},
			NumProcesses:   5,
			NumGenerations: 12,
			Seed:           77,
		})
		require.NoError(t, err)
		best, report, err := csa.Optimize(context.Background(), sphere, false, solver.Sequential())
		require.NoError(t, err)
		return best, report.Log
	}

	bestA, logA := run()
	bestB, logB := run()
	assert.Equal(t, bestA, bestB)
	assert.Equal(t, logA, logB)
}

func TestTemperatureSchedules(t *testing.T) {
	csa, err := New(Config{
		Bounds:         solver.Bounds{"x": {0, 1}},
		NumProcesses:   2,
		NumGenerations: 2,
		T0:             10,
		Tacc0:          4,
	})
	require.NoError(t, err)

	assert.Equal(t, 10.0, csa.temperature(0))
	assert.Equal(t, 5.0, csa.temperature(1))
	assert.InDelta(t, 10.0/3.0, csa.temperature(2), 1e-12)

	assert.Equal(t, 4.0, csa.acceptTemperature(0))
	assert.Greater(t, csa.acceptTemperature(1), csa.acceptTemperature(2))
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Bounds: solver.Bounds{"x": {1, 0}}, NumProcesses: 2, NumGenerations: 2})
	assert.Error(t, err)

	_, err = New(Config{Bounds: solver.Bounds{"x": {0, 1}}, NumProcesses: 0, NumGenerations: 2})
	assert.Error(t, err)

	_, err = New(Config{Bounds: solver.Bounds{"x": {0, 1}}, NumProcesses: 2, NumGenerations: 0})
	assert.Error(t, err)
}

func TestSuggestFromBox(t *testing.T) {
	bounds := solver.Bounds{"x": {0, 1}}

	cfg := SuggestFromBox(201, bounds)
	assert.Equal(t, 50, cfg.NumProcesses)
	assert.Equal(t, 5, cfg.NumGenerations)

	cfg = SuggestFromBox(100, bounds)
	assert.Equal(t, 10, cfg.NumProcesses)
	assert.Equal(t, 10, cfg.NumGenerations)

	cfg = SuggestFromBox(10, bounds)
	assert.Equal(t, 10, cfg.NumProcesses)
	assert.Equal(t, 1, cfg.NumGenerations)
}
