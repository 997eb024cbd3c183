package server

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/copyleftdev/FJORD/internal/solver"
)

var (
	solvesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fjord_solves_started_total",
		Help: "Number of solve jobs started.",
	})
	solvesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fjord_solves_finished_total",
		Help: "Number of solve jobs finished, by terminal status.",
	}, []string{"status"})
	evaluations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fjord_objective_evaluations_total",
		Help: "Number of objective function evaluations performed.",
	})
)

// instrument wraps an evaluator so every evaluated candidate is counted.
func instrument(eval solver.Evaluator) solver.Evaluator {
	return func(ctx context.Context, f solver.Objective, batch []solver.Assignment) ([]float64, error) {
		evaluations.Add(float64(len(batch)))
		return eval(ctx, f, batch)
	}
}
