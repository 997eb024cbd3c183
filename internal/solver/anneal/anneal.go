// Package anneal implements coupled simulated annealing: several independent
// annealing processes sharing an acceptance-normalization term, after
// de Souza et al., "Coupled Simulated Annealing" (2009).
package anneal

import (
	"context"
	"math"
	"math/rand"

	"github.com/copyleftdev/FJORD/internal/solver"
)

// Config holds the box constraints and annealing hyperparameters.
type Config struct {
	Bounds         solver.Bounds
	NumProcesses   int
	NumGenerations int
	// T0 scales the Cauchy proposal step; the generation temperature is
	// T0/(k+1). Defaults to 1.0.
	T0 float64
	// Tacc0 is the initial acceptance temperature; later generations use
	// Tacc0/ln(k+1). Defaults to 1.0.
	Tacc0 float64
	// Seed for the random source; zero means time-based.
	Seed int64
}

// process is a single annealing trajectory: the accepted state, its cost and
// an append-only log of every proposal ever evaluated.
type process struct {
	x    []float64
	cost float64
	log  []solver.Candidate
}

// CSA runs NumProcesses coupled annealing processes for NumGenerations
// generations, one evaluation batch per generation (the first batch seeds the
// processes). The returned assignment is the best point across every
// process's full proposal log, so rejected proposals still count.
type CSA struct {
	names          []string
	lo, hi         []float64
	numProcesses   int
	numGenerations int
	t0, tacc0      float64
	rng            *rand.Rand
}

// New creates a coupled simulated annealing solver over the given bounds.
func New(cfg Config) (*CSA, error) {
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, solver.Wrap(err, "invalid bounds").WithComponent("anneal").WithOp("new")
	}
	if cfg.NumProcesses < 1 {
		return nil, solver.Newf("num processes must be positive, got %d", cfg.NumProcesses).WithComponent("anneal").WithOp("new")
	}
	if cfg.NumGenerations < 1 {
		return nil, solver.Newf("num generations must be positive, got %d", cfg.NumGenerations).WithComponent("anneal").WithOp("new")
	}
	if cfg.T0 == 0 {
		cfg.T0 = 1.0
	}
	if cfg.Tacc0 == 0 {
		cfg.Tacc0 = 1.0
	}
	names, lo, hi := cfg.Bounds.Arrays()
	return &CSA{
		names:          names,
		lo:             lo,
		hi:             hi,
		numProcesses:   cfg.NumProcesses,
		numGenerations: cfg.NumGenerations,
		t0:             cfg.T0,
		tacc0:          cfg.Tacc0,
		rng:            solver.NewRand(cfg.Seed),
	}, nil
}

// SuggestFromBox sizes the process count and generation count from an
// evaluation budget, mirroring the particle swarm thresholds.
func SuggestFromBox(numEvals int, bounds solver.Bounds) Config {
	cfg := Config{Bounds: bounds}
	switch {
	case numEvals > 200:
		cfg.NumProcesses = 50
		cfg.NumGenerations = int(math.Ceil(float64(numEvals) / 50))
	case numEvals > 10:
		cfg.NumProcesses = 10
		cfg.NumGenerations = int(math.Ceil(float64(numEvals) / 10))
	default:
		cfg.NumProcesses = numEvals
		cfg.NumGenerations = 1
	}
	return cfg
}

// temperature is the generation temperature governing proposal spread.
func (c *CSA) temperature(k int) float64 {
	return c.t0 / float64(k+1)
}

// acceptTemperature is the acceptance temperature governing how leniently
// worse proposals are accepted.
func (c *CSA) acceptTemperature(k int) float64 {
	if k == 0 {
		return c.tacc0
	}
	return c.tacc0 / math.Log(float64(k+1))
}

// cauchy draws a standard Cauchy sample from the solver's random source.
func (c *CSA) cauchy() float64 {
	return math.Tan(math.Pi * (c.rng.Float64() - 0.5))
}

// Optimize runs the coupled annealing schedule.
func (c *CSA) Optimize(ctx context.Context, f solver.Objective, maximize bool, eval solver.Evaluator) (solver.Assignment, *solver.Report, error) {
	// The exponent -cost*mult/Tacc must reward lower internal cost, so the
	// multiplier flips sign when maximizing. better compares raw objective
	// values.
	mult := 1.0
	better := func(a, b float64) bool { return a < b }
	if maximize {
		mult = -1.0
		better = func(a, b float64) bool { return a > b }
	}

	procs := make([]*process, c.numProcesses)
	batch := make([]solver.Assignment, c.numProcesses)
	proposals := make([][]float64, c.numProcesses)

	for i := range procs {
		x := make([]float64, len(c.names))
		for j := range x {
			x[j] = c.lo[j] + c.rng.Float64()*(c.hi[j]-c.lo[j])
		}
		proposals[i] = x
		batch[i] = solver.ToAssignment(c.names, x)
	}
	costs, err := eval(ctx, f, batch)
	if err != nil {
		return nil, nil, err
	}
	for i := range procs {
		procs[i] = &process{x: proposals[i], cost: costs[i]}
		procs[i].log = append(procs[i].log, solver.Candidate{Params: batch[i], Value: costs[i]})
	}

	// Generation 0 is consumed by initialization above.
	for k := 0; k < c.numGenerations-1; k++ {
		temp := c.temperature(k)
		for i, p := range procs {
			y := make([]float64, len(c.names))
			for j := range y {
				y[j] = p.x[j] + temp*c.cauchy()
			}
			proposals[i] = y
			batch[i] = solver.ToAssignment(c.names, y)
		}
		costs, err := eval(ctx, f, batch)
		if err != nil {
			return nil, nil, err
		}

		tacc := c.acceptTemperature(k)
		gamma := 0.0
		for _, p := range procs {
			gamma += math.Exp(-p.cost * mult / tacc)
		}

		for i, p := range procs {
			ycost := costs[i]
			prob := 1.0
			if !better(ycost, p.cost) {
				prob = math.Exp(-ycost*mult/tacc) / gamma
			}
			p.log = append(p.log, solver.Candidate{Params: batch[i], Value: ycost})
			if c.rng.Float64() <= prob {
				p.x = proposals[i]
				p.cost = ycost
			}
		}
	}

	report := &solver.Report{}
	var best *solver.Candidate
	for _, p := range procs {
		for i := range p.log {
			cand := &p.log[i]
			if best == nil || better(cand.Value, best.Value) {
				best = cand
			}
		}
		report.Log = append(report.Log, p.log...)
	}
	return best.Params, report, nil
}
