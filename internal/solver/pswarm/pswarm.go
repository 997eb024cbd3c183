// Package pswarm implements particle swarm optimization over box
// constraints.
package pswarm

import (
	"context"
	"math"
	"math/rand"

	"github.com/copyleftdev/FJORD/internal/solver"
)

// Config holds the box constraints and swarm hyperparameters.
type Config struct {
	Bounds         solver.Bounds
	NumParticles   int
	NumGenerations int
	// MaxSpeed bounds particle velocity per dimension as a fraction of the
	// bound width. Defaults to 2/NumGenerations.
	MaxSpeed float64
	// Phi1 and Phi2 scale the attraction toward the personal and swarm best.
	// Both default to 2.0.
	Phi1, Phi2 float64
	// Seed for the random source; zero means time-based.
	Seed int64
}

type particle struct {
	pos, vel []float64
	// personal best; nil until the particle has been evaluated once
	best        []float64
	fitness     float64
	bestFitness float64
}

// ParticleSwarm evolves NumParticles candidate solutions across
// NumGenerations, one evaluation batch per generation. Velocities are clamped
// per dimension to maxSpeed times the bound width; positions are not clamped
// back into bounds after an update, so particles may drift outside the box
// (soft constraint only).
type ParticleSwarm struct {
	names          []string
	lo, hi         []float64
	smin, smax     []float64
	numParticles   int
	numGenerations int
	phi1, phi2     float64
	rng            *rand.Rand
}

// New creates a particle swarm solver over the given bounds.
func New(cfg Config) (*ParticleSwarm, error) {
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, solver.Wrap(err, "invalid bounds").WithComponent("pswarm").WithOp("new")
	}
	if cfg.NumParticles < 1 {
		return nil, solver.Newf("num particles must be positive, got %d", cfg.NumParticles).WithComponent("pswarm").WithOp("new")
	}
	if cfg.NumGenerations < 1 {
		return nil, solver.Newf("num generations must be positive, got %d", cfg.NumGenerations).WithComponent("pswarm").WithOp("new")
	}
	if cfg.MaxSpeed == 0 {
		cfg.MaxSpeed = 2.0 / float64(cfg.NumGenerations)
	}
	if cfg.Phi1 == 0 {
		cfg.Phi1 = 2.0
	}
	if cfg.Phi2 == 0 {
		cfg.Phi2 = 2.0
	}

	names, lo, hi := cfg.Bounds.Arrays()
	smax := make([]float64, len(names))
	smin := make([]float64, len(names))
	for i := range names {
		smax[i] = cfg.MaxSpeed * (hi[i] - lo[i])
		smin[i] = -smax[i]
	}
	return &ParticleSwarm{
		names:          names,
		lo:             lo,
		hi:             hi,
		smin:           smin,
		smax:           smax,
		numParticles:   cfg.NumParticles,
		numGenerations: cfg.NumGenerations,
		phi1:           cfg.Phi1,
		phi2:           cfg.Phi2,
		rng:            solver.NewRand(cfg.Seed),
	}, nil
}

// SuggestFromBox sizes the swarm from an evaluation budget: large budgets run
// 50 particles, medium ones 10, tiny ones a single generation.
func SuggestFromBox(numEvals int, bounds solver.Bounds) Config {
	cfg := Config{Bounds: bounds}
	switch {
	case numEvals > 200:
		cfg.NumParticles = 50
		cfg.NumGenerations = int(math.Ceil(float64(numEvals) / 50))
	case numEvals > 10:
		cfg.NumParticles = 10
		cfg.NumGenerations = int(math.Ceil(float64(numEvals) / 10))
	default:
		cfg.NumParticles = numEvals
		cfg.NumGenerations = 1
	}
	return cfg
}

func (ps *ParticleSwarm) generate() *particle {
	dim := len(ps.names)
	p := &particle{pos: make([]float64, dim), vel: make([]float64, dim)}
	for i := 0; i < dim; i++ {
		p.pos[i] = ps.lo[i] + ps.rng.Float64()*(ps.hi[i]-ps.lo[i])
	}
	for i := 0; i < dim; i++ {
		p.vel[i] = ps.smin[i] + ps.rng.Float64()*(ps.smax[i]-ps.smin[i])
	}
	return p
}

// updateParticle applies the velocity and position update, drawing fresh
// uniform scalars in [0, phi1] and [0, phi2] per dimension and clamping the
// new velocity elementwise to [smin, smax].
func (ps *ParticleSwarm) updateParticle(p *particle, swarmBest []float64) {
	for i := range p.vel {
		u1 := ps.rng.Float64() * ps.phi1
		u2 := ps.rng.Float64() * ps.phi2
		p.vel[i] += u1*(p.best[i]-p.pos[i]) + u2*(swarmBest[i]-p.pos[i])
		if p.vel[i] < ps.smin[i] {
			p.vel[i] = ps.smin[i]
		} else if p.vel[i] > ps.smax[i] {
			p.vel[i] = ps.smax[i]
		}
	}
	for i := range p.pos {
		p.pos[i] += p.vel[i]
	}
}

// Optimize runs the swarm. Fitness is sign-adjusted internally so higher is
// always better; personal and swarm bests only move on strictly better
// fitness, so ties keep the incumbent.
func (ps *ParticleSwarm) Optimize(ctx context.Context, f solver.Objective, maximize bool, eval solver.Evaluator) (solver.Assignment, *solver.Report, error) {
	sign := 1.0
	if !maximize {
		sign = -1.0
	}

	pop := make([]*particle, ps.numParticles)
	for i := range pop {
		pop[i] = ps.generate()
	}

	var (
		swarmBest        []float64
		swarmBestFitness float64
	)

	batch := make([]solver.Assignment, len(pop))
	for g := 0; g < ps.numGenerations; g++ {
		for i, p := range pop {
			batch[i] = solver.ToAssignment(ps.names, p.pos)
		}
		scores, err := eval(ctx, f, batch)
		if err != nil {
			return nil, nil, err
		}

		for i, p := range pop {
			p.fitness = sign * scores[i]
			if p.best == nil || p.bestFitness < p.fitness {
				p.best = append([]float64(nil), p.pos...)
				p.bestFitness = p.fitness
			}
			if swarmBest == nil || swarmBestFitness < p.fitness {
				swarmBest = append([]float64(nil), p.pos...)
				swarmBestFitness = p.fitness
			}
		}

		for _, p := range pop {
			ps.updateParticle(p, swarmBest)
		}
	}

	return solver.ToAssignment(ps.names, swarmBest), nil, nil
}
