// Package simulation implements the SBT human-capital simulation engine.
//
// A run evolves a synthetic employee population (parallel skill and
// well-being vectors, each element clamped to [0, 100]) over a bounded
// number of evaluation cycles and aggregates per-cycle SBT scores into
// three aligned output series. Each run owns its own seeded random stream,
// so runs with equal Parameters are bit-for-bit identical and concurrent
// runs need no coordination.
package simulation

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/okian/sbtsim/internal/domain/model"
	"github.com/okian/sbtsim/internal/domain/scoring"
)

// Default distribution constants for population initialization and
// per-cycle noise.
const (
	defaultInitialSkillMean       = 50.0
	defaultInitialSkillStddev     = 10.0
	defaultInitialWellbeingMean   = 60.0
	defaultInitialWellbeingStddev = 8.0
	defaultSkillNoiseStddev       = 2.0
	defaultWellbeingNoiseStddev   = 1.5

	scoreMin = 0.0
	scoreMax = 100.0
)

// Runner executes simulation runs. The implementation is deterministic for
// a fixed Parameters value.
type Runner interface {
	// Run executes one simulation, honoring ctx between cycles.
	Run(ctx context.Context, p model.Parameters) (model.Result, error)
}

// Engine implements Runner with Gaussian initialization and noise.
type Engine struct {
	initialSkillMean       float64
	initialSkillStddev     float64
	initialWellbeingMean   float64
	initialWellbeingStddev float64
	skillNoiseStddev       float64
	wellbeingNoiseStddev   float64
}

// NewEngine creates an engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		initialSkillMean:       defaultInitialSkillMean,
		initialSkillStddev:     defaultInitialSkillStddev,
		initialWellbeingMean:   defaultInitialWellbeingMean,
		initialWellbeingStddev: defaultInitialWellbeingStddev,
		skillNoiseStddev:       defaultSkillNoiseStddev,
		wellbeingNoiseStddev:   defaultWellbeingNoiseStddev,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Validate checks that a parameter set describes a runnable simulation.
// Weights, growth rate, and multiplier are intentionally unconstrained;
// only the population vectors are clamped, never the aggregate scores.
func Validate(p model.Parameters) error {
	switch {
	case p.PopulationSize <= 0:
		return fmt.Errorf("%w: population_size must be positive, got %d", ErrInvalidParameters, p.PopulationSize)
	case p.Years <= 0:
		return fmt.Errorf("%w: years must be positive, got %d", ErrInvalidParameters, p.Years)
	case p.EvaluationsPerYear <= 0:
		return fmt.Errorf("%w: evaluations_per_year must be positive, got %d", ErrInvalidParameters, p.EvaluationsPerYear)
	}
	return nil
}

// Run executes one simulation run.
//
// The random stream is consumed in a fixed order: the initial skill vector,
// the initial well-being vector, then per cycle the skill noise vector
// followed by the well-being noise vector. Reordering any draw would change
// every subsequent output, so the order is part of the contract.
func (e *Engine) Run(ctx context.Context, p model.Parameters) (model.Result, error) {
	if err := Validate(p); err != nil {
		return model.Result{}, err
	}

	rng := rand.New(rand.NewSource(p.RandomSeed)) //nolint:gosec // deterministic stream is the point

	n := p.PopulationSize
	skills := make([]float64, n)
	wellbeing := make([]float64, n)

	for i := range skills {
		skills[i] = clamp(e.initialSkillMean + rng.NormFloat64()*e.initialSkillStddev)
	}
	for i := range wellbeing {
		wellbeing[i] = clamp(e.initialWellbeingMean + rng.NormFloat64()*e.initialWellbeingStddev)
	}

	weights := scoring.Weights{Skill: p.SkillWeight, Wellbeing: p.WellbeingWeight}
	cycles := p.Cycles()

	res := model.Result{
		TimePoints:          make([]int, 0, cycles),
		AvgIndividualScores: make([]float64, 0, cycles),
		CompanyScores:       make([]float64, 0, cycles),
	}

	for cycle := 0; cycle < cycles; cycle++ {
		if err := ctx.Err(); err != nil {
			return model.Result{}, fmt.Errorf("run cancelled at cycle %d: %w", cycle, err)
		}

		// Skill update: proportional improvement plus noise, then clamp.
		for i := range skills {
			improvement := skills[i] * p.SkillGrowthRate
			skills[i] = clamp(skills[i] + improvement + rng.NormFloat64()*e.skillNoiseStddev)
		}

		// Well-being drifts by noise only.
		for i := range wellbeing {
			wellbeing[i] = clamp(wellbeing[i] + rng.NormFloat64()*e.wellbeingNoiseStddev)
		}

		var sum float64
		for i := range skills {
			sum += scoring.Individual(skills[i], wellbeing[i], weights)
		}

		res.TimePoints = append(res.TimePoints, cycle)
		res.AvgIndividualScores = append(res.AvgIndividualScores, sum/float64(n))
		res.CompanyScores = append(res.CompanyScores, scoring.Company(sum, p.CompanyImpactMultiplier))
	}

	return res, nil
}

// clamp bounds a population metric to [0, 100].
func clamp(v float64) float64 {
	if v < scoreMin {
		return scoreMin
	}
	if v > scoreMax {
		return scoreMax
	}
	return v
}
