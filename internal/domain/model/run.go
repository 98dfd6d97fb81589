// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// Parameters configures a single simulation run. A Parameters value is never
// mutated after construction; the engine treats it as read-only.
type Parameters struct {
	PopulationSize          int     // number of simulated employees
	Years                   int     // simulated horizon in years
	EvaluationsPerYear      int     // evaluation cycles per year
	SkillGrowthRate         float64 // per-cycle multiplicative skill growth, typically [0, 0.1]
	SkillWeight             float64 // weight of skill in the individual SBT score
	WellbeingWeight         float64 // weight of well-being in the individual SBT score
	CompanyImpactMultiplier float64 // scales the per-cycle sum of individual scores
	RandomSeed              int64   // seed for the per-run random stream
}

// Cycles returns the total number of evaluation cycles for the run.
func (p Parameters) Cycles() int {
	return p.Years * p.EvaluationsPerYear
}

// Fingerprint returns a deterministic key identifying the parameter set.
// Runs are pure functions of Parameters (seed included), so two submissions
// with equal fingerprints produce identical results.
func (p Parameters) Fingerprint() string {
	return fmt.Sprintf("n%d_y%d_e%d_g%g_sw%g_ww%g_m%g_s%d",
		p.PopulationSize, p.Years, p.EvaluationsPerYear,
		p.SkillGrowthRate, p.SkillWeight, p.WellbeingWeight,
		p.CompanyImpactMultiplier, p.RandomSeed)
}

// Result holds the three aligned output series of a completed run,
// indexed by 0-based cycle number.
type Result struct {
	TimePoints          []int
	AvgIndividualScores []float64
	CompanyScores       []float64
}

// FinalCompanyScore returns the company score of the last cycle,
// or 0 for an empty result.
func (r Result) FinalCompanyScore() float64 {
	if len(r.CompanyScores) == 0 {
		return 0
	}
	return r.CompanyScores[len(r.CompanyScores)-1]
}

// Status tracks the lifecycle of a submitted run.
type Status string

// Run lifecycle states.
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is the envelope tracking one submitted simulation.
type Run struct {
	RunID       string     // unique id assigned at submission
	Params      Parameters // the configuration the run was submitted with
	Status      Status
	SubmittedAt time.Time
	FinishedAt  time.Time // zero while pending
	Result      *Result   // nil until completed
	FailReason  string    // set when Status is StatusFailed
}
