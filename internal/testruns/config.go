// Package testruns is a black-box verification harness for the simulation
// service: it submits randomized parameter sets over HTTP and checks the
// engine's contract end to end (series alignment, determinism, duplicate
// memoization, leaderboard consistency).
package testruns

import "time"

// Config holds configuration for the run verification harness
type Config struct {
	BaseURL string        // Base URL of the service
	NumRuns int           // Number of parameter sets to generate
	TopN    int           // Number of top entries to fetch
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	LogFile string        // Log file for harness output
	Verbose bool          // Enable verbose logging
}

// Parameters mirrors the service's parameter schema
type Parameters struct {
	PopulationSize          int     `json:"population_size"`
	Years                   int     `json:"years"`
	EvaluationsPerYear      int     `json:"evaluations_per_year"`
	SkillGrowthRate         float64 `json:"skill_growth_rate"`
	SkillWeight             float64 `json:"skill_weight"`
	WellbeingWeight         float64 `json:"wellbeing_weight"`
	CompanyImpactMultiplier float64 `json:"company_impact_multiplier"`
	RandomSeed              int64   `json:"random_seed"`
}

// Result mirrors the three aligned output series
type Result struct {
	TimePoints          []int     `json:"time_points"`
	AvgIndividualScores []float64 `json:"avg_individual_scores"`
	CompanyScores       []float64 `json:"company_scores"`
}

// RunEnvelope mirrors the run shape returned by GET /runs/{id}
type RunEnvelope struct {
	RunID      string     `json:"run_id"`
	Status     string     `json:"status"`
	Parameters Parameters `json:"parameters"`
	Result     *Result    `json:"result,omitempty"`
	FailReason string     `json:"fail_reason,omitempty"`
}

// AckResponse represents the response from run submission
type AckResponse struct {
	RunID     string `json:"run_id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Entry represents a leaderboard entry
type Entry struct {
	Rank  int     `json:"rank"`
	RunID string  `json:"run_id"`
	Score float64 `json:"score"`
}

// Stats holds harness statistics
type Stats struct {
	RunsGenerated      int
	RunsSubmitted      int
	RunsAccepted       int
	RunsDuplicate      int
	RunsFailed         int
	RunsCompleted      int
	PropertiesChecked  int
	PropertyViolations int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
