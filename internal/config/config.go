// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RunQueueSize bounds the in-memory run job queue.
	RunQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of simulation workers.
	WorkerCount int `koanf:"worker_count"`

	// MemoSize sets the size of the parameter memoization cache.
	MemoSize int `koanf:"memo_size"`

	// MaxHistory bounds the number of retained runs in the store.
	MaxHistory int `koanf:"max_history"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// Default simulation parameters, used by the dashboard and for
	// submissions that omit fields.
	DefaultPopulationSize     int     `koanf:"default_population_size"`
	DefaultYears              int     `koanf:"default_years"`
	DefaultEvaluationsPerYear int     `koanf:"default_evaluations_per_year"`
	DefaultSkillGrowthRate    float64 `koanf:"default_skill_growth_rate"`
	DefaultSkillWeight        float64 `koanf:"default_skill_weight"`
	DefaultWellbeingWeight    float64 `koanf:"default_wellbeing_weight"`
	DefaultImpactMultiplier   float64 `koanf:"default_impact_multiplier"`
	DefaultRandomSeed         int64   `koanf:"default_random_seed"`
}

// New creates a Config populated with defaults. The simulation defaults are
// the canonical toy configuration (population 100 over 5 years, quarterly
// evaluations, seed 42).
func New() *Config {
	return &Config{
		LogLevel:                  "info",
		Addr:                      ":9080",
		RunQueueSize:              1_024,
		WorkerCount:               runtime.NumCPU(),
		MemoSize:                  10_000,
		MaxHistory:                1_000,
		MaxLeaderboardLimit:       100,
		DefaultPopulationSize:     100,
		DefaultYears:              5,
		DefaultEvaluationsPerYear: 4,
		DefaultSkillGrowthRate:    0.02,
		DefaultSkillWeight:        0.6,
		DefaultWellbeingWeight:    0.4,
		DefaultImpactMultiplier:   1.5,
		DefaultRandomSeed:         42,
	}
}
