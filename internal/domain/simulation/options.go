// Package simulation implements the SBT human-capital simulation engine.
package simulation

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithInitialSkillDistribution sets the mean and standard deviation of the
// initial skill draw.
func WithInitialSkillDistribution(mean, stddev float64) Option {
	return func(e *Engine) {
		if stddev >= 0 {
			e.initialSkillMean = mean
			e.initialSkillStddev = stddev
		}
	}
}

// WithInitialWellbeingDistribution sets the mean and standard deviation of
// the initial well-being draw.
func WithInitialWellbeingDistribution(mean, stddev float64) Option {
	return func(e *Engine) {
		if stddev >= 0 {
			e.initialWellbeingMean = mean
			e.initialWellbeingStddev = stddev
		}
	}
}

// WithNoiseStddevs sets the per-cycle skill and well-being noise standard
// deviations.
func WithNoiseStddevs(skill, wellbeing float64) Option {
	return func(e *Engine) {
		if skill >= 0 {
			e.skillNoiseStddev = skill
		}
		if wellbeing >= 0 {
			e.wellbeingNoiseStddev = wellbeing
		}
	}
}
