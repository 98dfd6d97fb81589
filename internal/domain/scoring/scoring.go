// Package scoring defines the pure functions that turn raw skill and
// well-being metrics into SBT scores.
package scoring

// Weights holds the relative contribution of skill and well-being to an
// individual SBT score. The weights are intentionally not required to sum
// to 1; callers get exactly the linear combination they ask for.
type Weights struct {
	Skill     float64
	Wellbeing float64
}

// Individual computes one employee's SBT score as the weighted combination
// of their skill and well-being metrics. Pure; no captured state.
func Individual(skill, wellbeing float64, w Weights) float64 {
	return w.Skill*skill + w.Wellbeing*wellbeing
}

// Company computes the company impact score for one cycle from the sum of
// individual scores and the configured multiplier.
func Company(sumIndividual, multiplier float64) float64 {
	return sumIndividual * multiplier
}
