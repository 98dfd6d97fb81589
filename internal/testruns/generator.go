package testruns

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/okian/sbtsim/pkg/logger"
)

// Bounds for generated parameter sets. These match the dashboard slider
// ranges so the harness exercises the same envelope a user can reach.
const (
	randomFloatDivisor = 1000000

	populationMin   = 10
	populationRange = 290
	yearsMin        = 1
	yearsRange      = 9
	evalsMin        = 1
	evalsRange      = 11

	growthRateMax      = 0.1
	skillWeightMax     = 1.0
	wellbeingWeightMax = 1.0
	multiplierMin      = 0.5
	multiplierRange    = 2.5

	seedRange = 1000000
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, max) using crypto/rand.
func getRandomInt(max int64) int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(max))
	return n.Int64()
}

// generateParameterSets creates the requested number of parameter sets.
// Every duplicateEvery-th set repeats an earlier one verbatim so the
// harness can verify that resubmission is memoized rather than re-run.
func generateParameterSets(ctx context.Context, config *Config, stats *Stats) []Parameters {
	logger.Get().Info(ctx, "generating parameter sets", logger.Int("numRuns", config.NumRuns))

	sets := make([]Parameters, config.NumRuns)
	for i := 0; i < config.NumRuns; i++ {
		if i > 0 && i%duplicateEvery == 0 {
			// Repeat an earlier set verbatim.
			sets[i] = sets[int(getRandomInt(int64(i)))]
			continue
		}
		sets[i] = generateSingleParameterSet()
	}

	stats.RunsGenerated = len(sets)
	logger.Get().Info(ctx, "generated parameter sets", logger.Int("count", len(sets)))

	return sets
}

// generateSingleParameterSet creates one randomized parameter set within
// the dashboard bounds. Seeds are drawn from a wide range so distinct sets
// rarely collide on fingerprint.
func generateSingleParameterSet() Parameters {
	return Parameters{
		PopulationSize:          populationMin + int(getRandomInt(populationRange+1)),
		Years:                   yearsMin + int(getRandomInt(yearsRange+1)),
		EvaluationsPerYear:      evalsMin + int(getRandomInt(evalsRange+1)),
		SkillGrowthRate:         getRandomFloat() * growthRateMax,
		SkillWeight:             getRandomFloat() * skillWeightMax,
		WellbeingWeight:         getRandomFloat() * wellbeingWeightMax,
		CompanyImpactMultiplier: multiplierMin + getRandomFloat()*multiplierRange,
		RandomSeed:              getRandomInt(seedRange),
	}
}
