package simulation_test

import (
	"context"
	"testing"

	model "github.com/okian/sbtsim/internal/domain/model"
	simulation "github.com/okian/sbtsim/internal/domain/simulation"
	. "github.com/smartystreets/goconvey/convey"
)

func baselineParameters() model.Parameters {
	return model.Parameters{
		PopulationSize:          100,
		Years:                   5,
		EvaluationsPerYear:      4,
		SkillGrowthRate:         0.02,
		SkillWeight:             0.6,
		WellbeingWeight:         0.4,
		CompanyImpactMultiplier: 1.5,
		RandomSeed:              42,
	}
}

func TestEngine_Run(t *testing.T) {
	Convey("Given a default engine", t, func() {
		engine := simulation.NewEngine()
		ctx := context.Background()

		Convey("When running the baseline parameter set", func() {
			params := baselineParameters()
			result, err := engine.Run(ctx, params)

			Convey("Then it should produce three aligned series of years*evaluations entries", func() {
				So(err, ShouldBeNil)
				So(result.TimePoints, ShouldHaveLength, 20)
				So(result.AvgIndividualScores, ShouldHaveLength, 20)
				So(result.CompanyScores, ShouldHaveLength, 20)
			})

			Convey("And time points should count up from zero", func() {
				So(err, ShouldBeNil)
				for i, tp := range result.TimePoints {
					So(tp, ShouldEqual, i)
				}
			})

			Convey("And company scores should scale the population sum by the multiplier", func() {
				So(err, ShouldBeNil)
				for i := range result.CompanyScores {
					expected := result.AvgIndividualScores[i] * float64(params.PopulationSize) * params.CompanyImpactMultiplier
					So(result.CompanyScores[i], ShouldAlmostEqual, expected, 1e-9)
				}
			})
		})

		Convey("When running the same parameters twice", func() {
			params := baselineParameters()
			first, err1 := engine.Run(ctx, params)
			second, err2 := engine.Run(ctx, params)

			Convey("Then both runs should be identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second.TimePoints, ShouldResemble, first.TimePoints)
				So(second.AvgIndividualScores, ShouldResemble, first.AvgIndividualScores)
				So(second.CompanyScores, ShouldResemble, first.CompanyScores)
			})
		})

		Convey("When running with two different seeds", func() {
			params := baselineParameters()
			first, err1 := engine.Run(ctx, params)

			params.RandomSeed = 43
			second, err2 := engine.Run(ctx, params)

			Convey("Then the series should differ", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second.AvgIndividualScores, ShouldNotResemble, first.AvgIndividualScores)
			})
		})

		Convey("When running with a population of one", func() {
			params := baselineParameters()
			params.PopulationSize = 1
			result, err := engine.Run(ctx, params)

			Convey("Then the company score is exactly the individual score times the multiplier", func() {
				So(err, ShouldBeNil)
				for i := range result.CompanyScores {
					So(result.CompanyScores[i], ShouldEqual, result.AvgIndividualScores[i]*params.CompanyImpactMultiplier)
				}
			})
		})

		Convey("When weighting skill alone", func() {
			params := baselineParameters()
			params.SkillWeight = 1.0
			params.WellbeingWeight = 0.0
			result, err := engine.Run(ctx, params)

			Convey("Then averages stay within the clamped skill range", func() {
				So(err, ShouldBeNil)
				for _, avg := range result.AvgIndividualScores {
					So(avg, ShouldBeGreaterThanOrEqualTo, 0)
					So(avg, ShouldBeLessThanOrEqualTo, 100)
				}
			})
		})

		Convey("When comparing weighted runs against single-factor runs", func() {
			// Weights do not touch the random stream, so the blended run is
			// an exact linear combination of the skill-only and
			// wellbeing-only runs.
			params := baselineParameters()

			skillOnly := params
			skillOnly.SkillWeight = 1.0
			skillOnly.WellbeingWeight = 0.0

			wellbeingOnly := params
			wellbeingOnly.SkillWeight = 0.0
			wellbeingOnly.WellbeingWeight = 1.0

			blended, errB := engine.Run(ctx, params)
			skills, errS := engine.Run(ctx, skillOnly)
			wellbeings, errW := engine.Run(ctx, wellbeingOnly)

			Convey("Then the blended averages are the weighted sum of the factors", func() {
				So(errB, ShouldBeNil)
				So(errS, ShouldBeNil)
				So(errW, ShouldBeNil)
				for i := range blended.AvgIndividualScores {
					expected := params.SkillWeight*skills.AvgIndividualScores[i] +
						params.WellbeingWeight*wellbeings.AvgIndividualScores[i]
					So(blended.AvgIndividualScores[i], ShouldAlmostEqual, expected, 1e-9)
				}
			})
		})

		Convey("When the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := engine.Run(cancelled, baselineParameters())

			Convey("Then the run should stop with the context error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "cancelled")
			})
		})
	})

	Convey("Given an engine with custom distributions", t, func() {
		ctx := context.Background()

		Convey("When the initial skill distribution sits above the clamp ceiling", func() {
			engine := simulation.NewEngine(
				simulation.WithInitialSkillDistribution(200, 0),
				simulation.WithInitialWellbeingDistribution(60, 0),
				simulation.WithNoiseStddevs(0, 0),
			)

			params := baselineParameters()
			params.PopulationSize = 1
			params.SkillGrowthRate = 0
			params.SkillWeight = 1.0
			params.WellbeingWeight = 0.0

			result, err := engine.Run(ctx, params)

			Convey("Then every skill value is clamped to 100", func() {
				So(err, ShouldBeNil)
				for _, avg := range result.AvgIndividualScores {
					So(avg, ShouldEqual, 100)
				}
			})
		})

		Convey("When growth saturates the skill range", func() {
			engine := simulation.NewEngine(
				simulation.WithInitialSkillDistribution(50, 0),
				simulation.WithInitialWellbeingDistribution(60, 0),
				simulation.WithNoiseStddevs(0, 0),
			)

			params := baselineParameters()
			params.PopulationSize = 1
			params.SkillGrowthRate = 10
			params.SkillWeight = 1.0
			params.WellbeingWeight = 0.0

			result, err := engine.Run(ctx, params)

			Convey("Then the skill hits the ceiling on the first cycle and stays there", func() {
				So(err, ShouldBeNil)
				for _, avg := range result.AvgIndividualScores {
					So(avg, ShouldEqual, 100)
				}
			})
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given parameter validation", t, func() {
		Convey("When all parameters are positive", func() {
			err := simulation.Validate(baselineParameters())

			Convey("Then validation should pass", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When population size is zero", func() {
			params := baselineParameters()
			params.PopulationSize = 0
			err := simulation.Validate(params)

			Convey("Then it should report invalid parameters", func() {
				So(err, ShouldNotBeNil)
				So(err, ShouldWrap, simulation.ErrInvalidParameters)
				So(err.Error(), ShouldContainSubstring, "population_size")
			})
		})

		Convey("When years is negative", func() {
			params := baselineParameters()
			params.Years = -1
			err := simulation.Validate(params)

			Convey("Then it should report invalid parameters", func() {
				So(err, ShouldWrap, simulation.ErrInvalidParameters)
				So(err.Error(), ShouldContainSubstring, "years")
			})
		})

		Convey("When evaluations per year is zero", func() {
			params := baselineParameters()
			params.EvaluationsPerYear = 0
			err := simulation.Validate(params)

			Convey("Then it should report invalid parameters", func() {
				So(err, ShouldWrap, simulation.ErrInvalidParameters)
				So(err.Error(), ShouldContainSubstring, "evaluations_per_year")
			})
		})

		Convey("When weights and multiplier are extreme", func() {
			params := baselineParameters()
			params.SkillWeight = -3
			params.WellbeingWeight = 7
			params.CompanyImpactMultiplier = -1.5
			err := simulation.Validate(params)

			Convey("Then validation should still pass", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}
