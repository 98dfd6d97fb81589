package model_test

import (
	"testing"
	"time"

	model "github.com/okian/sbtsim/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParameters(t *testing.T) {
	convey.Convey("Given a Parameters value", t, func() {
		params := model.Parameters{
			PopulationSize:          100,
			Years:                   5,
			EvaluationsPerYear:      4,
			SkillGrowthRate:         0.02,
			SkillWeight:             0.6,
			WellbeingWeight:         0.4,
			CompanyImpactMultiplier: 1.5,
			RandomSeed:              42,
		}

		convey.Convey("When computing cycles", func() {
			convey.Convey("Then it should multiply years by evaluations per year", func() {
				convey.So(params.Cycles(), convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When fingerprinting", func() {
			fp := params.Fingerprint()

			convey.Convey("Then equal parameters produce equal fingerprints", func() {
				other := params
				convey.So(other.Fingerprint(), convey.ShouldEqual, fp)
			})

			convey.Convey("Then changing any field changes the fingerprint", func() {
				seedChanged := params
				seedChanged.RandomSeed = 43
				convey.So(seedChanged.Fingerprint(), convey.ShouldNotEqual, fp)

				weightChanged := params
				weightChanged.SkillWeight = 0.61
				convey.So(weightChanged.Fingerprint(), convey.ShouldNotEqual, fp)

				popChanged := params
				popChanged.PopulationSize = 101
				convey.So(popChanged.Fingerprint(), convey.ShouldNotEqual, fp)
			})
		})
	})
}

func TestResult(t *testing.T) {
	convey.Convey("Given a Result", t, func() {
		convey.Convey("When it has company scores", func() {
			result := model.Result{
				TimePoints:          []int{0, 1, 2},
				AvgIndividualScores: []float64{54.2, 55.1, 55.9},
				CompanyScores:       []float64{8130.0, 8265.0, 8385.0},
			}

			convey.Convey("Then the final company score is the last entry", func() {
				convey.So(result.FinalCompanyScore(), convey.ShouldEqual, 8385.0)
			})
		})

		convey.Convey("When it is empty", func() {
			result := model.Result{}

			convey.Convey("Then the final company score is zero", func() {
				convey.So(result.FinalCompanyScore(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a Run envelope", t, func() {
		convey.Convey("When newly submitted", func() {
			run := model.Run{
				RunID:       "run-123",
				Status:      model.StatusPending,
				SubmittedAt: time.Now(),
			}

			convey.Convey("Then it should be pending with no result", func() {
				convey.So(run.Status, convey.ShouldEqual, model.StatusPending)
				convey.So(run.Result, convey.ShouldBeNil)
				convey.So(run.FinishedAt.IsZero(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When failed", func() {
			run := model.Run{
				RunID:      "run-456",
				Status:     model.StatusFailed,
				FailReason: "run cancelled at cycle 3",
			}

			convey.Convey("Then it should carry the failure reason", func() {
				convey.So(run.Status, convey.ShouldEqual, model.StatusFailed)
				convey.So(run.FailReason, convey.ShouldNotBeEmpty)
			})
		})
	})
}
