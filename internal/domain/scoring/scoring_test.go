package scoring_test

import (
	"testing"

	scoring "github.com/okian/sbtsim/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIndividual(t *testing.T) {
	Convey("Given the default service weights", t, func() {
		w := scoring.Weights{Skill: 0.6, Wellbeing: 0.4}

		Convey("When scoring a mid-range employee", func() {
			score := scoring.Individual(50, 60, w)

			Convey("Then it should return the weighted combination", func() {
				So(score, ShouldEqual, 0.6*50+0.4*60)
			})
		})

		Convey("When both metrics are zero", func() {
			So(scoring.Individual(0, 0, w), ShouldEqual, 0)
		})
	})

	Convey("Given a skill-only weight set", t, func() {
		w := scoring.Weights{Skill: 1.0, Wellbeing: 0.0}

		Convey("Then the score equals the skill metric exactly", func() {
			So(scoring.Individual(73.25, 12.5, w), ShouldEqual, 73.25)
			So(scoring.Individual(0, 99, w), ShouldEqual, 0)
			So(scoring.Individual(100, 1, w), ShouldEqual, 100)
		})
	})

	Convey("Given weights that do not sum to one", t, func() {
		w := scoring.Weights{Skill: 0.9, Wellbeing: 0.9}

		Convey("Then the score is not normalized", func() {
			So(scoring.Individual(100, 100, w), ShouldEqual, 180)
		})
	})

	Convey("Given negative weights", t, func() {
		w := scoring.Weights{Skill: -1, Wellbeing: 0.5}

		Convey("Then the linear combination is applied as given", func() {
			So(scoring.Individual(10, 20, w), ShouldEqual, 0)
		})
	})
}

func TestCompany(t *testing.T) {
	Convey("Given a population sum and multiplier", t, func() {
		Convey("When the multiplier amplifies", func() {
			So(scoring.Company(4000, 1.5), ShouldEqual, 6000)
		})

		Convey("When the multiplier dampens", func() {
			So(scoring.Company(4000, 0.5), ShouldEqual, 2000)
		})

		Convey("When the multiplier is one", func() {
			So(scoring.Company(1234.5, 1.0), ShouldEqual, 1234.5)
		})

		Convey("When the sum is zero", func() {
			So(scoring.Company(0, 3.0), ShouldEqual, 0)
		})
	})
}
