package service_test

import (
	"context"
	"testing"
	"time"

	service "github.com/okian/sbtsim/internal/app"
	model "github.com/okian/sbtsim/internal/domain/model"
	simulation "github.com/okian/sbtsim/internal/domain/simulation"
	logging "github.com/okian/sbtsim/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logging.Init(); err != nil {
		panic(err)
	}
}

func validParameters(seed int64) model.Parameters {
	return model.Parameters{
		PopulationSize:          20,
		Years:                   2,
		EvaluationsPerYear:      3,
		SkillGrowthRate:         0.02,
		SkillWeight:             0.6,
		WellbeingWeight:         0.4,
		CompanyImpactMultiplier: 1.5,
		RandomSeed:              seed,
	}
}

// waitForStatus polls until the run leaves pending or the deadline passes.
func waitForStatus(ctx context.Context, svc *service.Service, runID string, timeout time.Duration) (model.Run, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		run, err := svc.GetRun(ctx, runID)
		if err == nil && run.Status != model.StatusPending {
			return run, true
		}
		time.Sleep(5 * time.Millisecond)
	}
	run, err := svc.GetRun(ctx, runID)
	return run, err == nil && run.Status != model.StatusPending
}

func TestService_Lifecycle(t *testing.T) {
	convey.Convey("Given a new service", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(16),
			service.WithMemoSize(64),
			service.WithMaxHistory(64),
		)
		ctx := context.Background()

		convey.Convey("When used before Start", func() {
			_, _, err := svc.SubmitRun(ctx, validParameters(1))

			convey.Convey("Then submission is refused", func() {
				convey.So(err, convey.ShouldEqual, service.ErrNotStarted)
			})

			convey.Convey("And synchronous simulation is refused", func() {
				_, err := svc.Simulate(ctx, validParameters(1))
				convey.So(err, convey.ShouldEqual, service.ErrNotStarted)
			})
		})

		convey.Convey("When started", func() {
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then starting again is a no-op", func() {
				convey.So(svc.Start(ctx), convey.ShouldBeNil)
			})

			convey.Convey("And stats report the running state", func() {
				stats := svc.GetStats()
				convey.So(stats.Started, convey.ShouldBeTrue)
				convey.So(stats.WorkerCount, convey.ShouldEqual, 2)
			})
		})
	})
}

func TestService_SubmitRun(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(16))
		ctx := context.Background()
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("When submitting a valid parameter set", func() {
			run, duplicate, err := svc.SubmitRun(ctx, validParameters(100))

			convey.Convey("Then a pending run is acknowledged", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(duplicate, convey.ShouldBeFalse)
				convey.So(run.RunID, convey.ShouldNotBeEmpty)
			})

			convey.Convey("And the run eventually completes", func() {
				convey.So(err, convey.ShouldBeNil)

				done, ok := waitForStatus(ctx, svc, run.RunID, 2*time.Second)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(done.Status, convey.ShouldEqual, model.StatusCompleted)
				convey.So(done.Result, convey.ShouldNotBeNil)
				convey.So(done.Result.TimePoints, convey.ShouldHaveLength, 6)
				convey.So(done.FinishedAt.IsZero(), convey.ShouldBeFalse)
			})

			convey.Convey("And a completed run appears in the ranking", func() {
				convey.So(err, convey.ShouldBeNil)
				_, ok := waitForStatus(ctx, svc, run.RunID, 2*time.Second)
				convey.So(ok, convey.ShouldBeTrue)

				entry, rankErr := svc.Rank(ctx, run.RunID)
				convey.So(rankErr, convey.ShouldBeNil)
				convey.So(entry.Rank, convey.ShouldEqual, 1)

				top, topErr := svc.TopN(ctx, 10)
				convey.So(topErr, convey.ShouldBeNil)
				convey.So(top, convey.ShouldHaveLength, 1)
				convey.So(top[0].RunID, convey.ShouldEqual, run.RunID)
			})
		})

		convey.Convey("When submitting the same parameters twice", func() {
			first, _, err1 := svc.SubmitRun(ctx, validParameters(200))
			second, duplicate, err2 := svc.SubmitRun(ctx, validParameters(200))

			convey.Convey("Then the second submission is answered from memo", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
				convey.So(duplicate, convey.ShouldBeTrue)
				convey.So(second.RunID, convey.ShouldEqual, first.RunID)
			})
		})

		convey.Convey("When submitting invalid parameters", func() {
			params := validParameters(300)
			params.PopulationSize = 0
			_, _, err := svc.SubmitRun(ctx, params)

			convey.Convey("Then validation fails before anything is stored", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err, convey.ShouldWrap, simulation.ErrInvalidParameters)
			})
		})

		convey.Convey("When listing recent runs", func() {
			for seed := int64(400); seed < 403; seed++ {
				_, _, err := svc.SubmitRun(ctx, validParameters(seed))
				convey.So(err, convey.ShouldBeNil)
			}

			recent, err := svc.RecentRuns(ctx, 10)

			convey.Convey("Then all submissions are listed newest first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(recent), convey.ShouldEqual, 3)
				convey.So(recent[0].Params.RandomSeed, convey.ShouldEqual, 402)
			})
		})
	})
}

func TestService_Simulate(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		ctx := context.Background()
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("When simulating synchronously", func() {
			result, err := svc.Simulate(ctx, validParameters(42))

			convey.Convey("Then the series come back without storing anything", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(result.TimePoints, convey.ShouldHaveLength, 6)

				recent, recentErr := svc.RecentRuns(ctx, 10)
				convey.So(recentErr, convey.ShouldBeNil)
				convey.So(recent, convey.ShouldBeEmpty)
			})

			convey.Convey("And repeating the call is deterministic", func() {
				convey.So(err, convey.ShouldBeNil)
				again, againErr := svc.Simulate(ctx, validParameters(42))
				convey.So(againErr, convey.ShouldBeNil)
				convey.So(again.AvgIndividualScores, convey.ShouldResemble, result.AvgIndividualScores)
				convey.So(again.CompanyScores, convey.ShouldResemble, result.CompanyScores)
			})
		})

		convey.Convey("When simulating with invalid parameters", func() {
			params := validParameters(42)
			params.Years = 0
			_, err := svc.Simulate(ctx, params)

			convey.Convey("Then the engine error is surfaced", func() {
				convey.So(err, convey.ShouldWrap, simulation.ErrInvalidParameters)
			})
		})
	})
}
