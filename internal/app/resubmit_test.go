package service

import (
	"context"
	"testing"
	"time"

	"github.com/okian/sbtsim/internal/domain/model"
	logging "github.com/okian/sbtsim/pkg/logger"
)

func init() {
	if err := logging.Init(); err != nil {
		panic(err)
	}
}

func awaitDone(ctx context.Context, svc *Service, runID string) (model.Run, bool) {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		run, err := svc.GetRun(ctx, runID)
		if err == nil && run.Status != model.StatusPending {
			return run, true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return model.Run{}, false
}

// A failed run must not keep answering resubmissions of the same
// parameters from the memo; the fingerprint is forgotten and the
// submission runs fresh.
func TestSubmitRun_FailedRunNotMemoized(t *testing.T) {
	ctx := context.Background()
	svc := New(WithWorkerCount(1), WithQueueSize(4))
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer svc.Stop()

	p := model.Parameters{
		PopulationSize:          10,
		Years:                   1,
		EvaluationsPerYear:      2,
		SkillGrowthRate:         0.02,
		SkillWeight:             0.6,
		WellbeingWeight:         0.4,
		CompanyImpactMultiplier: 1.5,
		RandomSeed:              7001,
	}

	first, dup, err := svc.SubmitRun(ctx, p)
	if err != nil || dup {
		t.Fatalf("first submission: dup=%v err=%v", dup, err)
	}
	if _, ok := awaitDone(ctx, svc, first.RunID); !ok {
		t.Fatal("first run did not finish in time")
	}

	// Record the run as failed, as a worker does when its context is
	// cancelled mid-run during shutdown.
	if err := svc.store.SetFailed(ctx, first.RunID, "context cancelled", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, dup, err := svc.SubmitRun(ctx, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup {
		t.Error("resubmission of a failed run was answered from the memo")
	}
	if second.RunID == first.RunID {
		t.Errorf("expected a fresh run, got the failed run %s again", first.RunID)
	}

	// The fresh run repopulates the memo.
	if _, ok := awaitDone(ctx, svc, second.RunID); !ok {
		t.Fatal("second run did not finish in time")
	}
	third, dup, err := svc.SubmitRun(ctx, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dup || third.RunID != second.RunID {
		t.Errorf("expected duplicate of %s, got dup=%v run=%s", second.RunID, dup, third.RunID)
	}
}
