// Package worker defines the workers that execute queued simulation runs.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/sbtsim/internal/adapters/mq/queue"
	"github.com/okian/sbtsim/internal/domain/model"
	"github.com/okian/sbtsim/pkg/logger"
	"github.com/okian/sbtsim/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount    = 4
	workerShutdownTimeout = 5 * time.Second
)

// Job aliases the queue payload for readability.
type Job = queue.Job

// Runner executes one simulation run.
type Runner interface {
	Run(ctx context.Context, p model.Parameters) (model.Result, error)
}

// Recorder persists run outcomes.
type Recorder interface {
	SetCompleted(ctx context.Context, runID string, result model.Result, finishedAt time.Time) error
	SetFailed(ctx context.Context, runID string, reason string, finishedAt time.Time) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes queued runs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	runner   Runner
	recorder Recorder
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, runner Runner, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		runner:   runner,
		recorder: recorder,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing run", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob executes a single queued run and records the outcome.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	result, err := w.runner.Run(ctx, job.Params)
	if err != nil {
		metrics.RecordRunFailed()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "run_error")
		if recErr := w.recorder.SetFailed(ctx, job.RunID, err.Error(), time.Now()); recErr != nil {
			w.logger.Error(ctx, "failed to record run failure",
				logger.String("runID", job.RunID),
				logger.Error(recErr),
			)
		}
		return fmt.Errorf("run %s failed: %w", job.RunID, err)
	}

	if err := w.recorder.SetCompleted(ctx, job.RunID, result, time.Now()); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "record_error")
		w.logger.Error(ctx, "failed to record run result",
			logger.String("runID", job.RunID),
			logger.Error(err),
		)
		return fmt.Errorf("recording run %s failed: %w", job.RunID, err)
	}

	metrics.RecordRunCompleted(float64(time.Since(start).Milliseconds()))
	metrics.RecordCyclesPerRun(len(result.TimePoints))

	w.logger.Debug(ctx, "run completed",
		logger.String("runID", job.RunID),
		logger.Int("cycles", len(result.TimePoints)),
		logger.Float64("finalCompanyScore", result.FinalCompanyScore()),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	runner   Runner
	recorder Recorder

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, runner Runner, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
		if workerCount < defaultWorkerCount {
			workerCount = defaultWorkerCount
		}
	}

	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		runner:   runner,
		recorder: recorder,
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewInMemoryWorker(
			q,
			runner,
			recorder,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)

	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()
	for _, w := range p.workers {
		_ = w.Shutdown(ctx)
	}
	metrics.UpdateWorkerActiveCount(0)
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}
