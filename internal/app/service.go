// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	jobqueue "github.com/okian/sbtsim/internal/adapters/mq/queue"
	workerpool "github.com/okian/sbtsim/internal/adapters/mq/worker"
	repository "github.com/okian/sbtsim/internal/adapters/repository"
	"github.com/okian/sbtsim/internal/domain/memo"
	"github.com/okian/sbtsim/internal/domain/model"
	"github.com/okian/sbtsim/internal/domain/simulation"
	"github.com/okian/sbtsim/internal/domain/types"
	"github.com/okian/sbtsim/pkg/logger"
	"github.com/okian/sbtsim/pkg/metrics"
)

// Service wires the simulation engine, run store, memo cache, job queue,
// and worker pool behind one facade.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    *repository.TreapStore
	memoizer memo.Memoizer
	jobQueue jobqueue.Queue
	engine   simulation.Runner
	pool     *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	memoSize    int
	maxHistory  int
	engineOpts  []simulation.Option

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the run job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMemoSize sets the size of the parameter memoization cache.
func WithMemoSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.memoSize = size
		}
	}
}

// WithMaxHistory bounds the number of retained runs.
func WithMaxHistory(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// WithEngineOptions forwards options to the simulation engine.
func WithEngineOptions(opts ...simulation.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   1_024,
		memoSize:    10_000,
		maxHistory:  1_000,
		stopCh:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting simulation service...")

	s.store = repository.NewTreapStore(ctx, repository.WithMaxHistory(s.maxHistory))
	s.memoizer = memo.NewInMemoryMemo(memo.WithMaxSize(s.memoSize))
	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.engine = simulation.NewEngine(s.engineOpts...)

	s.pool = workerpool.NewPool(s.workerCount, s.jobQueue, s.engine, s.store)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "simulation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("memoSize", s.memoSize),
		logger.Int("maxHistory", s.maxHistory),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping simulation service...")

	if q, ok := s.jobQueue.(*jobqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	if s.pool != nil {
		s.pool.Stop()
	}

	select {
	case <-s.stopCh:
		// already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "simulation service stopped")
}

// Simulate runs a simulation synchronously and returns the output series.
// Nothing is stored; the interactive dashboard discards prior output on
// every parameter change.
func (s *Service) Simulate(ctx context.Context, p model.Parameters) (model.Result, error) {
	s.mu.RLock()
	engine := s.engine
	s.mu.RUnlock()

	if engine == nil {
		return model.Result{}, ErrNotStarted
	}

	start := time.Now()
	result, err := engine.Run(ctx, p)
	if err != nil {
		metrics.RecordRunRejected()
		return model.Result{}, err
	}

	metrics.RecordRunCompleted(float64(time.Since(start).Milliseconds()))
	metrics.RecordCyclesPerRun(len(result.TimePoints))
	return result, nil
}

// SubmitRun validates parameters and enqueues an asynchronous run.
// Identical parameter sets are answered with the existing run (runs are
// deterministic, so recomputation would change nothing); the second return
// reports that case.
func (s *Service) SubmitRun(ctx context.Context, p model.Parameters) (model.Run, bool, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	if !started {
		return model.Run{}, false, ErrNotStarted
	}

	if err := simulation.Validate(p); err != nil {
		metrics.RecordRunRejected()
		return model.Run{}, false, err
	}

	key := p.Fingerprint()
	if existingID, ok := s.memoizer.Recall(ctx, key); ok {
		if run, err := s.store.Get(ctx, existingID); err == nil && run.Status != model.StatusFailed {
			metrics.RecordMemoHit()
			s.logger.Debug(ctx, "duplicate submission answered from memo",
				logger.String("runID", existingID),
				logger.String("fingerprint", key),
			)
			return run, true, nil
		}
		// The memoized run was evicted from the store or failed; resubmit fresh.
		s.memoizer.Forget(ctx, key)
	}

	run := model.Run{
		RunID:       uuid.NewString(),
		Params:      p,
		Status:      model.StatusPending,
		SubmittedAt: time.Now(),
	}

	if err := s.store.Create(ctx, run); err != nil {
		return model.Run{}, false, err
	}
	s.memoizer.Record(ctx, key, run.RunID)

	if ok := s.jobQueue.Enqueue(ctx, run); !ok {
		// Roll back so the same parameters can be retried.
		s.memoizer.Forget(ctx, key)
		s.store.Delete(ctx, run.RunID)
		return model.Run{}, false, ErrBackpressure
	}

	metrics.RecordRunSubmitted()
	return run, false, nil
}

// GetRun returns a run by ID.
func (s *Service) GetRun(ctx context.Context, runID string) (model.Run, error) {
	return s.store.Get(ctx, runID)
}

// RecentRuns returns up to n runs, newest first.
func (s *Service) RecentRuns(ctx context.Context, n int) ([]model.Run, error) {
	return s.store.Recent(ctx, n)
}

// TopN returns the top N completed runs by final company score.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	entries, err := s.store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	apiEntries := make([]types.Entry, len(entries))
	for i, e := range entries {
		apiEntries[i] = types.Entry{
			Rank:  e.Rank,
			RunID: e.RunID,
			Score: e.Score,
		}
	}
	return apiEntries, nil
}

// Rank returns the rank and score for a completed run.
func (s *Service) Rank(ctx context.Context, runID string) (types.Entry, error) {
	entry, err := s.store.Rank(ctx, runID)
	if err != nil {
		return types.Entry{}, err
	}

	return types.Entry{
		Rank:  entry.Rank,
		RunID: entry.RunID,
		Score: entry.Score,
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := types.Stats{
		Started:     s.started,
		WorkerCount: s.workerCount,
		QueueSize:   s.queueSize,
		MemoSize:    s.memoSize,
		MaxHistory:  s.maxHistory,
	}

	if s.started {
		stats.QueueLength = s.jobQueue.Len(ctx)
		stats.StoredRuns = s.store.Count(ctx)
		stats.RankedRuns = s.store.RankedCount(ctx)
		stats.MemoEntries = int(s.memoizer.Size())

		metrics.UpdateQueueSize(stats.QueueLength)
		metrics.UpdateStoredRuns(stats.StoredRuns)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
