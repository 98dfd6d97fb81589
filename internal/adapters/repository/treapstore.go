package repository

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/sbtsim/internal/domain/model"
	"github.com/okian/sbtsim/pkg/metrics"
)

// Treap-based, in-memory Store and Ranking implementation.
//
// Runs live in a map keyed by run ID; completed runs are additionally
// indexed in a treap ordered by final company score DESC, then run ID ASC
// (deterministic). In-order traversal of the treap yields the run
// leaderboard from best to worst. History is bounded: once more than
// maxHistory runs are retained, the oldest submission is evicted from both
// the map and the treap.

// Default retention bound.
const defaultMaxHistory = 1_000

// treap node; size-augmented for rank queries.
type node struct {
	id    string
	score float64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aScore, aID) ranks earlier than (bScore, bID).
func less(aScore float64, aID string, bScore float64, bID string) bool {
	if aScore != bScore {
		return aScore > bScore // higher score ranks earlier
	}
	return aID < bID // tie-breaker by id asc
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(root *node, n *node) *node {
	if root == nil {
		n.size = 1
		return n
	}
	if less(n.score, n.id, root.score, root.id) {
		root.left = insert(root.left, n)
		if root.left.prio > root.prio {
			root = rotateRight(root)
		}
	} else {
		root.right = insert(root.right, n)
		if root.right.prio > root.prio {
			root = rotateLeft(root)
		}
	}
	fix(root)
	return root
}

func remove(root *node, score float64, id string) *node {
	if root == nil {
		return nil
	}
	if root.id == id && root.score == score {
		// Rotate down until the node is a leaf.
		switch {
		case root.left == nil:
			return root.right
		case root.right == nil:
			return root.left
		case root.left.prio > root.right.prio:
			root = rotateRight(root)
			root.right = remove(root.right, score, id)
		default:
			root = rotateLeft(root)
			root.left = remove(root.left, score, id)
		}
	} else if less(score, id, root.score, root.id) {
		root.left = remove(root.left, score, id)
	} else {
		root.right = remove(root.right, score, id)
	}
	fix(root)
	return root
}

// rankOf returns the 1-based rank of (score, id), or 0 if absent.
func rankOf(root *node, score float64, id string) int {
	rank := 1
	for root != nil {
		switch {
		case root.id == id && root.score == score:
			return rank + nsize(root.left)
		case less(score, id, root.score, root.id):
			root = root.left
		default:
			rank += nsize(root.left) + 1
			root = root.right
		}
	}
	return 0
}

// walkTop appends the first n entries of the in-order traversal to out.
func walkTop(root *node, n int, out *[]Entry) {
	if root == nil || len(*out) >= n {
		return
	}
	walkTop(root.left, n, out)
	if len(*out) < n {
		*out = append(*out, Entry{Rank: len(*out) + 1, RunID: root.id, Score: root.score})
		walkTop(root.right, n, out)
	}
}

// TreapStore implements Store and Ranking in memory.
type TreapStore struct {
	mu         sync.RWMutex
	runs       map[string]model.Run
	order      []string // submission order, oldest first, for eviction
	root       *node    // treap over completed runs
	maxHistory int
	prio       *rand.Rand
}

// NewTreapStore creates an empty store.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		runs:       make(map[string]model.Run),
		maxHistory: defaultMaxHistory,
		prio:       rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // treap priorities, not security
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create records a newly submitted run.
func (s *TreapStore) Create(ctx context.Context, run model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.RunID]; exists {
		return ErrAlreadyExists
	}

	if s.maxHistory > 0 && len(s.runs) >= s.maxHistory {
		s.evictOldestLocked()
	}

	s.runs[run.RunID] = run
	s.order = append(s.order, run.RunID)
	metrics.UpdateStoredRuns(len(s.runs))
	return nil
}

// evictOldestLocked drops the oldest submission, treap entry included.
func (s *TreapStore) evictOldestLocked() {
	for len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		run, ok := s.runs[oldest]
		if !ok {
			continue // already deleted explicitly
		}
		if run.Status == model.StatusCompleted && run.Result != nil {
			s.root = remove(s.root, run.Result.FinalCompanyScore(), oldest)
			metrics.UpdateRankingSize(nsize(s.root))
		}
		delete(s.runs, oldest)
		return
	}
}

// SetCompleted marks a run completed and indexes it in the ranking.
func (s *TreapStore) SetCompleted(ctx context.Context, runID string, result model.Result, finishedAt time.Time) error {
	start := time.Now()
	defer func() {
		metrics.RecordRankingUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return ErrNotFound
	}

	if run.Status == model.StatusCompleted && run.Result != nil {
		// Re-completion replaces the old treap entry.
		s.root = remove(s.root, run.Result.FinalCompanyScore(), runID)
	}

	run.Status = model.StatusCompleted
	run.Result = &result
	run.FinishedAt = finishedAt
	s.runs[runID] = run

	s.root = insert(s.root, &node{
		id:    runID,
		score: result.FinalCompanyScore(),
		prio:  uint64(s.prio.Int63()),
	})
	metrics.UpdateRankingSize(nsize(s.root))
	return nil
}

// SetFailed marks a run failed.
func (s *TreapStore) SetFailed(ctx context.Context, runID string, reason string, finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return ErrNotFound
	}

	run.Status = model.StatusFailed
	run.FailReason = reason
	run.FinishedAt = finishedAt
	s.runs[runID] = run
	return nil
}

// Delete removes a run entirely.
func (s *TreapStore) Delete(ctx context.Context, runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return
	}
	if run.Status == model.StatusCompleted && run.Result != nil {
		s.root = remove(s.root, run.Result.FinalCompanyScore(), runID)
		metrics.UpdateRankingSize(nsize(s.root))
	}
	delete(s.runs, runID)
	metrics.UpdateStoredRuns(len(s.runs))
}

// Get returns a run by ID.
func (s *TreapStore) Get(ctx context.Context, runID string) (model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return model.Run{}, ErrNotFound
	}
	return run, nil
}

// Recent returns up to n runs, newest submission first.
func (s *TreapStore) Recent(ctx context.Context, n int) ([]model.Run, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Cap the allocation at what is actually retained; n is caller input.
	out := make([]model.Run, 0, min(n, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		if run, ok := s.runs[s.order[i]]; ok {
			out = append(out, run)
		}
	}
	return out, nil
}

// Count returns the number of retained runs.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Rank returns the current rank and score for a completed run.
func (s *TreapStore) Rank(ctx context.Context, runID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRankingQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok || run.Status != model.StatusCompleted || run.Result == nil {
		return Entry{}, ErrNotFound
	}

	score := run.Result.FinalCompanyScore()
	rank := rankOf(s.root, score, runID)
	if rank == 0 {
		return Entry{}, ErrNotFound
	}
	return Entry{Rank: rank, RunID: runID, Score: score}, nil
}

// TopN returns the top-N completed runs ordered by score desc.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRankingQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, nsize(s.root)))
	walkTop(s.root, n, &out)
	return out, nil
}

// RankedCount returns the number of completed runs in the ranking.
func (s *TreapStore) RankedCount(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nsize(s.root)
}
