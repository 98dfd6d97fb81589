// Package memo provides an idempotency cache keyed by parameter fingerprint.
//
// Simulation runs are pure functions of their parameters (seed included), so
// resubmitting an identical configuration can be answered with the run ID of
// the earlier submission instead of recomputing.
package memo

import (
	"context"
	"sync"
	"sync/atomic"
)

// Default bound on remembered fingerprints.
const defaultMaxSize = 10_000

// Memoizer maps parameter fingerprints to run IDs.
type Memoizer interface {
	// Recall returns the run ID recorded for key, if any.
	Recall(ctx context.Context, key string) (string, bool)

	// Record stores the run ID for key, evicting the oldest entry when the
	// cache is full. Recording an existing key overwrites its run ID.
	Record(ctx context.Context, key string, runID string)

	// Forget removes key, allowing a fresh submission. Used when a recorded
	// submission failed to enqueue.
	Forget(ctx context.Context, key string)

	Size() int64
}

// inMemoryMemo implements Memoizer with a bounded map and FIFO eviction.
type inMemoryMemo struct {
	mu      sync.RWMutex
	entries map[string]string
	order   []string // insertion order for FIFO eviction
	maxSize int
	size    atomic.Int64
}

// NewInMemoryMemo creates a new in-memory memoizer with configuration options.
func NewInMemoryMemo(opts ...Option) Memoizer {
	m := &inMemoryMemo{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.entries = make(map[string]string)
	return m
}

func (m *inMemoryMemo) Recall(ctx context.Context, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runID, ok := m.entries[key]
	return runID, ok
}

func (m *inMemoryMemo) Record(ctx context.Context, key string, runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; exists {
		m.entries[key] = runID
		return
	}

	if m.maxSize > 0 && len(m.entries) >= m.maxSize {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
		m.size.Add(-1)
	}

	m.entries[key] = runID
	m.order = append(m.order, key)
	m.size.Add(1)
}

func (m *inMemoryMemo) Forget(ctx context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists {
		return
	}
	delete(m.entries, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.size.Add(-1)
}

func (m *inMemoryMemo) Size() int64 {
	return m.size.Load()
}
