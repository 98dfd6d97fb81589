// Package memo provides an idempotency cache keyed by parameter fingerprint.
package memo

// Option applies a configuration option to the in-memory memoizer.
type Option func(*inMemoryMemo)

// WithMaxSize bounds the number of remembered fingerprints.
// Zero or negative means unbounded.
func WithMaxSize(size int) Option {
	return func(m *inMemoryMemo) {
		m.maxSize = size
	}
}
