// Package repository defines the run store and ranking interfaces and errors.
package repository

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMaxHistory bounds the number of retained runs. Zero or negative means
// unbounded retention.
func WithMaxHistory(n int) Option {
	return func(s *TreapStore) {
		s.maxHistory = n
	}
}
