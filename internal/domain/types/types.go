// Package types contains common types used across the application
package types

// Entry represents a run leaderboard entry
type Entry struct {
	Rank  int     `json:"rank"`
	RunID string  `json:"run_id"`
	Score float64 `json:"score"`
}

// Stats is the service monitoring snapshot served by GET /stats. The
// component counters are only populated while the service is started.
type Stats struct {
	Started     bool `json:"started"`
	WorkerCount int  `json:"worker_count"`
	QueueSize   int  `json:"queue_size"`
	MemoSize    int  `json:"memo_size"`
	MaxHistory  int  `json:"max_history"`
	QueueLength int  `json:"queue_length"`
	StoredRuns  int  `json:"stored_runs"`
	RankedRuns  int  `json:"ranked_runs"`
	MemoEntries int  `json:"memo_entries"`
}
