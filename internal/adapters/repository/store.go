// Package repository defines the run store and ranking interfaces and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/sbtsim/internal/domain/model"
)

// Entry represents a run leaderboard row.
type Entry struct {
	Rank  int
	RunID string
	Score float64
}

// Store provides read/write access to submitted runs.
type Store interface {
	// Create records a newly submitted run. Returns ErrAlreadyExists if the
	// run ID is already present.
	Create(ctx context.Context, run model.Run) error

	// SetCompleted marks a run completed with its result.
	SetCompleted(ctx context.Context, runID string, result model.Result, finishedAt time.Time) error

	// SetFailed marks a run failed with a reason.
	SetFailed(ctx context.Context, runID string, reason string, finishedAt time.Time) error

	// Delete removes a run entirely (submission rollback).
	Delete(ctx context.Context, runID string)

	// Get returns a run by ID. Returns ErrNotFound if unknown.
	Get(ctx context.Context, runID string) (model.Run, error)

	// Recent returns up to n runs, newest submission first.
	Recent(ctx context.Context, n int) ([]model.Run, error)

	// Count returns the number of retained runs.
	Count(ctx context.Context) int
}

// Ranking orders completed runs by final company score.
type Ranking interface {
	// Rank returns the current rank and score for a completed run.
	// Returns ErrNotFound if the run is unknown or not completed.
	Rank(ctx context.Context, runID string) (Entry, error)

	// TopN returns the top-N completed runs ordered by score desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// RankedCount returns the number of completed runs in the ranking.
	RankedCount(ctx context.Context) int
}
