package testruns

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/sbtsim/pkg/logger"
)

// Run executes the complete verification pass against a live service.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting run verification",
		logger.String("baseURL", config.BaseURL),
		logger.Int("runs", config.NumRuns),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate randomized parameter sets
	sets := generateParameterSets(ctx, config, stats)

	// Step 3: Submit them concurrently
	submissions, err := submitRuns(ctx, config, sets, stats)
	if err != nil {
		return fmt.Errorf("run submission failed: %w", err)
	}

	// Step 4: Poll to completion and check result properties
	if err := verifyCompletedRuns(ctx, config, submissions, stats); err != nil {
		return fmt.Errorf("run verification failed: %w", err)
	}

	// Step 5: Check determinism through the synchronous endpoint
	if err := verifyDeterminism(ctx, config, stats); err != nil {
		return fmt.Errorf("determinism verification failed: %w", err)
	}

	// Step 6: Check leaderboard ordering and rank consistency
	leaderboard, err := getLeaderboard(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	if err := verifyLeaderboard(ctx, config, leaderboard, stats); err != nil {
		return fmt.Errorf("leaderboard verification failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	if stats.PropertyViolations > 0 {
		return fmt.Errorf("verification found %d property violations", stats.PropertyViolations)
	}

	logger.Get().Info(ctx, "verification completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the endpoint serves Prometheus metrics)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats prints the final verification statistics.
func displayFinalStats(stats *Stats) {
	var runsPerSecond float64
	if stats.Duration > 0 {
		runsPerSecond = float64(stats.RunsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("runsGenerated", stats.RunsGenerated),
		logger.Int("runsSubmitted", stats.RunsSubmitted),
		logger.Int("runsAccepted", stats.RunsAccepted),
		logger.Int("runsDuplicate", stats.RunsDuplicate),
		logger.Int("runsFailed", stats.RunsFailed),
		logger.Int("runsCompleted", stats.RunsCompleted),
		logger.Int("propertiesChecked", stats.PropertiesChecked),
		logger.Int("propertyViolations", stats.PropertyViolations),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("runsPerSecond", runsPerSecond))
}
