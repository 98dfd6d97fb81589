package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/sbtsim/internal/testruns"
	"github.com/okian/sbtsim/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumRuns       = 100
	defaultTopN          = 10
	defaultTimeout       = 30 * time.Second
	defaultVerifyTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numRuns = flag.Int("runs", defaultNumRuns, "Number of parameter sets to generate and submit")
		topN    = flag.Int("top", defaultTopN, "Number of top entries to fetch from leaderboard")
		workers = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile = flag.String("log", "", "Log file for verification output (default: verify_runs_TIMESTAMP.log)")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testruns.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		return
	}

	// Setup logging
	if err := testruns.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultVerifyTimeout)
	defer cancel()

	// Create verification configuration
	config := &testruns.Config{
		BaseURL: *baseURL,
		NumRuns: *numRuns,
		TopN:    *topN,
		Workers: *workers,
		Timeout: *timeout,
		LogFile: *logFile,
		Verbose: *verbose,
	}

	// Run the verification
	if err := testruns.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Verification failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
