package testruns

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// SetupLogging configures logging to both stdout and a log file.
func SetupLogging(logFile string) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "verify_runs_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logFile, err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	return nil
}

// ShowHelp displays usage information.
func ShowHelp() {
	fmt.Println("Run Verifier - submits randomized simulation runs and checks the service end to end")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  verify-runs [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -url string        Base URL of the service (default \"http://localhost:9080\")")
	fmt.Println("  -runs int          Number of parameter sets to submit (default 100)")
	fmt.Println("  -top int           Number of leaderboard entries to verify (default 10)")
	fmt.Println("  -workers int       Number of concurrent submitters (default NumCPU)")
	fmt.Println("  -timeout duration  HTTP request timeout (default 30s)")
	fmt.Println("  -log string        Log file path (default: verify_runs_TIMESTAMP.log)")
	fmt.Println("  -verbose           Enable verbose logging")
	fmt.Println("  -help              Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  verify-runs -runs 500 -workers 8")
	fmt.Println("  verify-runs -url http://localhost:9080 -top 25 -verbose")
}
