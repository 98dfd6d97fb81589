package testruns

import "time"

const (
	// defaultPollInterval is the delay between run status polls.
	defaultPollInterval = 50 * time.Millisecond
	// defaultPollAttempts bounds how long we wait for a run to complete.
	defaultPollAttempts = 200
	// scoreTolerance is the tolerance for floating-point property checks.
	scoreTolerance = 1e-9
	// duplicateEvery controls how often a submitted parameter set is an
	// exact repeat of an earlier one, to exercise memoization.
	duplicateEvery = 5
	// logFilePermissions for the harness log file.
	logFilePermissions = 0o600
)
