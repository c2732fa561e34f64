package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	ServerCreate      time.Duration // Timeout for build server creation
	SSHReady          time.Duration // Timeout for waiting for SSH on a new server
	ImageBuild        time.Duration // Timeout for the provisioning script run
	SnapshotWait      time.Duration // Timeout for snapshot creation
	Plan              time.Duration // Timeout for terraform plan
	Apply             time.Duration // Timeout for terraform apply
	Destroy           time.Duration // Timeout for terraform destroy
	Deploy            time.Duration // Hard bound on the whole deploy step
	Delete            time.Duration // Timeout for resource delete operations
	RetryMaxAttempts  int           // Maximum number of retry attempts
	RetryInitialDelay time.Duration // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - STAGEHAND_TIMEOUT_SERVER_CREATE (default: 10m)
//   - STAGEHAND_TIMEOUT_SSH_READY (default: 5m)
//   - STAGEHAND_TIMEOUT_IMAGE_BUILD (default: 30m)
//   - STAGEHAND_TIMEOUT_SNAPSHOT_WAIT (default: 15m)
//   - STAGEHAND_TIMEOUT_PLAN (default: 10m)
//   - STAGEHAND_TIMEOUT_APPLY (default: 20m)
//   - STAGEHAND_TIMEOUT_DESTROY (default: 15m)
//   - STAGEHAND_TIMEOUT_DEPLOY (default: 10m)
//   - STAGEHAND_TIMEOUT_DELETE (default: 5m)
//   - STAGEHAND_RETRY_MAX_ATTEMPTS (default: 5)
//   - STAGEHAND_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		ServerCreate:      parseDuration("STAGEHAND_TIMEOUT_SERVER_CREATE", 10*time.Minute),
		SSHReady:          parseDuration("STAGEHAND_TIMEOUT_SSH_READY", 5*time.Minute),
		ImageBuild:        parseDuration("STAGEHAND_TIMEOUT_IMAGE_BUILD", 30*time.Minute),
		SnapshotWait:      parseDuration("STAGEHAND_TIMEOUT_SNAPSHOT_WAIT", 15*time.Minute),
		Plan:              parseDuration("STAGEHAND_TIMEOUT_PLAN", 10*time.Minute),
		Apply:             parseDuration("STAGEHAND_TIMEOUT_APPLY", 20*time.Minute),
		Destroy:           parseDuration("STAGEHAND_TIMEOUT_DESTROY", 15*time.Minute),
		Deploy:            parseDuration("STAGEHAND_TIMEOUT_DEPLOY", 10*time.Minute),
		Delete:            parseDuration("STAGEHAND_TIMEOUT_DELETE", 5*time.Minute),
		RetryMaxAttempts:  parseInt("STAGEHAND_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("STAGEHAND_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// TestTimeouts returns short timeouts suitable for unit tests. Retry delays
// are near zero so failure paths exercise the retry loop without slowing the
// suite down.
func TestTimeouts() *Timeouts {
	return &Timeouts{
		ServerCreate:      5 * time.Second,
		SSHReady:          2 * time.Second,
		ImageBuild:        5 * time.Second,
		SnapshotWait:      5 * time.Second,
		Plan:              5 * time.Second,
		Apply:             5 * time.Second,
		Destroy:           5 * time.Second,
		Deploy:            2 * time.Second,
		Delete:            5 * time.Second,
		RetryMaxAttempts:  2,
		RetryInitialDelay: time.Millisecond,
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
