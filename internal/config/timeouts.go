package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds poll cadences and budgets.
// These values can be customized via environment variables.
type Timeouts struct {
	StackPollInterval         time.Duration // Delay between stack event polls
	ProvisionPollAttempts     int           // Attempts while waiting for a node provision state
	ProvisionPollInterval     time.Duration // Delay between provision state polls
	IntrospectionPollAttempts int           // Rounds while waiting for introspection
	IntrospectionPollInterval time.Duration // Delay between introspection rounds
	RetryMaxAttempts          int           // Retries for identity requests
	RetryInitialDelay         time.Duration // Initial delay between identity retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - OVERCLOUD_STACK_POLL_INTERVAL (default: 5s)
//   - OVERCLOUD_PROVISION_POLL_ATTEMPTS (default: 10)
//   - OVERCLOUD_PROVISION_POLL_INTERVAL (default: 1s)
//   - OVERCLOUD_INTROSPECTION_POLL_ATTEMPTS (default: 220)
//   - OVERCLOUD_INTROSPECTION_POLL_INTERVAL (default: 10s)
//   - OVERCLOUD_RETRY_MAX_ATTEMPTS (default: 5)
//   - OVERCLOUD_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		StackPollInterval:         parseDuration("OVERCLOUD_STACK_POLL_INTERVAL", 5*time.Second),
		ProvisionPollAttempts:     parseInt("OVERCLOUD_PROVISION_POLL_ATTEMPTS", 10),
		ProvisionPollInterval:     parseDuration("OVERCLOUD_PROVISION_POLL_INTERVAL", 1*time.Second),
		IntrospectionPollAttempts: parseInt("OVERCLOUD_INTROSPECTION_POLL_ATTEMPTS", 220),
		IntrospectionPollInterval: parseDuration("OVERCLOUD_INTROSPECTION_POLL_INTERVAL", 10*time.Second),
		RetryMaxAttempts:          parseInt("OVERCLOUD_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay:         parseDuration("OVERCLOUD_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// parseDuration returns the default for unset, invalid or non-positive values.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt returns the default for unset, invalid or non-positive values.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return defaultVal
	}

	return i
}
