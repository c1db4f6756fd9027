package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadTimeouts_Defaults(t *testing.T) {
	for _, k := range timeoutEnvVars {
		t.Setenv(k, "")
	}

	timeouts := LoadTimeouts()

	assert.Equal(t, 5*time.Second, timeouts.StackPollInterval)
	assert.Equal(t, 10, timeouts.ProvisionPollAttempts)
	assert.Equal(t, 1*time.Second, timeouts.ProvisionPollInterval)
	assert.Equal(t, 220, timeouts.IntrospectionPollAttempts)
	assert.Equal(t, 10*time.Second, timeouts.IntrospectionPollInterval)
	assert.Equal(t, 5, timeouts.RetryMaxAttempts)
	assert.Equal(t, 1*time.Second, timeouts.RetryInitialDelay)
}

func TestLoadTimeouts_CustomValues(t *testing.T) {
	t.Setenv("OVERCLOUD_STACK_POLL_INTERVAL", "2s")
	t.Setenv("OVERCLOUD_PROVISION_POLL_ATTEMPTS", "30")
	t.Setenv("OVERCLOUD_PROVISION_POLL_INTERVAL", "500ms")
	t.Setenv("OVERCLOUD_INTROSPECTION_POLL_ATTEMPTS", "5")
	t.Setenv("OVERCLOUD_INTROSPECTION_POLL_INTERVAL", "1m")
	t.Setenv("OVERCLOUD_RETRY_MAX_ATTEMPTS", "2")
	t.Setenv("OVERCLOUD_RETRY_INITIAL_DELAY", "100ms")

	timeouts := LoadTimeouts()

	assert.Equal(t, 2*time.Second, timeouts.StackPollInterval)
	assert.Equal(t, 30, timeouts.ProvisionPollAttempts)
	assert.Equal(t, 500*time.Millisecond, timeouts.ProvisionPollInterval)
	assert.Equal(t, 5, timeouts.IntrospectionPollAttempts)
	assert.Equal(t, time.Minute, timeouts.IntrospectionPollInterval)
	assert.Equal(t, 2, timeouts.RetryMaxAttempts)
	assert.Equal(t, 100*time.Millisecond, timeouts.RetryInitialDelay)
}

func TestLoadTimeouts_InvalidValues(t *testing.T) {
	t.Setenv("OVERCLOUD_STACK_POLL_INTERVAL", "soon")
	t.Setenv("OVERCLOUD_PROVISION_POLL_ATTEMPTS", "-3")
	t.Setenv("OVERCLOUD_INTROSPECTION_POLL_ATTEMPTS", "many")
	t.Setenv("OVERCLOUD_RETRY_INITIAL_DELAY", "0s")

	timeouts := LoadTimeouts()

	assert.Equal(t, 5*time.Second, timeouts.StackPollInterval)
	assert.Equal(t, 10, timeouts.ProvisionPollAttempts)
	assert.Equal(t, 220, timeouts.IntrospectionPollAttempts)
	assert.Equal(t, 1*time.Second, timeouts.RetryInitialDelay)
}

var timeoutEnvVars = []string{
	"OVERCLOUD_STACK_POLL_INTERVAL",
	"OVERCLOUD_PROVISION_POLL_ATTEMPTS",
	"OVERCLOUD_PROVISION_POLL_INTERVAL",
	"OVERCLOUD_INTROSPECTION_POLL_ATTEMPTS",
	"OVERCLOUD_INTROSPECTION_POLL_INTERVAL",
	"OVERCLOUD_RETRY_MAX_ATTEMPTS",
	"OVERCLOUD_RETRY_INITIAL_DELAY",
}
