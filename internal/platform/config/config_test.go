package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()

	t.Setenv("POSTGRES_DSN", "postgres://localhost/test")
	t.Setenv("LLM_API_KEY", "sk-test")
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("POSTGRES_DSN")
	os.Unsetenv("LLM_API_KEY")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.AppEnv)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.Equal(t, 30*time.Second, cfg.LLMRequestTimeout)
	assert.Equal(t, "uploads", cfg.BatchBucket)
	assert.Equal(t, "batch_uploads", cfg.NotifyChannel)
	assert.Equal(t, 10, cfg.DispatchRowLimit)
	assert.Equal(t, 30*time.Second, cfg.DispatchPollInterval)
	assert.Equal(t, 8080, cfg.HTTPPort)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("DISPATCH_ROW_LIMIT", "25")
	t.Setenv("NOTIFY_CHANNEL", "custom_channel")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.DispatchRowLimit)
	assert.Equal(t, "custom_channel", cfg.NotifyChannel)
}
