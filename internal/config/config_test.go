package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("QUEUE_NAME", "publish-queue")
	t.Setenv("EXECUTOR_BIN", "/usr/local/bin/engine")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 120, cfg.VisibilityTimeoutSec)
	assert.Equal(t, 20, cfg.WaitTimeSec)
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, 2, cfg.ReceiveErrorSleepSec)
	assert.Equal(t, 604800, cfg.IdempotencyTTLSec)
	assert.Equal(t, 600, cfg.ExecutorTimeoutSec)
	assert.Empty(t, cfg.HistoryBackend)
}

func TestLoadMissingQueueName(t *testing.T) {
	t.Setenv("EXECUTOR_BIN", "/usr/local/bin/engine")
	t.Setenv("QUEUE_NAME", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBatchSizeOutOfRange(t *testing.T) {
	setRequired(t)
	t.Setenv("BATCH_SIZE", "50")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownHistoryBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("HISTORY_BACKEND", "mongodb")

	_, err := Load()
	assert.Error(t, err)
}
