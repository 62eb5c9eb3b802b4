package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("FETCH_RETRY_MAX_ATTEMPTS", "")
	t.Setenv("BULK_CONFLICT_POLICY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, 3, cfg.FetchRetryMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.FetchHTTPTimeout)
	assert.Equal(t, int64(10<<20), cfg.UploadMaxBytes)
	assert.Equal(t, "ignore", cfg.BulkConflictPolicy)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("FETCH_RETRY_BACKOFF", "5")
	t.Setenv("BULK_CONFLICT_POLICY", "reject")
	t.Setenv("TASK_WORKERS", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.FetchRetryBackoff)
	assert.Equal(t, "reject", cfg.BulkConflictPolicy)
	assert.Equal(t, 4, cfg.TaskWorkers)
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate_RetryCeiling(t *testing.T) {
	cfg := &Config{StoreDriver: "memory", BulkConflictPolicy: "ignore", FetchRetryMaxAttempts: 0, TaskWorkers: 1, UploadMaxBytes: 1}
	assert.Error(t, cfg.Validate())

	cfg.FetchRetryMaxAttempts = 1
	assert.NoError(t, cfg.Validate())
}
