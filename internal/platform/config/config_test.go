package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.env"))
	require.NoError(t, err)

	assert.Equal(t, "td_results", cfg.OutFolder)
	assert.Equal(t, "monitor_error_jobs.json", cfg.ErrorLogFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TDMON_OUT_FOLDER", "/data/td_results")
	t.Setenv("TDMON_LOG_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/data/td_results", cfg.OutFolder)
	assert.Equal(t, "json", cfg.LogFormat)
}
