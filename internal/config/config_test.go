package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "summa.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Test.Parallel)
	assert.Empty(t, cfg.Store.Path)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
store:
  path: runs.db
policy:
  path: policy.cue
metrics:
  output: summa.prom
test:
  parallel: 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "runs.db", cfg.Store.Path)
	assert.Equal(t, "policy.cue", cfg.Policy.Path)
	assert.Equal(t, "summa.prom", cfg.Metrics.Output)
	assert.Equal(t, 2, cfg.Test.Parallel)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\nstore:\n  path: file.db\n")
	t.Setenv("SUMMA_LOG_LEVEL", "warn")
	t.Setenv("SUMMA_STORE_PATH", "env.db")
	t.Setenv("SUMMA_TEST_PARALLEL", "8")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "env.db", cfg.Store.Path)
	assert.Equal(t, 8, cfg.Test.Parallel)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"SUMMA_LOG_LEVEL":      "log.level",
		"SUMMA_METRICS_OUTPUT": "metrics.output",
		"SUMMA_TEST_PARALLEL":  "test.parallel",
		"SUMMA_VERBOSE":        "verbose",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "bad level", content: "log:\n  level: loud\n"},
		{name: "bad format", content: "log:\n  format: xml\n"},
		{name: "bad parallel", content: "test:\n  parallel: 1000\n"},
		{name: "policy not cue", content: "policy:\n  path: policy.yaml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config validation failed")
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Test.Parallel)
	assert.Empty(t, cfg.Store.Path)
}
