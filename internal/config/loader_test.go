package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_NoFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadFrom_OverridesMergeOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	writeToml(t, dir, `
[scoring]
timeout_per_check_seconds = 120

[scoring.weights]
build = 40
tests = 40
lint = 10
diff_scope = 5
speed = 5

[worktree]
retain = "all"
`)

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, uint64(120), cfg.Scoring.TimeoutPerCheckSeconds)
	assert.Equal(t, uint32(40), cfg.Scoring.Weights.Build)
	assert.Equal(t, RetentionAll, cfg.Worktree.Retain)
	// Untouched sections keep their defaults.
	assert.Equal(t, uint64(1800), cfg.Supervisor.HardTimeoutSeconds)
}

func TestLoadFrom_RejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	writeToml(t, dir, `
[scoring]
bogus_field = true
`)

	_, err := LoadFrom(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown configuration key")
}

func TestLoadFrom_RejectsInvalidRetain(t *testing.T) {
	dir := t.TempDir()
	writeToml(t, dir, `
[worktree]
retain = "sometimes"
`)

	_, err := LoadFrom(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worktree.retain")
}

func writeToml(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hydra.toml"), []byte(content), 0o644))
}
