package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gserver.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
[server]
max-parallel = 16
script-cache-size = 64

[limits]
max-frame-depth = 32
max-stack-depth = 1024
instruction-budget = 500000
wall-clock = "250ms"

[storage]
path = "globals.db"

[logging]
verbosity = 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Server.MaxParallel)
	assert.Equal(t, 64, cfg.Server.ScriptCacheSize)
	assert.Equal(t, "globals.db", cfg.Storage.Path)
	assert.Equal(t, 2, cfg.Logging.Verbosity)

	limits, err := cfg.VMLimits()
	require.NoError(t, err)
	assert.Equal(t, 32, limits.MaxFrameDepth)
	assert.Equal(t, 1024, limits.MaxStackDepth)
	assert.Equal(t, 500000, limits.InstructionBudget)
	assert.Equal(t, 250*time.Millisecond, limits.WallClock)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[storage]
path = "globals.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Server.MaxParallel)
	assert.Equal(t, 256, cfg.Server.ScriptCacheSize)

	limits, err := cfg.VMLimits()
	require.NoError(t, err)
	assert.Zero(t, limits.MaxFrameDepth, "unset limits stay zero for VM defaults")
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfig(t, `
[limits]
wall-clock = "soon"
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestLoadBadSyntax(t *testing.T) {
	path := writeConfig(t, "[server\nmax-parallel = ")
	_, err := Load(path)
	require.Error(t, err)
}
