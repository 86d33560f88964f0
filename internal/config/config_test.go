package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
[bridge]
dir = "/tmp/bridge"
scrollback = 2000
interval_ms = 250
input_policy = "line"
watch_input = false

[logs]
level = "debug"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/bridge", cfg.Bridge.Dir)
	assert.Equal(t, 2000, cfg.Bridge.Scrollback)
	assert.Equal(t, 250, cfg.Bridge.IntervalMS)
	assert.Equal(t, "line", cfg.Bridge.InputPolicy)
	assert.False(t, cfg.Bridge.WatchInput)
	assert.Equal(t, "debug", cfg.Logs.Level)
	assert.Equal(t, "json", cfg.Logs.Format, "unset fields keep defaults")
}

func TestLoadMalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("[bridge\ndir ="), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFloorsZeroedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
[bridge]
scrollback = 0
interval_ms = -5
dir = ""
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Bridge.Scrollback, cfg.Bridge.Scrollback)
	assert.Equal(t, Default().Bridge.IntervalMS, cfg.Bridge.IntervalMS)
	assert.Equal(t, Default().Bridge.Dir, cfg.Bridge.Dir)
}
