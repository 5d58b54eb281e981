package dgconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalgraph/detectorgraph/dglog"
)

func TestDefault_ReturnsOutOfTheBoxValues(t *testing.T) {
	d := Default()

	assert.Equal(t, dglog.LevelInfo, d.LogLevel)
	assert.Equal(t, "text", d.LogFormat)
	assert.False(t, d.Lite)
	assert.Zero(t, d.LiteCapacity)
	assert.True(t, d.StaticAsserts)
	assert.True(t, d.PerfectForwarding)
}

// TestLoad_NoFileFallsBackToDefaults points HOME at an empty directory so no
// .detectorgraphrc.yaml is found, and asserts Load still succeeds with the
// built-in defaults rather than erroring on a missing file.
func TestLoad_NoFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	opts, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, Default(), opts)
}

// TestLoad_EnvironmentOverridesDefaults covers the DETECTORGRAPH_-prefixed
// environment variable precedence over defaults.
func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DETECTORGRAPH_LOG_LEVEL", "debug")
	t.Setenv("DETECTORGRAPH_LITE", "true")
	t.Setenv("DETECTORGRAPH_LITE_CAPACITY", "64")

	opts, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, dglog.Level("debug"), opts.LogLevel)
	assert.True(t, opts.Lite)
	assert.Equal(t, 64, opts.LiteCapacity)
}

// TestLoad_ReadsExplicitConfigFile covers an explicit cfgFile path taking
// precedence over defaults, independent of $HOME.
func TestLoad_ReadsExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\nlite: true\nlite_capacity: 8\n"), 0o644))

	opts, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, dglog.Level("warn"), opts.LogLevel)
	assert.True(t, opts.Lite)
	assert.Equal(t, 8, opts.LiteCapacity)
}
