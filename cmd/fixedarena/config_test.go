package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavanmanishd/fixedarena"
)

func parseConfigFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addConfigFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestResolveConfigDefaults(t *testing.T) {
	resetGlobals()
	cfg, err := resolveConfig(parseConfigFlags(t))
	require.NoError(t, err)
	assert.Equal(t, fixedarena.DefaultConfig(), cfg)
}

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	resetGlobals()
	path := filepath.Join(t.TempDir(), "arena.toml")
	require.NoError(t, os.WriteFile(path, []byte("capacity = 8192\ntable_slots = 32\nhistory_slots = 10\n"), 0o600))

	cfg, err := resolveConfig(parseConfigFlags(t, "--config", path, "--slots", "64"))
	require.NoError(t, err)
	assert.Equal(t, 8192, cfg.Capacity)
	assert.Equal(t, 64, cfg.TableSlots)
	assert.Equal(t, 10, cfg.HistorySlots)
	assert.Equal(t, fixedarena.BackingHeap, cfg.Backing)
}

func TestResolveConfigInvalid(t *testing.T) {
	resetGlobals()
	_, err := resolveConfig(parseConfigFlags(t, "--capacity", "0"))
	require.ErrorIs(t, err, fixedarena.ErrInvalidCapacity)

	_, err = resolveConfig(parseConfigFlags(t, "--backing", "floppy"))
	require.ErrorIs(t, err, fixedarena.ErrInvalidBacking)

	_, err = resolveConfig(parseConfigFlags(t, "--config", filepath.Join(t.TempDir(), "missing.toml")))
	require.Error(t, err)
}

func TestConfigCommandPrintsTOML(t *testing.T) {
	resetGlobals()
	cmd := newConfigCmd()
	addConfigFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Parse([]string{"--capacity", "4096"}))

	out, err := captureOutput(t, func() error {
		return cmd.RunE(cmd, nil)
	})
	require.NoError(t, err)
	assert.Contains(t, out, "capacity = 4096")
	assert.Contains(t, out, "table_slots = 100")
	assert.Contains(t, out, `backing = "heap"`)
}
