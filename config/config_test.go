package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/perfgo/coverpipe/cli/ncover"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ResolvesAndPersistsOnFirstUse(t *testing.T) {
	t.Setenv(EnvNCoverPath, "")
	path := filepath.Join(t.TempDir(), "coverpipe", "config.yaml")

	calls := 0
	resolve := func() ncover.ToolLocation {
		calls++
		return ncover.ToolLocation{Path: `C:\NCover`, Source: ncover.LocationDiscovered}
	}

	cfg, err := load(zerolog.Nop(), path, resolve)
	require.NoError(t, err)
	assert.Equal(t, `C:\NCover`, cfg.NCover.Path)
	assert.Equal(t, ncover.LocationDiscovered, cfg.NCover.Source)
	assert.FileExists(t, path)

	// A second load reads the persisted value instead of resolving again.
	cfg, err = load(zerolog.Nop(), path, func() ncover.ToolLocation {
		t.Fatal("tool location resolved twice")
		return ncover.ToolLocation{}
	})
	require.NoError(t, err)
	assert.Equal(t, `C:\NCover`, cfg.NCover.Path)
	assert.Equal(t, 1, calls)
}

func TestLoad_ExistingFile(t *testing.T) {
	t.Setenv(EnvNCoverPath, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ncover:\n  path: /opt/ncover\n  source: configured\nhistory_dir: /var/reports\n"), 0644))

	cfg, err := Load(zerolog.Nop(), path)
	require.NoError(t, err)
	assert.Equal(t, ncover.ToolLocation{Path: "/opt/ncover", Source: ncover.LocationConfigured}, cfg.NCover)
	assert.Equal(t, "/var/reports", cfg.HistoryDir)
}

func TestLoad_EnvOverrideIsNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, (&Config{NCover: ncover.ToolLocation{Path: "/opt/ncover", Source: ncover.LocationDefault}}).Save(path))

	t.Setenv(EnvNCoverPath, "/override")
	cfg, err := Load(zerolog.Nop(), path)
	require.NoError(t, err)
	assert.Equal(t, "/override", cfg.NCover.Path)
	assert.Equal(t, ncover.LocationConfigured, cfg.NCover.Source)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "/override")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ncover: [unterminated"), 0644))

	_, err := Load(zerolog.Nop(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "coverpipe", "config.yaml"), DefaultPath())

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/dev")
	assert.Equal(t, filepath.Join("/home/dev", ".config", "coverpipe", "config.yaml"), DefaultPath())
}

func TestLoad_UnwritableConfigKeepsResolvedLocation(t *testing.T) {
	t.Setenv(EnvNCoverPath, "")
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	path := filepath.Join(blocker, "config.yaml")

	var logs bytes.Buffer
	cfg, err := load(zerolog.New(&logs), path, func() ncover.ToolLocation {
		return ncover.ToolLocation{Path: `C:\NCover`, Source: ncover.LocationDefault}
	})
	require.NoError(t, err)
	assert.Equal(t, ncover.ToolLocation{Path: `C:\NCover`, Source: ncover.LocationDefault}, cfg.NCover)
	assert.NoFileExists(t, path)
	assert.Contains(t, logs.String(), "Failed to save configuration")
}
