package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assetforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "assetforge.db", cfg.Database)
	assert.Equal(t, "mods", cfg.ModsDir)
	assert.True(t, cfg.UsePartialLoader)
	assert.True(t, cfg.EnablePackages)
	assert.False(t, cfg.SuppressLoadErrors)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.SearchPaths)
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
database: /var/lib/assetforge/catalog.db
mods_dir: /opt/mods
use_partial_loader: false
suppress_load_errors: true
log_level: debug
search_paths:
  - priority: 10
    path: /assets/base
  - priority: 20
    path: /assets/override
`))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/assetforge/catalog.db", cfg.Database)
	assert.Equal(t, "/opt/mods", cfg.ModsDir)
	assert.False(t, cfg.UsePartialLoader)
	assert.True(t, cfg.SuppressLoadErrors)
	assert.Equal(t, "debug", cfg.LogLevel)

	require.Len(t, cfg.SearchPaths, 2)
	assert.Equal(t, uint32(10), cfg.SearchPaths[0].Priority)
	assert.Equal(t, "/assets/base", cfg.SearchPaths[0].Path)
	assert.Equal(t, uint32(20), cfg.SearchPaths[1].Priority)
}

func TestLoadRejectsEmptySearchPath(t *testing.T) {
	_, err := Load(writeConfig(t, `
search_paths:
  - priority: 1
    path: ""
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty path")
}

func TestLoadRejectsUnreadableFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
