package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TASKDECK_HOME", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, filepath.Join(dir, "taskdeck.db"), cfg.Storage.Path)
	assert.Equal(t, 30*time.Second, cfg.Sync.Timeout)
	assert.Empty(t, cfg.Sync.ServerURL)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TASKDECK_HOME", dir)
	path := filepath.Join(dir, "config.yaml")

	yamlDoc := `
log_level: DEBUG
storage:
  driver: file
  path: /tmp/tasks.json
sync:
  server_url: http://localhost:5000
  timeout: 5s
  debounce: 250ms
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0644))
	t.Setenv("TASKDECK_SERVER_URL", "https://tasks.example.com")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/tasks.json", cfg.Storage.Path)
	assert.Equal(t, "https://tasks.example.com", cfg.Sync.ServerURL)
	assert.Equal(t, 5*time.Second, cfg.Sync.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.Debounce)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TASKDECK_HOME", dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: redis\n"), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TASKDECK_HOME", dir)

	cfg := DefaultConfig()
	cfg.Sync.ServerURL = "http://localhost:5000"
	cfg.ConfirmDelete = false
	require.NoError(t, cfg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestProbeIntervalRequiredWithServer(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TASKDECK_HOME", dir)
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, os.WriteFile(path, []byte("sync:\n  server_url: http://localhost:5000\n  probe_interval: 0s\n"), 0644))
	_, err := LoadFile(path)
	assert.Error(t, err)

	// without a server nothing is probed
	require.NoError(t, os.WriteFile(path, []byte("sync:\n  probe_interval: 0s\n"), 0644))
	_, err = LoadFile(path)
	assert.NoError(t, err)
}
