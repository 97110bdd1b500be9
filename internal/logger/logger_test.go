package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("DEBUG"))
	assert.Equal(t, WARN, ParseLevel("WARN"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("bogus"))
	assert.Equal(t, "WARN", WARN.String())
}

func TestLoggerWritesFieldsAndFiltersLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l, err := New(Config{Level: INFO, FilePath: path, MaxSize: 1 << 20, MaxAge: 7, MaxBackups: 2})
	require.NoError(t, err)

	l.Debug("hidden")
	l.WithFields(F("session", "abc")).Info("push done", F("tasks", 3))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "push done")
	assert.Contains(t, out, `"tasks": 3`)
	assert.Contains(t, out, `"session": "abc"`)
}

func TestRotationBySize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0644))

	l, err := New(Config{Level: DEBUG, FilePath: path, MaxSize: 32, MaxAge: 7, MaxBackups: 3})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	_, err = os.Stat(path + ".1")
	assert.NoError(t, err, "oversized log should have been moved aside")
}

func TestGlobalFunctionsAreSafeBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		Info("nothing configured", F("k", "v"))
		Warn("still nothing")
	})
}
