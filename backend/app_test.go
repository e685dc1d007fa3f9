package backend

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp_ReadConfigDefersLogging(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	malformed := "[Notification\nSlot = "
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte(malformed), 0644))

	a := &App{appName: "mediabridge", displayName: "Media Bridge", configDir: dir}
	err := a.readConfig()
	assert.Error(t, err)
	assert.Empty(t, logs.String(), "nothing is logged before the configured handler is installed")
	assert.Equal(t, DefaultConfig("mediabridge", "Media Bridge"), a.Config)
	assert.False(t, a.IsFirstLaunch())

	backup, rerr := os.ReadFile(filepath.Join(dir, configFile+".bak"))
	require.NoError(t, rerr)
	assert.Equal(t, malformed, string(backup))
}

func TestApp_ReadConfigFirstLaunch(t *testing.T) {
	a := &App{appName: "mediabridge", displayName: "Media Bridge", configDir: t.TempDir()}
	assert.NoError(t, a.readConfig())
	assert.True(t, a.IsFirstLaunch())
	assert.Equal(t, DefaultConfig("mediabridge", "Media Bridge"), a.Config)
}
