package backend

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dweymouth/mediabridge/backend/notify"
	"github.com/dweymouth/mediabridge/backend/nowplaying"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestReadConfigFile_BackfillsDefaults(t *testing.T) {
	p := writeFile(t, "config.toml", `
[Notification]
IconSize = 64

[Playback]
PositionPolicy = "Clamp"
`)
	got, err := ReadConfigFile(p, "mediabridge", "Media Bridge")
	require.NoError(t, err)

	want := DefaultConfig("mediabridge", "Media Bridge")
	want.Notification.IconSize = 64
	want.Playback.PositionPolicy = string(nowplaying.PositionClamp)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestReadConfigFile_Normalizes(t *testing.T) {
	p := writeFile(t, "config.toml", `
[Notification]
Slot = 0
IconSize = 4096

[Session]
Name = ""

[Playback]
PositionPolicy = "sometimes"
`)
	got, err := ReadConfigFile(p, "mediabridge", "Media Bridge")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), got.Notification.Slot)
	assert.Equal(t, 512, got.Notification.IconSize)
	assert.Equal(t, "mediabridge", got.Session.Name)
	assert.Equal(t, string(nowplaying.PositionAccept), got.Playback.PositionPolicy)
}

func TestReadConfigFile_Malformed(t *testing.T) {
	p := writeFile(t, "config.toml", "[Notification\nSlot = ")
	_, err := ReadConfigFile(p, "mediabridge", "Media Bridge")
	assert.Error(t, err)

	_, err = ReadConfigFile(filepath.Join(t.TempDir(), "missing.toml"), "mediabridge", "Media Bridge")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteConfigFile_RoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.toml")
	c := DefaultConfig("mediabridge", "Media Bridge")
	c.Application.ActivateCommand = []string{"xdg-open", "https://example.com"}
	c.Notification.Urgency = "normal"
	require.NoError(t, c.WriteConfigFile(p))

	got, err := ReadConfigFile(p, "mediabridge", "Media Bridge")
	require.NoError(t, err)
	if diff := cmp.Diff(c, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	for level, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	} {
		c := DefaultConfig("a", "A")
		c.Application.LogLevel = level
		assert.Equal(t, want, c.SlogLevel(), level)
	}
}

func TestConfig_Channel(t *testing.T) {
	c := DefaultConfig("mediabridge", "Media Bridge")
	c.Notification.Urgency = "critical"
	assert.Equal(t, notify.Channel{
		ID:       "mediabridge_media",
		Name:     "Media Bridge",
		Category: "x-mediabridge.nowplaying",
		Urgency:  notify.UrgencyCritical,
	}, c.Channel())
}
