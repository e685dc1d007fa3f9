package backend

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/dweymouth/mediabridge/backend/notify"
	"github.com/dweymouth/mediabridge/backend/nowplaying"
	"github.com/pelletier/go-toml/v2"
)

const (
	LogLevelDebug   = "debug"
	LogLevelInfo    = "info"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

type AppConfig struct {
	LastLaunchedVersion string
	LogLevel            string
	// ActivateCommand is run when the notification body or the media
	// session's Raise is activated. Empty disables activation.
	ActivateCommand []string
}

type NotificationConfig struct {
	ChannelID   string
	ChannelName string
	Category    string
	Urgency     string
	// Slot is the fixed identifier of the one notification the daemon shows.
	Slot     uint32
	IconSize int
	// DefaultIconFile replaces the bundled icon if set.
	DefaultIconFile  string
	PlaceholderTitle string
}

type SessionConfig struct {
	Name          string
	Album         string
	ExportArtwork bool
}

type PlaybackConfig struct {
	// "accept" or "clamp"
	PositionPolicy string
}

type Config struct {
	Application  AppConfig
	Notification NotificationConfig
	Session      SessionConfig
	Playback     PlaybackConfig
}

func DefaultConfig(appName, displayName string) *Config {
	return &Config{
		Application: AppConfig{
			LogLevel: LogLevelInfo,
		},
		Notification: NotificationConfig{
			ChannelID:        appName + "_media",
			ChannelName:      displayName,
			Category:         "x-mediabridge.nowplaying",
			Urgency:          "low",
			Slot:             1,
			IconSize:         128,
			PlaceholderTitle: displayName,
		},
		Session: SessionConfig{
			Name:          appName,
			Album:         displayName,
			ExportArtwork: true,
		},
		Playback: PlaybackConfig{
			PositionPolicy: string(nowplaying.PositionAccept),
		},
	}
}

func ReadConfigFile(filepath, appName, displayName string) (*Config, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := DefaultConfig(appName, displayName)
	if err := toml.NewDecoder(f).Decode(c); err != nil {
		return nil, err
	}
	c.normalize(appName)
	return c, nil
}

// normalize replaces values the daemon cannot run with.
func (c *Config) normalize(appName string) {
	c.Notification.IconSize = clamp(c.Notification.IconSize, 16, 512)
	if c.Notification.Slot == 0 {
		// 0 asks the notification server for a fresh notification
		c.Notification.Slot = 1
	}
	if c.Session.Name == "" {
		c.Session.Name = appName
	}
	c.Playback.PositionPolicy = string(nowplaying.ParsePositionPolicy(c.Playback.PositionPolicy))
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Application.LogLevel) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarning, "warn":
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

func (c *Config) Channel() notify.Channel {
	return notify.Channel{
		ID:       c.Notification.ChannelID,
		Name:     c.Notification.ChannelName,
		Category: c.Notification.Category,
		Urgency:  notify.ParseUrgency(c.Notification.Urgency),
	}
}

var writeLock sync.Mutex

func (c *Config) WriteConfigFile(filepath string) error {
	if !writeLock.TryLock() {
		return nil // another write in progress
	}
	defer writeLock.Unlock()

	b, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, b, 0644)
}

func clamp(i, min, max int) int {
	if i < min {
		i = min
	} else if i > max {
		i = max
	}
	return i
}
