package backend

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/20after4/configdir"
	"github.com/dweymouth/mediabridge/backend/bus"
	"github.com/dweymouth/mediabridge/backend/ipc"
	"github.com/dweymouth/mediabridge/backend/lifecycle"
	"github.com/dweymouth/mediabridge/backend/mediasession"
	"github.com/dweymouth/mediabridge/backend/notify"
	"github.com/dweymouth/mediabridge/backend/nowplaying"
	"github.com/dweymouth/mediabridge/backend/relay"
	"github.com/dweymouth/mediabridge/backend/util"
	"github.com/dweymouth/mediabridge/res"
)

const (
	configFile  = "config.toml"
	portableDir = "mediabridge_portable"
	artworkDir  = "artwork"
)

var (
	ErrAnotherInstance = errors.New("another instance is running")
	errNoActivate      = errors.New("no activate command configured")
)

type App struct {
	Config     *Config
	Bus        *bus.Bus
	NowPlaying *nowplaying.Holder
	Controller *lifecycle.Controller

	// Called when a client requests the daemon to exit.
	OnExit func()

	appName       string
	displayName   string
	appVersionTag string
	configDir     string
	cacheDir      string
	portableMode  bool

	isFirstLaunch bool // set by config file reader

	surface   *notify.DBusSurface
	ipcServer *ipc.Server
}

func (a *App) VersionTag() string {
	return a.appVersionTag
}

func StartupApp(appName, displayAppName, appVersionTag string) (*App, error) {
	var confDir, cacheDir string
	portableMode := false
	if p := checkPortablePath(); p != "" {
		confDir = filepath.Join(p, "config")
		cacheDir = filepath.Join(p, "cache")
		portableMode = true
	} else {
		confDir = configdir.LocalConfig(appName)
		cacheDir = configdir.LocalCache(appName)
	}
	// ensure config and cache dirs exist
	configdir.MakePath(confDir)
	configdir.MakePath(cacheDir)

	if _, err := ipc.Connect(); err == nil {
		return nil, ErrAnotherInstance
	}

	a := &App{
		appName:       appName,
		displayName:   displayAppName,
		appVersionTag: appVersionTag,
		configDir:     confDir,
		cacheDir:      cacheDir,
		portableMode:  portableMode,
	}
	cfgErr := a.readConfig()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: a.Config.SlogLevel()})))
	if cfgErr != nil {
		slog.Warn("Config file may be malformed, using defaults", slog.String("stack", cfgErr.Error()))
	}

	slog.Info(fmt.Sprintf("Starting %s...", appName), slog.String("version", appVersionTag))
	slog.Info("Using config dir", slog.String("path", confDir))
	slog.Info("Using cache dir", slog.String("path", cacheDir))

	a.Bus = bus.New()
	a.NowPlaying = &nowplaying.Holder{}

	deps := lifecycle.Deps{
		Bus:        a.Bus,
		Session:    a.sessionFactory(),
		Holder:     a.NowPlaying,
		OnActivate: func() { a.activate() },
	}
	if s, err := notify.NewDBusSurface(appName); err != nil {
		slog.Warn("No notification surface, notifications are disabled", slog.String("stack", err.Error()))
	} else {
		a.surface = s
		deps.Surface = s
	}
	a.Controller = lifecycle.New(a.controllerConfig(), deps)

	listener, err := ipc.Listen()
	if err != nil {
		a.teardown()
		return nil, fmt.Errorf("failed to listen on %s: %w", ipc.Address(), err)
	}
	a.ipcServer = ipc.NewServer(a.Bus, a.callOnExit)
	go func() {
		if err := a.ipcServer.Serve(listener); err != nil {
			slog.Error("IPC server stopped", slog.String("stack", err.Error()))
		}
	}()

	if err := a.Controller.Start(); err != nil {
		a.teardown()
		return nil, err
	}
	slog.Info("Listening for updates", slog.String("address", ipc.Address()))
	return a, nil
}

func (a *App) IsFirstLaunch() bool {
	return a.isFirstLaunch
}

func (a *App) IsPortableMode() bool {
	return a.portableMode
}

func checkPortablePath() string {
	if p, err := os.Executable(); err == nil {
		pdirPath := filepath.Join(filepath.Dir(p), portableDir)
		if s, err := os.Stat(pdirPath); err == nil && s.IsDir() {
			return pdirPath
		}
	}
	return ""
}

// readConfig loads the config file, falling back to defaults. A file that
// exists but cannot be read is backed up and its error returned, so it can
// be logged once logging is configured.
func (a *App) readConfig() error {
	cfgPath := a.configFilePath()
	var cfgExists bool
	if _, err := os.Stat(cfgPath); err == nil {
		cfgExists = true
	}
	a.isFirstLaunch = !cfgExists
	cfg, err := ReadConfigFile(cfgPath, a.appName, a.displayName)
	if err == nil {
		a.Config = cfg
		return nil
	}
	a.Config = DefaultConfig(a.appName, a.displayName)
	if !cfgExists {
		return nil
	}
	backupCfgPath := filepath.Join(a.configDir, configFile+".bak")
	if cerr := util.CopyFile(cfgPath, backupCfgPath); cerr != nil {
		return fmt.Errorf("%w (backup failed: %v)", err, cerr)
	}
	return fmt.Errorf("%w (copied to %s)", err, backupCfgPath)
}

func (a *App) controllerConfig() lifecycle.Config {
	n := a.Config.Notification
	return lifecycle.Config{
		SessionName: a.Config.Session.Name,
		Channel:     a.Config.Channel(),
		Renderer: notify.RendererConfig{
			Slot:             n.Slot,
			Channel:          n.ChannelID,
			IconSize:         n.IconSize,
			DefaultIcon:      a.defaultIcon(),
			PlaceholderTitle: n.PlaceholderTitle,
		},
		Relay: relay.Config{
			Album:          a.Config.Session.Album,
			PositionPolicy: nowplaying.ParsePositionPolicy(a.Config.Playback.PositionPolicy),
		},
	}
}

// defaultIcon loads the configured fallback icon, or the bundled one.
func (a *App) defaultIcon() image.Image {
	p := a.Config.Notification.DefaultIconFile
	if p == "" {
		return res.AppIcon()
	}
	f, err := os.Open(p)
	if err != nil {
		slog.Warn("Failed to open default icon", slog.String("stack", err.Error()))
		return res.AppIcon()
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		slog.Warn("Failed to decode default icon", slog.String("stack", err.Error()))
		return res.AppIcon()
	}
	return img
}

func (a *App) sessionFactory() mediasession.Factory {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
	default:
		return mediasession.NoOpFactory
	}
	var artDir string
	if a.Config.Session.ExportArtwork {
		artDir = filepath.Join(a.cacheDir, artworkDir)
		if err := configdir.MakePath(artDir); err != nil {
			slog.Warn("Artwork export disabled", slog.String("stack", err.Error()))
			artDir = ""
		}
	}
	return mediasession.MPRISFactory(artDir, a.activate)
}

// activate runs the configured activate command, if any.
func (a *App) activate() error {
	cmd := a.Config.Application.ActivateCommand
	if len(cmd) == 0 {
		return errNoActivate
	}
	c := exec.Command(cmd[0], cmd[1:]...)
	if err := c.Start(); err != nil {
		slog.Error("Failed to run activate command", slog.String("stack", err.Error()))
		return err
	}
	go c.Wait()
	return nil
}

func (a *App) callOnExit() {
	if a.OnExit != nil {
		a.OnExit()
	}
}

func (a *App) teardown() {
	if a.Controller != nil {
		a.Controller.Stop()
	}
	if a.ipcServer != nil {
		a.ipcServer.Close()
		ipc.DestroyConn()
	}
	if a.surface != nil {
		a.surface.Close()
	}
}

func (a *App) Shutdown() {
	a.teardown()
	a.Config.Application.LastLaunchedVersion = a.appVersionTag
	if err := a.Config.WriteConfigFile(a.configFilePath()); err != nil {
		slog.Warn("Failed to save config", slog.String("stack", err.Error()))
	}
}

func (a *App) configFilePath() string {
	return filepath.Join(a.configDir, configFile)
}
