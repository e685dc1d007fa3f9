package mediasession

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dweymouth/mediabridge/backend/util"
	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
)

const (
	mprisBusPrefix    = "org.mpris.MediaPlayer2."
	dbusTrackIDPrefix = "/org/mediabridge/Track/"
	noTrackObjectPath = "/org/mpris/MediaPlayer2/TrackList/NoTrack"

	// a reported position further than this from the extrapolated one
	// is announced to MPRIS clients as a seek
	seekThreshold = 1500 * time.Millisecond
)

var (
	_ Handle                                  = (*MPRIS)(nil)
	_ types.OrgMprisMediaPlayer2Adapter       = (*MPRIS)(nil)
	_ types.OrgMprisMediaPlayer2PlayerAdapter = (*MPRIS)(nil)
)

var (
	errNotSupported = errors.New("not supported")
	errNoControls   = errors.New("no transport controls registered")
)

// MPRIS is a Handle backed by an MPRIS2 server on the session bus.
type MPRIS struct {
	// Function called if the player is requested to bring its UI to the front.
	OnRaise func() error

	playerName string
	artDir     string // empty disables artwork export
	s          *server.Server
	evt        *events.EventHandler

	mu        sync.Mutex
	connErr   error
	controls  TransportControls
	meta      Metadata
	trackPath string
	artPath   string
	state     PlaybackState
	sinceSet  util.Stopwatch
}

// MPRISFactory returns a Factory creating started MPRIS sessions that export
// artwork into artDir.
func MPRISFactory(artDir string, onRaise func() error) Factory {
	return func(name string) (Handle, error) {
		m := NewMPRIS(name, artDir)
		m.OnRaise = onRaise
		m.Start()
		return m, nil
	}
}

func NewMPRIS(playerName, artDir string) *MPRIS {
	m := &MPRIS{playerName: playerName, artDir: artDir, connErr: errors.New("not started")}
	m.s = server.NewServer(playerName, m, m)
	m.evt = events.NewEventHandler(m.s)
	return m
}

// Starts listening for MPRIS requests.
func (m *MPRIS) Start() {
	m.setConnErr(nil)
	go func() {
		// exits early with err if unable to establish D-Bus connection
		if err := m.s.Listen(); err != nil {
			slog.Warn("MPRIS session unavailable", slog.String("stack", err.Error()))
			m.setConnErr(err)
		}
	}()
}

func (m *MPRIS) setConnErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connErr = err
}

// Release stops the MPRIS server and removes exported artwork.
func (m *MPRIS) Release() {
	m.mu.Lock()
	wasConnected := m.connErr == nil
	m.connErr = errors.New("stopped")
	artPath := m.artPath
	m.artPath = ""
	m.mu.Unlock()

	if wasConnected {
		m.s.Stop()
	}
	if artPath != "" {
		os.Remove(artPath)
	}
}

func (m *MPRIS) Token() string {
	return mprisBusPrefix + m.playerName
}

func (m *MPRIS) SetTransportControls(c TransportControls) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.controls = c
}

func (m *MPRIS) SetMetadata(meta Metadata) {
	m.mu.Lock()
	changed := meta != m.meta
	if changed {
		if meta.Art != m.meta.Art || m.artPath == "" {
			m.exportArt(meta)
		}
		m.meta = meta
		m.trackPath = dbusTrackIDPrefix + trackID(meta)
	}
	notify := changed && m.connErr == nil
	m.mu.Unlock()

	if notify {
		m.evt.Player.OnTitle()
	}
}

// exportArt writes the artwork as a PNG named after its content hash, so
// MPRIS clients that cache by URL pick up new art. Called with m.mu held.
func (m *MPRIS) exportArt(meta Metadata) {
	if m.artDir == "" {
		return
	}
	old := m.artPath
	m.artPath = ""
	if meta.Art != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, meta.Art); err != nil {
			slog.Warn("Failed to encode session artwork", slog.String("stack", err.Error()))
		} else {
			p := filepath.Join(m.artDir, fmt.Sprintf("cover-%016x.png", xxhash.Sum64(buf.Bytes())))
			if p == old {
				m.artPath = old
				return
			}
			if err := os.WriteFile(p, buf.Bytes(), 0o600); err != nil {
				slog.Warn("Failed to export session artwork", slog.String("stack", err.Error()))
			} else {
				m.artPath = p
			}
		}
	}
	if old != "" && old != m.artPath {
		os.Remove(old)
	}
}

func (m *MPRIS) SetPlaybackState(st PlaybackState) {
	m.mu.Lock()
	prev := m.state
	expected := m.positionLocked()
	m.state = st
	m.sinceSet.Restart(st.Status == StatusPlaying)
	connected := m.connErr == nil
	m.mu.Unlock()

	if !connected {
		return
	}
	if prev.Status != st.Status {
		m.evt.Player.OnPlayPause()
	}
	if drift := time.Duration(st.PositionMs-expected) * time.Millisecond; drift > seekThreshold || drift < -seekThreshold {
		m.evt.Player.OnSeek(msToMicroseconds(st.PositionMs))
	}
}

// positionLocked extrapolates the playback position. Called with m.mu held.
func (m *MPRIS) positionLocked() int64 {
	pos := m.state.PositionMs
	if m.state.Status == StatusPlaying {
		rate := m.state.Rate
		if rate == 0 {
			rate = 1
		}
		pos += int64(float64(m.sinceSet.Elapsed().Milliseconds()) * rate)
	}
	return pos
}

func (m *MPRIS) transport() (TransportControls, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.controls == nil {
		return nil, errNoControls
	}
	return m.controls, nil
}

func (m *MPRIS) withControls(f func(TransportControls)) error {
	c, err := m.transport()
	if err != nil {
		return err
	}
	f(c)
	return nil
}

// OrgMprisMediaPlayer2Adapter implementation

func (m *MPRIS) Identity() (string, error) {
	return m.playerName, nil
}

func (m *MPRIS) CanQuit() (bool, error) {
	return false, nil
}

func (m *MPRIS) Quit() error {
	return errNotSupported
}

func (m *MPRIS) CanRaise() (bool, error) {
	return m.OnRaise != nil, nil
}

func (m *MPRIS) Raise() error {
	if m.OnRaise != nil {
		return m.OnRaise()
	}
	return errors.New("no raise handler added")
}

func (m *MPRIS) HasTrackList() (bool, error) {
	return false, nil
}

func (m *MPRIS) SupportedUriSchemes() ([]string, error) {
	return nil, nil
}

func (m *MPRIS) SupportedMimeTypes() ([]string, error) {
	return nil, nil
}

// OrgMprisMediaPlayer2PlayerAdapter implementation

func (m *MPRIS) Next() error {
	return m.withControls(TransportControls.OnNext)
}

func (m *MPRIS) Previous() error {
	return m.withControls(TransportControls.OnPrevious)
}

func (m *MPRIS) Pause() error {
	return m.withControls(TransportControls.OnPause)
}

func (m *MPRIS) Play() error {
	return m.withControls(TransportControls.OnPlay)
}

func (m *MPRIS) PlayPause() error {
	m.mu.Lock()
	playing := m.state.Status == StatusPlaying
	m.mu.Unlock()
	if playing {
		return m.Pause()
	}
	return m.Play()
}

func (m *MPRIS) Stop() error {
	return errNotSupported
}

func (m *MPRIS) Seek(offset types.Microseconds) error {
	// MPRIS seek command is relative to current position
	m.mu.Lock()
	pos := m.positionLocked() + microsecondsToMs(offset)
	m.mu.Unlock()
	if pos < 0 {
		pos = 0
	}
	return m.withControls(func(c TransportControls) { c.OnSeekTo(pos) })
}

func (m *MPRIS) SetPosition(trackId string, position types.Microseconds) error {
	m.mu.Lock()
	current := m.trackPath
	m.mu.Unlock()
	if current == "" || current != trackId {
		return nil
	}
	return m.withControls(func(c TransportControls) { c.OnSeekTo(microsecondsToMs(position)) })
}

func (m *MPRIS) OpenUri(uri string) error {
	return errNotSupported
}

func (m *MPRIS) PlaybackStatus() (types.PlaybackStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state.Status {
	case StatusPlaying:
		return types.PlaybackStatusPlaying, nil
	case StatusPaused, StatusBuffering:
		return types.PlaybackStatusPaused, nil
	case StatusStopped:
		return types.PlaybackStatusStopped, nil
	}
	return "", errors.New("unknown playback status")
}

func (m *MPRIS) Rate() (float64, error) {
	return 1, nil
}

func (m *MPRIS) SetRate(float64) error {
	return errNotSupported
}

func (m *MPRIS) Metadata() (types.Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trackObjPath := noTrackObjectPath
	if m.trackPath != "" {
		trackObjPath = m.trackPath
	}
	var artURL string
	if m.artPath != "" {
		artURL = "file://" + m.artPath
	}
	var artist []string
	if m.meta.Artist != "" {
		artist = []string{m.meta.Artist}
	}
	return types.Metadata{
		TrackId: dbus.ObjectPath(trackObjPath),
		Length:  msToMicroseconds(m.meta.DurationMs),
		Title:   m.meta.Title,
		Album:   m.meta.Album,
		Artist:  artist,
		ArtUrl:  artURL,
	}, nil
}

func (m *MPRIS) Volume() (float64, error) {
	return 1, nil
}

func (m *MPRIS) SetVolume(float64) error {
	return errNotSupported
}

func (m *MPRIS) Position() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(msToMicroseconds(m.positionLocked())), nil
}

func (m *MPRIS) MinimumRate() (float64, error) {
	return 1, nil
}

func (m *MPRIS) MaximumRate() (float64, error) {
	return 1, nil
}

func (m *MPRIS) CanGoNext() (bool, error) {
	return true, nil
}

func (m *MPRIS) CanGoPrevious() (bool, error) {
	return true, nil
}

func (m *MPRIS) CanPlay() (bool, error) {
	return true, nil
}

func (m *MPRIS) CanPause() (bool, error) {
	return true, nil
}

func (m *MPRIS) CanSeek() (bool, error) {
	return true, nil
}

func (m *MPRIS) CanControl() (bool, error) {
	return true, nil
}

func microsecondsToMs(us types.Microseconds) int64 {
	return int64(us) / 1000
}

func msToMicroseconds(ms int64) types.Microseconds {
	return types.Microseconds(ms * 1000)
}

// trackID derives a stable D-Bus path element for the current item.
func trackID(meta Metadata) string {
	h := xxhash.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d", meta.Title, meta.Artist, meta.Album, meta.DurationMs)
	return fmt.Sprintf("%016x", h.Sum64())
}
