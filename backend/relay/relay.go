// Package relay bridges the OS control surface and the application's
// message bus in both directions.
package relay

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/dweymouth/mediabridge/backend/bus"
	"github.com/dweymouth/mediabridge/backend/mediasession"
	"github.com/dweymouth/mediabridge/backend/notify"
	"github.com/dweymouth/mediabridge/backend/nowplaying"
)

var _ mediasession.TransportControls = (*Relay)(nil)

// Publisher is the outbound half of the bus.
type Publisher interface {
	Publish(bus.Message) int
}

type Config struct {
	// Album is advertised on the media session for every item.
	Album          string
	PositionPolicy nowplaying.PositionPolicy
}

// Relay turns OS transport callbacks into control events and applies
// inbound updates to the state holder, notification and media session.
type Relay struct {
	cfg      Config
	pub      Publisher
	state    *nowplaying.Holder
	renderer *notify.Renderer
	surface  notify.Surface // nil if no notification surface exists
	session  mediasession.Handle

	mu             sync.Mutex // serializes updates
	closed         bool
	surfaceFailing bool
}

func New(cfg Config, pub Publisher, state *nowplaying.Holder, renderer *notify.Renderer,
	surface notify.Surface, session mediasession.Handle) *Relay {
	return &Relay{
		cfg:      cfg,
		pub:      pub,
		state:    state,
		renderer: renderer,
		surface:  surface,
		session:  session,
	}
}

func (r *Relay) OnPlay()     { r.Dispatch(bus.ControlPlay) }
func (r *Relay) OnPause()    { r.Dispatch(bus.ControlPause) }
func (r *Relay) OnNext()     { r.Dispatch(bus.ControlNext) }
func (r *Relay) OnPrevious() { r.Dispatch(bus.ControlPrev) }

// OnSeekTo forwards the requested position unmodified.
func (r *Relay) OnSeekTo(positionMs int64) {
	r.emit(bus.ControlEvent{Kind: bus.ControlSeek, SeekPositionMs: positionMs})
}

// Dispatch emits one control event without payload. Notification buttons
// use it directly with the action key they carry.
func (r *Relay) Dispatch(kind bus.ControlKind) {
	r.emit(bus.ControlEvent{Kind: kind})
}

func (r *Relay) emit(ev bus.ControlEvent) {
	if n := r.pub.Publish(ev); n == 0 {
		slog.Debug("Control event has no subscribers", slog.String("action", string(ev.Kind)))
	}
}

// ApplyUpdate replaces the current snapshot with one built from u, then
// re-renders the notification and syncs the media session before returning.
func (r *Relay) ApplyUpdate(u bus.UpdateMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	snap := nowplaying.Snapshot{
		Title:      u.Title,
		Subtitle:   u.Subtitle,
		Icon:       u.Icon,
		Transport:  nowplaying.ParseTransportLabel(u.Action),
		DurationMs: u.Duration,
		PositionMs: r.cfg.PositionPolicy.Apply(u.CurrentPosition, u.Duration),
	}
	r.state.Set(snap)

	n := r.renderer.Render(snap)
	r.post(n)

	r.session.SetMetadata(mediasession.Metadata{
		Title:      snap.Title,
		Artist:     snap.Subtitle,
		Album:      r.cfg.Album,
		Art:        n.Icon,
		DurationMs: snap.DurationMs,
	})
	r.session.SetPlaybackState(mediasession.PlaybackState{
		Status:     sessionStatus(snap.Transport),
		PositionMs: snap.PositionMs,
		Rate:       1,
	})
}

// Close waits for an update in progress to finish; later updates are
// dropped. Control callbacks keep working.
func (r *Relay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// post shows n. A missing or unavailable surface skips the render; the
// state update still stands. Called with r.mu held.
func (r *Relay) post(n notify.Notification) {
	if r.surface == nil {
		return
	}
	err := r.surface.Post(n)
	if err == nil {
		r.surfaceFailing = false
		return
	}
	if errors.Is(err, notify.ErrSurfaceUnavailable) {
		slog.Debug("Skipping notification render", slog.String("stack", err.Error()))
		return
	}
	// log the first failure of a run, not every position update
	if !r.surfaceFailing {
		slog.Warn("Failed to post notification", slog.String("stack", err.Error()))
		r.surfaceFailing = true
	}
}

func sessionStatus(t nowplaying.TransportLabel) mediasession.Status {
	switch t {
	case nowplaying.Play:
		return mediasession.StatusPlaying
	case nowplaying.Pause:
		return mediasession.StatusPaused
	}
	return mediasession.StatusBuffering
}
