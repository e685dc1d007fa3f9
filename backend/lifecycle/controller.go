// Package lifecycle starts and tears down the now-playing bridge.
package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dweymouth/mediabridge/backend/bus"
	"github.com/dweymouth/mediabridge/backend/mediasession"
	"github.com/dweymouth/mediabridge/backend/notify"
	"github.com/dweymouth/mediabridge/backend/nowplaying"
	"github.com/dweymouth/mediabridge/backend/relay"
)

var ErrTornDown = errors.New("controller has been torn down")

type State int

const (
	Unstarted State = iota
	Active
	TornDown
)

func (s State) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case Active:
		return "active"
	case TornDown:
		return "torn down"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Config struct {
	// SessionName is passed to the session factory.
	SessionName string
	Channel     notify.Channel
	Renderer    notify.RendererConfig
	Relay       relay.Config
}

// Deps are the collaborators the controller wires together on Start.
type Deps struct {
	Bus     *bus.Bus
	Session mediasession.Factory
	// Surface may be nil if no notification server is available.
	Surface notify.Surface
	Holder  *nowplaying.Holder
	// OnActivate is called when the user activates the notification body.
	OnActivate func()
}

// Controller owns the bridge between the media session, the notification
// surface and the message bus for as long as it is active.
type Controller struct {
	cfg  Config
	deps Deps

	mu      sync.Mutex
	state   State
	session mediasession.Handle
	relay   *relay.Relay
	sub     *bus.Subscription
}

func New(cfg Config, deps Deps) *Controller {
	if deps.Holder == nil {
		deps.Holder = &nowplaying.Holder{}
	}
	return &Controller{cfg: cfg, deps: deps}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start creates the media session, registers the transport controls and
// posts the placeholder notification. Starting an active controller does
// nothing.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Active:
		return nil
	case TornDown:
		return ErrTornDown
	}

	session, err := c.deps.Session(c.cfg.SessionName)
	if err != nil {
		return fmt.Errorf("create media session: %w", err)
	}

	rcfg := c.cfg.Renderer
	rcfg.SessionToken = session.Token()
	renderer := notify.NewRenderer(rcfg)
	r := relay.New(c.cfg.Relay, c.deps.Bus, c.deps.Holder, renderer, c.deps.Surface, session)
	session.SetTransportControls(r)

	if s := c.deps.Surface; s != nil {
		if err := s.EnsureChannel(c.cfg.Channel); err != nil {
			slog.Warn("Notification channel unavailable", slog.String("stack", err.Error()))
		}
		s.OnAction(c.handleAction)
	}

	c.session = session
	c.relay = r
	c.sub = c.deps.Bus.Subscribe(bus.TopicUpdate, c.HandleIncoming)
	c.state = Active

	if s := c.deps.Surface; s != nil {
		if err := s.Post(renderer.Placeholder()); err != nil {
			slog.Warn("Failed to post placeholder notification", slog.String("stack", err.Error()))
		}
	}
	slog.Info("Now playing bridge started", slog.String("session", session.Token()))
	return nil
}

// HandleIncoming applies update messages while the controller is active.
// Anything else is ignored.
func (c *Controller) HandleIncoming(m bus.Message) {
	u, ok := m.(bus.UpdateMessage)
	if !ok {
		return
	}
	c.mu.Lock()
	r := c.relay
	active := c.state == Active
	c.mu.Unlock()
	if !active {
		slog.Debug("Dropping update for inactive controller")
		return
	}
	r.ApplyUpdate(u)
}

func (c *Controller) handleAction(slot uint32, key string) {
	c.mu.Lock()
	r := c.relay
	active := c.state == Active && slot == c.cfg.Renderer.Slot
	c.mu.Unlock()
	if !active {
		return
	}

	if key == notify.ActionDefault {
		if c.deps.OnActivate != nil {
			c.deps.OnActivate()
		}
		return
	}
	kind, ok := bus.ParseControlKind(key)
	if !ok || kind == bus.ControlSeek {
		slog.Debug("Ignoring notification action", slog.String("key", key))
		return
	}
	r.Dispatch(kind)
}

// Stop removes the notification, releases the media session and stops
// listening for updates. It is safe to call more than once.
func (c *Controller) Stop() {
	c.mu.Lock()
	prev := c.state
	c.state = TornDown
	sub, session, r := c.sub, c.session, c.relay
	c.sub, c.session, c.relay = nil, nil, nil
	c.mu.Unlock()

	if prev != Active {
		return
	}
	sub.Unsubscribe()
	// an update already past HandleIncoming must not re-post after Cancel
	r.Close()
	if s := c.deps.Surface; s != nil {
		if err := s.Cancel(c.cfg.Renderer.Slot); err != nil {
			slog.Warn("Failed to remove notification", slog.String("stack", err.Error()))
		}
	}
	session.Release()
	slog.Info("Now playing bridge stopped")
}
