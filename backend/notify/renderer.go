package notify

import (
	"image"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dweymouth/mediabridge/backend/bus"
	"github.com/dweymouth/mediabridge/backend/nowplaying"
)

type RendererConfig struct {
	Slot    uint32
	Channel string
	// IconSize is the edge length, in pixels, artwork is fitted into.
	IconSize    int
	DefaultIcon image.Image
	// PlaceholderTitle is shown before the first update arrives.
	PlaceholderTitle string
	SessionToken     string
}

// Renderer builds notifications from snapshots. Rendering the same
// snapshot twice yields equal notifications for the same slot.
type Renderer struct {
	cfg         RendererConfig
	defaultIcon *image.NRGBA

	mu       sync.Mutex
	haveLast bool
	lastHash uint64
	lastIcon *image.NRGBA // nil if the last payload failed to decode
}

func NewRenderer(cfg RendererConfig) *Renderer {
	r := &Renderer{cfg: cfg}
	if cfg.DefaultIcon != nil {
		r.defaultIcon = fitIcon(cfg.DefaultIcon, cfg.IconSize)
	}
	return r
}

func (r *Renderer) Render(s nowplaying.Snapshot) Notification {
	icon, decoded := r.resolveIcon(s.Icon)
	return Notification{
		Slot:          r.cfg.Slot,
		Channel:       r.cfg.Channel,
		Title:         s.Title,
		Body:          s.Subtitle,
		Icon:          icon,
		IconIsDefault: !decoded,
		Actions: []Action{
			{Key: string(bus.ControlPrev), Label: "Previous", IconName: "media-skip-backward"},
			toggleAction(s.Transport),
			{Key: string(bus.ControlNext), Label: "Next", IconName: "media-skip-forward"},
		},
		ContentAction: ActionDefault,
		SessionToken:  r.cfg.SessionToken,
		Ongoing:       true,
	}
}

// Placeholder is posted to claim the slot before any update arrives.
func (r *Renderer) Placeholder() Notification {
	return Notification{
		Slot:          r.cfg.Slot,
		Channel:       r.cfg.Channel,
		Title:         r.cfg.PlaceholderTitle,
		Icon:          asImage(r.defaultIcon),
		IconIsDefault: true,
		ContentAction: ActionDefault,
		SessionToken:  r.cfg.SessionToken,
		Ongoing:       true,
	}
}

// toggleAction offers the opposite of the current transport state.
func toggleAction(t nowplaying.TransportLabel) Action {
	if t == nowplaying.Play {
		return Action{Key: string(bus.ControlPause), Label: "Pause", IconName: "media-playback-pause"}
	}
	return Action{Key: string(bus.ControlPlay), Label: "Play", IconName: "media-playback-start"}
}

func (r *Renderer) resolveIcon(payload string) (image.Image, bool) {
	h := xxhash.Sum64String(payload)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.haveLast || r.lastHash != h {
		img, err := decodeIcon(payload, r.cfg.IconSize)
		if err != nil {
			slog.Debug("Using default notification icon", slog.String("stack", err.Error()))
		}
		r.haveLast, r.lastHash, r.lastIcon = true, h, img
	}
	if r.lastIcon == nil {
		return asImage(r.defaultIcon), false
	}
	return r.lastIcon, true
}

// asImage avoids storing a typed nil pointer in an image.Image.
func asImage(img *image.NRGBA) image.Image {
	if img == nil {
		return nil
	}
	return img
}
