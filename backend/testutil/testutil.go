// Package testutil holds fakes of the OS-facing collaborators for tests.
package testutil

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/dweymouth/mediabridge/backend/mediasession"
	"github.com/dweymouth/mediabridge/backend/notify"
)

// Surface is an in-memory notify.Surface. Posting to a slot replaces its
// content, mirroring a real notification server.
type Surface struct {
	mu       sync.Mutex
	PostErr  error
	Channels []notify.Channel
	Posts    []notify.Notification
	Visible  map[uint32]notify.Notification
	Canceled []uint32
	onAction func(uint32, string)
}

var _ notify.Surface = (*Surface)(nil)

func NewSurface() *Surface {
	return &Surface{Visible: make(map[uint32]notify.Notification)}
}

func (s *Surface) EnsureChannel(c notify.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Channels {
		if existing == c {
			return nil
		}
	}
	s.Channels = append(s.Channels, c)
	return nil
}

func (s *Surface) Post(n notify.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PostErr != nil {
		return s.PostErr
	}
	s.Posts = append(s.Posts, n)
	s.Visible[n.Slot] = n
	return nil
}

func (s *Surface) Cancel(slot uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Visible, slot)
	s.Canceled = append(s.Canceled, slot)
	return nil
}

func (s *Surface) OnAction(f func(uint32, string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAction = f
}

// Press simulates the user activating action key on the notification in slot.
func (s *Surface) Press(slot uint32, key string) {
	s.mu.Lock()
	f := s.onAction
	s.mu.Unlock()
	if f != nil {
		f(slot, key)
	}
}

// Session is an in-memory mediasession.Handle.
type Session struct {
	mu       sync.Mutex
	Controls mediasession.TransportControls
	Meta     []mediasession.Metadata
	States   []mediasession.PlaybackState
	Released int
}

var _ mediasession.Handle = (*Session)(nil)

func (s *Session) SetTransportControls(c mediasession.TransportControls) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Controls = c
}

func (s *Session) SetMetadata(m mediasession.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Meta = append(s.Meta, m)
}

func (s *Session) SetPlaybackState(st mediasession.PlaybackState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.States = append(s.States, st)
}

func (s *Session) Token() string { return "org.mpris.MediaPlayer2.test" }

func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Released++
}

// GenerateTestImage creates an image filled with a single color.
func GenerateTestImage(width, height int, fillColor color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fillColor)
		}
	}
	return img
}

// PNGBase64 returns a base64-encoded PNG of the given size.
func PNGBase64(width, height int) string {
	var buf bytes.Buffer
	if err := png.Encode(&buf, GenerateTestImage(width, height, color.NRGBA{G: 128, B: 255, A: 255})); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
