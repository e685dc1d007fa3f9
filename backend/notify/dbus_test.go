package notify

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifyCall struct {
	replacesID uint32
	summary    string
	body       string
	actions    []string
	hints      map[string]dbus.Variant
	timeout    int32
}

type fakeServer struct {
	nextID  uint32
	calls   []notifyCall
	closed  []uint32
	caps    []string
	capsErr error
}

func (f *fakeServer) Notify(appName string, replacesID uint32, appIcon, summary, body string,
	actions []string, hints map[string]dbus.Variant, timeout int32) (uint32, error) {
	f.calls = append(f.calls, notifyCall{replacesID, summary, body, actions, hints, timeout})
	if replacesID != 0 {
		return replacesID, nil
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeServer) CloseNotification(id uint32) error {
	f.closed = append(f.closed, id)
	return nil
}

func (f *fakeServer) GetCapabilities() ([]string, error) {
	return f.caps, f.capsErr
}

func TestDBusSurface_PostReplacesSlot(t *testing.T) {
	srv := &fakeServer{nextID: 40, caps: []string{"actions", "body"}}
	s := newDBusSurface("mediabridge", srv)
	require.NoError(t, s.EnsureChannel(Channel{ID: "Media", Category: "x-gnome.music", Urgency: UrgencyLow}))

	n := testRenderer().Render(nowPlayingFixture(t))
	require.NoError(t, s.Post(n))
	require.NoError(t, s.Post(n))

	require.Len(t, srv.calls, 2)
	assert.Equal(t, uint32(0), srv.calls[0].replacesID)
	assert.Equal(t, uint32(41), srv.calls[1].replacesID)
	assert.Equal(t, srv.calls[0].actions, srv.calls[1].actions)

	c := srv.calls[0]
	assert.Equal(t, "Song A", c.summary)
	assert.Equal(t, "Artist B", c.body)
	assert.Equal(t, int32(0), c.timeout)
	assert.Equal(t, []string{
		"default", "Open",
		"PREV_ACTION", "Previous",
		"PAUSE_ACTION", "Pause",
		"NEXT_ACTION", "Next",
	}, c.actions)
	assert.Equal(t, "x-gnome.music", c.hints["category"].Value())
	assert.Equal(t, byte(UrgencyLow), c.hints["urgency"].Value())
	assert.Equal(t, "org.mpris.MediaPlayer2.mediabridge", c.hints["x-mpris-bus-name"].Value())

	img, ok := c.hints["image-data"].Value().(imageData)
	require.True(t, ok)
	assert.Equal(t, int32(16), img.Width)
	assert.Equal(t, int32(16*4), img.RowStride)
	assert.Len(t, img.Data, 16*16*4)
}

func TestDBusSurface_ClosedNotificationIsRecreated(t *testing.T) {
	srv := &fakeServer{nextID: 6}
	s := newDBusSurface("mediabridge", srv)
	n := Notification{Slot: 1, Title: "x"}

	require.NoError(t, s.Post(n))
	s.handleSignal(&dbus.Signal{Name: signalNotificationClosed, Body: []interface{}{uint32(7), uint32(2)}})
	require.NoError(t, s.Post(n))

	require.Len(t, srv.calls, 2)
	assert.Equal(t, uint32(0), srv.calls[1].replacesID)
}

func TestDBusSurface_ActionRouting(t *testing.T) {
	srv := &fakeServer{nextID: 99}
	s := newDBusSurface("mediabridge", srv)
	require.NoError(t, s.Post(Notification{Slot: 3}))

	type invoked struct {
		slot uint32
		key  string
	}
	var got []invoked
	s.OnAction(func(slot uint32, key string) { got = append(got, invoked{slot, key}) })

	s.handleSignal(&dbus.Signal{Name: signalActionInvoked, Body: []interface{}{uint32(100), "NEXT_ACTION"}})
	// another application's notification
	s.handleSignal(&dbus.Signal{Name: signalActionInvoked, Body: []interface{}{uint32(12), "NEXT_ACTION"}})
	// malformed
	s.handleSignal(&dbus.Signal{Name: signalActionInvoked, Body: []interface{}{"100"}})
	s.handleSignal(&dbus.Signal{Name: signalActionInvoked})

	assert.Equal(t, []invoked{{3, "NEXT_ACTION"}}, got)
}

func TestDBusSurface_Cancel(t *testing.T) {
	srv := &fakeServer{}
	s := newDBusSurface("mediabridge", srv)
	require.NoError(t, s.Cancel(1), "cancelling an empty slot is a no-op")
	require.NoError(t, s.Post(Notification{Slot: 1}))
	require.NoError(t, s.Cancel(1))
	require.NoError(t, s.Cancel(1))
	assert.Equal(t, []uint32{1}, srv.closed)
}

func TestDBusSurface_EnsureChannel(t *testing.T) {
	srv := &fakeServer{capsErr: errors.New("org.freedesktop.DBus.Error.ServiceUnknown")}
	s := newDBusSurface("mediabridge", srv)
	err := s.EnsureChannel(Channel{ID: "Media"})
	assert.ErrorIs(t, err, ErrSurfaceUnavailable)

	srv.capsErr = nil
	srv.caps = []string{"actions"}
	require.NoError(t, s.EnsureChannel(Channel{ID: "Media"}))
	require.NoError(t, s.EnsureChannel(Channel{ID: "Media"}))
}

func TestToImageData_Subimage(t *testing.T) {
	sub := solidImage(10, 10, color.NRGBA{B: 255, A: 255}).SubImage(image.Rect(2, 2, 6, 5))
	d := toImageData(sub)
	assert.Equal(t, int32(4), d.Width)
	assert.Equal(t, int32(3), d.Height)
	assert.Len(t, d.Data, 4*3*4)
	assert.Equal(t, []byte{0, 0, 255, 255}, d.Data[:4])
}
