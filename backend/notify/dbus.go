package notify

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/boxes-ltd/imaging"
	"github.com/godbus/dbus/v5"
)

const (
	notificationsDest  = "org.freedesktop.Notifications"
	notificationsPath  = "/org/freedesktop/Notifications"
	notificationsIface = "org.freedesktop.Notifications"

	signalActionInvoked      = notificationsIface + ".ActionInvoked"
	signalNotificationClosed = notificationsIface + ".NotificationClosed"
)

var _ Surface = (*DBusSurface)(nil)

// notificationServer is the subset of org.freedesktop.Notifications we call.
type notificationServer interface {
	Notify(appName string, replacesID uint32, appIcon, summary, body string,
		actions []string, hints map[string]dbus.Variant, timeout int32) (uint32, error)
	CloseNotification(id uint32) error
	GetCapabilities() ([]string, error)
}

type dbusServer struct {
	obj dbus.BusObject
}

func (d dbusServer) Notify(appName string, replacesID uint32, appIcon, summary, body string,
	actions []string, hints map[string]dbus.Variant, timeout int32) (uint32, error) {
	var id uint32
	err := d.obj.Call(notificationsIface+".Notify", 0,
		appName, replacesID, appIcon, summary, body, actions, hints, timeout).Store(&id)
	return id, err
}

func (d dbusServer) CloseNotification(id uint32) error {
	return d.obj.Call(notificationsIface+".CloseNotification", 0, id).Err
}

func (d dbusServer) GetCapabilities() ([]string, error) {
	var caps []string
	err := d.obj.Call(notificationsIface+".GetCapabilities", 0).Store(&caps)
	return caps, err
}

// imageData is the (iiibiiay) layout of the image-data hint.
type imageData struct {
	Width         int32
	Height        int32
	RowStride     int32
	HasAlpha      bool
	BitsPerSample int32
	Channels      int32
	Data          []byte
}

// DBusSurface posts notifications through the freedesktop notification
// service on the session bus. Each slot maps to the id the server
// assigned, so reposting a slot replaces the notification in place.
type DBusSurface struct {
	appName string
	conn    *dbus.Conn
	srv     notificationServer
	signals chan *dbus.Signal

	mu       sync.Mutex
	channel  *Channel
	caps     map[string]bool
	ids      map[uint32]uint32 // slot -> server id
	onAction func(slot uint32, key string)
}

// NewDBusSurface connects to the session bus. It returns an error
// wrapping ErrSurfaceUnavailable if no bus is reachable.
func NewDBusSurface(appName string) (*DBusSurface, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	for _, member := range []string{"ActionInvoked", "NotificationClosed"} {
		if err := conn.AddMatchSignal(
			dbus.WithMatchObjectPath(notificationsPath),
			dbus.WithMatchInterface(notificationsIface),
			dbus.WithMatchMember(member),
		); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", member, err)
		}
	}
	s := newDBusSurface(appName, dbusServer{obj: conn.Object(notificationsDest, notificationsPath)})
	s.conn = conn
	s.signals = make(chan *dbus.Signal, 16)
	conn.Signal(s.signals)
	go func() {
		// the channel is closed when the connection is
		for sig := range s.signals {
			s.handleSignal(sig)
		}
	}()
	return s, nil
}

func newDBusSurface(appName string, srv notificationServer) *DBusSurface {
	return &DBusSurface{
		appName: appName,
		srv:     srv,
		ids:     make(map[uint32]uint32),
	}
}

func (s *DBusSurface) EnsureChannel(c Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.caps != nil {
		s.channel = &c
		return nil
	}
	caps, err := s.srv.GetCapabilities()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	s.caps = make(map[string]bool, len(caps))
	for _, cp := range caps {
		s.caps[cp] = true
	}
	if !s.caps["actions"] {
		slog.Warn("Notification server does not support action buttons")
	}
	s.channel = &c
	return nil
}

func (s *DBusSurface) Post(n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var actions []string
	if n.ContentAction != "" {
		actions = append(actions, n.ContentAction, "Open")
	}
	for _, a := range n.Actions {
		actions = append(actions, a.Key, a.Label)
	}

	timeout := int32(-1)
	if n.Ongoing {
		timeout = 0
	}
	id, err := s.srv.Notify(s.appName, s.ids[n.Slot], "", n.Title, n.Body, actions, s.hints(n), timeout)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	s.ids[n.Slot] = id
	return nil
}

func (s *DBusSurface) hints(n Notification) map[string]dbus.Variant {
	h := map[string]dbus.Variant{
		"desktop-entry": dbus.MakeVariant(s.appName),
		"urgency":       dbus.MakeVariant(byte(UrgencyLow)),
	}
	if c := s.channel; c != nil {
		h["urgency"] = dbus.MakeVariant(byte(c.Urgency))
		if c.Category != "" {
			h["category"] = dbus.MakeVariant(c.Category)
		}
	}
	if n.Ongoing {
		h["resident"] = dbus.MakeVariant(true)
		h["transient"] = dbus.MakeVariant(false)
	}
	if n.SessionToken != "" {
		h["x-mpris-bus-name"] = dbus.MakeVariant(n.SessionToken)
	}
	if n.Icon != nil {
		h["image-data"] = dbus.MakeVariant(toImageData(n.Icon))
	}
	return h
}

func toImageData(img image.Image) imageData {
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = imaging.Clone(img)
	}
	b := nrgba.Bounds()
	return imageData{
		Width:         int32(b.Dx()),
		Height:        int32(b.Dy()),
		RowStride:     int32(nrgba.Stride),
		HasAlpha:      true,
		BitsPerSample: 8,
		Channels:      4,
		Data:          nrgba.Pix,
	}
}

func (s *DBusSurface) Cancel(slot uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.ids[slot]
	if !ok {
		return nil
	}
	delete(s.ids, slot)
	return s.srv.CloseNotification(id)
}

func (s *DBusSurface) OnAction(f func(slot uint32, key string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAction = f
}

func (s *DBusSurface) handleSignal(sig *dbus.Signal) {
	if sig == nil || len(sig.Body) == 0 {
		return
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return
	}

	s.mu.Lock()
	slot, found := s.slotFor(id)
	var cb func(uint32, string)
	switch sig.Name {
	case signalNotificationClosed:
		if found {
			// dismissed by the user or server; next Post creates a new one
			delete(s.ids, slot)
		}
	case signalActionInvoked:
		cb = s.onAction
	}
	s.mu.Unlock()

	if sig.Name != signalActionInvoked || !found || cb == nil || len(sig.Body) < 2 {
		return
	}
	if key, ok := sig.Body[1].(string); ok {
		cb(slot, key)
	}
}

func (s *DBusSurface) slotFor(id uint32) (uint32, bool) {
	for slot, sid := range s.ids {
		if sid == id {
			return slot, true
		}
	}
	return 0, false
}

// Close releases the D-Bus connection.
func (s *DBusSurface) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
