// Package notify renders now-playing snapshots into desktop notifications
// and posts them to a notification surface.
package notify

import (
	"errors"
	"image"
)

// ActionDefault is the action key notification servers report when the
// body of the notification, rather than a button, is activated.
const ActionDefault = "default"

var ErrSurfaceUnavailable = errors.New("notification surface unavailable")

// Urgency follows the freedesktop notification urgency levels.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// ParseUrgency maps "low", "normal" and "critical"; anything else is low.
func ParseUrgency(s string) Urgency {
	switch s {
	case "normal":
		return UrgencyNormal
	case "critical":
		return UrgencyCritical
	}
	return UrgencyLow
}

// Channel groups notifications that share presentation settings.
type Channel struct {
	ID       string
	Name     string
	Category string
	Urgency  Urgency
}

type Action struct {
	Key      string
	Label    string
	IconName string
}

// Notification is a fully rendered notification, ready to be posted.
type Notification struct {
	// Slot identifies the on-screen notification this one replaces.
	Slot          uint32
	Channel       string
	Title         string
	Body          string
	Icon          image.Image
	IconIsDefault bool
	Actions       []Action
	// ContentAction is the key reported when the body is activated.
	ContentAction string
	SessionToken  string
	Ongoing       bool
}

// Surface is where notifications are displayed.
type Surface interface {
	// EnsureChannel registers the channel. Registering an existing
	// channel again is allowed and has no effect.
	EnsureChannel(Channel) error
	// Post shows n, replacing whatever currently occupies n.Slot.
	Post(n Notification) error
	Cancel(slot uint32) error
	// OnAction sets the callback invoked when the user activates an
	// action of a posted notification.
	OnAction(func(slot uint32, key string))
}
