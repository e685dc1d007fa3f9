package nowplaying

import "strings"

// TransportLabel is the coarse playback state advertised to the desktop.
type TransportLabel int

const (
	// Other covers buffering and any state the application did not name.
	Other TransportLabel = iota
	Pause
	Play
)

func (t TransportLabel) String() string {
	switch t {
	case Play:
		return "play"
	case Pause:
		return "pause"
	default:
		return "other"
	}
}

// ParseTransportLabel maps an application action token to a TransportLabel.
// Matching is exact: "Play" or " play" are not recognized.
func ParseTransportLabel(token string) TransportLabel {
	switch token {
	case "play":
		return Play
	case "pause":
		return Pause
	}
	return Other
}

// Snapshot is the complete now-playing state. Every update replaces the
// previous snapshot wholesale.
type Snapshot struct {
	Title    string
	Subtitle string
	// Icon is the encoded artwork exactly as received. It is only
	// interpreted by the notification renderer.
	Icon       string
	Transport  TransportLabel
	DurationMs int64
	PositionMs int64
}

// PositionPolicy decides what happens to a reported position that lies
// outside [0, duration].
type PositionPolicy string

const (
	PositionAccept PositionPolicy = "accept"
	PositionClamp  PositionPolicy = "clamp"
)

// ParsePositionPolicy returns PositionAccept for anything it does not recognize.
func ParsePositionPolicy(s string) PositionPolicy {
	if strings.EqualFold(s, string(PositionClamp)) {
		return PositionClamp
	}
	return PositionAccept
}

// Apply returns the position to store for the given duration.
// A zero duration means unknown, so clamping only enforces the lower bound.
func (p PositionPolicy) Apply(positionMs, durationMs int64) int64 {
	if p != PositionClamp {
		return positionMs
	}
	if positionMs < 0 {
		return 0
	}
	if durationMs > 0 && positionMs > durationMs {
		return durationMs
	}
	return positionMs
}
