// Package mediasession advertises the now-playing state to the operating
// system and receives the transport controls it issues.
package mediasession

import "image"

// TransportControls receives transport requests from the OS control surface
// (lock screen, media keys, headsets). Each method is called once per request.
type TransportControls interface {
	OnPlay()
	OnPause()
	OnNext()
	OnPrevious()
	OnSeekTo(positionMs int64)
}

type Status int

const (
	StatusStopped Status = iota
	StatusBuffering
	StatusPaused
	StatusPlaying
)

type Metadata struct {
	Title      string
	Artist     string
	Album      string
	Art        image.Image
	DurationMs int64
}

type PlaybackState struct {
	Status     Status
	PositionMs int64
	// Rate is the speed at which the position advances while playing.
	Rate float64
}

// Handle is a live media session. A process owns at most one.
type Handle interface {
	SetTransportControls(TransportControls)
	SetMetadata(Metadata)
	SetPlaybackState(PlaybackState)
	// Token identifies the session to other OS components.
	Token() string
	// Release tears the session down. Further calls are no-ops.
	Release()
}

// Factory creates the session handle for the named player.
type Factory func(name string) (Handle, error)

// NoOp is a Handle for platforms without a media session service.
type NoOp struct{}

func NoOpFactory(string) (Handle, error) { return NoOp{}, nil }

func (NoOp) SetTransportControls(TransportControls) {}
func (NoOp) SetMetadata(Metadata)                   {}
func (NoOp) SetPlaybackState(PlaybackState)         {}
func (NoOp) Token() string                          { return "" }
func (NoOp) Release()                               {}
