package bus

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Topic names a channel on the bus. The values double as the wire tags
// the owning application already uses.
type Topic string

const (
	TopicUpdate  Topic = "UPDATE_NOTIFICATION"
	TopicControl Topic = "TRACKS_TRACKS"
)

var (
	ErrUnknownMessage = errors.New("unknown message type")
	ErrMalformed      = errors.New("malformed message")
)

// Message is one of UpdateMessage or ControlEvent.
type Message interface {
	Topic() Topic
	isMessage()
}

// UpdateMessage is the inbound now-playing update sent by the application.
type UpdateMessage struct {
	Icon            string `json:"icon"`
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	Action          string `json:"action"`
	Duration        int64  `json:"duration"`
	CurrentPosition int64  `json:"currentPosition"`
}

func (UpdateMessage) Topic() Topic { return TopicUpdate }
func (UpdateMessage) isMessage()   {}

type ControlKind string

const (
	ControlPlay  ControlKind = "PLAY_ACTION"
	ControlPause ControlKind = "PAUSE_ACTION"
	ControlNext  ControlKind = "NEXT_ACTION"
	ControlPrev  ControlKind = "PREV_ACTION"
	ControlSeek  ControlKind = "SEEKTO"
)

// ParseControlKind reports whether s is one of the known control action names.
func ParseControlKind(s string) (ControlKind, bool) {
	switch k := ControlKind(s); k {
	case ControlPlay, ControlPause, ControlNext, ControlPrev, ControlSeek:
		return k, true
	}
	return "", false
}

// ControlEvent is one transport request relayed to the application.
// SeekPositionMs is only meaningful for ControlSeek.
type ControlEvent struct {
	Kind           ControlKind
	SeekPositionMs int64
}

func (ControlEvent) Topic() Topic { return TopicControl }
func (ControlEvent) isMessage()   {}

// wireMessage is the union of every field either message kind may carry.
type wireMessage struct {
	Type       string `json:"type,omitempty"`
	ActionName string `json:"actionname,omitempty"`
	Pos        string `json:"pos,omitempty"`
	UpdateMessage
}

type wireUpdate struct {
	Type string `json:"type"`
	UpdateMessage
}

type wireControl struct {
	ActionName string `json:"actionname"`
	Pos        string `json:"pos,omitempty"`
}

// Encode returns the JSON wire form of m.
func Encode(m Message) ([]byte, error) {
	switch m := m.(type) {
	case UpdateMessage:
		return json.Marshal(wireUpdate{Type: string(TopicUpdate), UpdateMessage: m})
	case ControlEvent:
		w := wireControl{ActionName: string(m.Kind)}
		if m.Kind == ControlSeek {
			w.Pos = strconv.FormatInt(m.SeekPositionMs, 10)
		}
		return json.Marshal(w)
	}
	return nil, ErrUnknownMessage
}

// Decode parses a wire message. Unrecognized tags yield ErrUnknownMessage;
// structurally broken input yields an error wrapping ErrMalformed.
func Decode(data []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.Type != "" {
		if Topic(w.Type) != TopicUpdate {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, w.Type)
		}
		return w.UpdateMessage, nil
	}
	if w.ActionName == "" {
		return nil, ErrUnknownMessage
	}
	kind, ok := ParseControlKind(w.ActionName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, w.ActionName)
	}
	ev := ControlEvent{Kind: kind}
	if kind == ControlSeek {
		pos, err := strconv.ParseInt(w.Pos, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: seek position %q", ErrMalformed, w.Pos)
		}
		ev.SeekPositionMs = pos
	}
	return ev, nil
}
