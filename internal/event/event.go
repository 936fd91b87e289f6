// Package event defines the canonical representation of recorded input
// events. The set of event kinds is closed and every payload field is
// fully specified, so macros round-trip losslessly through serialization
// and loading a macro file never evaluates anything.
package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies the type of an input event.
type Kind string

const (
	KindMouseMove   Kind = "mouse_move"
	KindMouseDown   Kind = "mouse_down"
	KindMouseUp     Kind = "mouse_up"
	KindMouseScroll Kind = "mouse_scroll"
	KindKeyDown     Kind = "key_down"
	KindKeyUp       Kind = "key_up"
)

// Valid returns true if k is one of the defined event kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindMouseMove, KindMouseDown, KindMouseUp, KindMouseScroll,
		KindKeyDown, KindKeyUp:
		return true
	}
	return false
}

// IsMouse returns true for mouse event kinds.
func (k Kind) IsMouse() bool {
	switch k {
	case KindMouseMove, KindMouseDown, KindMouseUp, KindMouseScroll:
		return true
	}
	return false
}

// IsKey returns true for keyboard event kinds.
func (k Kind) IsKey() bool {
	return k == KindKeyDown || k == KindKeyUp
}

// Button identifies a mouse button.
type Button string

const (
	ButtonNone   Button = ""
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// Valid returns true if b is a defined button.
func (b Button) Valid() bool {
	switch b {
	case ButtonLeft, ButtonRight, ButtonMiddle:
		return true
	}
	return false
}

// Event is one immutable record of a single input occurrence.
type Event struct {
	// Kind is the event type.
	Kind Kind

	// Offset is the elapsed time since the start of recording.
	Offset time.Duration

	// X, Y is the absolute pointer position for mouse events.
	X, Y int

	// Button is set for mouse_down and mouse_up.
	Button Button

	// ScrollDX, ScrollDY are the scroll deltas for mouse_scroll.
	ScrollDX, ScrollDY int

	// Key and Rune identify the key for key_down and key_up.
	// Character keys use KeyRune with the character in Rune.
	Key  Key
	Rune rune
}

// Validate checks that the event is well formed: a known kind, a
// non-negative offset and a complete payload for the kind.
func (e Event) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.Offset < 0 {
		return fmt.Errorf("negative offset %v", e.Offset)
	}

	switch e.Kind {
	case KindMouseDown, KindMouseUp:
		if !e.Button.Valid() {
			return fmt.Errorf("%s: invalid button %q", e.Kind, e.Button)
		}
	case KindKeyDown, KindKeyUp:
		if e.Key == KeyNone {
			return fmt.Errorf("%s: missing key", e.Kind)
		}
		if e.Key == KeyRune && e.Rune == 0 {
			return fmt.Errorf("%s: character key without character", e.Kind)
		}
	}
	return nil
}

// KeyName returns the canonical key identifier for keyboard events,
// or "" for mouse events.
func (e Event) KeyName() string {
	if !e.Kind.IsKey() {
		return ""
	}
	return Name(e.Key, e.Rune)
}

// wireEvent is the JSON form of an Event. Offsets are stored as integer
// milliseconds and keys as canonical names from the symbol table.
type wireEvent struct {
	Kind      Kind   `json:"kind"`
	TOffsetMs int64  `json:"t_offset_ms"`
	X         int    `json:"x,omitempty"`
	Y         int    `json:"y,omitempty"`
	Button    Button `json:"button,omitempty"`
	ScrollDX  int    `json:"dx,omitempty"`
	ScrollDY  int    `json:"dy,omitempty"`
	Key       string `json:"key,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e Event) MarshalJSON() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(wireEvent{
		Kind:      e.Kind,
		TOffsetMs: e.Offset.Milliseconds(),
		X:         e.X,
		Y:         e.Y,
		Button:    e.Button,
		ScrollDX:  e.ScrollDX,
		ScrollDY:  e.ScrollDY,
		Key:       e.KeyName(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. Unknown object fields are
// ignored for forward compatibility; unknown kinds, buttons and key names
// are rejected.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	decoded := Event{
		Kind:     w.Kind,
		Offset:   time.Duration(w.TOffsetMs) * time.Millisecond,
		X:        w.X,
		Y:        w.Y,
		Button:   w.Button,
		ScrollDX: w.ScrollDX,
		ScrollDY: w.ScrollDY,
	}

	if w.Kind.IsKey() {
		k, r, err := ParseKey(w.Key)
		if err != nil {
			return err
		}
		decoded.Key = k
		decoded.Rune = r
	}

	if err := decoded.Validate(); err != nil {
		return err
	}
	*e = decoded
	return nil
}

// Equals reports whether two events carry the same kind, timing and payload.
func (e Event) Equals(other Event) bool {
	return e == other
}

// String returns a short human-readable description, used in logs and
// the `macros show` listing.
func (e Event) String() string {
	switch e.Kind {
	case KindMouseMove:
		return fmt.Sprintf("%7dms  move     (%d, %d)", e.Offset.Milliseconds(), e.X, e.Y)
	case KindMouseDown:
		return fmt.Sprintf("%7dms  press    %s (%d, %d)", e.Offset.Milliseconds(), e.Button, e.X, e.Y)
	case KindMouseUp:
		return fmt.Sprintf("%7dms  release  %s (%d, %d)", e.Offset.Milliseconds(), e.Button, e.X, e.Y)
	case KindMouseScroll:
		return fmt.Sprintf("%7dms  scroll   (%d, %d)", e.Offset.Milliseconds(), e.ScrollDX, e.ScrollDY)
	case KindKeyDown:
		return fmt.Sprintf("%7dms  keydown  %s", e.Offset.Milliseconds(), e.KeyName())
	case KindKeyUp:
		return fmt.Sprintf("%7dms  keyup    %s", e.Offset.Milliseconds(), e.KeyName())
	}
	return fmt.Sprintf("%7dms  %s", e.Offset.Milliseconds(), e.Kind)
}
