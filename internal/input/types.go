// Package input provides cross-platform capture and synthesis of global
// mouse and keyboard events. Capture and injection are process-wide
// capabilities: at most one capture subscription and one injector may be
// active at any time.
package input

import (
	"time"

	"tinytask/internal/event"
)

// RawEvent is one captured input occurrence, stamped with the wall-clock
// time the OS delivered it. Conversion to a macro event (relative offset,
// move throttling) happens in the recorder.
type RawEvent struct {
	Kind     event.Kind
	Time     time.Time
	X, Y     int
	Button   event.Button
	ScrollDX int
	ScrollDY int
	Key      event.Key
	Rune     rune
}

// InputCapture is the global input subscription capability. Events are
// delivered on the channel returned by Events until Stop is called,
// after which the channel is closed.
type InputCapture interface {
	Start() error
	Stop() error
	Events() <-chan RawEvent
}

// InputInjector is the global input synthesis capability.
// Implementations tag the events they synthesize so an active capture on
// the same machine can filter them out.
type InputInjector interface {
	// MoveTo moves the pointer to an absolute screen position.
	MoveTo(x, y int) error

	// Button presses or releases a mouse button.
	Button(b event.Button, pressed bool) error

	// Scroll emits a scroll of dx horizontal and dy vertical detents.
	Scroll(dx, dy int) error

	// Key presses or releases a key.
	Key(k event.Key, r rune, pressed bool) error

	// Close releases the synthesis capability.
	Close() error
}

// InjectorOptions configures injection. Screen dimensions bound the
// absolute coordinate range of the synthesized pointer; zero values fall
// back to 1920x1080.
type InjectorOptions struct {
	ScreenWidth  int
	ScreenHeight int
}
