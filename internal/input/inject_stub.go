//go:build !linux && !windows

package input

import "tinytask/internal/event"

// Stub implementation for platforms without an injection backend.

// Injector is a stub input injector.
type Injector struct{}

// NewInjector creates a stub injector.
func NewInjector(opts InjectorOptions) (*Injector, error) {
	return nil, ErrUnsupported
}

// MoveTo injects a pointer move (stub).
func (i *Injector) MoveTo(x, y int) error {
	return ErrUnsupported
}

// Button injects a mouse button event (stub).
func (i *Injector) Button(b event.Button, pressed bool) error {
	return ErrUnsupported
}

// Scroll injects a scroll event (stub).
func (i *Injector) Scroll(dx, dy int) error {
	return ErrUnsupported
}

// Key injects a keyboard event (stub).
func (i *Injector) Key(k event.Key, r rune, pressed bool) error {
	return ErrUnsupported
}

// Close releases the injector (stub).
func (i *Injector) Close() error {
	return nil
}
