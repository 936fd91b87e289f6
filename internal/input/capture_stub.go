//go:build !linux && !windows

package input

// Stub implementation for platforms without a capture backend.

// Listener is a stub input listener.
type Listener struct{}

// NewListener creates a stub listener.
func NewListener() *Listener {
	return &Listener{}
}

// Start begins capturing input (stub).
func (l *Listener) Start() error {
	return ErrUnsupported
}

// Stop stops capturing input (stub).
func (l *Listener) Stop() error {
	return nil
}

// Events returns the input event channel (stub).
func (l *Listener) Events() <-chan RawEvent {
	return nil
}
