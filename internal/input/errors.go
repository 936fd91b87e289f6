package input

import "errors"

var (
	// ErrUnsupported is returned when capture or injection is not
	// implemented for the current platform.
	ErrUnsupported = errors.New("input: unsupported platform")

	// ErrPermission is returned when the OS denies access to the global
	// input subscription or synthesis capability. Recoverable: the caller
	// may retry with elevated privileges.
	ErrPermission = errors.New("input: permission denied")

	// ErrNotStarted is returned when Stop is called on an inactive capture.
	ErrNotStarted = errors.New("input: capture not started")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("input: capture already started")
)
