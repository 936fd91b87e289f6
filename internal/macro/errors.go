package macro

import "errors"

var (
	// ErrAlreadyRecording is returned when Start is called on an active
	// recorder.
	ErrAlreadyRecording = errors.New("macro: already recording")

	// ErrNotRecording is returned when Stop is called on an inactive
	// recorder.
	ErrNotRecording = errors.New("macro: not recording")

	// ErrMalformedMacro is returned when a macro file fails validation.
	// The file is rejected wholesale; there is no partial load.
	ErrMalformedMacro = errors.New("macro: malformed macro file")

	// ErrEmptyMacro is returned for operations that require at least one
	// event.
	ErrEmptyMacro = errors.New("macro: macro has no events")
)
