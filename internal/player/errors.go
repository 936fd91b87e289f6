package player

import "errors"

var (
	// ErrAlreadyPlaying is returned by Play while a session is Playing
	// or Paused. Synthesized input is observable system-wide, so only
	// one session may run at a time.
	ErrAlreadyPlaying = errors.New("player: a session is already playing")

	// ErrInvalidParameter is returned for out-of-range speed or loop
	// count.
	ErrInvalidParameter = errors.New("player: invalid parameter")

	// ErrEmptyMacro is returned when the macro has no events.
	ErrEmptyMacro = errors.New("player: macro has no events")

	// ErrNotPlaying is returned by Pause outside the Playing state.
	ErrNotPlaying = errors.New("player: no session playing")

	// ErrNotPaused is returned by Resume outside the Paused state.
	ErrNotPaused = errors.New("player: session not paused")
)
