package macro

import (
	"sync"
	"time"

	"tinytask/internal/event"
	"tinytask/internal/input"
)

// RecorderOptions controls mouse-move sampling and stop-key trimming.
type RecorderOptions struct {
	// RecordMouseMoves enables recording of pointer motion. Clicks,
	// scrolls and keys are always recorded.
	RecordMouseMoves bool

	// MoveThresholdPx is the minimum pointer travel, in pixels on either
	// axis, before another move event is recorded.
	MoveThresholdPx int

	// MoveMinInterval records a move after this much time has passed
	// since the last recorded move, even below the pixel threshold, as
	// long as the position changed.
	MoveMinInterval time.Duration

	// StopKey, when set, is trimmed from the tail of the recording at
	// Stop. This keeps the stop hotkey press out of the macro.
	StopKey event.Key
}

// DefaultRecorderOptions matches the sampling behavior of the original
// TinyTask tool: a five pixel threshold with a 15ms floor.
func DefaultRecorderOptions() RecorderOptions {
	return RecorderOptions{
		RecordMouseMoves: true,
		MoveThresholdPx:  5,
		MoveMinInterval:  15 * time.Millisecond,
	}
}

// Recorder transforms a live stream of raw OS input events into a sealed
// Macro. It is fed by whichever component owns the global capture
// subscription; the recorder itself holds no OS resources.
type Recorder struct {
	mu        sync.Mutex
	opts      RecorderOptions
	recording bool
	name      string
	startedAt time.Time
	base      time.Time
	events    []event.Event

	lastOffset  time.Duration
	lastMoveX   int
	lastMoveY   int
	lastMoveAt  time.Duration
	haveLastPos bool
}

// NewRecorder creates an inactive recorder.
func NewRecorder(opts RecorderOptions) *Recorder {
	return &Recorder{opts: opts}
}

// SetOptions replaces the sampling options. Takes effect for events
// handled after the call; safe while recording.
func (r *Recorder) SetOptions(opts RecorderOptions) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts = opts
}

// Start begins a new recording under the given macro name, resetting the
// internal clock to zero. Returns ErrAlreadyRecording if active.
func (r *Recorder) Start(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return ErrAlreadyRecording
	}
	r.recording = true
	r.name = name
	r.startedAt = time.Now()
	r.base = r.startedAt
	r.events = nil
	r.lastOffset = 0
	r.haveLastPos = false
	return nil
}

// IsRecording returns true while a recording is active.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// EventCount returns the number of events recorded so far.
func (r *Recorder) EventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// HandleEvent converts a raw capture event, stamps it with the elapsed
// time since Start and appends it. Does nothing when not recording.
func (r *Recorder) HandleEvent(raw input.RawEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}

	offset := raw.Time.Sub(r.base)
	// Device timestamps may lag Start or regress slightly between
	// devices; offsets are clamped to keep the sequence monotonic.
	if offset < r.lastOffset {
		offset = r.lastOffset
	}

	if raw.Kind == event.KindMouseMove && !r.shouldRecordMove(raw, offset) {
		return
	}

	e := event.Event{
		Kind:     raw.Kind,
		Offset:   offset,
		X:        raw.X,
		Y:        raw.Y,
		Button:   raw.Button,
		ScrollDX: raw.ScrollDX,
		ScrollDY: raw.ScrollDY,
		Key:      raw.Key,
		Rune:     raw.Rune,
	}
	if e.Validate() != nil {
		return
	}

	r.events = append(r.events, e)
	r.lastOffset = offset

	if raw.Kind == event.KindMouseMove {
		r.lastMoveX = raw.X
		r.lastMoveY = raw.Y
		r.lastMoveAt = offset
		r.haveLastPos = true
	}
}

// shouldRecordMove applies the bounded-rate sampling policy: record when
// the pointer traveled past the pixel threshold, or when it moved at all
// and the minimum interval has elapsed.
func (r *Recorder) shouldRecordMove(raw input.RawEvent, offset time.Duration) bool {
	if !r.opts.RecordMouseMoves {
		return false
	}
	if !r.haveLastPos {
		return true
	}
	dx := raw.X - r.lastMoveX
	dy := raw.Y - r.lastMoveY
	if dx == 0 && dy == 0 {
		return false
	}
	if abs(dx) >= r.opts.MoveThresholdPx || abs(dy) >= r.opts.MoveThresholdPx {
		return true
	}
	return r.opts.MoveMinInterval > 0 && offset-r.lastMoveAt >= r.opts.MoveMinInterval
}

// Stop seals the recording into an immutable Macro and returns it.
// Returns ErrNotRecording if inactive. When a stop key is configured,
// its trailing press/release events are trimmed so the hotkey that ended
// the recording is not replayed.
func (r *Recorder) Stop() (*Macro, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return nil, ErrNotRecording
	}
	r.recording = false

	events := r.events
	r.events = nil

	if r.opts.StopKey != event.KeyNone {
		events = trimTrailingKey(events, r.opts.StopKey)
	}

	return New(r.name, r.startedAt, events)
}

// trimTrailingKey removes key events for k from the tail of the sequence.
func trimTrailingKey(events []event.Event, k event.Key) []event.Event {
	for len(events) > 0 {
		last := events[len(events)-1]
		if !last.Kind.IsKey() || last.Key != k {
			break
		}
		events = events[:len(events)-1]
	}
	return events
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
