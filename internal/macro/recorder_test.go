package macro

import (
	"testing"
	"time"

	"tinytask/internal/event"
	"tinytask/internal/input"
)

// feed pushes a raw event with the given offset from the recording base.
func feed(r *Recorder, base time.Time, offset time.Duration, raw input.RawEvent) {
	raw.Time = base.Add(offset)
	r.HandleEvent(raw)
}

func TestRecorderTimestampsEvents(t *testing.T) {
	r := NewRecorder(DefaultRecorderOptions())
	if err := r.Start("stamps"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	base := time.Now()

	feed(r, base, 50*time.Millisecond, input.RawEvent{Kind: event.KindKeyDown, Key: event.KeyRune, Rune: 'x'})
	feed(r, base, 120*time.Millisecond, input.RawEvent{Kind: event.KindKeyUp, Key: event.KeyRune, Rune: 'x'})

	m, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	events := m.Events()
	if len(events) != 2 {
		t.Fatalf("recorded %d events, want 2", len(events))
	}
	// Start and base differ by the time between the two calls, so allow
	// a small tolerance.
	if d := events[0].Offset - 50*time.Millisecond; d < 0 || d > 20*time.Millisecond {
		t.Errorf("first offset = %v, want ~50ms", events[0].Offset)
	}
	if events[1].Offset < events[0].Offset {
		t.Errorf("offsets not monotonic: %v then %v", events[0].Offset, events[1].Offset)
	}
}

func TestRecorderMoveSampling(t *testing.T) {
	opts := DefaultRecorderOptions()
	opts.MoveThresholdPx = 5
	opts.MoveMinInterval = 15 * time.Millisecond

	r := NewRecorder(opts)
	if err := r.Start("moves"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	base := time.Now()

	// First move always recorded.
	feed(r, base, 10*time.Millisecond, input.RawEvent{Kind: event.KindMouseMove, X: 0, Y: 0})
	// 2px travel 1ms later: below threshold and below interval, dropped.
	feed(r, base, 11*time.Millisecond, input.RawEvent{Kind: event.KindMouseMove, X: 2, Y: 0})
	// 5px travel: at threshold, recorded.
	feed(r, base, 12*time.Millisecond, input.RawEvent{Kind: event.KindMouseMove, X: 5, Y: 0})
	// 1px travel but 20ms after the last recorded move: interval floor.
	feed(r, base, 32*time.Millisecond, input.RawEvent{Kind: event.KindMouseMove, X: 6, Y: 0})
	// No travel at all: dropped regardless of elapsed time.
	feed(r, base, 90*time.Millisecond, input.RawEvent{Kind: event.KindMouseMove, X: 6, Y: 0})

	if got := r.EventCount(); got != 3 {
		t.Errorf("EventCount() = %d, want 3", got)
	}
}

func TestRecorderMovesDisabled(t *testing.T) {
	opts := DefaultRecorderOptions()
	opts.RecordMouseMoves = false

	r := NewRecorder(opts)
	if err := r.Start("no-moves"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	base := time.Now()

	feed(r, base, 10*time.Millisecond, input.RawEvent{Kind: event.KindMouseMove, X: 100, Y: 100})
	feed(r, base, 20*time.Millisecond, input.RawEvent{Kind: event.KindMouseDown, X: 100, Y: 100, Button: event.ButtonLeft})
	feed(r, base, 30*time.Millisecond, input.RawEvent{Kind: event.KindMouseUp, X: 100, Y: 100, Button: event.ButtonLeft})

	m, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	for _, e := range m.Events() {
		if e.Kind == event.KindMouseMove {
			t.Error("recorded a mouse move with moves disabled")
		}
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

func TestRecorderTrimsStopKey(t *testing.T) {
	opts := DefaultRecorderOptions()
	opts.StopKey = event.KeyF9

	r := NewRecorder(opts)
	if err := r.Start("trim"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	base := time.Now()

	feed(r, base, 10*time.Millisecond, input.RawEvent{Kind: event.KindKeyDown, Key: event.KeyRune, Rune: 'a'})
	feed(r, base, 20*time.Millisecond, input.RawEvent{Kind: event.KindKeyUp, Key: event.KeyRune, Rune: 'a'})
	// The stop hotkey press that ended the recording.
	feed(r, base, 30*time.Millisecond, input.RawEvent{Kind: event.KindKeyDown, Key: event.KeyF9})

	m, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (stop key not trimmed)", m.Len())
	}
	for _, e := range m.Events() {
		if e.Key == event.KeyF9 {
			t.Error("stop key survived trimming")
		}
	}
}

func TestRecorderDropsInvalidRaw(t *testing.T) {
	r := NewRecorder(DefaultRecorderOptions())
	if err := r.Start("invalid"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	base := time.Now()

	feed(r, base, 10*time.Millisecond, input.RawEvent{Kind: "warp"})
	feed(r, base, 20*time.Millisecond, input.RawEvent{Kind: event.KindMouseDown}) // no button

	if got := r.EventCount(); got != 0 {
		t.Errorf("EventCount() = %d, want 0", got)
	}
}

func TestRecorderOffsetsMatchStoreResolution(t *testing.T) {
	r := NewRecorder(DefaultRecorderOptions())
	if err := r.Start("resolution"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	base := time.Now()

	feed(r, base, 3158980*time.Nanosecond, input.RawEvent{Kind: event.KindKeyDown, Key: event.KeyRune, Rune: 'q'})
	feed(r, base, 9*time.Millisecond+412*time.Microsecond, input.RawEvent{Kind: event.KindKeyUp, Key: event.KeyRune, Rune: 'q'})

	m, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	for i, e := range m.Events() {
		if e.Offset != e.Offset.Truncate(time.Millisecond) {
			t.Errorf("event %d offset %v has sub-millisecond precision", i, e.Offset)
		}
	}
}
