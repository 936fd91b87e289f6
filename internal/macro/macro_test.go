package macro

import (
	"errors"
	"testing"
	"time"

	"tinytask/internal/event"
)

func sampleEvents() []event.Event {
	return []event.Event{
		{Kind: event.KindMouseMove, Offset: 0, X: 10, Y: 10},
		{Kind: event.KindMouseDown, Offset: 100 * time.Millisecond, X: 10, Y: 10, Button: event.ButtonLeft},
		{Kind: event.KindMouseUp, Offset: 180 * time.Millisecond, X: 10, Y: 10, Button: event.ButtonLeft},
		{Kind: event.KindKeyDown, Offset: 250 * time.Millisecond, Key: event.KeyRune, Rune: 'a'},
		{Kind: event.KindKeyUp, Offset: 300 * time.Millisecond, Key: event.KeyRune, Rune: 'a'},
	}
}

func TestNewSealsEvents(t *testing.T) {
	events := sampleEvents()
	m, err := New("test", time.Now(), events)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if m.Len() != len(events) {
		t.Errorf("Len() = %d, want %d", m.Len(), len(events))
	}
	if m.Duration() != 300*time.Millisecond {
		t.Errorf("Duration() = %v, want 300ms", m.Duration())
	}
	if m.ID() == "" {
		t.Error("ID() is empty")
	}

	// Mutating the input or the returned copy must not affect the macro.
	events[0].X = 999
	got := m.Events()
	got[1].Y = 999
	if m.Events()[0].X == 999 || m.Events()[1].Y == 999 {
		t.Error("macro events are not isolated from caller slices")
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	if _, err := New("bad", time.Now(), []event.Event{{Kind: "warp"}}); err == nil {
		t.Error("New with invalid event succeeded, want error")
	}

	outOfOrder := []event.Event{
		{Kind: event.KindMouseMove, Offset: 100 * time.Millisecond},
		{Kind: event.KindMouseMove, Offset: 50 * time.Millisecond},
	}
	if _, err := New("bad", time.Now(), outOfOrder); err == nil {
		t.Error("New with decreasing offsets succeeded, want error")
	}
}

func TestStats(t *testing.T) {
	m, err := New("test", time.Now(), sampleEvents())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	st := m.Stats()
	if st.TotalEvents != 5 {
		t.Errorf("TotalEvents = %d, want 5", st.TotalEvents)
	}
	if st.MouseMoves != 1 {
		t.Errorf("MouseMoves = %d, want 1", st.MouseMoves)
	}
	if st.MouseClicks != 1 {
		t.Errorf("MouseClicks = %d, want 1", st.MouseClicks)
	}
	if st.KeyPresses != 1 {
		t.Errorf("KeyPresses = %d, want 1", st.KeyPresses)
	}
	if st.Duration != 300*time.Millisecond {
		t.Errorf("Duration = %v, want 300ms", st.Duration)
	}
}

func TestRecorderStateErrors(t *testing.T) {
	r := NewRecorder(DefaultRecorderOptions())

	if _, err := r.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("Stop before Start = %v, want ErrNotRecording", err)
	}

	if err := r.Start("one"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start("two"); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second Start = %v, want ErrAlreadyRecording", err)
	}

	if _, err := r.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if r.IsRecording() {
		t.Error("IsRecording() = true after Stop")
	}
}

func TestNewTruncatesOffsetsToStoreResolution(t *testing.T) {
	m, err := New("sub-ms", time.Now(), []event.Event{
		{Kind: event.KindMouseMove, Offset: 1500 * time.Microsecond, X: 1, Y: 1},
		{Kind: event.KindKeyDown, Offset: 3158980 * time.Nanosecond, Key: event.KeyRune, Rune: 'q'},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	events := m.Events()
	if events[0].Offset != time.Millisecond {
		t.Errorf("offset = %v, want 1ms", events[0].Offset)
	}
	if events[1].Offset != 3*time.Millisecond {
		t.Errorf("offset = %v, want 3ms", events[1].Offset)
	}
}
