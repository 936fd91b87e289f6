package control

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tinytask/internal/config"
	"tinytask/internal/event"
	"tinytask/internal/input"
	"tinytask/internal/library"
	"tinytask/internal/macro"
	"tinytask/internal/player"
)

type fakeCapture struct {
	ch chan input.RawEvent
}

func newFakeCapture() *fakeCapture {
	return &fakeCapture{ch: make(chan input.RawEvent, 64)}
}

func (f *fakeCapture) Start() error { return nil }

func (f *fakeCapture) Stop() error {
	close(f.ch)
	return nil
}

func (f *fakeCapture) Events() <-chan input.RawEvent { return f.ch }

type fakeInjector struct{}

func (fakeInjector) MoveTo(x, y int) error                       { return nil }
func (fakeInjector) Button(b event.Button, pressed bool) error   { return nil }
func (fakeInjector) Scroll(dx, dy int) error                     { return nil }
func (fakeInjector) Key(k event.Key, r rune, pressed bool) error { return nil }
func (fakeInjector) Close() error                                { return nil }

func newTestController(t *testing.T) (*Controller, *fakeCapture, *library.Library) {
	t.Helper()

	cfgMgr, err := config.NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("config.NewManager: %v", err)
	}
	if err := cfgMgr.Load(); err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	lib, err := library.Open(t.TempDir())
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}

	capt := newFakeCapture()
	ctrl := New(capt, fakeInjector{}, lib, cfgMgr)
	return ctrl, capt, lib
}

// waitCond polls fn until it returns true or the deadline passes.
func waitCond(t *testing.T, what string, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !fn() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRecordFromCaptureStream(t *testing.T) {
	ctrl, capt, lib := newTestController(t)
	if err := ctrl.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer ctrl.Shutdown()

	if err := ctrl.StartRecording("stream"); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}

	now := time.Now()
	capt.ch <- input.RawEvent{Kind: event.KindMouseDown, Time: now, X: 5, Y: 5, Button: event.ButtonLeft}
	capt.ch <- input.RawEvent{Kind: event.KindMouseUp, Time: now.Add(30 * time.Millisecond), X: 5, Y: 5, Button: event.ButtonLeft}

	waitCond(t, "events to be recorded", func() bool {
		return ctrl.Status().RecordedEvents == 2
	})

	m, err := ctrl.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("recorded %d events, want 2", m.Len())
	}

	// The recording was saved to the library.
	entries, err := lib.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "stream" {
		t.Errorf("library entries = %+v, want the saved recording", entries)
	}
}

func TestRecordAndPlayExclusion(t *testing.T) {
	ctrl, _, lib := newTestController(t)
	if err := ctrl.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer ctrl.Shutdown()

	m, err := macro.New("held", time.Now(), []event.Event{
		{Kind: event.KindMouseMove, Offset: 2 * time.Second, X: 1, Y: 1},
	})
	if err != nil {
		t.Fatalf("macro.New: %v", err)
	}
	if _, err := lib.Save(m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Playback blocks recording.
	opts := player.Options{Speed: 1.0, Loops: 1, ReplayMouseMoves: true}
	if err := ctrl.Play("held", opts); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := ctrl.StartRecording("x"); !errors.Is(err, ErrBusy) {
		t.Errorf("StartRecording during playback = %v, want ErrBusy", err)
	}
	ctrl.StopPlayback()
	ctrl.Player().Wait()

	// Recording blocks playback.
	if err := ctrl.StartRecording("x"); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if err := ctrl.Play("held", opts); !errors.Is(err, ErrBusy) {
		t.Errorf("Play during recording = %v, want ErrBusy", err)
	}
	if _, err := ctrl.StopRecording(); !errors.Is(err, macro.ErrEmptyMacro) {
		t.Errorf("StopRecording with no events = %v, want ErrEmptyMacro", err)
	}
}

func TestHotkeyTogglesRecording(t *testing.T) {
	ctrl, capt, _ := newTestController(t)
	if err := ctrl.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer ctrl.Shutdown()

	// F8 is the default record binding.
	capt.ch <- input.RawEvent{Kind: event.KindKeyDown, Time: time.Now(), Key: event.KeyF8}
	waitCond(t, "recording to start", ctrl.Recording)

	capt.ch <- input.RawEvent{Kind: event.KindKeyUp, Time: time.Now(), Key: event.KeyF8}

	// Something worth keeping, then F9 to stop.
	capt.ch <- input.RawEvent{Kind: event.KindKeyDown, Time: time.Now(), Key: event.KeyRune, Rune: 'z'}
	capt.ch <- input.RawEvent{Kind: event.KindKeyUp, Time: time.Now(), Key: event.KeyRune, Rune: 'z'}
	capt.ch <- input.RawEvent{Kind: event.KindKeyDown, Time: time.Now(), Key: event.KeyF9}

	waitCond(t, "recording to stop and save", func() bool {
		st := ctrl.Status()
		return !st.Recording && st.LastMacro != ""
	})
}

func TestStatusObservers(t *testing.T) {
	ctrl, _, _ := newTestController(t)

	updates := make(chan Status, 16)
	ctrl.Subscribe(func(st Status) {
		select {
		case updates <- st:
		default:
		}
	})

	if err := ctrl.StartRecording("obs"); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}

	select {
	case st := <-updates:
		if !st.Recording {
			t.Errorf("observed status = %+v, want recording", st)
		}
	case <-time.After(time.Second):
		t.Fatal("no status update after StartRecording")
	}
}

func TestShutdownWithoutRun(t *testing.T) {
	ctrl, _, _ := newTestController(t)

	done := make(chan struct{})
	go func() {
		ctrl.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown blocked when Run was never called")
	}
}
