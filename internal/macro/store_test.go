package macro

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tinytask/internal/event"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	m, err := New("round-trip", created, sampleEvents())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path := filepath.Join(t.TempDir(), "round-trip.json")
	if err := Save(m, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Name() != m.Name() {
		t.Errorf("Name = %q, want %q", got.Name(), m.Name())
	}
	if got.ID() != m.ID() {
		t.Errorf("ID = %q, want %q", got.ID(), m.ID())
	}
	if !got.CreatedAt().Equal(m.CreatedAt()) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt(), m.CreatedAt())
	}

	want := m.Events()
	events := got.Events()
	if len(events) != len(want) {
		t.Fatalf("loaded %d events, want %d", len(events), len(want))
	}
	for i := range want {
		if !events[i].Equals(want[i]) {
			t.Errorf("event %d changed:\n  in  %+v\n  out %+v", i, want[i], events[i])
		}
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	m, err := New("nested", time.Now(), sampleEvents())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	path := filepath.Join(t.TempDir(), "a", "b", "nested.json")
	if err := Save(m, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("saved file missing: %v", err)
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{{`},
		{"missing version", `{"name":"x","events":[]}`},
		{"future version", `{"format_version":99,"name":"x","events":[]}`},
		{"count mismatch", `{"format_version":1,"name":"x","event_count":3,"events":[]}`},
		{"unknown kind", `{"format_version":1,"name":"x","events":[{"kind":"warp","t_offset_ms":0}]}`},
		{"unknown key", `{"format_version":1,"name":"x","events":[{"kind":"key_down","t_offset_ms":0,"key":"doomkey"}]}`},
		{"decreasing offsets", `{"format_version":1,"name":"x","events":[
			{"kind":"mouse_move","t_offset_ms":50,"x":1,"y":1},
			{"kind":"mouse_move","t_offset_ms":10,"x":2,"y":2}]}`},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		path := filepath.Join(dir, tt.name+".json")
		if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		_, err := Load(path)
		if !errors.Is(err, ErrMalformedMacro) {
			t.Errorf("%s: Load = %v, want ErrMalformedMacro", tt.name, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("Load of missing file succeeded")
	}
	if errors.Is(err, ErrMalformedMacro) {
		t.Error("missing file reported as malformed, want I/O error")
	}
}

func TestSaveLoadSubMillisecondOffsets(t *testing.T) {
	// Live capture stamps offsets at nanosecond precision; the sealed
	// macro must still survive the millisecond wire format unchanged.
	m, err := New("fine-grained", time.Now(), []event.Event{
		{Kind: event.KindMouseDown, Offset: 1500 * time.Microsecond, X: 3, Y: 4, Button: event.ButtonLeft},
		{Kind: event.KindMouseUp, Offset: 80*time.Millisecond + 731*time.Microsecond, X: 3, Y: 4, Button: event.ButtonLeft},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path := filepath.Join(t.TempDir(), "fine-grained.json")
	if err := Save(m, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := m.Events()
	events := got.Events()
	if len(events) != len(want) {
		t.Fatalf("loaded %d events, want %d", len(events), len(want))
	}
	for i := range want {
		if events[i].Offset != want[i].Offset {
			t.Errorf("offset %d changed across save/load: in %v, out %v", i, want[i].Offset, events[i].Offset)
		}
	}
}
