package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tinytask/internal/event"
	"tinytask/internal/macro"
)

func testMacro(t *testing.T, name string, created time.Time) *macro.Macro {
	t.Helper()
	m, err := macro.New(name, created, []event.Event{
		{Kind: event.KindMouseMove, Offset: 0, X: 1, Y: 2},
		{Kind: event.KindKeyDown, Offset: 20 * time.Millisecond, Key: event.KeyRune, Rune: 'k'},
		{Kind: event.KindKeyUp, Offset: 40 * time.Millisecond, Key: event.KeyRune, Rune: 'k'},
	})
	if err != nil {
		t.Fatalf("macro.New: %v", err)
	}
	return m
}

func TestSaveLoadDelete(t *testing.T) {
	lib, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	m := testMacro(t, "demo", time.Now())
	path, err := lib.Save(m)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Dir(path) != lib.Dir() {
		t.Errorf("saved outside library dir: %s", path)
	}

	got, err := lib.Load("demo")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name() != "demo" || got.Len() != m.Len() {
		t.Errorf("loaded %q with %d events, want %q with %d", got.Name(), got.Len(), "demo", m.Len())
	}

	if err := lib.Delete("demo"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := lib.Load("demo"); err == nil {
		t.Error("Load after Delete succeeded")
	}
}

func TestFileNameSanitized(t *testing.T) {
	lib, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	m := testMacro(t, "my demo/run:1", time.Now())
	path, err := lib.Save(m)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	base := filepath.Base(path)
	if base != "my-demo-run-1.json" {
		t.Errorf("file name = %q, want my-demo-run-1.json", base)
	}
	// The macro's own name is untouched.
	got, err := lib.Load("my demo/run:1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name() != "my demo/run:1" {
		t.Errorf("Name = %q, want original", got.Name())
	}
}

func TestListNewestFirstAndSkipsBroken(t *testing.T) {
	dir := t.TempDir()
	lib, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	older := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	if _, err := lib.Save(testMacro(t, "older", older)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := lib.Save(testMacro(t, "newer", newer)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A malformed file in the directory is skipped, not fatal.
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{{{"), 0o644); err != nil {
		t.Fatalf("write broken file: %v", err)
	}

	entries, err := lib.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("listed %d entries, want 2", len(entries))
	}
	if entries[0].Name != "newer" || entries[1].Name != "older" {
		t.Errorf("order = [%s, %s], want [newer, older]", entries[0].Name, entries[1].Name)
	}
	if entries[0].EventCount != 3 {
		t.Errorf("EventCount = %d, want 3", entries[0].EventCount)
	}
}

func TestLatest(t *testing.T) {
	lib, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := lib.Latest(); err == nil {
		t.Error("Latest on empty library succeeded")
	}

	if _, err := lib.Save(testMacro(t, "first", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := lib.Save(testMacro(t, "second", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m, err := lib.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if m.Name() != "second" {
		t.Errorf("Latest = %q, want second", m.Name())
	}
}

func TestWatchFiresOnChange(t *testing.T) {
	lib, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer lib.Close()

	changed := make(chan struct{}, 8)
	if err := lib.Watch(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if _, err := lib.Save(testMacro(t, "watched", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not fire after Save")
	}
}

func TestPathStaysInsideLibrary(t *testing.T) {
	dir := t.TempDir()
	lib, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// A macro file outside the library must be unreachable by name,
	// whether the name is relative or absolute.
	outside := filepath.Join(t.TempDir(), "outside.json")
	if err := macro.Save(testMacro(t, "outside", time.Now()), outside); err != nil {
		t.Fatalf("Save: %v", err)
	}

	for _, name := range []string{
		outside,
		"../outside.json",
		filepath.Join("..", filepath.Base(filepath.Dir(outside)), "outside.json"),
	} {
		if got := lib.Path(name); filepath.Dir(got) != dir {
			t.Errorf("Path(%q) = %q, escapes the library", name, got)
		}
		if _, err := lib.Load(name); err == nil {
			t.Errorf("Load(%q) read a file outside the library", name)
		}
		if err := lib.Delete(name); err == nil {
			t.Errorf("Delete(%q) succeeded outside the library", name)
		}
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("outside file was touched: %v", err)
	}

	// A bare .json name still addresses the library file directly.
	if _, err := lib.Save(testMacro(t, "plain", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := lib.Load("plain.json"); err != nil {
		t.Errorf("Load(\"plain.json\") = %v, want the saved macro", err)
	}
}
