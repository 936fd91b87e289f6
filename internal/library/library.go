// Package library manages the on-disk collection of saved macros. It
// wraps the macro store with naming, listing and deletion over a single
// directory, and watches that directory so external changes (a file
// dropped in by hand, a sync tool) are picked up without restarting.
package library

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"tinytask/internal/macro"
)

// Entry summarizes one stored macro without keeping its events in
// memory.
type Entry struct {
	ID         string
	Name       string
	Path       string
	CreatedAt  string
	EventCount int
	DurationMs int64
}

// Library is a directory of macro files. All methods are safe for
// concurrent use.
type Library struct {
	dir string

	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	callbacks []func()
}

// Open creates the macro directory if needed and returns a library
// over it.
func Open(dir string) (*Library, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create macro directory: %w", err)
	}
	return &Library{dir: dir}, nil
}

// Dir returns the library's directory.
func (l *Library) Dir() string {
	return l.dir
}

// fileName derives a filesystem-safe file name from a macro name.
func fileName(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	if clean == "" {
		clean = "macro"
	}
	return clean + ".json"
}

// Path resolves a macro name to its file path. A bare "<name>.json"
// refers to that file inside the library; any other name is sanitized
// the same way Save derives file names. Names reachable through the API
// must never escape the library directory, so path separators are not
// honored.
func (l *Library) Path(name string) string {
	if strings.HasSuffix(name, ".json") && filepath.Base(name) == name {
		return filepath.Join(l.dir, name)
	}
	return filepath.Join(l.dir, fileName(name))
}

// Save stores m in the library under its name and returns the path.
// An existing macro with the same name is replaced.
func (l *Library) Save(m *macro.Macro) (string, error) {
	path := filepath.Join(l.dir, fileName(m.Name()))
	if err := macro.Save(m, path); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads the named macro back as a sealed Macro.
func (l *Library) Load(name string) (*macro.Macro, error) {
	return macro.Load(l.Path(name))
}

// Delete removes the named macro file.
func (l *Library) Delete(name string) error {
	path := l.Path(name)
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete macro: %w", err)
	}
	return nil
}

// List returns an entry per readable macro file, newest first. Files
// that fail to parse are skipped with a log line rather than failing
// the whole listing.
func (l *Library) List() ([]Entry, error) {
	paths, err := filepath.Glob(filepath.Join(l.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan macro directory: %w", err)
	}

	entries := make([]Entry, 0, len(paths))
	for _, path := range paths {
		m, err := macro.Load(path)
		if err != nil {
			log.Printf("Library: skipping %s: %v", filepath.Base(path), err)
			continue
		}
		entries = append(entries, Entry{
			ID:         m.ID(),
			Name:       m.Name(),
			Path:       path,
			CreatedAt:  m.CreatedAt().Format("2006-01-02 15:04:05"),
			EventCount: m.Len(),
			DurationMs: m.Duration().Milliseconds(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt > entries[j].CreatedAt
	})
	return entries, nil
}

// Latest returns the most recently created macro, or an error when the
// library is empty.
func (l *Library) Latest() (*macro.Macro, error) {
	entries, err := l.List()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("macro library is empty")
	}
	return macro.Load(entries[0].Path)
}

// Watch starts a filesystem watcher on the library directory and
// invokes fn after every change to a macro file. Callbacks run on the
// watcher goroutine.
func (l *Library) Watch(fn func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.callbacks = append(l.callbacks, fn)
	if l.watcher != nil {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(l.dir); err != nil {
		w.Close()
		return fmt.Errorf("watch macro directory: %w", err)
	}
	l.watcher = w

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(ev.Name, ".json") {
					continue
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				l.mu.Lock()
				callbacks := append([]func(){}, l.callbacks...)
				l.mu.Unlock()
				for _, cb := range callbacks {
					cb()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("Library: watcher error: %v", err)
			}
		}
	}()
	return nil
}

// Close stops the watcher, if running.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watcher == nil {
		return nil
	}
	err := l.watcher.Close()
	l.watcher = nil
	return err
}
