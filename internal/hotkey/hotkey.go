// Package hotkey matches global key combinations against registered
// bindings. It owns no OS hooks: the daemon feeds it key events from
// the shared capture stream, so bindings fire regardless of UI focus.
package hotkey

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"tinytask/internal/event"
)

// Manager tracks the set of currently pressed keys and fires binding
// callbacks when every part of a binding is down.
type Manager struct {
	mu           sync.RWMutex
	bindings     []*binding
	currentState map[string]bool // canonical key names currently pressed
}

type binding struct {
	parts    []string // canonical names, e.g. ["ctrl", "alt", "p"]
	original string
	callback func()
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		currentState: make(map[string]bool),
	}
}

// Register parses a binding string such as "f8" or "ctrl+alt+p" and
// registers callback for it. Names follow the macro file key names;
// unknown names are rejected. An empty string registers nothing.
func (m *Manager) Register(combo string, callback func()) error {
	if combo == "" {
		return nil
	}

	var parts []string
	for _, raw := range strings.Split(combo, "+") {
		name := strings.ToLower(strings.TrimSpace(raw))
		k, r, err := event.ParseKey(name)
		if err != nil {
			return fmt.Errorf("hotkey %q: %w", combo, err)
		}
		parts = append(parts, event.Name(k, r))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings = append(m.bindings, &binding{
		parts:    parts,
		original: combo,
		callback: callback,
	})
	return nil
}

// Clear removes all registered bindings.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings = nil
}

// HandleKey updates the pressed-key state and checks bindings on each
// key-down edge. The capture layer already filters auto-repeat, so a
// held binding fires once.
func (m *Manager) HandleKey(k event.Key, r rune, pressed bool) {
	name := event.Name(k, r)
	if name == "" {
		return
	}

	m.mu.Lock()
	if pressed {
		m.currentState[name] = true
	} else {
		delete(m.currentState, name)
	}
	m.mu.Unlock()

	if pressed {
		m.checkMatches()
	}
}

func (m *Manager) checkMatches() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.bindings {
		match := true
		for _, part := range b.parts {
			if !m.currentState[part] {
				match = false
				break
			}
		}

		if match {
			log.Printf("Hotkey triggered: %s", b.original)
			go b.callback()
		}
	}
}
