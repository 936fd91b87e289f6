package event

import (
	"fmt"
	"strings"
	"unicode"
)

// Key identifies a keyboard key. Character keys use KeyRune with the
// character stored in Event.Rune; everything else is a named key drawn
// from a fixed symbol table.
type Key uint16

const (
	// KeyNone represents no key.
	KeyNone Key = iota

	// Modifier keys
	KeyShift
	KeyCtrl
	KeyAlt
	KeyMeta

	// Special keys
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown

	// Arrow keys
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	// Other special keys
	KeySpace
	KeyCapsLock
	KeyNumLock
	KeyScrollLock
	KeyPrintScreen
	KeyPause
	KeyMenu

	// KeyRune is used for character keys (letters, digits, punctuation).
	// The actual character is stored in Event.Rune.
	KeyRune
)

// keyNames maps each named key to its canonical macro-file identifier.
var keyNames = map[Key]string{
	KeyShift:       "shift",
	KeyCtrl:        "ctrl",
	KeyAlt:         "alt",
	KeyMeta:        "meta",
	KeyEscape:      "esc",
	KeyEnter:       "enter",
	KeyTab:         "tab",
	KeyBackspace:   "backspace",
	KeyDelete:      "delete",
	KeyInsert:      "insert",
	KeyHome:        "home",
	KeyEnd:         "end",
	KeyPageUp:      "pageup",
	KeyPageDown:    "pagedown",
	KeyUp:          "up",
	KeyDown:        "down",
	KeyLeft:        "left",
	KeyRight:       "right",
	KeyF1:          "f1",
	KeyF2:          "f2",
	KeyF3:          "f3",
	KeyF4:          "f4",
	KeyF5:          "f5",
	KeyF6:          "f6",
	KeyF7:          "f7",
	KeyF8:          "f8",
	KeyF9:          "f9",
	KeyF10:         "f10",
	KeyF11:         "f11",
	KeyF12:         "f12",
	KeySpace:       "space",
	KeyCapsLock:    "capslock",
	KeyNumLock:     "numlock",
	KeyScrollLock:  "scrolllock",
	KeyPrintScreen: "printscreen",
	KeyPause:       "pause",
	KeyMenu:        "menu",
}

// keysByName is the reverse lookup, built once at init.
var keysByName = func() map[string]Key {
	m := make(map[string]Key, len(keyNames))
	for k, name := range keyNames {
		m[name] = k
	}
	return m
}()

// Name returns the canonical identifier for a key, as written to macro
// files. Character keys return the character itself ("a", "7", "/").
// KeyNone and unknown values return "".
func Name(k Key, r rune) string {
	if k == KeyRune {
		if r == 0 {
			return ""
		}
		return string(r)
	}
	return keyNames[k]
}

// ParseKey resolves a canonical key identifier to a Key. Single printable
// characters resolve to KeyRune with the character returned as the rune.
// Unknown names fail closed; key names are never evaluated dynamically.
func ParseKey(name string) (Key, rune, error) {
	if name == "" {
		return KeyNone, 0, fmt.Errorf("empty key name")
	}

	if k, ok := keysByName[strings.ToLower(name)]; ok {
		return k, 0, nil
	}

	runes := []rune(name)
	if len(runes) == 1 && unicode.IsPrint(runes[0]) && runes[0] != ' ' {
		return KeyRune, runes[0], nil
	}

	return KeyNone, 0, fmt.Errorf("unknown key name %q", name)
}

// IsModifier returns true for shift, ctrl, alt and meta.
func (k Key) IsModifier() bool {
	return k >= KeyShift && k <= KeyMeta
}

// IsFunctionKey returns true for F1-F12.
func (k Key) IsFunctionKey() bool {
	return k >= KeyF1 && k <= KeyF12
}

// String returns the canonical name for named keys, or "rune" for KeyRune.
func (k Key) String() string {
	if k == KeyRune {
		return "rune"
	}
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("key(%d)", uint16(k))
}
