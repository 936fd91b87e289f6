// Package evdev holds the Linux input event codes shared by the evdev
// capture backend, the uinput injector and the macro compiler. The
// constants come from linux/input-event-codes.h; only the subset the
// event model understands is listed. They are plain numbers, so the
// package builds on every platform — the compiler uses it to lower
// macros into uinput write sequences regardless of the host OS.
package evdev

import "tinytask/internal/event"

// Event type and code constants.
const (
	EvSyn = 0x00
	EvKey = 0x01
	EvRel = 0x02
	EvAbs = 0x03

	SynReport = 0

	RelX      = 0x00
	RelY      = 0x01
	RelHWheel = 0x06
	RelWheel  = 0x08

	AbsX = 0x00
	AbsY = 0x01

	BtnLeft   = 0x110
	BtnRight  = 0x111
	BtnMiddle = 0x112
)

// Named key codes.
const (
	KeyEsc        = 1
	KeyBackspace  = 14
	KeyTab        = 15
	KeyEnter      = 28
	KeyLeftCtrl   = 29
	KeyLeftShift  = 42
	KeyRightShift = 54
	KeyLeftAlt    = 56
	KeySpace      = 57
	KeyCapsLock   = 58
	KeyF1         = 59 // F1-F10 are contiguous
	KeyNumLock    = 69
	KeyScrollLock = 70
	KeyF11        = 87
	KeyF12        = 88
	KeyRightCtrl  = 97
	KeySysRq      = 99
	KeyRightAlt   = 100
	KeyHome       = 102
	KeyUp         = 103
	KeyPageUp     = 104
	KeyLeft       = 105
	KeyRight      = 106
	KeyEnd        = 107
	KeyDown       = 108
	KeyPageDown   = 109
	KeyInsert     = 110
	KeyDelete     = 111
	KeyPause      = 119
	KeyLeftMeta   = 125
	KeyRightMeta  = 126
	KeyCompose    = 127
)

// charCodes maps unshifted characters to their key codes on the standard
// US layout. Shift state is recorded as separate shift key events, so
// only unshifted characters appear here.
var charCodes = map[rune]uint16{
	'1': 2, '2': 3, '3': 4, '4': 5, '5': 6,
	'6': 7, '7': 8, '8': 9, '9': 10, '0': 11,
	'-': 12, '=': 13,
	'q': 16, 'w': 17, 'e': 18, 'r': 19, 't': 20,
	'y': 21, 'u': 22, 'i': 23, 'o': 24, 'p': 25,
	'[': 26, ']': 27,
	'a': 30, 's': 31, 'd': 32, 'f': 33, 'g': 34,
	'h': 35, 'j': 36, 'k': 37, 'l': 38,
	';': 39, '\'': 40, '`': 41, '\\': 43,
	'z': 44, 'x': 45, 'c': 46, 'v': 47, 'b': 48,
	'n': 49, 'm': 50,
	',': 51, '.': 52, '/': 53,
}

// charsByCode is the reverse of charCodes, built once at init.
var charsByCode = func() map[uint16]rune {
	m := make(map[uint16]rune, len(charCodes))
	for r, c := range charCodes {
		m[c] = r
	}
	return m
}()

var namedCodes = map[event.Key]uint16{
	event.KeyShift:       KeyLeftShift,
	event.KeyCtrl:        KeyLeftCtrl,
	event.KeyAlt:         KeyLeftAlt,
	event.KeyMeta:        KeyLeftMeta,
	event.KeyEscape:      KeyEsc,
	event.KeyEnter:       KeyEnter,
	event.KeyTab:         KeyTab,
	event.KeyBackspace:   KeyBackspace,
	event.KeyDelete:      KeyDelete,
	event.KeyInsert:      KeyInsert,
	event.KeyHome:        KeyHome,
	event.KeyEnd:         KeyEnd,
	event.KeyPageUp:      KeyPageUp,
	event.KeyPageDown:    KeyPageDown,
	event.KeyUp:          KeyUp,
	event.KeyDown:        KeyDown,
	event.KeyLeft:        KeyLeft,
	event.KeyRight:       KeyRight,
	event.KeySpace:       KeySpace,
	event.KeyCapsLock:    KeyCapsLock,
	event.KeyNumLock:     KeyNumLock,
	event.KeyScrollLock:  KeyScrollLock,
	event.KeyPrintScreen: KeySysRq,
	event.KeyPause:       KeyPause,
	event.KeyMenu:        KeyCompose,
}

// KeyCode resolves a canonical key to a Linux key code.
func KeyCode(k event.Key, r rune) (uint16, bool) {
	if k == event.KeyRune {
		if 'A' <= r && r <= 'Z' {
			r += 'a' - 'A'
		}
		c, ok := charCodes[r]
		return c, ok
	}
	switch {
	case k >= event.KeyF1 && k <= event.KeyF10:
		return KeyF1 + uint16(k-event.KeyF1), true
	case k == event.KeyF11:
		return KeyF11, true
	case k == event.KeyF12:
		return KeyF12, true
	}
	c, ok := namedCodes[k]
	return c, ok
}

// KeyFromCode resolves a Linux key code back to a canonical key. Left
// and right variants of a modifier collapse onto the same key, matching
// how macro files identify modifiers by name only.
func KeyFromCode(code uint16) (event.Key, rune, bool) {
	if r, ok := charsByCode[code]; ok {
		return event.KeyRune, r, true
	}
	switch {
	case code >= KeyF1 && code < KeyF1+10:
		return event.KeyF1 + event.Key(code-KeyF1), 0, true
	case code == KeyF11:
		return event.KeyF11, 0, true
	case code == KeyF12:
		return event.KeyF12, 0, true
	case code == KeyRightShift:
		return event.KeyShift, 0, true
	case code == KeyRightCtrl:
		return event.KeyCtrl, 0, true
	case code == KeyRightAlt:
		return event.KeyAlt, 0, true
	case code == KeyRightMeta:
		return event.KeyMeta, 0, true
	}
	for k, c := range namedCodes {
		if c == code {
			return k, 0, true
		}
	}
	return event.KeyNone, 0, false
}

// ButtonCode resolves a mouse button to its BTN_* code.
func ButtonCode(b event.Button) (uint16, bool) {
	switch b {
	case event.ButtonLeft:
		return BtnLeft, true
	case event.ButtonRight:
		return BtnRight, true
	case event.ButtonMiddle:
		return BtnMiddle, true
	}
	return 0, false
}

// ButtonFromCode resolves a BTN_* code to a mouse button.
func ButtonFromCode(code uint16) (event.Button, bool) {
	switch code {
	case BtnLeft:
		return event.ButtonLeft, true
	case BtnRight:
		return event.ButtonRight, true
	case BtnMiddle:
		return event.ButtonMiddle, true
	}
	return event.ButtonNone, false
}

// AllKeyCodes returns every key and button code the symbol table can
// produce, for registering uinput key bits.
func AllKeyCodes() []uint16 {
	codes := make([]uint16, 0, len(charCodes)+len(namedCodes)+15)
	for _, c := range charCodes {
		codes = append(codes, c)
	}
	for _, c := range namedCodes {
		codes = append(codes, c)
	}
	for c := uint16(KeyF1); c < KeyF1+10; c++ {
		codes = append(codes, c)
	}
	codes = append(codes, KeyF11, KeyF12, BtnLeft, BtnRight, BtnMiddle)
	return codes
}
