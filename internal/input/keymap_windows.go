//go:build windows

package input

import "tinytask/internal/event"

// Virtual-key codes, from winuser.h.
const (
	vkBack     = 0x08
	vkTab      = 0x09
	vkReturn   = 0x0D
	vkShift    = 0x10
	vkControl  = 0x11
	vkMenu     = 0x12
	vkPause    = 0x13
	vkCapital  = 0x14
	vkEscape   = 0x1B
	vkSpace    = 0x20
	vkPrior    = 0x21
	vkNext     = 0x22
	vkEnd      = 0x23
	vkHome     = 0x24
	vkLeft     = 0x25
	vkUp       = 0x26
	vkRight    = 0x27
	vkDown     = 0x28
	vkSnapshot = 0x2C
	vkInsert   = 0x2D
	vkDelete   = 0x2E
	vkLWin     = 0x5B
	vkRWin     = 0x5C
	vkApps     = 0x5D
	vkF1       = 0x70
	vkNumLock  = 0x90
	vkScroll   = 0x91
	vkLShift   = 0xA0
	vkRShift   = 0xA1
	vkLControl = 0xA2
	vkRControl = 0xA3
	vkLMenu    = 0xA4
	vkRMenu    = 0xA5
)

var vkNamed = map[event.Key]uint16{
	event.KeyShift:       vkShift,
	event.KeyCtrl:        vkControl,
	event.KeyAlt:         vkMenu,
	event.KeyMeta:        vkLWin,
	event.KeyEscape:      vkEscape,
	event.KeyEnter:       vkReturn,
	event.KeyTab:         vkTab,
	event.KeyBackspace:   vkBack,
	event.KeyDelete:      vkDelete,
	event.KeyInsert:      vkInsert,
	event.KeyHome:        vkHome,
	event.KeyEnd:         vkEnd,
	event.KeyPageUp:      vkPrior,
	event.KeyPageDown:    vkNext,
	event.KeyUp:          vkUp,
	event.KeyDown:        vkDown,
	event.KeyLeft:        vkLeft,
	event.KeyRight:       vkRight,
	event.KeySpace:       vkSpace,
	event.KeyCapsLock:    vkCapital,
	event.KeyNumLock:     vkNumLock,
	event.KeyScrollLock:  vkScroll,
	event.KeyPrintScreen: vkSnapshot,
	event.KeyPause:       vkPause,
	event.KeyMenu:        vkApps,
}

// vkChars maps unshifted characters to virtual-key codes on the US layout.
var vkChars = map[rune]uint16{
	'-': 0xBD, '=': 0xBB, '[': 0xDB, ']': 0xDD, '\\': 0xDC,
	';': 0xBA, '\'': 0xDE, '`': 0xC0, ',': 0xBC, '.': 0xBE, '/': 0xBF,
}

// vkCode resolves a canonical key to a virtual-key code.
func vkCode(k event.Key, r rune) (uint16, bool) {
	if k == event.KeyRune {
		switch {
		case 'a' <= r && r <= 'z':
			return uint16(r-'a') + 'A', true
		case 'A' <= r && r <= 'Z':
			return uint16(r), true
		case '0' <= r && r <= '9':
			return uint16(r), true
		}
		c, ok := vkChars[r]
		return c, ok
	}
	if k.IsFunctionKey() {
		return vkF1 + uint16(k-event.KeyF1), true
	}
	c, ok := vkNamed[k]
	return c, ok
}

// keyFromVK resolves a virtual-key code to a canonical key. Left/right
// modifier variants collapse onto the shared modifier key.
func keyFromVK(vk uint16) (event.Key, rune, bool) {
	switch {
	case 'A' <= vk && vk <= 'Z':
		return event.KeyRune, rune(vk-'A') + 'a', true
	case '0' <= vk && vk <= '9':
		return event.KeyRune, rune(vk), true
	case vkF1 <= vk && vk < vkF1+12:
		return event.KeyF1 + event.Key(vk-vkF1), 0, true
	case vk == vkLShift || vk == vkRShift:
		return event.KeyShift, 0, true
	case vk == vkLControl || vk == vkRControl:
		return event.KeyCtrl, 0, true
	case vk == vkLMenu || vk == vkRMenu:
		return event.KeyAlt, 0, true
	case vk == vkRWin:
		return event.KeyMeta, 0, true
	}
	for r, c := range vkChars {
		if c == vk {
			return event.KeyRune, r, true
		}
	}
	for k, c := range vkNamed {
		if c == vk {
			return k, 0, true
		}
	}
	return event.KeyNone, 0, false
}
