//go:build windows

package input

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"tinytask/internal/event"
)

// injectTag marks synthesized events in dwExtraInfo so the capture hook
// can drop them (feedback-loop guard).
const injectTag = 0x71A5C0DE

var (
	user32Inject         = windows.NewLazySystemDLL("user32.dll")
	procSendInput        = user32Inject.NewProc("SendInput")
	procGetSystemMetrics = user32Inject.NewProc("GetSystemMetrics")
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseeventfMove       = 0x0001
	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
	mouseeventfWheel      = 0x0800
	mouseeventfHWheel     = 0x1000
	mouseeventfAbsolute   = 0x8000

	keyeventfKeyUp = 0x0002

	wheelDelta = 120

	smCxScreen = 0
	smCyScreen = 1
)

type mouseInput struct {
	Dx        int32
	Dy        int32
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

type keybdInput struct {
	Vk        uint16
	Scan      uint16
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
	_         [8]byte // pad to the size of mouseInput
}

type winInput struct {
	Type uint32
	_    uint32
	mi   mouseInput
}

// Injector synthesizes input through SendInput. Absolute pointer
// positions are normalized to the primary display's resolution.
type Injector struct {
	mu      sync.Mutex
	screenW int
	screenH int
}

// NewInjector acquires the synthesis capability. SendInput needs no
// handle, so this only resolves the display size used for normalizing
// absolute coordinates.
func NewInjector(opts InjectorOptions) (*Injector, error) {
	w := opts.ScreenWidth
	h := opts.ScreenHeight
	if w <= 0 {
		if cx, _, _ := procGetSystemMetrics.Call(smCxScreen); cx != 0 {
			w = int(cx)
		} else {
			w = 1920
		}
	}
	if h <= 0 {
		if cy, _, _ := procGetSystemMetrics.Call(smCyScreen); cy != 0 {
			h = int(cy)
		} else {
			h = 1080
		}
	}
	return &Injector{screenW: w, screenH: h}, nil
}

func (i *Injector) send(in winInput) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	n, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if n != 1 {
		return fmt.Errorf("SendInput: %v", err)
	}
	return nil
}

func (i *Injector) sendMouse(dx, dy int32, data, flags uint32) error {
	return i.send(winInput{
		Type: inputMouse,
		mi: mouseInput{
			Dx:        dx,
			Dy:        dy,
			MouseData: data,
			Flags:     flags,
			ExtraInfo: injectTag,
		},
	})
}

func (i *Injector) sendKey(vk uint16, up bool) error {
	kb := keybdInput{Vk: vk, ExtraInfo: injectTag}
	if up {
		kb.Flags = keyeventfKeyUp
	}
	in := winInput{Type: inputKeyboard}
	*(*keybdInput)(unsafe.Pointer(&in.mi)) = kb
	return i.send(in)
}

// MoveTo moves the pointer to an absolute screen position.
func (i *Injector) MoveTo(x, y int) error {
	nx := int32(int64(x) * 65535 / int64(i.screenW-1))
	ny := int32(int64(y) * 65535 / int64(i.screenH-1))
	return i.sendMouse(nx, ny, 0, mouseeventfMove|mouseeventfAbsolute)
}

// Button presses or releases a mouse button.
func (i *Injector) Button(b event.Button, pressed bool) error {
	var flags uint32
	switch b {
	case event.ButtonLeft:
		flags = mouseeventfLeftDown
		if !pressed {
			flags = mouseeventfLeftUp
		}
	case event.ButtonRight:
		flags = mouseeventfRightDown
		if !pressed {
			flags = mouseeventfRightUp
		}
	case event.ButtonMiddle:
		flags = mouseeventfMiddleDown
		if !pressed {
			flags = mouseeventfMiddleUp
		}
	default:
		return fmt.Errorf("unknown mouse button %q", b)
	}
	return i.sendMouse(0, 0, 0, flags)
}

// Scroll emits dx horizontal and dy vertical scroll detents.
func (i *Injector) Scroll(dx, dy int) error {
	if dy != 0 {
		if err := i.sendMouse(0, 0, uint32(int32(dy*wheelDelta)), mouseeventfWheel); err != nil {
			return err
		}
	}
	if dx != 0 {
		if err := i.sendMouse(0, 0, uint32(int32(dx*wheelDelta)), mouseeventfHWheel); err != nil {
			return err
		}
	}
	return nil
}

// Key presses or releases a key.
func (i *Injector) Key(k event.Key, r rune, pressed bool) error {
	vk, ok := vkCode(k, r)
	if !ok {
		return fmt.Errorf("no virtual-key code for %q", event.Name(k, r))
	}
	return i.sendKey(vk, !pressed)
}

// Close releases the capability. SendInput holds no state.
func (i *Injector) Close() error {
	return nil
}
