//go:build windows

package input

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"tinytask/internal/event"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessage          = user32.NewProc("GetMessageW")
	procPostThreadMessage   = user32.NewProc("PostThreadMessageW")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procGetModuleHandle     = kernel32.NewProc("GetModuleHandleW")
	procGetCurrentThreadID  = kernel32.NewProc("GetCurrentThreadId")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmQuit        = 0x0012
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmMouseWheel  = 0x020A
	wmMouseHWheel = 0x020E

	llkhfInjected = 0x10
	llmhfInjected = 0x01
)

type kbdllHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msllHookStruct struct {
	Point       struct{ X, Y int32 }
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

// Listener captures global input through low-level keyboard and mouse
// hooks. Hooks must live on the thread that runs the message loop, so
// Start pins a goroutine to an OS thread for the lifetime of the capture.
type Listener struct {
	mu       sync.Mutex
	running  bool
	events   chan RawEvent
	threadID uint32
	started  chan error
}

// activeListener is consulted by the hook callbacks, which Windows calls
// with no context pointer. Only one capture may be active per process.
var (
	activeMu       sync.Mutex
	activeListener *Listener
)

// NewListener creates an inactive listener.
func NewListener() *Listener {
	return &Listener{}
}

// Start installs the hooks and begins delivering events.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return ErrAlreadyStarted
	}

	activeMu.Lock()
	if activeListener != nil {
		activeMu.Unlock()
		return ErrAlreadyStarted
	}
	activeListener = l
	activeMu.Unlock()

	l.events = make(chan RawEvent, 256)
	l.started = make(chan error, 1)
	go l.messageLoop()

	if err := <-l.started; err != nil {
		activeMu.Lock()
		activeListener = nil
		activeMu.Unlock()
		return err
	}
	l.running = true
	return nil
}

// Stop removes the hooks and closes the event channel.
func (l *Listener) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return ErrNotStarted
	}
	l.running = false
	procPostThreadMessage.Call(uintptr(l.threadID), wmQuit, 0, 0)

	activeMu.Lock()
	activeListener = nil
	activeMu.Unlock()
	return nil
}

// Events returns the capture channel. Nil until Start succeeds.
func (l *Listener) Events() <-chan RawEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events
}

func (l *Listener) messageLoop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.events)

	tid, _, _ := procGetCurrentThreadID.Call()
	l.threadID = uint32(tid)

	hMod, _, _ := procGetModuleHandle.Call(0)

	kbHook, _, err := procSetWindowsHookEx.Call(
		whKeyboardLL, syscall.NewCallback(keyboardHookProc), hMod, 0)
	if kbHook == 0 {
		l.started <- fmt.Errorf("install keyboard hook: %v", err)
		return
	}
	mouseHook, _, err := procSetWindowsHookEx.Call(
		whMouseLL, syscall.NewCallback(mouseHookProc), hMod, 0)
	if mouseHook == 0 {
		procUnhookWindowsHookEx.Call(kbHook)
		l.started <- fmt.Errorf("install mouse hook: %v", err)
		return
	}

	log.Printf("Input: low-level hooks installed")
	l.started <- nil

	var msg struct {
		Hwnd    syscall.Handle
		Message uint32
		Wparam  uintptr
		Lparam  uintptr
		Time    uint32
		Pt      struct{ X, Y int32 }
	}
	for {
		ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		if int32(ret) <= 0 {
			break
		}
	}

	procUnhookWindowsHookEx.Call(kbHook)
	procUnhookWindowsHookEx.Call(mouseHook)
}

func keyboardHookProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 {
		kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))
		// Skip events synthesized by this process or any other injector.
		if kb.Flags&llkhfInjected == 0 && kb.DwExtraInfo != injectTag {
			if k, r, ok := keyFromVK(uint16(kb.VkCode)); ok {
				kind := event.KindKeyUp
				if wParam == wmKeyDown || wParam == wmSysKeyDown {
					kind = event.KindKeyDown
				}
				deliverActive(RawEvent{Kind: kind, Time: time.Now(), Key: k, Rune: r})
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

func mouseHookProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 {
		ms := (*msllHookStruct)(unsafe.Pointer(lParam))
		if ms.Flags&llmhfInjected == 0 && ms.DwExtraInfo != injectTag {
			ev := RawEvent{Time: time.Now(), X: int(ms.Point.X), Y: int(ms.Point.Y)}
			deliver := true

			switch wParam {
			case wmMouseMove:
				ev.Kind = event.KindMouseMove
			case wmLButtonDown:
				ev.Kind, ev.Button = event.KindMouseDown, event.ButtonLeft
			case wmLButtonUp:
				ev.Kind, ev.Button = event.KindMouseUp, event.ButtonLeft
			case wmRButtonDown:
				ev.Kind, ev.Button = event.KindMouseDown, event.ButtonRight
			case wmRButtonUp:
				ev.Kind, ev.Button = event.KindMouseUp, event.ButtonRight
			case wmMButtonDown:
				ev.Kind, ev.Button = event.KindMouseDown, event.ButtonMiddle
			case wmMButtonUp:
				ev.Kind, ev.Button = event.KindMouseUp, event.ButtonMiddle
			case wmMouseWheel:
				ev.Kind = event.KindMouseScroll
				ev.ScrollDY = int(int16(ms.MouseData>>16)) / wheelDelta
			case wmMouseHWheel:
				ev.Kind = event.KindMouseScroll
				ev.ScrollDX = int(int16(ms.MouseData>>16)) / wheelDelta
			default:
				deliver = false
			}

			if deliver {
				deliverActive(ev)
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

// deliverActive pushes an event to the active listener, dropping it if
// the consumer has stalled. The hook must never block.
func deliverActive(ev RawEvent) {
	activeMu.Lock()
	l := activeListener
	activeMu.Unlock()
	if l == nil {
		return
	}
	select {
	case l.events <- ev:
	default:
	}
}
