//go:build linux

package input

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"tinytask/internal/evdev"
	"tinytask/internal/event"
)

// Listener captures global input by reading every evdev device under
// /dev/input. Devices are observed, never grabbed: the user keeps full
// control of the machine while recording.
type Listener struct {
	mu      sync.Mutex
	running bool
	files   []*os.File
	events  chan RawEvent
	wg      sync.WaitGroup

	posMu sync.Mutex
	posX  int
	posY  int
}

// NewListener creates an inactive listener.
func NewListener() *Listener {
	return &Listener{}
}

// Start opens the evdev devices and begins delivering events. Returns
// ErrPermission when no device is readable by the current user (on most
// distributions /dev/input requires membership of the input group or
// root). A failed Start leaves the listener inactive.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return ErrAlreadyStarted
	}

	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return fmt.Errorf("scan input devices: %w", err)
	}

	var files []*os.File
	denied := 0
	for _, path := range paths {
		f, err := os.OpenFile(path, os.O_RDONLY, 0)
		if err != nil {
			if errors.Is(err, os.ErrPermission) {
				denied++
			}
			continue
		}
		name := deviceName(f)
		if strings.Contains(name, virtualDeviceName) {
			// Our own uinput device: never record synthesized input.
			f.Close()
			continue
		}
		files = append(files, f)
	}

	if len(files) == 0 {
		if denied > 0 {
			return fmt.Errorf("%w: no readable device under /dev/input", ErrPermission)
		}
		return fmt.Errorf("%w: no input devices found", ErrUnsupported)
	}

	l.files = files
	l.events = make(chan RawEvent, 256)
	l.running = true

	for _, f := range files {
		l.wg.Add(1)
		go l.readLoop(f)
	}

	// Close the events channel once every device loop has exited.
	go func() {
		l.wg.Wait()
		close(l.events)
	}()

	log.Printf("Input: capturing from %d evdev devices", len(files))
	return nil
}

// Stop closes all devices and the event channel.
func (l *Listener) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return ErrNotStarted
	}
	l.running = false
	for _, f := range l.files {
		f.Close()
	}
	l.files = nil
	return nil
}

// Events returns the capture channel. Nil until Start succeeds.
func (l *Listener) Events() <-chan RawEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events
}

func (l *Listener) readLoop(f *os.File) {
	defer l.wg.Done()
	defer f.Close()

	buf := make([]byte, inputEventSize*16)
	for {
		n, err := f.Read(buf)
		if err != nil {
			return
		}
		for off := 0; off+inputEventSize <= n; off += inputEventSize {
			ev := *(*inputEvent)(unsafe.Pointer(&buf[off]))
			l.translate(ev)
		}
	}
}

// translate converts one evdev event into a RawEvent and delivers it.
// Events the model does not cover (SYN, MSC, unknown codes) are dropped.
func (l *Listener) translate(ev inputEvent) {
	ts := time.Unix(ev.Sec, ev.Usec*int64(time.Microsecond))

	switch ev.Type {
	case evdev.EvKey:
		l.translateKey(ev, ts)

	case evdev.EvRel:
		switch ev.Code {
		case evdev.RelX:
			l.posMu.Lock()
			l.posX += int(ev.Value)
			x, y := l.posX, l.posY
			l.posMu.Unlock()
			l.deliver(RawEvent{Kind: event.KindMouseMove, Time: ts, X: x, Y: y})
		case evdev.RelY:
			l.posMu.Lock()
			l.posY += int(ev.Value)
			x, y := l.posX, l.posY
			l.posMu.Unlock()
			l.deliver(RawEvent{Kind: event.KindMouseMove, Time: ts, X: x, Y: y})
		case evdev.RelWheel:
			l.deliver(RawEvent{Kind: event.KindMouseScroll, Time: ts, ScrollDY: int(ev.Value)})
		case evdev.RelHWheel:
			l.deliver(RawEvent{Kind: event.KindMouseScroll, Time: ts, ScrollDX: int(ev.Value)})
		}

	case evdev.EvAbs:
		l.posMu.Lock()
		switch ev.Code {
		case evdev.AbsX:
			l.posX = int(ev.Value)
		case evdev.AbsY:
			l.posY = int(ev.Value)
		}
		x, y := l.posX, l.posY
		l.posMu.Unlock()
		l.deliver(RawEvent{Kind: event.KindMouseMove, Time: ts, X: x, Y: y})
	}
}

func (l *Listener) translateKey(ev inputEvent, ts time.Time) {
	// Value 2 is key repeat; only edges are recorded.
	if ev.Value != 0 && ev.Value != 1 {
		return
	}
	pressed := ev.Value == 1

	if btn, ok := evdev.ButtonFromCode(ev.Code); ok {
		kind := event.KindMouseUp
		if pressed {
			kind = event.KindMouseDown
		}
		l.posMu.Lock()
		x, y := l.posX, l.posY
		l.posMu.Unlock()
		l.deliver(RawEvent{Kind: kind, Time: ts, X: x, Y: y, Button: btn})
		return
	}

	if k, r, ok := evdev.KeyFromCode(ev.Code); ok {
		kind := event.KindKeyUp
		if pressed {
			kind = event.KindKeyDown
		}
		l.deliver(RawEvent{Kind: kind, Time: ts, Key: k, Rune: r})
	}
}

// deliver pushes an event, dropping it if the consumer has stalled.
// Dropping is preferable to blocking a device read loop.
func (l *Listener) deliver(ev RawEvent) {
	select {
	case l.events <- ev:
	default:
	}
}

// deviceName reads a device's reported name via EVIOCGNAME.
func deviceName(f *os.File) string {
	var buf [256]byte
	req := uintptr(2<<30 | len(buf)<<16 | 'E'<<8 | 0x06)
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), req, uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return ""
	}
	if i := strings.IndexByte(string(buf[:]), 0); i >= 0 {
		return string(buf[:i])
	}
	return string(buf[:])
}
