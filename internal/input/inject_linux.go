//go:build linux

package input

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"tinytask/internal/evdev"
	"tinytask/internal/event"
)

// virtualDeviceName identifies the uinput device this process creates.
// The capture backend drops events originating from a device with this
// name so playback is never recorded back (feedback-loop guard).
const virtualDeviceName = "tinytask-virtual-input"

// uinput ioctl requests, from linux/uinput.h.
const (
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiSetRelBit  = 0x40045566
	uiSetAbsBit  = 0x40045567
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502

	busVirtual = 0x06
	absCnt     = 0x40
)

// uinputUserDev mirrors struct uinput_user_dev.
type uinputUserDev struct {
	Name         [80]byte
	BusType      uint16
	Vendor       uint16
	Product      uint16
	Version      uint16
	FFEffectsMax uint32
	AbsMax       [absCnt]int32
	AbsMin       [absCnt]int32
	AbsFuzz      [absCnt]int32
	AbsFlat      [absCnt]int32
}

// inputEvent mirrors struct input_event on 64-bit platforms.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

const inputEventSize = int(unsafe.Sizeof(inputEvent{}))

// Injector synthesizes input through a virtual uinput device. The device
// reports absolute pointer coordinates so recorded positions replay
// exactly regardless of the current pointer location.
type Injector struct {
	mu      sync.Mutex
	file    *os.File
	screenW int
	screenH int
}

// NewInjector acquires the input synthesis capability by creating a
// virtual uinput device. Returns ErrPermission if /dev/uinput is not
// accessible to the current user.
func NewInjector(opts InjectorOptions) (*Injector, error) {
	if opts.ScreenWidth <= 0 {
		opts.ScreenWidth = 1920
	}
	if opts.ScreenHeight <= 0 {
		opts.ScreenHeight = 1080
	}

	f, err := os.OpenFile("/dev/uinput", os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: open /dev/uinput: %v", ErrPermission, err)
		}
		return nil, fmt.Errorf("open /dev/uinput: %w", err)
	}

	inj := &Injector{file: f, screenW: opts.ScreenWidth, screenH: opts.ScreenHeight}
	if err := inj.setup(); err != nil {
		f.Close()
		return nil, err
	}
	return inj, nil
}

func (i *Injector) ioctl(req, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, i.file.Fd(), req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

func (i *Injector) setup() error {
	for _, ev := range []uintptr{evdev.EvKey, evdev.EvRel, evdev.EvAbs, evdev.EvSyn} {
		if err := i.ioctl(uiSetEvBit, ev); err != nil {
			return fmt.Errorf("UI_SET_EVBIT %d: %w", ev, err)
		}
	}

	// Every key the symbol table can produce, plus the mouse buttons.
	for _, code := range evdev.AllKeyCodes() {
		if err := i.ioctl(uiSetKeyBit, uintptr(code)); err != nil {
			return fmt.Errorf("UI_SET_KEYBIT %d: %w", code, err)
		}
	}

	for _, rel := range []uintptr{evdev.RelWheel, evdev.RelHWheel} {
		if err := i.ioctl(uiSetRelBit, rel); err != nil {
			return fmt.Errorf("UI_SET_RELBIT %d: %w", rel, err)
		}
	}
	for _, abs := range []uintptr{evdev.AbsX, evdev.AbsY} {
		if err := i.ioctl(uiSetAbsBit, abs); err != nil {
			return fmt.Errorf("UI_SET_ABSBIT %d: %w", abs, err)
		}
	}

	var dev uinputUserDev
	copy(dev.Name[:], virtualDeviceName)
	dev.BusType = busVirtual
	dev.Vendor = 0x1
	dev.Product = 0x1
	dev.Version = 1
	dev.AbsMax[evdev.AbsX] = int32(i.screenW - 1)
	dev.AbsMax[evdev.AbsY] = int32(i.screenH - 1)

	buf := (*[unsafe.Sizeof(dev)]byte)(unsafe.Pointer(&dev))[:]
	if _, err := i.file.Write(buf); err != nil {
		return fmt.Errorf("write uinput device descriptor: %w", err)
	}
	if err := i.ioctl(uiDevCreate, 0); err != nil {
		return fmt.Errorf("UI_DEV_CREATE: %w", err)
	}

	// Give the input stack a moment to register the new device before
	// the first synthesized event.
	time.Sleep(150 * time.Millisecond)
	return nil
}

func (i *Injector) emit(evType, code uint16, value int32) error {
	ev := inputEvent{Type: evType, Code: code, Value: value}
	buf := (*[unsafe.Sizeof(ev)]byte)(unsafe.Pointer(&ev))[:]
	if _, err := i.file.Write(buf); err != nil {
		return fmt.Errorf("emit input event: %w", err)
	}
	return nil
}

func (i *Injector) syn() error {
	return i.emit(evdev.EvSyn, evdev.SynReport, 0)
}

// MoveTo moves the pointer to an absolute screen position.
func (i *Injector) MoveTo(x, y int) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.emit(evdev.EvAbs, evdev.AbsX, int32(x)); err != nil {
		return err
	}
	if err := i.emit(evdev.EvAbs, evdev.AbsY, int32(y)); err != nil {
		return err
	}
	return i.syn()
}

// Button presses or releases a mouse button.
func (i *Injector) Button(b event.Button, pressed bool) error {
	code, ok := evdev.ButtonCode(b)
	if !ok {
		return fmt.Errorf("unknown mouse button %q", b)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.emit(evdev.EvKey, code, pressState(pressed)); err != nil {
		return err
	}
	return i.syn()
}

// Scroll emits dx horizontal and dy vertical scroll detents.
func (i *Injector) Scroll(dx, dy int) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if dx != 0 {
		if err := i.emit(evdev.EvRel, evdev.RelHWheel, int32(dx)); err != nil {
			return err
		}
	}
	if dy != 0 {
		if err := i.emit(evdev.EvRel, evdev.RelWheel, int32(dy)); err != nil {
			return err
		}
	}
	return i.syn()
}

// Key presses or releases a key.
func (i *Injector) Key(k event.Key, r rune, pressed bool) error {
	code, ok := evdev.KeyCode(k, r)
	if !ok {
		return fmt.Errorf("no key code for %q", event.Name(k, r))
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.emit(evdev.EvKey, code, pressState(pressed)); err != nil {
		return err
	}
	return i.syn()
}

// Close destroys the virtual device and releases the capability.
func (i *Injector) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.file == nil {
		return nil
	}
	i.ioctl(uiDevDestroy, 0)
	err := i.file.Close()
	i.file = nil
	return err
}

func pressState(pressed bool) int32 {
	if pressed {
		return 1
	}
	return 0
}
