package compiler

// programTemplate is the source of the standalone replay program. The
// generated program depends only on the standard library: the event
// sequence is lowered into uinput write steps at generation time, so the
// artifact needs no symbol tables and no part of this codebase.
const programTemplate = `// Code generated by tinytask compile; {{.Timestamp}}. DO NOT EDIT.
//
// Standalone replay of macro {{printf "%q" .MacroName}}.
// Requires Linux and write access to /dev/uinput.
package main

import (
	"fmt"
	"os"
	"syscall"
	"time"
	"unsafe"
)

const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02
	evAbs = 0x03

	absX = 0x00
	absY = 0x01

	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiSetRelBit  = 0x40045566
	uiSetAbsBit  = 0x40045567
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502

	busVirtual = 0x06
	absCnt     = 0x40
)

const (
	loops     = {{.Loops}}
	loopDelay = 100 * time.Millisecond
	screenW   = {{.ScreenWidth}}
	screenH   = {{.ScreenHeight}}

	deviceName = "{{.DeviceName}}"
)

// step is one raw input_event write, scheduled at a fixed offset from
// the start of the loop. Speed scaling is already applied to the
// offsets.
type step struct {
	at    int64 // microseconds since loop start
	typ   uint16
	code  uint16
	value int32
}

var steps = []step{
{{- range .Steps}}
	{ {{- .At}}, {{.Type}}, {{.Code}}, {{.Value}}},
{{- end}}
}

var keyBits = []uint16{ {{- range $i, $c := .KeyBits}}{{if $i}}, {{end}}{{$c}}{{end}}}

var relBits = []uint16{ {{- range $i, $c := .RelBits}}{{if $i}}, {{end}}{{$c}}{{end}}}

type userDev struct {
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

type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

func ioctl(fd, req, arg uintptr) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

func emit(f *os.File, typ, code uint16, value int32) error {
	ev := inputEvent{Type: typ, Code: code, Value: value}
	buf := (*[unsafe.Sizeof(ev)]byte)(unsafe.Pointer(&ev))[:]
	_, err := f.Write(buf)
	return err
}

func run() error {
	f, err := os.OpenFile("/dev/uinput", os.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("open /dev/uinput: %w", err)
	}
	defer f.Close()

	for _, ev := range []uintptr{evKey, evRel, evAbs, evSyn} {
		if err := ioctl(f.Fd(), uiSetEvBit, ev); err != nil {
			return fmt.Errorf("UI_SET_EVBIT: %w", err)
		}
	}
	for _, c := range keyBits {
		if err := ioctl(f.Fd(), uiSetKeyBit, uintptr(c)); err != nil {
			return fmt.Errorf("UI_SET_KEYBIT: %w", err)
		}
	}
	for _, c := range relBits {
		if err := ioctl(f.Fd(), uiSetRelBit, uintptr(c)); err != nil {
			return fmt.Errorf("UI_SET_RELBIT: %w", err)
		}
	}
	for _, c := range []uintptr{absX, absY} {
		if err := ioctl(f.Fd(), uiSetAbsBit, c); err != nil {
			return fmt.Errorf("UI_SET_ABSBIT: %w", err)
		}
	}

	var dev userDev
	copy(dev.Name[:], deviceName)
	dev.BusType = busVirtual
	dev.Vendor = 0x1
	dev.Product = 0x1
	dev.Version = 1
	dev.AbsMax[absX] = screenW - 1
	dev.AbsMax[absY] = screenH - 1

	buf := (*[unsafe.Sizeof(dev)]byte)(unsafe.Pointer(&dev))[:]
	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("write device descriptor: %w", err)
	}
	if err := ioctl(f.Fd(), uiDevCreate, 0); err != nil {
		return fmt.Errorf("UI_DEV_CREATE: %w", err)
	}
	defer ioctl(f.Fd(), uiDevDestroy, 0)

	// Let the input stack register the device before the first event.
	time.Sleep(150 * time.Millisecond)

	for loop := 0; loop < loops; loop++ {
		if loop > 0 {
			time.Sleep(loopDelay)
		}
		base := time.Now()
		for _, s := range steps {
			if d := time.Duration(s.at)*time.Microsecond - time.Since(base); d > 0 {
				time.Sleep(d)
			}
			if err := emit(f, s.typ, s.code, s.value); err != nil {
				return fmt.Errorf("synthesize input: %w", err)
			}
		}
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
}
`

// goModTemplate is the generated project's module file.
const goModTemplate = `module replay

go 1.21
`
