// Package compiler turns a sealed macro into a standalone replay
// program. The macro's events are lowered into raw uinput write steps
// at generation time and embedded as static data, so the emitted
// program reproduces the replay schedule with no dependency on this
// codebase. Speed and loop count are fixed into the artifact.
package compiler

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"text/template"
	"time"

	"tinytask/internal/evdev"
	"tinytask/internal/event"
	"tinytask/internal/macro"
	"tinytask/internal/player"
)

// deviceName matches the daemon's virtual device prefix so a running
// recorder never captures a compiled artifact's output.
const deviceName = "tinytask-virtual-input"

// Options fixes the replay parameters embedded in the artifact.
type Options struct {
	// Speed divides every inter-event delay. Must be in [0.1, 5.0].
	Speed float64

	// Loops is how many times the replay repeats. Must be in [1, 999].
	Loops int

	// ReplayMouseMoves controls whether mouse_move events are lowered.
	// Skipped moves still shape the schedule of later events.
	ReplayMouseMoves bool

	// ScreenWidth and ScreenHeight size the virtual device's absolute
	// axis range. Zero values default to 1920x1080.
	ScreenWidth  int
	ScreenHeight int
}

// DefaultOptions returns the fixed defaults the artifact ships with
// when nothing is embedded explicitly: speed 1.0, a single loop.
func DefaultOptions() Options {
	return Options{Speed: 1.0, Loops: 1, ReplayMouseMoves: true}
}

// step is one lowered input_event write in the generated program.
type step struct {
	At    int64 // microseconds since loop start, speed already applied
	Type  uint16
	Code  uint16
	Value int32
}

type programData struct {
	Timestamp    string
	MacroName    string
	DeviceName   string
	Loops        int
	ScreenWidth  int
	ScreenHeight int
	Steps        []step
	KeyBits      []uint16
	RelBits      []uint16
}

// lower translates the macro's events into uinput write steps and
// collects the key and rel codes the device must register. Events that
// have no representation on the target (unmappable keys) fail the whole
// compilation rather than silently altering the recording.
func lower(events []event.Event, opts Options) ([]step, []uint16, []uint16, error) {
	var steps []step
	keyBits := map[uint16]bool{}
	relBits := map[uint16]bool{}

	for i, e := range events {
		at := int64(float64(e.Offset.Microseconds()) / opts.Speed)
		emit := func(typ, code uint16, value int32) {
			steps = append(steps, step{At: at, Type: typ, Code: code, Value: value})
		}

		switch e.Kind {
		case event.KindMouseMove:
			if !opts.ReplayMouseMoves {
				continue
			}
			emit(evdev.EvAbs, evdev.AbsX, int32(e.X))
			emit(evdev.EvAbs, evdev.AbsY, int32(e.Y))

		case event.KindMouseDown, event.KindMouseUp:
			code, ok := evdev.ButtonCode(e.Button)
			if !ok {
				return nil, nil, nil, fmt.Errorf("event %d: unknown mouse button %q", i, e.Button)
			}
			keyBits[code] = true
			emit(evdev.EvKey, code, pressValue(e.Kind == event.KindMouseDown))

		case event.KindMouseScroll:
			if e.ScrollDX != 0 {
				relBits[evdev.RelHWheel] = true
				emit(evdev.EvRel, evdev.RelHWheel, int32(e.ScrollDX))
			}
			if e.ScrollDY != 0 {
				relBits[evdev.RelWheel] = true
				emit(evdev.EvRel, evdev.RelWheel, int32(e.ScrollDY))
			}

		case event.KindKeyDown, event.KindKeyUp:
			code, ok := evdev.KeyCode(e.Key, e.Rune)
			if !ok {
				return nil, nil, nil, fmt.Errorf("event %d: no key code for %q", i, e.KeyName())
			}
			keyBits[code] = true
			emit(evdev.EvKey, code, pressValue(e.Kind == event.KindKeyDown))

		default:
			return nil, nil, nil, fmt.Errorf("event %d: unknown kind %q", i, e.Kind)
		}

		emit(evdev.EvSyn, evdev.SynReport, 0)
	}

	return steps, sortedCodes(keyBits), sortedCodes(relBits), nil
}

func pressValue(pressed bool) int32 {
	if pressed {
		return 1
	}
	return 0
}

func sortedCodes(set map[uint16]bool) []uint16 {
	codes := make([]uint16, 0, len(set))
	for c := range set {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Generate renders the standalone program source for m. The result is
// a complete main package; WriteProject places it on disk alongside a
// go.mod.
func Generate(m *macro.Macro, opts Options) ([]byte, error) {
	if opts.Speed < player.MinSpeed || opts.Speed > player.MaxSpeed {
		return nil, fmt.Errorf("%w: speed %.2f outside [%.1f, %.1f]",
			player.ErrInvalidParameter, opts.Speed, player.MinSpeed, player.MaxSpeed)
	}
	if opts.Loops < player.MinLoops || opts.Loops > player.MaxLoops {
		return nil, fmt.Errorf("%w: loop count %d outside [%d, %d]",
			player.ErrInvalidParameter, opts.Loops, player.MinLoops, player.MaxLoops)
	}
	if m == nil || m.Len() == 0 {
		return nil, player.ErrEmptyMacro
	}
	if opts.ScreenWidth <= 0 {
		opts.ScreenWidth = 1920
	}
	if opts.ScreenHeight <= 0 {
		opts.ScreenHeight = 1080
	}

	steps, keyBits, relBits, err := lower(m.Events(), opts)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: no replayable events after lowering", player.ErrEmptyMacro)
	}

	data := programData{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		MacroName:    m.Name(),
		DeviceName:   deviceName,
		Loops:        opts.Loops,
		ScreenWidth:  opts.ScreenWidth,
		ScreenHeight: opts.ScreenHeight,
		Steps:        steps,
		KeyBits:      keyBits,
		RelBits:      relBits,
	}

	tmpl, err := template.New("replay").Parse(programTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse program template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render program: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteProject generates the replay program for m and writes a
// buildable project (main.go, go.mod) into dir.
func WriteProject(m *macro.Macro, opts Options, dir string) error {
	src, err := Generate(m, opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create project directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.go"), src, 0o644); err != nil {
		return fmt.Errorf("write main.go: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(goModTemplate), 0o644); err != nil {
		return fmt.Errorf("write go.mod: %w", err)
	}
	return nil
}

// Compile generates the replay project for m in a temporary directory
// and builds it with the Go toolchain into output. The artifact is an
// independent executable: run without arguments it replays the macro,
// exits 0 on completion and non-zero on synthesis failure.
func Compile(m *macro.Macro, opts Options, output string) error {
	goTool, err := exec.LookPath("go")
	if err != nil {
		return fmt.Errorf("go toolchain not found: %w", err)
	}

	dir, err := os.MkdirTemp("", "tinytask-compile-*")
	if err != nil {
		return fmt.Errorf("create build directory: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := WriteProject(m, opts, dir); err != nil {
		return err
	}

	abs, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	cmd := exec.Command(goTool, "build", "-o", abs, ".")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0", "GOOS=linux")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("go build: %w\n%s", err, out)
	}

	if err := os.Chmod(abs, 0o755); err != nil {
		return fmt.Errorf("chmod artifact: %w", err)
	}
	return nil
}
