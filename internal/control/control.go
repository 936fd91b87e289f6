// Package control coordinates the recorder, player, hotkeys and macro
// library around the single global capture stream. Exactly one of
// recording or playback is active at a time.
package control

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"tinytask/internal/config"
	"tinytask/internal/event"
	"tinytask/internal/hotkey"
	"tinytask/internal/input"
	"tinytask/internal/library"
	"tinytask/internal/macro"
	"tinytask/internal/player"
)

// ErrBusy is returned when recording is requested during playback or
// playback during recording.
var ErrBusy = errors.New("control: recorder and player are mutually exclusive")

// Status is a snapshot of the controller's state, published to
// observers on every change.
type Status struct {
	Recording      bool            `json:"recording"`
	RecordedEvents int             `json:"recorded_events"`
	PlayerState    string          `json:"player_state"`
	Progress       player.Progress `json:"progress"`
	LastMacro      string          `json:"last_macro,omitempty"`
}

// Controller wires the capture stream to the recorder and hotkey
// manager and drives the player. All methods are safe for concurrent
// use.
type Controller struct {
	capture  input.InputCapture
	injector input.InputInjector
	library  *library.Library
	hotkeys  *hotkey.Manager
	cfg      *config.Manager
	recorder *macro.Recorder
	player   *player.Player

	mu        sync.Mutex
	running   bool
	lastMacro *macro.Macro
	progress  player.Progress
	observers []func(Status)
	stopped   chan struct{}
}

// New builds a controller over the given capture and injection
// capabilities.
func New(capture input.InputCapture, injector input.InputInjector, lib *library.Library, cfg *config.Manager) *Controller {
	c := &Controller{
		capture:  capture,
		injector: injector,
		library:  lib,
		hotkeys:  hotkey.NewManager(),
		cfg:      cfg,
		recorder: macro.NewRecorder(recorderOptions(cfg.Get())),
		player:   player.New(injector),
		stopped:  make(chan struct{}),
	}
	c.player.SetOnState(func(player.State) { c.notify() })
	cfg.RegisterChangeCallback(func() {
		c.mu.Lock()
		c.recorder.SetOptions(recorderOptions(cfg.Get()))
		c.mu.Unlock()
		if err := c.bindHotkeys(); err != nil {
			log.Printf("Control: rebinding hotkeys: %v", err)
		}
	})
	return c
}

func recorderOptions(cfg *config.Config) macro.RecorderOptions {
	opts := macro.DefaultRecorderOptions()
	opts.RecordMouseMoves = cfg.Recording.RecordMouseMoves
	opts.MoveThresholdPx = cfg.Recording.MoveThresholdPx
	opts.MoveMinInterval = cfg.MoveMinInterval()
	if k, r, err := event.ParseKey(cfg.Hotkeys.Stop); err == nil && r == 0 && !strings.Contains(cfg.Hotkeys.Stop, "+") {
		opts.StopKey = k
	}
	return opts
}

// bindHotkeys registers the configured global bindings.
func (c *Controller) bindHotkeys() error {
	cfg := c.cfg.Get()
	c.hotkeys.Clear()
	if err := c.hotkeys.Register(cfg.Hotkeys.Record, func() { c.toggleRecord() }); err != nil {
		return err
	}
	if err := c.hotkeys.Register(cfg.Hotkeys.Play, func() { c.playLatest() }); err != nil {
		return err
	}
	return c.hotkeys.Register(cfg.Hotkeys.Stop, func() { c.stopAll() })
}

// Run starts capture and pumps events until Shutdown. Key events feed
// the hotkey manager at all times; everything feeds the recorder while
// a recording is open.
func (c *Controller) Run() error {
	if err := c.bindHotkeys(); err != nil {
		return err
	}
	if err := c.capture.Start(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	c.mu.Lock()
	c.running = true
	c.mu.Unlock()

	go func() {
		for raw := range c.capture.Events() {
			if raw.Kind.IsKey() {
				c.hotkeys.HandleKey(raw.Key, raw.Rune, raw.Kind == event.KindKeyDown)
			}
			if c.recorder.IsRecording() {
				c.recorder.HandleEvent(raw)
				c.notify()
			}
		}
		close(c.stopped)
	}()
	return nil
}

// Shutdown stops playback, abandons any open recording and stops
// capture. Safe to call even when Run never started.
func (c *Controller) Shutdown() {
	c.player.Stop()
	c.player.Wait()
	if c.recorder.IsRecording() {
		if _, err := c.recorder.Stop(); err != nil && !errors.Is(err, macro.ErrEmptyMacro) {
			log.Printf("Control: abandoning recording: %v", err)
		}
	}

	c.mu.Lock()
	running := c.running
	c.running = false
	c.mu.Unlock()
	if !running {
		return
	}

	if err := c.capture.Stop(); err != nil && !errors.Is(err, input.ErrNotStarted) {
		log.Printf("Control: stopping capture: %v", err)
	}
	<-c.stopped
}

// StartRecording opens a recording under name. Fails with ErrBusy
// while playback is active.
func (c *Controller) StartRecording(name string) error {
	st := c.player.State()
	if st == player.StatePlaying || st == player.StatePaused {
		return ErrBusy
	}
	if name == "" {
		name = "macro-" + time.Now().Format("20060102-150405")
	}
	if err := c.recorder.Start(name); err != nil {
		return err
	}
	log.Printf("Control: recording %q started", name)
	c.notify()
	return nil
}

// StopRecording seals the recording, saves it to the library and
// returns it.
func (c *Controller) StopRecording() (*macro.Macro, error) {
	m, err := c.recorder.Stop()
	if err != nil {
		c.notify()
		return nil, err
	}
	if m.Len() == 0 {
		c.notify()
		return nil, macro.ErrEmptyMacro
	}

	path, err := c.library.Save(m)
	if err != nil {
		return nil, err
	}
	log.Printf("Control: recorded %d events over %s -> %s", m.Len(), m.Duration().Round(time.Millisecond), path)

	c.mu.Lock()
	c.lastMacro = m
	c.mu.Unlock()
	c.notify()
	return m, nil
}

// Recording reports whether a recording is open.
func (c *Controller) Recording() bool {
	return c.recorder.IsRecording()
}

// Play replays the named macro ("" means the most recent one). Fails
// with ErrBusy while recording.
func (c *Controller) Play(name string, opts player.Options) error {
	if c.recorder.IsRecording() {
		return ErrBusy
	}

	var m *macro.Macro
	var err error
	if name == "" {
		c.mu.Lock()
		m = c.lastMacro
		c.mu.Unlock()
		if m == nil {
			m, err = c.library.Latest()
		}
	} else {
		m, err = c.library.Load(name)
	}
	if err != nil {
		return err
	}

	opts.OnProgress = func(p player.Progress) {
		c.mu.Lock()
		c.progress = p
		c.mu.Unlock()
		c.notify()
	}

	if err := c.player.Play(m, opts); err != nil {
		return err
	}
	c.mu.Lock()
	c.lastMacro = m
	c.mu.Unlock()
	log.Printf("Control: playing %q (speed %.2f, loops %d)", m.Name(), opts.Speed, opts.Loops)
	return nil
}

// Pause suspends playback.
func (c *Controller) Pause() error { return c.player.Pause() }

// Resume continues paused playback.
func (c *Controller) Resume() error { return c.player.Resume() }

// StopPlayback cancels playback, releasing any held input.
func (c *Controller) StopPlayback() error { return c.player.Stop() }

// Player exposes the underlying player for completion waits.
func (c *Controller) Player() *player.Player { return c.player }

// Status returns a snapshot of the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	last := ""
	if c.lastMacro != nil {
		last = c.lastMacro.Name()
	}
	progress := c.progress
	c.mu.Unlock()

	return Status{
		Recording:      c.recorder.IsRecording(),
		RecordedEvents: c.recorder.EventCount(),
		PlayerState:    c.player.State().String(),
		Progress:       progress,
		LastMacro:      last,
	}
}

// Subscribe registers an observer invoked on every status change.
func (c *Controller) Subscribe(fn func(Status)) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

func (c *Controller) notify() {
	st := c.Status()
	c.mu.Lock()
	observers := append([]func(Status){}, c.observers...)
	c.mu.Unlock()
	for _, fn := range observers {
		fn(st)
	}
}

// toggleRecord flips recording state. Bound to the record hotkey.
func (c *Controller) toggleRecord() {
	if c.recorder.IsRecording() {
		if _, err := c.StopRecording(); err != nil {
			log.Printf("Control: stop recording: %v", err)
		}
		return
	}
	if err := c.StartRecording(""); err != nil {
		log.Printf("Control: start recording: %v", err)
	}
}

// playLatest replays the most recent macro with configured defaults.
// Bound to the play hotkey.
func (c *Controller) playLatest() {
	cfg := c.cfg.Get()
	opts := player.Options{
		Speed:            cfg.Playback.Speed,
		Loops:            cfg.Playback.Loops,
		ReplayMouseMoves: cfg.Playback.ReplayMouseMoves,
	}
	if err := c.Play("", opts); err != nil && !errors.Is(err, player.ErrAlreadyPlaying) {
		log.Printf("Control: play: %v", err)
	}
}

// stopAll stops whatever is running. Bound to the stop hotkey; the
// recorder trims the trailing stop keypress itself.
func (c *Controller) stopAll() {
	if c.recorder.IsRecording() {
		if _, err := c.StopRecording(); err != nil && !errors.Is(err, macro.ErrEmptyMacro) {
			log.Printf("Control: stop recording: %v", err)
		}
		return
	}
	c.player.Stop()
}
