// Package player replays sealed macros against the OS input layer,
// honoring speed scale, loop count, pause/resume and cancellation.
package player

import (
	"fmt"
	"log"
	"sync"
	"time"

	"tinytask/internal/event"
	"tinytask/internal/input"
	"tinytask/internal/macro"
)

// State is the playback state machine position.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateStopped
	StateCompleted
)

// String returns the lowercase state name used in logs and the API.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateCompleted:
		return "completed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Speed and loop bounds accepted by Play.
const (
	MinSpeed = 0.1
	MaxSpeed = 5.0
	MinLoops = 1
	MaxLoops = 999
)

// tick bounds the latency with which pause and stop interrupt an
// inter-event wait.
const tick = 10 * time.Millisecond

// loopDelay is the fixed pause between loop iterations.
const loopDelay = 100 * time.Millisecond

// Progress reports playback position to an observer.
type Progress struct {
	// Fraction of the current loop's events dispatched, in [0, 1].
	Fraction float64

	// Loop is the 1-based current iteration; Loops the requested total.
	Loop  int
	Loops int
}

// Options configures one playback session.
type Options struct {
	// Speed divides every inter-event delay. Must be in [0.1, 5.0].
	Speed float64

	// Loops is how many times the macro repeats. Must be in [1, 999].
	Loops int

	// ReplayMouseMoves controls whether mouse_move events are
	// synthesized. When false they are skipped, but their elapsed time
	// still contributes to scheduling, so later discrete actions keep
	// their recorded timing.
	ReplayMouseMoves bool

	// OnProgress, when set, is invoked after every scheduled event.
	OnProgress func(Progress)
}

// DefaultOptions mirrors the original tool's defaults.
func DefaultOptions() Options {
	return Options{Speed: 1.0, Loops: 1, ReplayMouseMoves: true}
}

// heldInput is a synthesized down-event awaiting its up-event. Tracked
// so Stop can release everything and never leave the OS input state
// stuck.
type heldInput struct {
	isKey  bool
	key    event.Key
	r      rune
	button event.Button
}

// Player replays one macro at a time. All methods are safe for
// concurrent use; Play runs the session on its own goroutine.
type Player struct {
	injector input.InputInjector

	mu      sync.Mutex
	state   State
	loop    int
	done    chan struct{}
	err     error
	held    []heldInput
	onState func(State)
}

// New creates an idle player that synthesizes through injector.
func New(injector input.InputInjector) *Player {
	done := make(chan struct{})
	close(done)
	return &Player{injector: injector, state: StateIdle, done: done}
}

// SetOnState registers a callback invoked on every state transition.
// Used by the daemon to stream state to its observers.
func (p *Player) SetOnState(fn func(State)) {
	p.mu.Lock()
	p.onState = fn
	p.mu.Unlock()
}

// State returns the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// setState must be called with p.mu held.
func (p *Player) setState(s State) {
	p.state = s
	if p.onState != nil {
		go p.onState(s)
	}
}

// Play validates the session parameters and starts playback on a new
// goroutine. It returns ErrAlreadyPlaying while a session is Playing or
// Paused, ErrEmptyMacro for a macro with no events and
// ErrInvalidParameter for out-of-range speed or loop count. Use Wait or
// Done to observe completion.
func (p *Player) Play(m *macro.Macro, opts Options) error {
	if opts.Speed < MinSpeed || opts.Speed > MaxSpeed {
		return fmt.Errorf("%w: speed %.2f outside [%.1f, %.1f]",
			ErrInvalidParameter, opts.Speed, MinSpeed, MaxSpeed)
	}
	if opts.Loops < MinLoops || opts.Loops > MaxLoops {
		return fmt.Errorf("%w: loop count %d outside [%d, %d]",
			ErrInvalidParameter, opts.Loops, MinLoops, MaxLoops)
	}
	if m == nil || m.Len() == 0 {
		return ErrEmptyMacro
	}

	p.mu.Lock()
	if p.state == StatePlaying || p.state == StatePaused {
		p.mu.Unlock()
		return ErrAlreadyPlaying
	}
	p.setState(StatePlaying)
	p.loop = 0
	p.err = nil
	p.held = nil
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	go p.run(m.Events(), opts, done)
	return nil
}

// Pause freezes the wait timer and suspends dispatch. Valid only while
// Playing.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePlaying {
		return ErrNotPlaying
	}
	p.setState(StatePaused)
	return nil
}

// Resume continues from the exact frozen point. Valid only while Paused.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePaused {
		return ErrNotPaused
	}
	p.setState(StatePlaying)
	return nil
}

// Stop halts dispatch and releases any held keys or buttons. Safe to
// call from any state and from any goroutine; the session goroutine
// performs the release so it never races in-flight synthesis.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePlaying && p.state != StatePaused {
		return nil
	}
	p.setState(StateStopped)
	return nil
}

// Wait blocks until the current session finishes and returns its error,
// if any. Returns immediately when no session has run.
func (p *Player) Wait() error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Done returns a channel closed when the current session finishes.
// Before the first Play the returned channel is already closed, so a
// receive never blocks on a player that has nothing running.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// errCancelled signals cooperative cancellation inside the run loop.
var errCancelled = fmt.Errorf("playback cancelled")

func (p *Player) run(events []event.Event, opts Options, done chan struct{}) {
	defer close(done)

	total := opts.Loops
	for loop := 0; loop < total; loop++ {
		p.mu.Lock()
		p.loop = loop
		p.mu.Unlock()

		if loop > 0 {
			base := time.Now()
			if err := p.waitUntil(&base, loopDelay); err != nil {
				p.finish(nil)
				return
			}
		}

		base := time.Now()
		for i, e := range events {
			target := time.Duration(float64(e.Offset) / opts.Speed)
			if err := p.waitUntil(&base, target); err != nil {
				p.finish(nil)
				return
			}

			if e.Kind == event.KindMouseMove && !opts.ReplayMouseMoves {
				// Skipped, but its time already shaped the schedule.
			} else if err := p.dispatch(e); err != nil {
				log.Printf("Player: synthesis failed at event %d: %v", i, err)
				p.finish(fmt.Errorf("synthesize event %d: %w", i, err))
				return
			}

			if opts.OnProgress != nil {
				opts.OnProgress(Progress{
					Fraction: float64(i+1) / float64(len(events)),
					Loop:     loop + 1,
					Loops:    total,
				})
			}
		}
	}

	p.mu.Lock()
	if p.state == StatePlaying {
		p.setState(StateCompleted)
	}
	p.mu.Unlock()
}

// waitUntil sleeps until target elapsed time past *base, in short ticks
// so Pause and Stop interrupt promptly. Time spent paused shifts *base
// forward, freezing the schedule at the exact point of suspension.
func (p *Player) waitUntil(base *time.Time, target time.Duration) error {
	for {
		p.mu.Lock()
		st := p.state
		p.mu.Unlock()

		switch st {
		case StateStopped:
			p.releaseHeld()
			return errCancelled
		case StatePaused:
			pausedAt := time.Now()
			time.Sleep(tick)
			*base = base.Add(time.Since(pausedAt))
			continue
		}

		remaining := target - time.Since(*base)
		if remaining <= 0 {
			return nil
		}
		if remaining > tick {
			remaining = tick
		}
		time.Sleep(remaining)
	}
}

// dispatch synthesizes one event and maintains the held-input ledger.
func (p *Player) dispatch(e event.Event) error {
	switch e.Kind {
	case event.KindMouseMove:
		return p.injector.MoveTo(e.X, e.Y)

	case event.KindMouseDown:
		if err := p.injector.Button(e.Button, true); err != nil {
			return err
		}
		p.mu.Lock()
		p.held = append(p.held, heldInput{button: e.Button})
		p.mu.Unlock()
		return nil

	case event.KindMouseUp:
		if err := p.injector.Button(e.Button, false); err != nil {
			return err
		}
		p.forgetHeld(heldInput{button: e.Button})
		return nil

	case event.KindMouseScroll:
		return p.injector.Scroll(e.ScrollDX, e.ScrollDY)

	case event.KindKeyDown:
		if err := p.injector.Key(e.Key, e.Rune, true); err != nil {
			return err
		}
		p.mu.Lock()
		p.held = append(p.held, heldInput{isKey: true, key: e.Key, r: e.Rune})
		p.mu.Unlock()
		return nil

	case event.KindKeyUp:
		if err := p.injector.Key(e.Key, e.Rune, false); err != nil {
			return err
		}
		p.forgetHeld(heldInput{isKey: true, key: e.Key, r: e.Rune})
		return nil
	}
	return fmt.Errorf("unknown event kind %q", e.Kind)
}

// forgetHeld removes the most recent matching entry from the ledger.
func (p *Player) forgetHeld(h heldInput) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.held) - 1; i >= 0; i-- {
		if p.held[i] == h {
			p.held = append(p.held[:i], p.held[i+1:]...)
			return
		}
	}
}

// releaseHeld issues up-events for everything still held, most recent
// first. Any synthesized down must have a matching up on abnormal
// termination.
func (p *Player) releaseHeld() {
	p.mu.Lock()
	held := p.held
	p.held = nil
	p.mu.Unlock()

	for i := len(held) - 1; i >= 0; i-- {
		h := held[i]
		var err error
		if h.isKey {
			err = p.injector.Key(h.key, h.r, false)
		} else {
			err = p.injector.Button(h.button, false)
		}
		if err != nil {
			log.Printf("Player: failed to release held input: %v", err)
		}
	}
}

// finish ends the session abnormally: held inputs are released and the
// state moves to Stopped (unless Stop already moved it there).
func (p *Player) finish(err error) {
	p.releaseHeld()
	p.mu.Lock()
	if p.state == StatePlaying || p.state == StatePaused {
		p.setState(StateStopped)
	}
	if err != nil {
		p.err = err
	}
	p.mu.Unlock()
}
