package macro

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"tinytask/internal/event"
)

// Macro is a sealed, ordered sequence of recorded input events plus
// metadata. Macros are immutable once constructed; the recorder and the
// store are the only producers.
type Macro struct {
	id        string
	name      string
	createdAt time.Time
	events    []event.Event
}

// New seals a list of events into a Macro. The events must already be in
// non-decreasing offset order and individually valid. Offsets are
// truncated to the store's millisecond resolution, so a sealed macro
// round-trips exactly through Save and Load.
func New(name string, createdAt time.Time, events []event.Event) (*Macro, error) {
	var last time.Duration
	for i, e := range events {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		if e.Offset < last {
			return nil, fmt.Errorf("event %d: offset %v decreases below %v", i, e.Offset, last)
		}
		last = e.Offset
	}

	sealed := make([]event.Event, len(events))
	copy(sealed, events)
	for i := range sealed {
		sealed[i].Offset = sealed[i].Offset.Truncate(time.Millisecond)
	}

	return &Macro{
		id:        uuid.NewString(),
		name:      name,
		createdAt: createdAt,
		events:    sealed,
	}, nil
}

// ID returns the macro's unique identifier, assigned at seal time.
func (m *Macro) ID() string { return m.id }

// Name returns the macro's name.
func (m *Macro) Name() string { return m.name }

// CreatedAt returns when recording started.
func (m *Macro) CreatedAt() time.Time { return m.createdAt }

// Len returns the number of events.
func (m *Macro) Len() int { return len(m.events) }

// Duration returns the offset of the last event, or zero for an empty
// macro.
func (m *Macro) Duration() time.Duration {
	if len(m.events) == 0 {
		return 0
	}
	return m.events[len(m.events)-1].Offset
}

// Events returns a copy of the event sequence.
func (m *Macro) Events() []event.Event {
	out := make([]event.Event, len(m.events))
	copy(out, m.events)
	return out
}

// Stats summarizes a macro's contents.
type Stats struct {
	TotalEvents int
	MouseMoves  int
	MouseClicks int
	Scrolls     int
	KeyPresses  int
	Duration    time.Duration
}

// Stats computes recording statistics. Clicks and key presses count
// down-events only.
func (m *Macro) Stats() Stats {
	s := Stats{TotalEvents: len(m.events), Duration: m.Duration()}
	for _, e := range m.events {
		switch e.Kind {
		case event.KindMouseMove:
			s.MouseMoves++
		case event.KindMouseDown:
			s.MouseClicks++
		case event.KindMouseScroll:
			s.Scrolls++
		case event.KindKeyDown:
			s.KeyPresses++
		}
	}
	return s
}
