// Package button classifies presses of a single active-low push button.
package button

import (
	"gpi/hal"
	"time"

	"github.com/jonboulle/clockwork"
)

// Event is the classification returned by Poll.
type Event uint8

const (
	None Event = iota
	Short
	Long
	Down
)

func (e Event) String() string {
	switch e {
	case None:
		return "none"
	case Short:
		return "short"
	case Long:
		return "long"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// Phase is the debouncer state. There is no phase 4.
type Phase uint8

const (
	Idle     Phase = 0
	Edge     Phase = 1
	Held     Phase = 2
	Released Phase = 3
	HeldLong Phase = 5
)

// LongLimit is the hold length, in polls, past which a press is long.
const LongLimit = 40

// DebounceTime is the settle interval used by PressBlocking.
const DebounceTime = 20 * time.Millisecond

// State is the complete debouncer state.
type State struct {
	Phase   Phase
	Counter uint8
}

// Next is the transition function. pressed is the debounced logical input,
// not the pin level.
//
// Holding the button yields None, Down, then None until the counter passes
// LongLimit, which yields Long and parks in HeldLong. Releasing before that
// yields None then Short. The Down poll counts as the first held poll.
func Next(s State, pressed bool) (State, Event) {
	switch {
	case s.Phase == Idle && pressed:
		return State{Phase: Edge, Counter: s.Counter}, None

	case s.Phase == Edge && pressed:
		return State{Phase: Held, Counter: 1}, Down

	case s.Phase == Held && pressed:
		s.Counter++
		if s.Counter > LongLimit {
			return State{Phase: HeldLong, Counter: s.Counter}, Long
		}
		return s, None

	case s.Phase == Held && !pressed:
		return State{Phase: Released, Counter: s.Counter + 1}, None

	case s.Phase == Released && !pressed:
		n := s.Counter + 1
		if n > LongLimit {
			return State{Phase: Idle, Counter: n}, Long
		}
		return State{Phase: Idle, Counter: n}, Short

	case s.Phase == HeldLong && pressed:
		return s, None
	}
	return State{Phase: Idle, Counter: s.Counter}, None
}

// Debouncer polls a button pin. It must be polled at a roughly constant
// interval; LongLimit is counted in polls, so the long-press duration is
// LongLimit times the caller's interval.
type Debouncer struct {
	pin   hal.GPIOPin
	clock clockwork.Clock
	state State
}

// New configures pin as an input with pull-up and returns a debouncer.
func New(pin hal.GPIOPin, clock clockwork.Clock) (*Debouncer, error) {
	if err := pin.Configure(hal.GPIOModeInput, hal.GPIOPullUp); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Debouncer{pin: pin, clock: clock}, nil
}

// Reset returns the debouncer to Idle. Call it before a fresh detection loop.
func (d *Debouncer) Reset() {
	d.state.Phase = Idle
}

// State returns the current state.
func (d *Debouncer) State() State { return d.state }

// Pressed samples the pin directly, without debouncing.
func (d *Debouncer) Pressed() bool {
	level, err := d.pin.Read()
	return err == nil && !level
}

// Poll samples the pin once and advances the state machine. A failed pin read
// counts as released.
func (d *Debouncer) Poll() Event {
	var ev Event
	d.state, ev = Next(d.state, d.Pressed())
	return ev
}

// PressBlocking resets, polls, waits DebounceTime and returns the second poll.
// It reports Down when the button has been held across the interval.
func (d *Debouncer) PressBlocking() Event {
	d.Reset()
	d.Poll()
	d.clock.Sleep(DebounceTime)
	return d.Poll()
}
