package button

import (
	"errors"
	"gpi/hal"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"gotest.tools/assert"
)

type fakePin struct {
	level bool
	err   error
	mode  hal.GPIOMode
	pull  hal.GPIOPull
}

func (p *fakePin) Name() string       { return "BUTTON" }
func (p *fakePin) Caps() hal.GPIOCaps { return hal.GPIOCapInput | hal.GPIOCapPullUp }
func (p *fakePin) Configure(mode hal.GPIOMode, pull hal.GPIOPull) error {
	p.mode, p.pull = mode, pull
	return nil
}
func (p *fakePin) Read() (bool, error)    { return p.level, p.err }
func (p *fakePin) Write(level bool) error { return errors.New("input only") }

func newDebouncer(t *testing.T) (*Debouncer, *fakePin, clockwork.FakeClock) {
	t.Helper()
	pin := &fakePin{level: true}
	clock := clockwork.NewFakeClock()
	d, err := New(pin, clock)
	assert.NilError(t, err)
	assert.Equal(t, pin.mode, hal.GPIOModeInput)
	assert.Equal(t, pin.pull, hal.GPIOPullUp)
	return d, pin, clock
}

func TestLongPressSequence(t *testing.T) {
	d, pin, _ := newDebouncer(t)
	d.Reset()

	pin.level = false
	for poll := 1; poll <= 45; poll++ {
		want := None
		switch {
		case poll == 2:
			want = Down
		case poll == 42:
			want = Long
		}
		if got := d.Poll(); got != want {
			t.Fatalf("poll %d = %v, want %v", poll, got, want)
		}
	}

	pin.level = true
	if got := d.Poll(); got != None {
		t.Fatalf("release poll = %v, want none", got)
	}
	assert.Equal(t, d.State().Phase, Idle)
}

func TestShortClick(t *testing.T) {
	d, pin, _ := newDebouncer(t)
	d.Reset()

	var got []Event
	for _, level := range []bool{false, false, true, true} {
		pin.level = level
		got = append(got, d.Poll())
	}
	want := []Event{None, Down, None, Short}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
	assert.Equal(t, d.State().Phase, Idle)
}

func TestReleaseNearLimit(t *testing.T) {
	tests := []struct {
		name string
		held int // polls after the Down poll
		want Event
	}{
		{"short", 0, Short},
		{"thirty-seven", 37, Short},
		{"thirty-eight", 38, Long},
		{"thirty-nine", 39, Long},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := State{}
			s, _ = Next(s, true)
			s, ev := Next(s, true)
			assert.Equal(t, ev, Down)
			for i := 0; i < tt.held; i++ {
				s, ev = Next(s, true)
				assert.Equal(t, ev, None)
			}
			s, ev = Next(s, false)
			assert.Equal(t, ev, None)
			assert.Equal(t, s.Phase, Released)
			_, ev = Next(s, false)
			assert.Equal(t, ev, tt.want)
		})
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from    State
		pressed bool
		to      Phase
		ev      Event
	}{
		{State{Phase: Idle}, false, Idle, None},
		{State{Phase: Idle}, true, Edge, None},
		{State{Phase: Edge}, false, Idle, None},
		{State{Phase: Edge}, true, Held, Down},
		{State{Phase: Held, Counter: 5}, true, Held, None},
		{State{Phase: Held, Counter: 40}, true, HeldLong, Long},
		{State{Phase: Held, Counter: 5}, false, Released, None},
		{State{Phase: Released, Counter: 6}, false, Idle, Short},
		{State{Phase: Released, Counter: 6}, true, Idle, None},
		{State{Phase: HeldLong, Counter: 41}, true, HeldLong, None},
		{State{Phase: HeldLong, Counter: 41}, false, Idle, None},
		{State{Phase: 4}, true, Idle, None},
	}
	for _, tt := range tests {
		s, ev := Next(tt.from, tt.pressed)
		if s.Phase != tt.to || ev != tt.ev {
			t.Fatalf("Next(%+v, %v) = (%v, %v), want (%v, %v)", tt.from, tt.pressed, s.Phase, ev, tt.to, tt.ev)
		}
	}
}

func TestReadErrorCountsAsReleased(t *testing.T) {
	d, pin, _ := newDebouncer(t)
	pin.level = false
	d.Poll()
	pin.err = errors.New("bus fault")
	assert.Equal(t, d.Poll(), None)
	assert.Equal(t, d.State().Phase, Idle)
}

func TestPressBlocking(t *testing.T) {
	d, pin, clock := newDebouncer(t)
	pin.level = false

	done := make(chan Event, 1)
	go func() { done <- d.PressBlocking() }()

	clock.BlockUntil(1)
	clock.Advance(DebounceTime)

	select {
	case ev := <-done:
		assert.Equal(t, ev, Down)
	case <-time.After(time.Second):
		t.Fatal("PressBlocking did not return")
	}
}

func TestPressBlockingReleased(t *testing.T) {
	d, _, clock := newDebouncer(t)

	done := make(chan Event, 1)
	go func() { done <- d.PressBlocking() }()

	clock.BlockUntil(1)
	clock.Advance(DebounceTime)
	assert.Equal(t, <-done, None)
}
