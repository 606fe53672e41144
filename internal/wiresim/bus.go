// Package wiresim simulates a 1-Wire bus on a virtual microsecond clock.
//
// The Bus hands out a hal.GPIOPin for the master side and implements
// hal.Timing, so a bit-banging master runs against it unchanged. Devices see
// every master edge with its timestamp and decide when to hold the line low.
package wiresim

import (
	"fmt"
	"gpi/hal"
	"sync"
)

// Device is a slave attached to the bus.
type Device interface {
	// Falling is called when the master pulls the line low at t.
	Falling(t uint64)
	// Rising is called when the master releases the line at t after holding
	// it low since since.
	Rising(since, t uint64)
	// Holding reports whether the device pulls the line low at t.
	Holding(t uint64) bool
}

// Bus is a simulated open-drain line with a pull-up.
type Bus struct {
	mu sync.Mutex

	now      uint64
	lowSince uint64

	output  bool
	latch   bool
	shorted bool

	devices []Device
}

// NewBus returns a bus with the given devices attached.
func NewBus(devices ...Device) *Bus {
	return &Bus{devices: devices}
}

// Attach adds a device.
func (b *Bus) Attach(d Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices = append(b.devices, d)
}

// Detach removes d from the bus. It reports whether d was attached.
func (b *Bus) Detach(d Device) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, x := range b.devices {
		if x == d {
			b.devices = append(b.devices[:i], b.devices[i+1:]...)
			return true
		}
	}
	return false
}

// SetShorted ties the line to ground when on is true.
func (b *Bus) SetShorted(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shorted = on
}

// Now returns the virtual time in microseconds.
func (b *Bus) Now() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now
}

// DelayMicroseconds advances the virtual clock.
func (b *Bus) DelayMicroseconds(us uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now += uint64(us)
}

// Pin returns the master side of the line.
func (b *Bus) Pin() hal.GPIOPin { return (*masterPin)(b) }

func (b *Bus) masterLow() bool { return b.output && !b.latch }

// update applies a change of the master drive state and notifies devices of
// the resulting edge.
func (b *Bus) update(output, latch bool) {
	wasLow := b.masterLow()
	b.output = output
	b.latch = latch
	isLow := b.masterLow()

	switch {
	case isLow && !wasLow:
		b.lowSince = b.now
		for _, d := range b.devices {
			d.Falling(b.now)
		}
	case !isLow && wasLow:
		for _, d := range b.devices {
			d.Rising(b.lowSince, b.now)
		}
	}
}

func (b *Bus) level() bool {
	if b.shorted || b.masterLow() {
		return false
	}
	for _, d := range b.devices {
		if d.Holding(b.now) {
			return false
		}
	}
	return true
}

type masterPin Bus

func (p *masterPin) Name() string { return "1WIRE" }

func (p *masterPin) Caps() hal.GPIOCaps {
	return hal.GPIOCapInput | hal.GPIOCapOutput | hal.GPIOCapPullUp
}

func (p *masterPin) Configure(mode hal.GPIOMode, pull hal.GPIOPull) error {
	b := (*Bus)(p)
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case hal.GPIOModeInput:
		if pull == hal.GPIOPullDown {
			return fmt.Errorf("wiresim: pull-down unsupported")
		}
		b.update(false, b.latch)
	case hal.GPIOModeOutput:
		b.update(true, b.latch)
	default:
		return fmt.Errorf("wiresim: invalid mode %d", mode)
	}
	return nil
}

func (p *masterPin) Read() (bool, error) {
	b := (*Bus)(p)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.level(), nil
}

// Write sets the output latch. On an open-drain line a high latch releases it.
func (p *masterPin) Write(level bool) error {
	b := (*Bus)(p)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.update(b.output, level)
	return nil
}
