//go:build !tinygo

package host

import (
	"fmt"
	"gpi/hal"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	periphhost "periph.io/x/host/v3"
)

// PeriphPin adapts a periph.io pin to hal.GPIOPin.
type PeriphPin struct {
	pin  gpio.PinIO
	pull gpio.Pull
	out  bool
}

// NewPeriphPin wraps p.
func NewPeriphPin(p gpio.PinIO) *PeriphPin {
	return &PeriphPin{pin: p, pull: gpio.PullNoChange}
}

func (p *PeriphPin) Name() string { return p.pin.Name() }

func (p *PeriphPin) Caps() hal.GPIOCaps {
	return hal.GPIOCapInput | hal.GPIOCapOutput | hal.GPIOCapPullUp | hal.GPIOCapPullDown
}

func (p *PeriphPin) Configure(mode hal.GPIOMode, pull hal.GPIOPull) error {
	switch pull {
	case hal.GPIOPullUp:
		p.pull = gpio.PullUp
	case hal.GPIOPullDown:
		p.pull = gpio.PullDown
	case hal.GPIOPullNone:
		p.pull = gpio.Float
	default:
		return fmt.Errorf("gpio: pin %s: invalid pull", p.Name())
	}
	switch mode {
	case hal.GPIOModeInput:
		p.out = false
		return p.pin.In(p.pull, gpio.NoEdge)
	case hal.GPIOModeOutput:
		p.out = true
		return p.pin.Out(gpio.Low)
	}
	return fmt.Errorf("gpio: pin %s: invalid mode", p.Name())
}

func (p *PeriphPin) Read() (bool, error) { return p.pin.Read() == gpio.High, nil }

func (p *PeriphPin) Write(level bool) error {
	if !p.out {
		return fmt.Errorf("gpio: pin %s: not in output mode", p.Name())
	}
	return p.pin.Out(gpio.Level(level))
}

// NewPeriph returns a backend on the pins periph.io finds on the host. Pins
// are looked up by name as GPIO<n>.
func NewPeriph(cfg BoardConfig) (*Board, error) {
	if _, err := periphhost.Init(); err != nil {
		return nil, fmt.Errorf("periph: %w", err)
	}
	return newBoard("periph", cfg, func(n int) (hal.GPIOPin, error) {
		name := fmt.Sprintf("GPIO%d", n)
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("no pin %s", name)
		}
		return NewPeriphPin(p), nil
	}, nil)
}
