//go:build !tinygo

package host

import (
	"fmt"
	"gpi/hal"

	"github.com/stianeikeland/go-rpio"
)

// NewRPi returns a backend on the Raspberry Pi GPIO registers, mapped
// through /dev/gpiomem. Pins are BCM numbers.
func NewRPi(cfg BoardConfig) (*Board, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpi: %w", err)
	}
	return newBoard("rpi", cfg, func(n int) (hal.GPIOPin, error) {
		return &rpioPin{pin: rpio.Pin(n)}, nil
	}, rpio.Close)
}

type rpioPin struct {
	pin rpio.Pin
}

func (p *rpioPin) Name() string { return fmt.Sprintf("GPIO%d", int(p.pin)) }

func (p *rpioPin) Caps() hal.GPIOCaps {
	return hal.GPIOCapInput | hal.GPIOCapOutput | hal.GPIOCapPullUp | hal.GPIOCapPullDown
}

func (p *rpioPin) Configure(mode hal.GPIOMode, pull hal.GPIOPull) error {
	switch mode {
	case hal.GPIOModeInput:
		p.pin.Input()
	case hal.GPIOModeOutput:
		p.pin.Output()
	default:
		return fmt.Errorf("gpio: pin %s: invalid mode", p.Name())
	}
	switch pull {
	case hal.GPIOPullUp:
		p.pin.PullUp()
	case hal.GPIOPullDown:
		p.pin.PullDown()
	default:
		p.pin.PullOff()
	}
	return nil
}

func (p *rpioPin) Read() (bool, error) { return p.pin.Read() == rpio.High, nil }

func (p *rpioPin) Write(level bool) error {
	if level {
		p.pin.High()
	} else {
		p.pin.Low()
	}
	return nil
}
