//go:build !tinygo && linux

package host

import (
	"errors"
	"fmt"
	"gpi/hal"

	"github.com/warthog618/go-gpiocdev"
)

// DefaultChip is the GPIO character device of the Raspberry Pi header.
const DefaultChip = "gpiochip0"

// NewChardev returns a backend on the lines of a GPIO character device.
// Pins are line offsets on chip.
func NewChardev(chip string, cfg BoardConfig) (*Board, error) {
	if chip == "" {
		chip = DefaultChip
	}
	var lines []*gpiocdev.Line
	release := func() error {
		var errs []error
		for _, l := range lines {
			errs = append(errs, l.Close())
		}
		return errors.Join(errs...)
	}
	return newBoard("chardev", cfg, func(n int) (hal.GPIOPin, error) {
		l, err := gpiocdev.RequestLine(chip, n, gpiocdev.AsInput)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
		return &cdevPin{line: l, name: fmt.Sprintf("%s:%d", chip, n)}, nil
	}, release)
}

type cdevPin struct {
	line *gpiocdev.Line
	name string
	out  bool
}

func (p *cdevPin) Name() string { return p.name }

func (p *cdevPin) Caps() hal.GPIOCaps {
	return hal.GPIOCapInput | hal.GPIOCapOutput | hal.GPIOCapPullUp | hal.GPIOCapPullDown
}

func (p *cdevPin) Configure(mode hal.GPIOMode, pull hal.GPIOPull) error {
	var opts []gpiocdev.LineConfigOption
	switch mode {
	case hal.GPIOModeInput:
		opts = append(opts, gpiocdev.AsInput)
	case hal.GPIOModeOutput:
		opts = append(opts, gpiocdev.AsOutput(0))
	default:
		return fmt.Errorf("gpio: pin %s: invalid mode", p.name)
	}
	switch pull {
	case hal.GPIOPullUp:
		opts = append(opts, gpiocdev.WithPullUp)
	case hal.GPIOPullDown:
		opts = append(opts, gpiocdev.WithPullDown)
	default:
		opts = append(opts, gpiocdev.WithBiasDisabled)
	}
	if err := p.line.Reconfigure(opts...); err != nil {
		return fmt.Errorf("gpio: pin %s: %w", p.name, err)
	}
	p.out = mode == hal.GPIOModeOutput
	return nil
}

func (p *cdevPin) Read() (bool, error) {
	v, err := p.line.Value()
	return v != 0, err
}

func (p *cdevPin) Write(level bool) error {
	if !p.out {
		return fmt.Errorf("gpio: pin %s: not in output mode", p.name)
	}
	v := 0
	if level {
		v = 1
	}
	return p.line.SetValue(v)
}
