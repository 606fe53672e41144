//go:build !tinygo

package host

import (
	"errors"
	"fmt"
	"gpi/firmware/gearbox"
	"gpi/hal"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/assert"
)

func virtualLines() (openPin, map[int]*hal.VirtualPin) {
	pins := map[int]*hal.VirtualPin{}
	return func(n int) (hal.GPIOPin, error) {
		if n == 99 {
			return nil, errors.New("line busy")
		}
		p := hal.NewVirtualPin(fmt.Sprintf("L%d", n), hal.GPIOCapInput|hal.GPIOCapOutput|hal.GPIOCapPullUp, true)
		pins[n] = p
		return p, nil
	}, pins
}

func TestBoardWiring(t *testing.T) {
	open, pins := virtualLines()
	released := false
	b, err := newBoard("test", BoardConfig{
		Pins:       DefaultPins,
		EEPROMPath: filepath.Join(t.TempDir(), "e.bin"),
		Stdout:     &strings.Builder{},
	}, open, func() error { released = true; return nil })
	assert.NilError(t, err)
	assert.Equal(t, b.Name(), "test")
	assert.Equal(t, b.Button().Name(), "L18")
	assert.Equal(t, b.OneWire().Name(), "L4")

	b.Matrix().Drive(1<<2, 0x03)
	for k, n := range DefaultPins.Rows {
		level, _ := pins[n].Read()
		assert.Equal(t, level, k == 2, "row %d", k)
	}
	for k, n := range DefaultPins.Cols {
		level, _ := pins[n].Read()
		assert.Equal(t, level, k < 2, "column %d", k)
	}

	// No ADC: neutral with a mid light level.
	assert.Equal(t, gearbox.NewSensor(b.ADC(), nil).Gear(), uint8(0))
	assert.Equal(t, b.ADC().Sample(hal.ADCLight), uint8(128))

	assert.NilError(t, b.Close())
	assert.Assert(t, released)
	for _, n := range DefaultPins.Rows {
		level, _ := pins[n].Read()
		assert.Assert(t, !level)
	}
}

func TestBoardReleasesOnError(t *testing.T) {
	open, _ := virtualLines()
	pins := DefaultPins
	pins.OneWire = 99
	released := false
	_, err := newBoard("test", BoardConfig{Pins: pins, Stdout: &strings.Builder{}}, open, func() error {
		released = true
		return nil
	})
	assert.ErrorContains(t, err, "test: 1-wire: line busy")
	assert.Assert(t, released)
}
