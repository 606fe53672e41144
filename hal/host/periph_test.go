//go:build !tinygo

package host

import (
	"gpi/hal"
	"testing"

	"gotest.tools/assert"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestPeriphPinOpenDrain(t *testing.T) {
	raw := &gpiotest.Pin{N: "GPIO4", Num: 4}
	p := NewPeriphPin(raw)
	assert.Equal(t, p.Name(), "GPIO4")

	// Released: input with the pull-up.
	assert.NilError(t, p.Configure(hal.GPIOModeInput, hal.GPIOPullUp))
	assert.Equal(t, raw.P, gpio.PullUp)
	level, err := p.Read()
	assert.NilError(t, err)
	assert.Assert(t, level)

	// Driven low.
	assert.NilError(t, p.Configure(hal.GPIOModeOutput, hal.GPIOPullNone))
	assert.NilError(t, p.Write(false))
	assert.Equal(t, raw.L, gpio.Low)
	level, _ = p.Read()
	assert.Assert(t, !level)

	assert.NilError(t, p.Write(true))
	assert.Equal(t, raw.L, gpio.High)
}

func TestPeriphPinRejectsWriteOnInput(t *testing.T) {
	p := NewPeriphPin(&gpiotest.Pin{N: "GPIO18"})
	assert.NilError(t, p.Configure(hal.GPIOModeInput, hal.GPIOPullUp))
	assert.ErrorContains(t, p.Write(true), "not in output mode")
	assert.ErrorContains(t, p.Configure(hal.GPIOMode(7), hal.GPIOPullNone), "invalid mode")
}

func TestPinMatrixOnPeriphPins(t *testing.T) {
	var raw [8]*gpiotest.Pin
	var rows, cols [8]hal.GPIOPin
	for k := 0; k < 8; k++ {
		raw[k] = &gpiotest.Pin{N: "COL", L: gpio.High}
		rows[k] = NewPeriphPin(&gpiotest.Pin{N: "ROW", L: gpio.High})
		cols[k] = NewPeriphPin(raw[k])
	}
	m, err := NewPinMatrix(rows, cols)
	assert.NilError(t, err)
	for k := 0; k < 8; k++ {
		assert.Equal(t, raw[k].L, gpio.Low, "column %d not blanked", k)
	}

	m.Drive(0x01, 0xA5)
	for k := 0; k < 8; k++ {
		assert.Equal(t, raw[k].L, gpio.Level(0xA5&(1<<k) != 0), "column %d", k)
	}
}
