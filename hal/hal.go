package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// Matrix drives the LED row-select and column-driver ports.
//
// rows carries one bit per row line, cols one bit per column driver, both in
// physical pin order (PORTB and PORTD on the reference board).
type Matrix interface {
	Drive(rows, cols uint8)
}

// ADCChannel selects an analog input.
type ADCChannel uint8

const (
	ADCLight ADCChannel = iota
	ADCGear
	ADCNeutral
)

// ADC samples 8-bit analog inputs. Sample blocks until the conversion ends.
type ADC interface {
	Sample(ch ADCChannel) uint8
}

// Timing provides microsecond busy-waits for bit-banged protocols.
type Timing interface {
	DelayMicroseconds(us uint32)
}

// EEPROM provides byte-addressable non-volatile memory.
//
// Unlike flash there is no erase step; erased cells read 0xFF.
type EEPROM interface {
	SizeBytes() uint32
	ReadAt(p []byte, off uint32) (int, error)
	WriteAt(p []byte, off uint32) (int, error)
}

// HAL provides the only contact point between the firmware and the outside world.
type HAL interface {
	Logger() Logger
	Matrix() Matrix
	Button() GPIOPin
	OneWire() GPIOPin
	Timing() Timing
	ADC() ADC
	EEPROM() EEPROM
}
