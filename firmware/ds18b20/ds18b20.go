// Package ds18b20 reads a single DS18B20 temperature sensor on a 1-Wire bus
// using Skip ROM addressing.
package ds18b20

import (
	"errors"
	"fmt"
	"gpi/firmware/onewire"
	"sync/atomic"
	"time"

	periphonewire "periph.io/x/conn/v3/onewire"
)

// Temperature is in tenths of a degree Celsius.
type Temperature int16

// Invalid is shown when no valid reading is available.
const Invalid Temperature = 9999

// ConversionTime is the worst-case 12-bit conversion time. The sensor does
// not signal completion; callers wait at least this long before reading.
const ConversionTime = 750 * time.Millisecond

const scratchpadLen = 9

// SensorError is a failure reported by the result read.
type SensorError struct {
	msg string
}

func (e *SensorError) Error() string { return e.msg }

// ErrChecksum means the scratchpad CRC did not match.
var ErrChecksum = &SensorError{msg: "ds18b20: scratchpad checksum mismatch"}

// Sensor issues conversions and reads results. The last good reading is kept
// until a later read succeeds.
type Sensor struct {
	bus  *onewire.Bus
	last atomic.Int32
}

// New returns a sensor on bus.
func New(bus *onewire.Bus) *Sensor {
	s := &Sensor{bus: bus}
	s.last.Store(int32(Invalid))
	return s
}

// StartConversion starts a temperature conversion and returns immediately.
func (s *Sensor) StartConversion() error {
	if err := s.bus.Reset(); err != nil {
		return fmt.Errorf("ds18b20: start conversion: %w", err)
	}
	if err := s.bus.Write([]byte{onewire.CmdSkipROM, onewire.CmdConvertT}); err != nil {
		return fmt.Errorf("ds18b20: start conversion: %w", err)
	}
	return nil
}

// ReadResult reads the scratchpad and decodes the temperature. On error the
// stored reading is left unchanged.
func (s *Sensor) ReadResult() (Temperature, error) {
	if err := s.bus.Reset(); err != nil {
		return Invalid, fmt.Errorf("ds18b20: read result: %w", err)
	}
	if err := s.bus.Write([]byte{onewire.CmdSkipROM, onewire.CmdReadScratchpad}); err != nil {
		return Invalid, fmt.Errorf("ds18b20: read result: %w", err)
	}

	var pad [scratchpadLen]byte
	if err := s.bus.Read(pad[:]); err != nil {
		return Invalid, fmt.Errorf("ds18b20: read scratchpad: %w", err)
	}
	if !periphonewire.CheckCRC(pad[:]) {
		return Invalid, ErrChecksum
	}

	t := Decode(pad[0], pad[1])
	s.last.Store(int32(t))
	return t, nil
}

// Refresh reads the result of the last conversion and stores Invalid on any
// error, which is what the display shows.
func (s *Sensor) Refresh() (Temperature, error) {
	t, err := s.ReadResult()
	if err != nil {
		s.last.Store(int32(Invalid))
		return Invalid, err
	}
	return t, nil
}

// Last returns the most recent reading.
func (s *Sensor) Last() Temperature {
	return Temperature(s.last.Load())
}

// Decode converts the first two scratchpad bytes of a 12-bit reading.
func Decode(lsb, msb byte) Temperature {
	raw := int32(int16(uint16(lsb) | uint16(msb)<<8))
	return Temperature(raw * 10 / 16)
}

// IsSensorError reports whether err is a result-read failure.
func IsSensorError(err error) bool {
	var se *SensorError
	return errors.As(err, &se)
}
