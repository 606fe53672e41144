package onewire

import (
	"errors"
	"fmt"
	"gpi/hal"
	"sync"

	periphonewire "periph.io/x/conn/v3/onewire"
)

// BusError is a failure reported by the reset/presence sequence. It answers
// the periph onewire error classifiers.
type BusError struct {
	msg       string
	shorted   bool
	noDevices bool
}

func (e *BusError) Error() string   { return e.msg }
func (e *BusError) BusError() bool  { return true }
func (e *BusError) IsShorted() bool { return e.shorted }
func (e *BusError) NoDevices() bool { return e.noDevices }

var (
	// ErrNoPresence means no device pulled the line low after reset.
	ErrNoPresence = &BusError{msg: "onewire: no presence pulse", noDevices: true}
	// ErrShortCircuit means the line stayed low after the reset window.
	ErrShortCircuit = &BusError{msg: "onewire: line held low (short circuit)", shorted: true}
)

var (
	_ periphonewire.BusError        = (*BusError)(nil)
	_ periphonewire.ShortedBusError = (*BusError)(nil)
	_ periphonewire.NoDevicesError  = (*BusError)(nil)
)

// ROM and function commands.
const (
	CmdSkipROM        = 0xCC
	CmdConvertT       = 0x44
	CmdReadScratchpad = 0xBE
)

// Timings holds the slot durations in microseconds.
type Timings struct {
	ResetLow       uint32
	PresenceSample uint32
	InitLow        uint32
	SamplePoint    uint32
	Slot           uint32
	Recovery       uint32
}

// StandardTimings are the regular-speed 1-Wire slot durations.
var StandardTimings = Timings{
	ResetLow:       480,
	PresenceSample: 64,
	InitLow:        2,
	SamplePoint:    15,
	Slot:           60,
	Recovery:       10,
}

// Bus bit-bangs the 1-Wire protocol on an open-drain pin.
//
// The critical section is shared with the display tick: it is held for the
// whole of each bit slot and for the presence sample, so no refresh work runs
// inside those windows.
type Bus struct {
	pin  hal.GPIOPin
	wait hal.Timing
	cs   sync.Locker
	t    Timings
}

// New returns a bus on pin. cs may be nil when nothing else shares the core.
func New(pin hal.GPIOPin, wait hal.Timing, cs sync.Locker) *Bus {
	if cs == nil {
		cs = nopLocker{}
	}
	return &Bus{pin: pin, wait: wait, cs: cs, t: StandardTimings}
}

// Reset sends a reset pulse and checks for a presence pulse.
func (b *Bus) Reset() error {
	if err := b.low(); err != nil {
		return err
	}
	b.wait.DelayMicroseconds(b.t.ResetLow)

	b.cs.Lock()
	if err := b.release(); err != nil {
		b.cs.Unlock()
		return err
	}
	b.wait.DelayMicroseconds(b.t.PresenceSample)
	level, err := b.pin.Read()
	b.cs.Unlock()
	if err != nil {
		return fmt.Errorf("onewire: sample presence: %w", err)
	}

	var result error
	if level {
		result = ErrNoPresence
	}

	// The device must release the line before the window ends.
	b.wait.DelayMicroseconds(b.t.ResetLow - b.t.PresenceSample)
	level, err = b.pin.Read()
	if err != nil {
		return fmt.Errorf("onewire: sample idle: %w", err)
	}
	if !level {
		result = ErrShortCircuit
	}
	return result
}

// BitIO runs one time slot. Writing 1 (or reading) releases the line right
// after the init pulse; writing 0 holds it low for the whole slot. The
// returned bit is the level sampled at the 15us mark.
func (b *Bus) BitIO(bit bool) (bool, error) {
	b.cs.Lock()
	defer func() {
		b.cs.Unlock()
		b.wait.DelayMicroseconds(b.t.Recovery)
	}()

	if err := b.low(); err != nil {
		return false, err
	}
	b.wait.DelayMicroseconds(b.t.InitLow)
	if bit {
		if err := b.release(); err != nil {
			return false, err
		}
	}

	b.wait.DelayMicroseconds(b.t.SamplePoint - b.t.InitLow)
	level, err := b.pin.Read()
	if err != nil {
		_ = b.release()
		return false, fmt.Errorf("onewire: sample bit: %w", err)
	}

	b.wait.DelayMicroseconds(b.t.Slot - b.t.SamplePoint - b.t.InitLow)
	if err := b.release(); err != nil {
		return false, err
	}
	return bit && level, nil
}

// WriteBit sends one bit.
func (b *Bus) WriteBit(bit bool) error {
	_, err := b.BitIO(bit)
	return err
}

// ReadBit reads one bit.
func (b *Bus) ReadBit() (bool, error) {
	return b.BitIO(true)
}

// TxByte sends v least significant bit first and returns the byte seen on the
// line during the same slots.
func (b *Bus) TxByte(v byte) (byte, error) {
	var in byte
	for i := 0; i < 8; i++ {
		bit, err := b.BitIO(v&1 != 0)
		if err != nil {
			return 0, fmt.Errorf("onewire: bit %d: %w", i, err)
		}
		v >>= 1
		in >>= 1
		if bit {
			in |= 0x80
		}
	}
	return in, nil
}

// ReadByte reads one byte by writing all ones and capturing what the device
// pulls low.
func (b *Bus) ReadByte() (byte, error) {
	return b.TxByte(0xFF)
}

// Write sends each byte of p.
func (b *Bus) Write(p []byte) error {
	for _, v := range p {
		if _, err := b.TxByte(v); err != nil {
			return err
		}
	}
	return nil
}

// Read fills p from the bus.
func (b *Bus) Read(p []byte) error {
	for i := range p {
		v, err := b.ReadByte()
		if err != nil {
			return err
		}
		p[i] = v
	}
	return nil
}

func (b *Bus) low() error {
	if err := b.pin.Configure(hal.GPIOModeOutput, hal.GPIOPullNone); err != nil {
		return fmt.Errorf("onewire: drive low: %w", err)
	}
	if err := b.pin.Write(false); err != nil {
		return fmt.Errorf("onewire: drive low: %w", err)
	}
	return nil
}

func (b *Bus) release() error {
	if err := b.pin.Configure(hal.GPIOModeInput, hal.GPIOPullUp); err != nil {
		return fmt.Errorf("onewire: release: %w", err)
	}
	return nil
}

// IsBusError reports whether err came from the reset/presence sequence.
func IsBusError(err error) bool {
	var be *BusError
	return errors.As(err, &be)
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}
