package wiresim

import (
	"gpi/firmware/onewire"
	"sync"

	periphonewire "periph.io/x/conn/v3/onewire"
)

const (
	resetMin      = 400
	writeOneMax   = 15
	presenceDelay = 20
	presenceLen   = 120
	holdZero      = 30
)

// slave implements the slot-level half of a device: reset detection, the
// presence pulse, bit reception and bit transmission. byteFn is called for
// every received byte while the device is listening.
type slave struct {
	presenceFrom, presenceTo uint64
	holdUntil                uint64

	rxBits  uint8
	rxCount int

	tx    []byte
	txBit int
}

func (s *slave) onReset(t uint64) {
	s.presenceFrom = t + presenceDelay
	s.presenceTo = t + presenceDelay + presenceLen
	s.rxBits, s.rxCount = 0, 0
	s.tx, s.txBit = nil, 0
}

func (s *slave) transmitting() bool { return s.txBit < len(s.tx)*8 }

func (s *slave) falling(t uint64) {
	if !s.transmitting() {
		return
	}
	if s.tx[s.txBit/8]&(1<<(s.txBit%8)) == 0 {
		s.holdUntil = t + holdZero
	}
}

// slot finishes a time slot; it returns a received byte when one completes.
func (s *slave) slot(since, t uint64) (byte, bool) {
	if s.transmitting() {
		s.txBit++
		if !s.transmitting() {
			s.tx, s.txBit = nil, 0
		}
		return 0, false
	}
	s.rxBits >>= 1
	if t-since < writeOneMax {
		s.rxBits |= 0x80
	}
	s.rxCount++
	if s.rxCount < 8 {
		return 0, false
	}
	v := s.rxBits
	s.rxBits, s.rxCount = 0, 0
	return v, true
}

func (s *slave) send(p []byte) {
	s.tx = append([]byte(nil), p...)
	s.txBit = 0
}

func (s *slave) holding(t uint64) bool {
	if t >= s.presenceFrom && t < s.presenceTo {
		return true
	}
	return t < s.holdUntil
}

type dsState uint8

const (
	dsIdle dsState = iota
	dsROM
	dsFunction
)

// PowerOnRaw is the scratchpad temperature of a DS18B20 before its first
// conversion (+85 degrees C).
const PowerOnRaw int16 = 0x0550

// DS18B20 models a temperature sensor addressed with Skip ROM.
type DS18B20 struct {
	mu sync.Mutex
	s  slave

	state      dsState
	raw        int16
	scratchRaw int16
	rom        [8]byte

	corruptCRC  bool
	conversions int
}

// NewDS18B20 returns a sensor reading raw (1/16 degree C units).
func NewDS18B20(raw int16) *DS18B20 {
	d := &DS18B20{raw: raw, scratchRaw: PowerOnRaw}
	d.rom = [8]byte{0x28, 0x47, 0x11, 0x0A, 0x05, 0x00, 0x00}
	d.rom[7] = periphonewire.CalcCRC(d.rom[:7])
	return d
}

// SetRaw sets the value latched by the next conversion.
func (d *DS18B20) SetRaw(raw int16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.raw = raw
}

// SetTenths sets the temperature in tenths of a degree C.
func (d *DS18B20) SetTenths(tenths int) {
	d.SetRaw(int16(tenths * 16 / 10))
}

// CorruptCRC makes the scratchpad checksum byte wrong when on is true.
func (d *DS18B20) CorruptCRC(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.corruptCRC = on
}

// Conversions returns how many Convert T commands the device has seen.
func (d *DS18B20) Conversions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conversions
}

// Scratchpad returns the nine bytes the device would send on Read Scratchpad.
func (d *DS18B20) Scratchpad() [9]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scratchpad()
}

func (d *DS18B20) scratchpad() [9]byte {
	var p [9]byte
	p[0] = byte(d.scratchRaw)
	p[1] = byte(uint16(d.scratchRaw) >> 8)
	p[2] = 0x4B
	p[3] = 0x46
	p[4] = 0x7F
	p[5] = 0xFF
	p[6] = 0x0C
	p[7] = 0x10
	p[8] = periphonewire.CalcCRC(p[:8])
	if d.corruptCRC {
		p[8] ^= 0x5A
	}
	return p
}

func (d *DS18B20) Falling(t uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.s.falling(t)
}

func (d *DS18B20) Rising(since, t uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t-since >= resetMin {
		d.s.onReset(t)
		d.state = dsROM
		return
	}
	v, ok := d.s.slot(since, t)
	if !ok {
		return
	}
	switch d.state {
	case dsROM:
		switch v {
		case onewire.CmdSkipROM:
			d.state = dsFunction
		case 0x33: // Read ROM
			d.s.send(d.rom[:])
			d.state = dsIdle
		default:
			d.state = dsIdle
		}
	case dsFunction:
		switch v {
		case onewire.CmdConvertT:
			d.scratchRaw = d.raw
			d.conversions++
		case onewire.CmdReadScratchpad:
			p := d.scratchpad()
			d.s.send(p[:])
		}
		d.state = dsIdle
	}
}

func (d *DS18B20) Holding(t uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.s.holding(t)
}

// Loopback captures each byte written to it and sends it back during the
// following eight slots.
type Loopback struct {
	mu     sync.Mutex
	s      slave
	NoEcho bool
}

func (l *Loopback) Falling(t uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.s.falling(t)
}

func (l *Loopback) Rising(since, t uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t-since >= resetMin {
		l.s.onReset(t)
		return
	}
	if v, ok := l.s.slot(since, t); ok && !l.NoEcho {
		l.s.send([]byte{v})
	}
}

func (l *Loopback) Holding(t uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.holding(t)
}
