//go:build tinygo && avr

package hal

import (
	"device/avr"
	"errors"
	"machine"
	"time"
)

// Pin map of the indicator board. Rows are PORTB, columns PORTD.
const (
	buttonPin  = machine.PC2
	oneWirePin = machine.PC5
	lightPin   = machine.PC4
	gearPin    = machine.PC1
	neutralPin = machine.PC3
)

// EEPROMSize is the usable settings memory.
const EEPROMSize = 512

var errNotOutput = errors.New("gpio: pin not in output mode")

type tinyGoHAL struct {
	matrix  portMatrix
	button  *tinyGoPin
	onewire *tinyGoPin
	adc     *tinyGoADC
	ee      *MemEEPROM
}

// New returns the HAL of the indicator board.
//
// PD0 and PD1 drive columns, so the UART is not available and log lines are
// dropped. Settings are kept in RAM and reset at power-up.
func New() HAL {
	avr.DDRB.Set(0xFF)
	avr.DDRD.Set(0xFF)
	avr.PORTB.Set(0)
	avr.PORTD.Set(0)

	machine.InitADC()
	adc := &tinyGoADC{}
	for ch, p := range [...]machine.Pin{ADCLight: lightPin, ADCGear: gearPin, ADCNeutral: neutralPin} {
		adc.ch[ch] = machine.ADC{Pin: p}
		adc.ch[ch].Configure(machine.ADCConfig{})
	}

	return &tinyGoHAL{
		button:  &tinyGoPin{pin: buttonPin, name: "BUTTON"},
		onewire: &tinyGoPin{pin: oneWirePin, name: "1WIRE"},
		adc:     adc,
		ee:      NewMemEEPROM(EEPROMSize),
	}
}

func (h *tinyGoHAL) Logger() Logger   { return discardLogger{} }
func (h *tinyGoHAL) Matrix() Matrix   { return h.matrix }
func (h *tinyGoHAL) Button() GPIOPin  { return h.button }
func (h *tinyGoHAL) OneWire() GPIOPin { return h.onewire }
func (h *tinyGoHAL) Timing() Timing   { return spinTiming{} }
func (h *tinyGoHAL) ADC() ADC         { return h.adc }
func (h *tinyGoHAL) EEPROM() EEPROM   { return h.ee }

// portMatrix writes whole ports, the way the refresh tick expects.
type portMatrix struct{}

func (portMatrix) Drive(rows, cols uint8) {
	avr.PORTB.Set(0)
	avr.PORTD.Set(cols)
	avr.PORTB.Set(rows)
}

type tinyGoPin struct {
	pin  machine.Pin
	name string
	out  bool
}

func (p *tinyGoPin) Name() string { return p.name }

func (p *tinyGoPin) Caps() GPIOCaps {
	return GPIOCapInput | GPIOCapOutput | GPIOCapPullUp
}

func (p *tinyGoPin) Configure(mode GPIOMode, pull GPIOPull) error {
	if err := checkConfig(p.name, p.Caps(), mode, pull); err != nil {
		return err
	}
	switch {
	case mode == GPIOModeOutput:
		p.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	case pull == GPIOPullUp:
		p.pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	default:
		p.pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	}
	p.out = mode == GPIOModeOutput
	return nil
}

func (p *tinyGoPin) Read() (bool, error) { return p.pin.Get(), nil }

func (p *tinyGoPin) Write(level bool) error {
	if !p.out {
		return errNotOutput
	}
	p.pin.Set(level)
	return nil
}

type tinyGoADC struct {
	ch [3]machine.ADC
}

func (a *tinyGoADC) Sample(ch ADCChannel) uint8 {
	if int(ch) >= len(a.ch) {
		return 0
	}
	return uint8(a.ch[ch].Get() >> 8)
}

type spinTiming struct{}

func (spinTiming) DelayMicroseconds(us uint32) {
	end := time.Now().Add(time.Duration(us) * time.Microsecond)
	for time.Now().Before(end) {
	}
}

type discardLogger struct{}

func (discardLogger) WriteLineString(string) {}
func (discardLogger) WriteLineBytes([]byte)  {}
