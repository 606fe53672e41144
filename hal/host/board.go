//go:build !tinygo

package host

import (
	"errors"
	"fmt"
	"gpi/firmware/config"
	"gpi/firmware/display"
	"gpi/firmware/gearbox"
	"gpi/hal"
	"io"
	"time"
)

// Pins is the wiring of a panel to the GPIO lines of a board, by line
// number. Rows[k] and Cols[k] carry bit k of Matrix.Drive.
type Pins struct {
	Rows    [display.Size]int
	Cols    [display.Size]int
	Button  int
	OneWire int
}

// DefaultPins is the Raspberry Pi header wiring, BCM numbering.
var DefaultPins = Pins{
	Rows:    [display.Size]int{5, 6, 13, 19, 26, 16, 20, 21},
	Cols:    [display.Size]int{17, 27, 22, 23, 24, 25, 8, 7},
	Button:  18,
	OneWire: 4,
}

// BoardConfig sets up a hardware backend.
type BoardConfig struct {
	Pins       Pins
	EEPROMPath string
	LogPath    string
	Stdout     io.Writer
	// ADC supplies the analog inputs. Boards without one read a fixed
	// mid light level with the gearbox in neutral.
	ADC hal.ADC
}

// Board is a hal.HAL driving a real panel through GPIO lines.
type Board struct {
	name    string
	log     *Logger
	matrix  *PinMatrix
	button  hal.GPIOPin
	onewire hal.GPIOPin
	adc     hal.ADC
	ee      *FileEEPROM
	release func() error
}

// openPin returns line n of a board.
type openPin func(n int) (hal.GPIOPin, error)

func newBoard(name string, cfg BoardConfig, open openPin, release func() error) (b *Board, err error) {
	b = &Board{name: name, log: NewLogger(cfg.Stdout, cfg.LogPath), adc: cfg.ADC, release: release}
	defer func() {
		if err != nil {
			b.Close()
			b = nil
		}
	}()

	var rows, cols [display.Size]hal.GPIOPin
	for k := 0; k < display.Size; k++ {
		if rows[k], err = open(cfg.Pins.Rows[k]); err != nil {
			return b, fmt.Errorf("%s: row %d: %w", name, k, err)
		}
		if cols[k], err = open(cfg.Pins.Cols[k]); err != nil {
			return b, fmt.Errorf("%s: column %d: %w", name, k, err)
		}
	}
	if b.matrix, err = NewPinMatrix(rows, cols); err != nil {
		return b, fmt.Errorf("%s: %w", name, err)
	}
	if b.button, err = open(cfg.Pins.Button); err != nil {
		return b, fmt.Errorf("%s: button: %w", name, err)
	}
	if b.onewire, err = open(cfg.Pins.OneWire); err != nil {
		return b, fmt.Errorf("%s: 1-wire: %w", name, err)
	}
	if b.adc == nil {
		neutral, level := gearbox.Reading(config.Default(), 0)
		b.adc = FixedADC{Light: 128, Gear: level, Neutral: neutral}
	}

	path := cfg.EEPROMPath
	if path == "" {
		path = EEPROMPath()
	}
	if b.ee, err = OpenEEPROM(path); err != nil {
		return b, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}

// Name returns the backend name.
func (b *Board) Name() string { return b.name }

var _ hal.HAL = (*Board)(nil)

func (b *Board) Logger() hal.Logger   { return b.log }
func (b *Board) Matrix() hal.Matrix   { return b.matrix }
func (b *Board) Button() hal.GPIOPin  { return b.button }
func (b *Board) OneWire() hal.GPIOPin { return b.onewire }
func (b *Board) Timing() hal.Timing   { return BusyWait{} }
func (b *Board) ADC() hal.ADC         { return b.adc }
func (b *Board) EEPROM() hal.EEPROM   { return b.ee }

// Close blanks the panel and releases the lines and files.
func (b *Board) Close() error {
	var errs []error
	if b.matrix != nil {
		b.matrix.Drive(0, 0)
	}
	if b.ee != nil {
		errs = append(errs, b.ee.Close())
	}
	if b.release != nil {
		errs = append(errs, b.release())
	}
	errs = append(errs, b.log.Close())
	return errors.Join(errs...)
}

// PinMatrix drives the row and column ports one line at a time.
type PinMatrix struct {
	rows, cols [display.Size]hal.GPIOPin
}

// NewPinMatrix configures the lines as outputs and blanks the panel.
func NewPinMatrix(rows, cols [display.Size]hal.GPIOPin) (*PinMatrix, error) {
	m := &PinMatrix{rows: rows, cols: cols}
	for _, p := range append(rows[:], cols[:]...) {
		if err := p.Configure(hal.GPIOModeOutput, hal.GPIOPullNone); err != nil {
			return nil, err
		}
	}
	m.Drive(0, 0)
	return m, nil
}

// Drive switches the old row off before the columns change.
func (m *PinMatrix) Drive(rows, cols uint8) {
	for k, p := range m.rows {
		if rows&(1<<k) == 0 {
			_ = p.Write(false)
		}
	}
	for k, p := range m.cols {
		_ = p.Write(cols&(1<<k) != 0)
	}
	for k, p := range m.rows {
		if rows&(1<<k) != 0 {
			_ = p.Write(true)
		}
	}
}

// FixedADC reads constant values.
type FixedADC struct {
	Light, Gear, Neutral uint8
}

func (a FixedADC) Sample(ch hal.ADCChannel) uint8 {
	switch ch {
	case hal.ADCLight:
		return a.Light
	case hal.ADCGear:
		return a.Gear
	case hal.ADCNeutral:
		return a.Neutral
	}
	return 0
}

// BusyWait spins for microsecond delays.
type BusyWait struct{}

func (BusyWait) DelayMicroseconds(us uint32) {
	end := time.Now().Add(time.Duration(us) * time.Microsecond)
	for time.Now().Before(end) {
	}
}
