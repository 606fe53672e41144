//go:build !tinygo

// Package host runs the indicator on a desktop or a Linux board: a simulator
// with window, terminal and headless front ends, an HTTP control API, and
// GPIO backends for real panels.
package host

import (
	"context"
	"fmt"
	"gpi/firmware/config"
	"gpi/firmware/gearbox"
	"gpi/hal"
	"gpi/internal/wiresim"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"periph.io/x/conn/v3/onewire"
)

// Firmware is the program a front end runs against the HAL. It returns when
// ctx is done.
type Firmware func(ctx context.Context, h hal.HAL) error

// SensorMode is the simulated state of the temperature sensor.
type SensorMode string

const (
	SensorOK      SensorMode = "ok"
	SensorBadCRC  SensorMode = "crc"
	SensorShorted SensorMode = "short"
	SensorAbsent  SensorMode = "absent"
)

var sensorModes = []SensorMode{SensorOK, SensorBadCRC, SensorShorted, SensorAbsent}

// ParseSensorMode returns the mode named s.
func ParseSensorMode(s string) (SensorMode, error) {
	for _, m := range sensorModes {
		if string(m) == strings.ToLower(s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown sensor mode %q", s)
}

// Next returns the mode after m, wrapping around.
func (m SensorMode) Next() SensorMode {
	for i, x := range sensorModes {
		if x == m {
			return sensorModes[(i+1)%len(sensorModes)]
		}
	}
	return SensorOK
}

// Config sets up a simulator.
type Config struct {
	// EEPROMPath is the file holding the settings. Empty keeps them in
	// memory.
	EEPROMPath string
	// LogPath adds a rotating log file next to stdout.
	LogPath string
	// Stdout receives the log. Defaults to os.Stdout.
	Stdout io.Writer
	// Temperature is the starting sensor reading in tenths of a degree C.
	Temperature int
	// Light is the starting light sensor reading.
	Light uint8
	// Button replaces the virtual button, e.g. with a hal.NewSignalPin
	// pressing it on a schedule. Press has no effect then.
	Button hal.GPIOPin
}

// Sim is a hal.HAL backed by models of the panel, the sensors and the button.
type Sim struct {
	log    *Logger
	panel  *Panel
	button hal.GPIOPin
	press  *hal.VirtualPin
	bus    *wiresim.Bus
	sensor *wiresim.DS18B20
	adc    simADC
	ee     hal.EEPROM

	mu     sync.Mutex
	gear   uint8
	tenths int
	mode   SensorMode
}

// New returns a simulator.
func New(cfg Config) (*Sim, error) {
	s := &Sim{
		log:    NewLogger(cfg.Stdout, cfg.LogPath),
		panel:  &Panel{},
		press:  hal.NewVirtualPin("BUTTON", hal.GPIOCapInput|hal.GPIOCapPullUp, true),
		sensor: wiresim.NewDS18B20(0),
		mode:   SensorOK,
	}
	s.button = s.press
	if cfg.Button != nil {
		s.button = cfg.Button
	}
	s.bus = wiresim.NewBus(s.sensor)

	if cfg.EEPROMPath == "" {
		s.ee = hal.NewMemEEPROM(EEPROMSize)
	} else {
		ee, err := OpenEEPROM(cfg.EEPROMPath)
		if err != nil {
			s.log.Close()
			return nil, fmt.Errorf("host: %w", err)
		}
		s.ee = ee
	}

	s.SetTemperature(cfg.Temperature)
	s.SetLight(cfg.Light)
	s.SetGear(0)
	return s, nil
}

var _ hal.HAL = (*Sim)(nil)

func (s *Sim) Logger() hal.Logger   { return s.log }
func (s *Sim) Matrix() hal.Matrix   { return s.panel }
func (s *Sim) Button() hal.GPIOPin  { return s.button }
func (s *Sim) OneWire() hal.GPIOPin { return s.bus.Pin() }
func (s *Sim) Timing() hal.Timing   { return s.bus }
func (s *Sim) ADC() hal.ADC         { return &s.adc }
func (s *Sim) EEPROM() hal.EEPROM   { return s.ee }

// Panel returns the LED panel model.
func (s *Sim) Panel() *Panel { return s.panel }

// Press holds the button down or releases it.
func (s *Sim) Press(down bool) { s.press.Inject(!down) }

// Pressed reports whether the button is held.
func (s *Sim) Pressed() bool {
	level, _ := s.button.Read()
	return !level
}

// SetGear moves the gear selector. Readings are computed from the settings
// currently stored in the EEPROM.
func (s *Sim) SetGear(g uint8) {
	c := s.storedConfig()
	if g > c.MaxGear {
		g = c.MaxGear
	}
	neutral, level := gearbox.Reading(c, g)

	s.mu.Lock()
	s.gear = g
	s.mu.Unlock()
	s.adc.set(hal.ADCNeutral, neutral)
	s.adc.set(hal.ADCGear, level)
}

// Gear returns the simulated gear.
func (s *Sim) Gear() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gear
}

// MaxGear returns the top gear of the stored settings.
func (s *Sim) MaxGear() uint8 { return s.storedConfig().MaxGear }

func (s *Sim) storedConfig() config.Config {
	var img [config.RecordSize + 1]byte
	if _, err := s.ee.ReadAt(img[:], 0); err == nil && onewire.CheckCRC(img[:config.CRCOffset+1]) {
		if c, err := config.Decode(img[:config.RecordSize]); err == nil {
			return c
		}
	}
	return config.Default()
}

// SetLight sets the ambient light reading, 0 being darkest.
func (s *Sim) SetLight(v uint8) { s.adc.set(hal.ADCLight, v) }

// Light returns the ambient light reading.
func (s *Sim) Light() uint8 { return s.adc.Sample(hal.ADCLight) }

// SetTemperature sets the sensor reading in tenths of a degree C. It shows
// after the next conversion.
func (s *Sim) SetTemperature(tenths int) {
	s.mu.Lock()
	s.tenths = tenths
	s.mu.Unlock()
	s.sensor.SetTenths(tenths)
}

// Temperature returns the simulated temperature in tenths of a degree C.
func (s *Sim) Temperature() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tenths
}

// SensorMode returns the simulated sensor state.
func (s *Sim) SensorMode() SensorMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetSensorMode breaks or repairs the sensor wiring.
func (s *Sim) SetSensorMode(m SensorMode) error {
	if _, err := ParseSensorMode(string(m)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sensor.CorruptCRC(m == SensorBadCRC)
	s.bus.SetShorted(m == SensorShorted)
	s.bus.Detach(s.sensor)
	if m != SensorAbsent {
		s.bus.Attach(s.sensor)
	}
	s.mode = m
	return nil
}

// State is what the simulator shows and reads.
type State struct {
	Pressed     bool       `json:"pressed"`
	Gear        uint8      `json:"gear"`
	Light       uint8      `json:"light"`
	Temperature float64    `json:"temperature"`
	Sensor      SensorMode `json:"sensor"`
	Panel       []string   `json:"panel,omitempty"`
}

// State samples the simulator. Reading it starts a new panel window.
func (s *Sim) State() State {
	st := s.inputs()
	st.Panel = strings.Split(s.panel.Snapshot().String(), "\n")
	return st
}

func (s *Sim) inputs() State {
	return State{
		Pressed:     s.Pressed(),
		Gear:        s.Gear(),
		Light:       s.Light(),
		Temperature: float64(s.Temperature()) / 10,
		Sensor:      s.SensorMode(),
	}
}

// Status is a one-line summary of the inputs.
func (st State) Status() string {
	button := "up"
	if st.Pressed {
		button = "DOWN"
	}
	return fmt.Sprintf("gear %d  light %d  %.1fC  sensor %s  button %s", st.Gear, st.Light, st.Temperature, st.Sensor, button)
}

// Close releases the EEPROM file and the log file.
func (s *Sim) Close() error {
	var err error
	if c, ok := s.ee.(io.Closer); ok {
		err = c.Close()
	}
	if cerr := s.log.Close(); err == nil {
		err = cerr
	}
	return err
}

type simADC struct {
	ch [3]atomic.Uint32
}

func (a *simADC) set(ch hal.ADCChannel, v uint8) {
	if int(ch) < len(a.ch) {
		a.ch[ch].Store(uint32(v))
	}
}

func (a *simADC) Sample(ch hal.ADCChannel) uint8 {
	if int(ch) >= len(a.ch) {
		return 0
	}
	return uint8(a.ch[ch].Load())
}

// runFirmware starts fw in a goroutine. The returned channel yields its
// result once.
func runFirmware(ctx context.Context, h hal.HAL, fw Firmware) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- fw(ctx, h)
	}()
	return done
}

// Front end nudges.
const (
	lightStep       = 16
	temperatureStep = 5
)

func (s *Sim) shiftGear(d int) {
	g := int(s.Gear()) + d
	if g < 0 {
		g = 0
	}
	s.SetGear(uint8(min(g, int(s.MaxGear()))))
}

func (s *Sim) shiftLight(d int) {
	v := int(s.Light()) + d
	s.SetLight(uint8(max(0, min(v, 255))))
}

func (s *Sim) shiftTemperature(d int) { s.SetTemperature(s.Temperature() + d) }

func (s *Sim) cycleSensor() { _ = s.SetSensorMode(s.SensorMode().Next()) }
