package display

import (
	"gpi/hal"
	"gpi/kernel"
	"sync/atomic"
)

// BrightnessMax is the highest of the 16 brightness levels.
const BrightnessMax = 15

// subFramesPerRow is how many ticks each row stays selected. Only levels
// below it produce distinct duty cycles within one row period.
const subFramesPerRow = 8

// Settings are the configuration inputs read once per refresh cycle.
type Settings struct {
	Rotation          Rotation
	MinBrightness     uint8
	AutoBrightnessOff bool
}

// SettingsSource supplies the current settings.
type SettingsSource interface {
	DisplaySettings() Settings
}

// FixedSettings is a SettingsSource that never changes.
type FixedSettings Settings

func (s FixedSettings) DisplaySettings() Settings { return Settings(s) }

// Multiplexer refreshes the matrix one row at a time. Tick is called from the
// periodic scheduler; Publish is called from the application.
type Multiplexer struct {
	out      hal.Matrix
	adc      hal.ADC
	settings SettingsSource

	frame kernel.Shared

	// Owned by the tick.
	hw  HardwareBuffer
	row uint8
	sub uint8

	level  atomic.Uint32
	cycles atomic.Uint64
}

// NewMultiplexer returns a multiplexer driving out. adc may be nil, in which
// case auto-brightness sees full darkness.
func NewMultiplexer(out hal.Matrix, adc hal.ADC, settings SettingsSource) *Multiplexer {
	if settings == nil {
		settings = FixedSettings{}
	}
	m := &Multiplexer{out: out, adc: adc, settings: settings, row: Size}
	m.level.Store(BrightnessMax)
	return m
}

// Publish hands a finished frame to the tick. It is picked up at the start of
// the next refresh cycle.
func (m *Multiplexer) Publish(f Frame) {
	m.frame.Write(f)
}

// Published returns the frame most recently handed to Publish.
func (m *Multiplexer) Published() Frame {
	f, _ := m.frame.Read()
	return f
}

// Level returns the brightness used in the current refresh cycle.
func (m *Multiplexer) Level() uint8 { return uint8(m.level.Load()) }

// Cycles returns the number of completed refresh cycles.
func (m *Multiplexer) Cycles() uint64 { return m.cycles.Load() }

// Tick runs one timer period. Every tick blanks the outputs first. Once all
// rows have been shown, an extra tick with the display dark reloads the
// hardware buffer and brightness.
func (m *Multiplexer) Tick() {
	m.out.Drive(0, 0)

	if m.row >= Size {
		m.reload()
		m.row = 0
		m.sub = 0
		return
	}

	m.out.Drive(1<<m.row, ColumnsFor(m.hw[m.row], m.sub, uint8(m.level.Load())))
	m.sub++
	if m.sub >= subFramesPerRow {
		m.sub = 0
		m.row++
	}
}

func (m *Multiplexer) reload() {
	s := m.settings.DisplaySettings()
	f, _ := m.frame.Read()
	m.hw = Transform(s.Rotation, f)

	var light uint8
	if m.adc != nil && !s.AutoBrightnessOff {
		light = m.adc.Sample(hal.ADCLight)
	}
	m.level.Store(uint32(Brightness(light, s)))
	m.cycles.Add(1)
}

// Brightness computes the level for a light sample. The light input reads
// high in the dark, so brighter surroundings give a brighter display. The
// result is never below MinBrightness*3 or above BrightnessMax.
func Brightness(light uint8, s Settings) uint8 {
	level := BrightnessMax
	if !s.AutoBrightnessOff {
		level = 17 - int(light/16)
		if level > BrightnessMax {
			level = BrightnessMax
		}
	}
	if floor := int(s.MinBrightness) * 3; level < floor {
		level = floor
	}
	if level > BrightnessMax {
		level = BrightnessMax
	}
	return uint8(level)
}

// ColumnsFor returns the column pattern for one sub-frame: cols while sub is
// below level, otherwise nothing. Over 16 sub-frames the columns are driven
// for exactly level of them.
func ColumnsFor(cols, sub, level uint8) uint8 {
	if sub < level%16 {
		return cols
	}
	return 0
}
