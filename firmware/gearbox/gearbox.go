// Package gearbox turns the gear position sensor readings into a gear number.
package gearbox

import (
	"gpi/firmware/config"
	"gpi/hal"
)

// Reading thresholds, in 8-bit ADC counts.
const (
	NeutralLevel = 50
	Tolerance    = 10
)

// Source returns the current gear, 0 being neutral.
type Source interface {
	Gear() uint8
}

// ConfigSource supplies the gear thresholds.
type ConfigSource interface {
	Get() config.Config
}

// Sensor reads the neutral switch and the gear position voltage.
type Sensor struct {
	adc  hal.ADC
	conf ConfigSource
	last uint8
}

// NewSensor returns a sensor reading adc with thresholds from conf.
func NewSensor(adc hal.ADC, conf ConfigSource) *Sensor {
	return &Sensor{adc: adc, conf: conf}
}

// Gear returns the current gear. Between gears the sensor reads at or above
// the unknown level and the previous gear is kept. A reading below every
// threshold is first gear.
func (s *Sensor) Gear() uint8 {
	if s.adc.Sample(hal.ADCNeutral) >= NeutralLevel {
		s.last = 0
		return s.last
	}

	// The first sample after switching channels is discarded.
	s.adc.Sample(hal.ADCGear)
	v := int(s.adc.Sample(hal.ADCGear))

	c := s.conf.Get()
	if v >= int(c.UnknownLevel) {
		return s.last
	}

	top := int(c.MaxGear)
	if top > config.MaxGears {
		top = config.MaxGears
	}
	for g := top; g > 1; g-- {
		if v-Tolerance >= int(c.GearLevel[g-1]) {
			s.last = uint8(g)
			return s.last
		}
	}
	s.last = 1
	return s.last
}

// Demo cycles through the gears without a sensor: it holds each gear for 201
// calls, changes on the next one, and bounces between neutral and fifth.
type Demo struct {
	gear    uint8
	counter uint8
	up      bool
}

// NewDemo returns a demo source starting in neutral.
func NewDemo() *Demo {
	return &Demo{up: true}
}

func (d *Demo) Gear() uint8 {
	d.counter++
	if d.counter <= 201 {
		return d.gear
	}
	d.counter = 0
	if d.up {
		d.gear++
	} else {
		d.gear--
	}
	if d.gear > 4 || d.gear < 1 {
		d.up = !d.up
	}
	return d.gear
}

// Reading returns ADC samples that Sensor decodes as gear under c. It is
// what a simulated sensor feeds back.
func Reading(c config.Config, gear uint8) (neutral, level uint8) {
	if gear == 0 {
		return 255, c.UnknownLevel
	}
	if gear > config.MaxGears {
		gear = config.MaxGears
	}
	v := int(c.GearLevel[gear-1]) + Tolerance + 2
	if v >= int(c.UnknownLevel) {
		v = int(c.UnknownLevel) - 1
	}
	return 0, uint8(v)
}
