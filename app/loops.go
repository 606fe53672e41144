package app

import (
	"context"
	"gpi/firmware/button"
	"gpi/firmware/display"
	"gpi/firmware/glyph"
	"gpi/hal"
	"time"
)

// GearPollInterval is the gear screen's loop time. The long press therefore
// takes button.LongLimit times this.
const GearPollInterval = 54 * time.Millisecond

// Self test timing.
const (
	selfTestBlank = 500 * time.Millisecond
	selfTestSweep = 50 * time.Millisecond
	selfTestLight = 20 * time.Millisecond
)

// parked reports whether gear is one where the temperature may be shown:
// neutral or the top gear.
func (a *App) parked(gear uint8) bool {
	return gear == 0 || gear == a.conf.Get().MaxGear
}

// GearLoop shows the current gear and animates every change. It returns on a
// button press, or with ExitTemperature once the gear has stayed parked for
// the configured timeout.
func (a *App) GearLoop(ctx context.Context) (Exit, error) {
	gear := a.gears.Gear()
	prev := gear
	a.scr.Putc(glyph.Gear(gear))

	limit := int(a.conf.TempTimeout() / GearPollInterval)
	counter := 0
	for {
		if ex, ok := exitFor(a.btn.Poll()); ok {
			return ex, nil
		}
		if limit > 0 && a.parked(gear) && counter > limit {
			return ExitTemperature, nil
		}

		a.startConversion()

		gear = a.gears.Gear()
		if gear != prev {
			if err := a.scr.Gear(ctx, prev, gear); err != nil {
				return ExitTimeout, err
			}
			prev = gear
		}
		if a.parked(gear) {
			counter++
		} else {
			counter = 0
		}

		if err := a.scr.Sleep(ctx, GearPollInterval); err != nil {
			return ExitTimeout, err
		}
	}
}

// TemperatureLoop scrolls the temperature until the gear leaves neutral or
// top gear (ExitGear) or the button is pressed.
func (a *App) TemperatureLoop(ctx context.Context) (Exit, error) {
	for {
		text, err := a.temperatureText(ctx)
		if err != nil {
			return ExitTimeout, err
		}

		offset := 0
		for {
			if !a.parked(a.gears.Gear()) {
				return ExitGear, nil
			}
			if ex, ok := exitFor(a.btn.Poll()); ok {
				return ex, nil
			}
			offset = a.scr.ScrollLeft(text, offset)
			if err := a.scr.Sleep(ctx, a.scr.ScrollDelay()); err != nil {
				return ExitTimeout, err
			}
			if offset == 0 {
				break
			}
		}

		a.startConversion()
	}
}

// DisplayTemperature scrolls the temperature once at the same speed as
// TemperatureLoop.
func (a *App) DisplayTemperature(ctx context.Context) error {
	text, err := a.temperatureText(ctx)
	if err != nil {
		return err
	}
	_, err = a.scr.Text(ctx, text, 1, a.scr.ScrollDelay(), nil)
	return err
}

func (a *App) temperatureText(ctx context.Context) ([]byte, error) {
	t, err := a.readTemperature(ctx)
	if err != nil {
		return nil, err
	}
	return FormatTemperature(t, a.conf.Get()), nil
}

// SelfTest lights the whole panel, sweeps every line and column, then shows
// the light sensor as a bar until the button goes down, and finally the
// temperature.
func (a *App) SelfTest(ctx context.Context) error {
	a.scr.NegPutc(' ')
	if err := a.scr.Sleep(ctx, selfTestBlank); err != nil {
		return err
	}
	a.scr.Putc(' ')

	for i := 0; i < display.Size; i++ {
		var f display.Frame
		f[i] = 0xFF
		a.scr.Show(f)
		if err := a.scr.Sleep(ctx, selfTestSweep); err != nil {
			return err
		}
	}

	for i := 0; i < display.Size; i++ {
		var f display.Frame
		for line := range f {
			f[line] = 1 << i
		}
		a.scr.Show(f)
		if err := a.scr.Sleep(ctx, selfTestSweep); err != nil {
			return err
		}
	}

	for {
		ev := a.btn.Poll()
		a.scr.Putc(glyph.Light(a.adc.Sample(hal.ADCLight)))
		if err := a.scr.Sleep(ctx, selfTestLight); err != nil {
			return err
		}
		if ev == button.Down {
			break
		}
	}

	return a.DisplayTemperature(ctx)
}
