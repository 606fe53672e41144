// Package app is the indicator itself: it wires the firmware packages to a
// HAL and runs the gear, temperature and menu screens.
package app

import (
	"context"
	"errors"
	"fmt"
	"gpi/firmware/button"
	"gpi/firmware/config"
	"gpi/firmware/display"
	"gpi/firmware/ds18b20"
	"gpi/firmware/gearbox"
	"gpi/firmware/glyph"
	"gpi/firmware/onewire"
	"gpi/firmware/scroll"
	"gpi/hal"
	"gpi/internal/buildinfo"
	"gpi/kernel"
	"gpi/services/logger"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTickPeriod is the display tick on hosts. The reference board ticks
// every 32us; one row with its sub-frames takes nine ticks.
const DefaultTickPeriod = 250 * time.Microsecond

// Exit tells the main loop why a screen ended.
type Exit uint8

const (
	ExitTimeout Exit = iota
	ExitShort
	ExitLong
	ExitTemperature
	ExitGear
)

func (e Exit) String() string {
	switch e {
	case ExitShort:
		return "short"
	case ExitLong:
		return "long"
	case ExitTemperature:
		return "temperature"
	case ExitGear:
		return "gear"
	default:
		return "timeout"
	}
}

func exitFor(ev button.Event) (Exit, bool) {
	switch ev {
	case button.Short:
		return ExitShort, true
	case button.Long:
		return ExitLong, true
	}
	return ExitTimeout, false
}

type Option func(*App)

// WithClock sets the clock used by every screen. The display tick always
// runs on the wall clock.
func WithClock(c clockwork.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithGearSource replaces the gear sensor, e.g. with gearbox.NewDemo().
func WithGearSource(g gearbox.Source) Option {
	return func(a *App) { a.gears = g }
}

// WithTickPeriod sets the display tick period. Zero starts no tick; the
// caller then drives Scheduler().Step itself.
func WithTickPeriod(d time.Duration) Option {
	return func(a *App) { a.tickPeriod = d }
}

// WithLogger shares a log service with the caller.
func WithLogger(l *logger.Service) Option {
	return func(a *App) { a.log = l }
}

type App struct {
	h          hal.HAL
	clock      clockwork.Clock
	tickPeriod time.Duration

	log   *logger.Service
	conf  *config.Store
	mux   *display.Multiplexer
	sched *kernel.Scheduler
	adc   hal.ADC
	temp  *ds18b20.Sensor
	btn   *button.Debouncer
	gears gearbox.Source
	scr   *scroll.Engine

	convAt    time.Time
	converted bool
	sensorErr string
}

// New assembles the indicator on h. Nothing runs until Run.
func New(h hal.HAL, opts ...Option) (*App, error) {
	a := &App{
		h:          h,
		clock:      clockwork.NewRealClock(),
		tickPeriod: DefaultTickPeriod,
	}
	for _, o := range opts {
		o(a)
	}
	if a.log == nil {
		a.log = logger.New(h.Logger())
	}

	a.conf = config.NewStore(h.EEPROM())
	a.mux = display.NewMultiplexer(h.Matrix(), h.ADC(), a.conf)
	a.sched = kernel.NewScheduler(a.mux.Tick)
	a.adc = lockedADC{adc: h.ADC(), cs: a.sched.Critical()}
	a.temp = ds18b20.New(onewire.New(h.OneWire(), h.Timing(), a.sched.Critical()))

	btn, err := button.New(h.Button(), a.clock)
	if err != nil {
		return nil, fmt.Errorf("app: button: %w", err)
	}
	a.btn = btn

	if a.gears == nil {
		a.gears = gearbox.NewSensor(a.adc, a.conf)
	}
	a.scr = scroll.New(a.mux, glyph.Font, a.conf, a.clock)
	return a, nil
}

// Run assembles the indicator on h and runs it until ctx is done.
func Run(ctx context.Context, h hal.HAL, opts ...Option) error {
	a, err := New(h, opts...)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

func (a *App) Multiplexer() *display.Multiplexer { return a.mux }
func (a *App) Scheduler() *kernel.Scheduler       { return a.sched }
func (a *App) Config() *config.Store              { return a.conf }
func (a *App) Logger() *logger.Service            { return a.log }

// Temperature returns the last reading shown.
func (a *App) Temperature() ds18b20.Temperature { return a.temp.Last() }

// Run starts the display tick and the log drain, then runs the screens until
// ctx is done or a screen panics.
func (a *App) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)

	var tickDone <-chan struct{}
	if a.tickPeriod > 0 {
		tickDone = a.sched.StartTick(ctx, a.tickPeriod)
	}
	logDone := make(chan struct{})
	go func() {
		defer close(logDone)
		a.log.Run(ctx, nil)
	}()
	bootDiagStart(a.h)

	defer func() {
		cancel()
		if tickDone != nil {
			<-tickDone
		}
		<-logDone
	}()
	defer a.recoverPanic(&err)

	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	a.log.Printf("gpi %s", buildinfo.Short())

	a.bootScreen("config")
	if err := a.conf.Load(); err != nil {
		a.log.Printf("%v", err)
		if errors.Is(err, config.ErrCorrupt) {
			a.scr.Putc('W')
		}
	}

	if a.conf.Get().StartupMessage != 0 {
		a.bootScreen("message")
		msg, err := a.conf.Message()
		if err != nil {
			a.log.Printf("%v", err)
		} else if _, err := a.scr.Puts(ctx, msg, a.btn); err != nil {
			return err
		}
	}

	a.bootScreen("sensor")
	a.startConversion()

	if a.btn.Pressed() {
		a.log.Printf("button held at power-up, running self test")
		if err := a.SelfTest(ctx); err != nil {
			return err
		}
	}

	for {
		ex, err := a.GearLoop(ctx)
		if err != nil {
			return err
		}
		switch ex {
		case ExitTemperature:
			ex, err = a.TemperatureLoop(ctx)
			if err == nil && ex == ExitLong {
				err = a.ConfigMenu(ctx)
			}
		case ExitShort:
			err = a.DisplayTemperature(ctx)
		case ExitLong:
			err = a.ConfigMenu(ctx)
		}
		if err != nil {
			return err
		}
	}
}

// startConversion starts a conversion unless one is still running.
func (a *App) startConversion() {
	now := a.clock.Now()
	if !a.convAt.IsZero() && now.Sub(a.convAt) < ds18b20.ConversionTime {
		return
	}
	if err := a.temp.StartConversion(); err != nil {
		a.sensorError(err)
		return
	}
	a.convAt = now
}

// readTemperature reads the last finished conversion. Only the first read
// waits for its conversion; the sensor keeps the previous result in its
// scratchpad while a new one runs.
func (a *App) readTemperature(ctx context.Context) (ds18b20.Temperature, error) {
	if !a.converted && !a.convAt.IsZero() {
		if wait := ds18b20.ConversionTime - a.clock.Now().Sub(a.convAt); wait > 0 {
			if err := a.scr.Sleep(ctx, wait); err != nil {
				return ds18b20.Invalid, err
			}
		}
	}
	a.converted = true

	t, err := a.temp.Refresh()
	if err != nil {
		a.sensorError(err)
		return ds18b20.Invalid, nil
	}
	a.sensorError(nil)
	return t, nil
}

// sensorError logs sensor failures when they change, not on every poll.
func (a *App) sensorError(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == a.sensorErr {
		return
	}
	a.sensorErr = msg
	if err == nil {
		a.log.Printf("ds18b20: sensor recovered")
		return
	}
	a.log.Printf("%v", err)
}

// lockedADC samples inside the critical section so a conversion started from
// a screen never interleaves with the display tick's light sample.
type lockedADC struct {
	adc hal.ADC
	cs  sync.Locker
}

func (l lockedADC) Sample(ch hal.ADCChannel) uint8 {
	l.cs.Lock()
	defer l.cs.Unlock()
	return l.adc.Sample(ch)
}
