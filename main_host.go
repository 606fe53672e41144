//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"gpi/app"
	"gpi/firmware/gearbox"
	"gpi/hal"
	"gpi/hal/host"
	"io"
	"os"
	"os/signal"
	"time"
)

type options struct {
	backend  string
	chip     string
	headless bool
	term     bool
	hcfg     host.HeadlessConfig
	httpAddr string
	logPath  string
	eeprom   string
	tick     time.Duration
	demo     bool
}

func main() {
	var o options
	flag.StringVar(&o.backend, "backend", "sim", "Hardware: sim, rpi, chardev or periph.")
	flag.StringVar(&o.chip, "chip", host.DefaultChip, "GPIO character device for -backend=chardev.")
	flag.BoolVar(&o.headless, "headless", false, "Run the simulator without a window.")
	flag.BoolVar(&o.term, "term", false, "Draw the simulator in the terminal.")
	flag.IntVar(&o.hcfg.Hz, "hz", 60, "Panel sampling rate in headless mode.")
	flag.Uint64Var(&o.hcfg.Ticks, "ticks", 0, "Stop after N samples in headless mode (0 = run forever).")
	flag.StringVar(&o.httpAddr, "http", "", "Serve the simulator control API on this address.")
	flag.StringVar(&o.logPath, "log", "", "Also write the log to this rotating file.")
	flag.StringVar(&o.eeprom, "eeprom", host.EEPROMPath(), "Settings file.")
	flag.DurationVar(&o.tick, "tick-period", app.DefaultTickPeriod, "Display refresh tick.")
	flag.BoolVar(&o.demo, "demo", false, "Cycle through the gears and press the button on a schedule.")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, o); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options) error {
	opts := []app.Option{app.WithTickPeriod(o.tick)}
	if o.demo {
		opts = append(opts, app.WithGearSource(gearbox.NewDemo()))
	}
	fw := func(ctx context.Context, h hal.HAL) error {
		return app.Run(ctx, h, opts...)
	}

	if o.backend != "sim" {
		b, err := openBoard(o)
		if err != nil {
			return err
		}
		defer b.Close()
		return fw(ctx, b)
	}

	cfg := host.Config{EEPROMPath: o.eeprom, LogPath: o.logPath, Temperature: 215, Light: 128}
	if o.term {
		cfg.Stdout = io.Discard
	}
	if o.demo {
		// Released for 19.8s of every 20s: a short press each cycle.
		cfg.Button = hal.NewSignalPin("BUTTON", 20*time.Second, 19800*time.Millisecond, nil)
	}
	s, err := host.New(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if o.httpAddr != "" {
		go func() {
			if err := host.ServeControl(ctx, o.httpAddr, s); err != nil && !errors.Is(err, context.Canceled) {
				s.Logger().WriteLineString("control: " + err.Error())
			}
		}()
	}

	switch {
	case o.term:
		return host.RunTerminal(ctx, s, fw)
	case o.headless:
		return host.RunHeadless(ctx, s, fw, o.hcfg)
	default:
		return host.RunWindow(ctx, s, fw)
	}
}

func openBoard(o options) (*host.Board, error) {
	cfg := host.BoardConfig{Pins: host.DefaultPins, EEPROMPath: o.eeprom, LogPath: o.logPath}
	switch o.backend {
	case "rpi":
		return host.NewRPi(cfg)
	case "chardev":
		return host.NewChardev(o.chip, cfg)
	case "periph":
		return host.NewPeriph(cfg)
	}
	return nil, fmt.Errorf("unknown backend %q", o.backend)
}
