//go:build !tinygo

package host

import (
	"context"
	"errors"
	"gpi/firmware/display"
	"time"

	"github.com/nsf/termbox-go"
)

// terminalRefresh is how often the terminal redraws the panel.
const terminalRefresh = 50 * time.Millisecond

// RunTerminal runs fw against s and draws the panel in the terminal.
//
// The terminal sees no key releases, so Space toggles the button. Arrows
// shift gears and light, PgUp/PgDn the temperature, s cycles sensor faults,
// and q, Esc or Ctrl-C quit.
func RunTerminal(ctx context.Context, s *Sim, fw Firmware) error {
	if err := termbox.Init(); err != nil {
		return err
	}
	termbox.SetInputMode(termbox.InputEsc)

	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := runFirmware(fctx, s, fw)

	events := make(chan termbox.Event)
	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				close(events)
				return
			}
			events <- ev
		}
	}()

	t := time.NewTicker(terminalRefresh)
	defer t.Stop()

	err := terminalLoop(ctx, s, events, done, t.C)
	cancel()
	termbox.Interrupt()
	for range events {
	}
	termbox.Close()
	return err
}

func terminalLoop(ctx context.Context, s *Sim, events <-chan termbox.Event, done <-chan error, refresh <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			<-done
			return ctx.Err()
		case err := <-done:
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			return err
		case ev := <-events:
			if ev.Type != termbox.EventKey {
				continue
			}
			if quitKey(ev) {
				return nil
			}
			terminalKey(s, ev)
		case <-refresh:
			drawTerminal(s)
		}
	}
}

func quitKey(ev termbox.Event) bool {
	return ev.Key == termbox.KeyCtrlC || ev.Key == termbox.KeyEsc || ev.Ch == 'q'
}

func terminalKey(s *Sim, ev termbox.Event) {
	switch ev.Key {
	case termbox.KeySpace:
		s.Press(!s.Pressed())
	case termbox.KeyArrowUp:
		s.shiftGear(1)
	case termbox.KeyArrowDown:
		s.shiftGear(-1)
	case termbox.KeyArrowRight:
		s.shiftLight(lightStep)
	case termbox.KeyArrowLeft:
		s.shiftLight(-lightStep)
	case termbox.KeyPgup:
		s.shiftTemperature(temperatureStep)
	case termbox.KeyPgdn:
		s.shiftTemperature(-temperatureStep)
	}
	if ev.Ch == 's' {
		s.cycleSensor()
	}
}

func drawTerminal(s *Sim) {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	img := s.Panel().Snapshot()
	for line := 0; line < display.Size; line++ {
		for pos := 0; pos < display.Size; pos++ {
			fg := termbox.ColorBlack
			switch d := img.Duty[line][pos]; {
			case d > 0x80:
				fg = termbox.ColorRed | termbox.AttrBold
			case d > 0:
				fg = termbox.ColorRed
			}
			termbox.SetCell(pos*2, line, '●', fg, termbox.ColorDefault)
		}
	}
	for i, r := range s.inputs().Status() {
		termbox.SetCell(i, display.Size+1, r, termbox.ColorDefault, termbox.ColorDefault)
	}
	termbox.Flush()
}
