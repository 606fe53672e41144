// Package scroll renders text and gear changes onto the matrix frame: text
// scrolling, gear animations, flashing and the check-mark animation.
package scroll

import (
	"context"
	"gpi/firmware/button"
	"gpi/firmware/display"
	"gpi/firmware/glyph"
	"time"

	"github.com/jonboulle/clockwork"
)

// Animation selects how a gear change is shown.
type Animation uint8

const (
	AnimateVertical Animation = iota
	AnimateHorizontal
	AnimateNone
)

func (a Animation) String() string {
	switch a {
	case AnimateHorizontal:
		return "left/right"
	case AnimateNone:
		return "none"
	default:
		return "up/down"
	}
}

// Delays used by the animations.
const (
	StepDelay  = 20 * time.Millisecond
	FlashDelay = 60 * time.Millisecond
	CheckHold  = 200 * time.Millisecond
)

// Font supplies glyphs by character code.
type Font interface {
	Glyph(c byte) display.Frame
}

// Screen receives finished frames.
type Screen interface {
	Publish(f display.Frame)
}

// ModeSource supplies the configured gear animation and text scroll delay.
type ModeSource interface {
	AnimationMode() Animation
	ScrollDelay() time.Duration
}

// Buttons is polled between scroll steps.
type Buttons interface {
	Poll() button.Event
}

type defaultModes struct{}

func (defaultModes) AnimationMode() Animation   { return AnimateVertical }
func (defaultModes) ScrollDelay() time.Duration { return 25 * time.Millisecond }

// Engine owns the application's working frame. Every drawing operation
// updates it and publishes the result.
type Engine struct {
	out   Screen
	font  Font
	modes ModeSource
	clock clockwork.Clock

	frame display.Frame
}

// New returns an engine drawing to out. modes and clock may be nil.
func New(out Screen, font Font, modes ModeSource, clock clockwork.Clock) *Engine {
	if font == nil {
		font = glyph.Font
	}
	if modes == nil {
		modes = defaultModes{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{out: out, font: font, modes: modes, clock: clock}
}

// Frame returns the working frame.
func (e *Engine) Frame() display.Frame { return e.frame }

// Show replaces the working frame.
func (e *Engine) Show(f display.Frame) {
	e.frame = f
	e.out.Publish(f)
}

// Putc shows character c.
func (e *Engine) Putc(c byte) { e.Show(e.font.Glyph(c)) }

// NegPutc shows character c inverted.
func (e *Engine) NegPutc(c byte) { e.Show(e.font.Glyph(c).Negative()) }

// ScrollDelay returns the configured delay between text scroll steps.
func (e *Engine) ScrollDelay() time.Duration { return e.modes.ScrollDelay() }

// pair returns the glyphs of the character at offset and the one after it.
// The character after the last one is a space. ok is false once offset has
// passed the end of the text.
func (e *Engine) pair(text []byte, offset int) (cur, next display.Frame, ok bool) {
	c := offset / display.Size
	if offset < 0 || c >= len(text) {
		return cur, next, false
	}
	n := byte(' ')
	if c+1 < len(text) {
		n = text[c+1]
	}
	return e.font.Glyph(text[c]), e.font.Glyph(n), true
}

// ScrollLeft draws text scrolled left by offset pixels and returns the next
// offset. Once offset reaches 8*len(text) nothing is drawn and it returns 0.
//
//	offset := 0
//	for {
//		if offset = e.ScrollLeft(text, offset); offset == 0 {
//			break
//		}
//	}
func (e *Engine) ScrollLeft(text []byte, offset int) int {
	cur, next, ok := e.pair(text, offset)
	if !ok {
		return 0
	}
	e.Show(display.ShiftLeft(uint8(offset%display.Size), cur, next))
	return offset + 1
}

// ScrollUp is ScrollLeft with the text moving upwards.
func (e *Engine) ScrollUp(text []byte, offset int) int {
	cur, next, ok := e.pair(text, offset)
	if !ok {
		return 0
	}
	e.Show(display.ShiftUp(uint8(offset%display.Size), next, cur))
	return offset + 1
}

// ScrollDown is ScrollLeft with the text moving downwards.
func (e *Engine) ScrollDown(text []byte, offset int) int {
	cur, next, ok := e.pair(text, offset)
	if !ok {
		return 0
	}
	e.Show(display.ShiftDown(uint8(display.Size-offset%display.Size), cur, next))
	return offset + 1
}

// Text scrolls text from right to left passes times, waiting delay after
// each step. When btn is not nil it is polled after every step and a Short
// or Long press ends the scroll early and is returned.
func (e *Engine) Text(ctx context.Context, text []byte, passes int, delay time.Duration, btn Buttons) (button.Event, error) {
	for p := 0; p < passes; p++ {
		offset := 0
		for {
			offset = e.ScrollLeft(text, offset)
			if btn != nil {
				if ev := btn.Poll(); ev == button.Short || ev == button.Long {
					return ev, nil
				}
			}
			if err := e.sleep(ctx, delay); err != nil {
				return button.None, err
			}
			if offset == 0 {
				break
			}
		}
	}
	return button.None, nil
}

// Puts scrolls text once at the fixed step delay. It stops at the first 0x00
// or 0xFF byte, which is how an unprogrammed EEPROM message ends.
func (e *Engine) Puts(ctx context.Context, text []byte, btn Buttons) (button.Event, error) {
	for i, c := range text {
		if c == 0x00 || c == 0xFF {
			text = text[:i]
			break
		}
	}
	return e.Text(ctx, text, 1, StepDelay, btn)
}

// Gear animates a change from gear prev to gear using the configured
// animation and leaves the new gear on screen.
func (e *Engine) Gear(ctx context.Context, prev, gear uint8) error {
	from := e.font.Glyph(glyph.Gear(prev))
	to := e.font.Glyph(glyph.Gear(gear))

	switch e.modes.AnimationMode() {
	case AnimateNone:
	case AnimateHorizontal:
		for i := uint8(0); i <= display.Size; i++ {
			if gear > prev {
				e.Show(display.ShiftLeft(i, from, to))
			} else {
				e.Show(display.ShiftRight(i, from, to))
			}
			if err := e.sleep(ctx, StepDelay); err != nil {
				return err
			}
		}
	default:
		for i := uint8(0); i < display.Size; i++ {
			if gear < prev {
				e.Show(display.ShiftUp(i, to, from))
			} else {
				e.Show(display.ShiftDown(display.Size-i, from, to))
			}
			if err := e.sleep(ctx, StepDelay); err != nil {
				return err
			}
		}
	}

	e.Show(to)
	return nil
}

// Flash alternates c with a blank n times, then shows c.
func (e *Engine) Flash(ctx context.Context, c byte, n int) error {
	return e.flash(ctx, c, n, e.font.Glyph(' '))
}

// FlashNegative alternates c with its negative n times, then shows c.
func (e *Engine) FlashNegative(ctx context.Context, c byte, n int) error {
	return e.flash(ctx, c, n, e.font.Glyph(c).Negative())
}

func (e *Engine) flash(ctx context.Context, c byte, n int, alt display.Frame) error {
	for i := 0; i < n; i++ {
		e.Putc(c)
		if err := e.sleep(ctx, FlashDelay); err != nil {
			return err
		}
		e.Show(alt)
		if err := e.sleep(ctx, FlashDelay); err != nil {
			return err
		}
	}
	e.Putc(c)
	return nil
}

// AnimateCheck draws the check mark stroke by stroke and holds it.
func (e *Engine) AnimateCheck(ctx context.Context) error {
	for i := 0; i < glyph.CheckFrames; i++ {
		e.Putc(byte(glyph.CheckMark + i))
		if err := e.sleep(ctx, StepDelay); err != nil {
			return err
		}
	}
	return e.sleep(ctx, CheckHold)
}

// Sleep waits d on the engine clock or until ctx is done.
func (e *Engine) Sleep(ctx context.Context, d time.Duration) error {
	return e.sleep(ctx, d)
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.clock.After(d):
		return nil
	}
}
