// Package glyph holds the 256-entry character table used by the display.
//
// Printable ASCII comes from the TomThumb bitmap font; the low control codes
// carry symbols: light-level bars, gear numbers, the check-mark animation, an
// arrow and the degree sign.
package glyph

import (
	"gpi/firmware/display"
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// Symbol slots.
const (
	LightLevel = 1  // 1..8, one to eight lit lines
	GearNumber = 9  // 9..15, N then 1..6
	CheckMark  = 16 // 16..24, animation frames
	Arrow      = 26
	SymbolDeg  = 28
)

// CheckFrames is the number of check-mark animation frames.
const CheckFrames = 9

// Table maps a character code to its glyph.
type Table [256]display.Frame

// Glyph returns the glyph for c.
func (t *Table) Glyph(c byte) display.Frame { return t[c] }

// Negative returns the glyph for c with every pixel inverted.
func (t *Table) Negative(c byte) display.Frame { return t[c].Negative() }

// Font is the built-in table.
var Font = build()

// Gear returns the symbol code for gear n. Gears outside 0..6 show '?'.
func Gear(n uint8) byte {
	if n > 6 {
		return '?'
	}
	return GearNumber + n
}

// Light returns the bar symbol for an 8-bit light reading. The sensor reads
// high in the dark, so darkness shows the shortest bar.
func Light(v uint8) byte {
	return LightLevel + 7 - v/32
}

// The glyph baseline and left edge on the 8x8 cell.
const (
	textX    = 2
	baseline = 6
)

func build() *Table {
	t := new(Table)
	font := &tinyfont.TomThumb
	for c := 0x21; c < 0x7F; c++ {
		var cv canvas
		tinyfont.DrawChar(&cv, font, textX, baseline, rune(c), color.RGBA{A: 0xFF})
		t[c] = cv.Frame
	}

	for n := 0; n < 8; n++ {
		var f display.Frame
		for line := display.Size - 1 - n; line < display.Size; line++ {
			f[line] = 0x7E
		}
		t[LightLevel+n] = f
	}

	for n, rows := range gearRows {
		var f display.Frame
		for i, r := range rows {
			f[i] = r << 2
		}
		t[GearNumber+n] = f
	}

	for n := 0; n < CheckFrames; n++ {
		var f display.Frame
		for _, p := range checkPath[:n+1] {
			f[p[0]] |= 0x80 >> p[1]
		}
		t[CheckMark+n] = f
	}

	t[Arrow] = display.Frame{0x10, 0x18, 0xFC, 0xFE, 0xFC, 0x18, 0x10, 0x00}
	t[SymbolDeg] = display.Frame{0x18, 0x24, 0x24, 0x18, 0x00, 0x00, 0x00, 0x00}
	return t
}

// gearRows are 5x7 digits, bit 4 leftmost.
var gearRows = [7][7]byte{
	{0x11, 0x19, 0x15, 0x13, 0x11, 0x11, 0x11}, // N
	{0x04, 0x0C, 0x04, 0x04, 0x04, 0x04, 0x0E},
	{0x0E, 0x11, 0x01, 0x02, 0x04, 0x08, 0x1F},
	{0x1F, 0x02, 0x04, 0x02, 0x01, 0x11, 0x0E},
	{0x02, 0x06, 0x0A, 0x12, 0x1F, 0x02, 0x02},
	{0x1F, 0x10, 0x1E, 0x01, 0x01, 0x11, 0x0E},
	{0x06, 0x08, 0x10, 0x1E, 0x11, 0x11, 0x0E},
}

// checkPath is the stroke order of the check mark as (line, pos) pairs.
var checkPath = [CheckFrames][2]uint8{
	{4, 0}, {5, 1}, {6, 2}, {5, 3}, {4, 4}, {3, 5}, {2, 6}, {1, 7}, {0, 7},
}

// canvas is a one-glyph drivers.Displayer.
type canvas struct {
	display.Frame
}

var _ drivers.Displayer = (*canvas)(nil)

func (c *canvas) Size() (x, y int16) { return display.Size, display.Size }

func (c *canvas) SetPixel(x, y int16, _ color.RGBA) {
	if x < 0 || y < 0 || x >= display.Size || y >= display.Size {
		return
	}
	c.Frame[y] |= 0x80 >> uint(x)
}

func (c *canvas) Display() error { return nil }
