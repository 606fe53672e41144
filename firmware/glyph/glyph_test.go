package glyph

import (
	"gpi/firmware/display"
	"image/color"
	"testing"

	"gotest.tools/assert"
)

func TestPrintableASCIIIsDrawn(t *testing.T) {
	assert.Equal(t, Font.Glyph(' '), display.Frame{})
	for c := byte(0x21); c < 0x7F; c++ {
		if Font.Glyph(c) == (display.Frame{}) {
			t.Fatalf("glyph %q is blank", c)
		}
	}
	for c := 0x7F; c < 256; c++ {
		assert.Equal(t, Font.Glyph(byte(c)), display.Frame{}, "code %#x", c)
	}
}

func TestDistinctDigits(t *testing.T) {
	seen := map[display.Frame]byte{}
	for c := byte('0'); c <= '9'; c++ {
		g := Font.Glyph(c)
		if prev, ok := seen[g]; ok {
			t.Fatalf("%q and %q share a glyph", prev, c)
		}
		seen[g] = c
	}
}

func TestGearSymbols(t *testing.T) {
	assert.Equal(t, Gear(0), byte(GearNumber))
	assert.Equal(t, Gear(6), byte(15))
	assert.Equal(t, Gear(7), byte('?'))

	one := Font.Glyph(Gear(1))
	assert.Equal(t, one[0], uint8(0x04<<2))
	assert.Equal(t, one[6], uint8(0x0E<<2))
	assert.Equal(t, one[7], uint8(0))
}

func TestLightBars(t *testing.T) {
	assert.Equal(t, Light(0), byte(LightLevel+7))
	assert.Equal(t, Light(255), byte(LightLevel))
	full := Font.Glyph(LightLevel + 7)
	for _, line := range full {
		assert.Equal(t, line, uint8(0x7E))
	}
	low := Font.Glyph(LightLevel)
	assert.Equal(t, low, display.Frame{7: 0x7E})
}

func TestCheckMarkGrows(t *testing.T) {
	prev := 0
	for n := 0; n < CheckFrames; n++ {
		lit := 0
		g := Font.Glyph(byte(CheckMark + n))
		for line := 0; line < display.Size; line++ {
			for pos := 0; pos < display.Size; pos++ {
				if g.Pixel(line, pos) {
					lit++
				}
			}
		}
		assert.Equal(t, lit, prev+1, "frame %d", n)
		prev = lit
	}
}

func TestNegative(t *testing.T) {
	assert.Equal(t, Font.Negative(' '), display.Frame{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
}

func TestCanvasClips(t *testing.T) {
	var c canvas
	c.SetPixel(-1, 0, color.RGBA{})
	c.SetPixel(8, 0, color.RGBA{})
	c.SetPixel(0, 8, color.RGBA{})
	assert.Equal(t, c.Frame, display.Frame{})
	c.SetPixel(0, 0, color.RGBA{})
	c.SetPixel(7, 7, color.RGBA{})
	assert.Equal(t, c.Frame, display.Frame{0: 0x80, 7: 0x01})
	assert.NilError(t, c.Display())
}
