//go:build !tinygo

package host

import (
	"gpi/firmware/display"
	"gpi/hal"
	"strings"
	"testing"

	"gotest.tools/assert"
)

var sample = display.Frame{0x80, 0x41, 0x22, 0x14, 0x08, 0x00, 0xFF, 0x3C}

type lightADC uint8

func (l lightADC) Sample(ch hal.ADCChannel) uint8 {
	if ch == hal.ADCLight {
		return uint8(l)
	}
	return 0
}

// refresh runs the multiplexer through n full refresh cycles.
func refresh(m *display.Multiplexer, n int) {
	for i := 0; i < n*(display.Size*8+1); i++ {
		m.Tick()
	}
}

func TestPanelRebuildsFrame(t *testing.T) {
	p := &Panel{}
	m := display.NewMultiplexer(p, nil, display.FixedSettings{AutoBrightnessOff: true})
	m.Publish(sample)
	refresh(m, 2)

	img := p.Snapshot()
	assert.Equal(t, img.Frame, sample)
	for line := 0; line < display.Size; line++ {
		for pos := 0; pos < display.Size; pos++ {
			want := uint8(0)
			if sample.Pixel(line, pos) {
				want = 255
			}
			if img.Duty[line][pos] != want {
				t.Fatalf("duty at (%d,%d) = %d, want %d", line, pos, img.Duty[line][pos], want)
			}
		}
	}
}

func TestPanelShowsRotation(t *testing.T) {
	var f display.Frame
	f[0] = 0x80
	p := &Panel{}
	m := display.NewMultiplexer(p, nil, display.FixedSettings{Rotation: display.Rotate180, AutoBrightnessOff: true})
	m.Publish(f)
	refresh(m, 2)

	img := p.Snapshot()
	assert.Assert(t, img.Frame.Pixel(display.Size-1, display.Size-1))
	assert.Assert(t, !img.Frame.Pixel(0, 0))
}

func TestPanelDuty(t *testing.T) {
	p := &Panel{}
	// Light 208 gives level 4: half of the eight sub-frames of a row.
	m := display.NewMultiplexer(p, lightADC(208), nil)
	m.Publish(sample)
	refresh(m, 3)
	assert.Equal(t, m.Level(), uint8(4))

	img := p.Snapshot()
	assert.Equal(t, img.Duty[6][0], uint8(127))
	assert.Equal(t, img.Duty[5][0], uint8(0))
}

func TestPanelKeepsUnselectedRows(t *testing.T) {
	p := &Panel{}
	m := display.NewMultiplexer(p, nil, display.FixedSettings{AutoBrightnessOff: true})
	m.Publish(sample)
	refresh(m, 1)
	first := p.Snapshot()

	// Only the blanking writes: no row is selected in this window.
	p.Drive(0, 0)
	assert.Equal(t, p.Snapshot(), first)
}

func TestImageString(t *testing.T) {
	img := Image{Frame: display.Frame{0x81, 0, 0, 0, 0, 0, 0, 0xFF}}
	lines := strings.Split(img.String(), "\n")
	assert.Equal(t, len(lines), display.Size)
	assert.Equal(t, lines[0], "#......#")
	assert.Equal(t, lines[1], "........")
	assert.Equal(t, lines[7], "########")
}
