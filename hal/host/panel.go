//go:build !tinygo

package host

import (
	"gpi/firmware/display"
	"strings"
	"sync"
)

// pixel is a position on the panel as the viewer sees it.
type pixel struct{ line, pos int }

// pinPixel maps row pin k and column-driver bit b to the LED they light.
var pinPixel [display.Size][display.Size]pixel

func init() {
	for k := 0; k < display.Size; k++ {
		for b := 0; b < display.Size; b++ {
			var hw display.HardwareBuffer
			hw[k] = 1 << b
			f := display.Panel(hw)
			for line := range f {
				for pos := 0; pos < display.Size; pos++ {
					if f.Pixel(line, pos) {
						pinPixel[k][b] = pixel{line, pos}
					}
				}
			}
		}
	}
}

// Image is what the panel showed over a sampling window.
type Image struct {
	// Frame has a bit set for every LED that was lit at least once.
	Frame display.Frame
	// Duty is each LED's on-time while its row was selected, 0..255.
	Duty [display.Size][display.Size]uint8
}

// String renders the frame as eight lines of '#' and '.'.
func (img Image) String() string {
	var sb strings.Builder
	for line := 0; line < display.Size; line++ {
		if line > 0 {
			sb.WriteByte('\n')
		}
		for pos := 0; pos < display.Size; pos++ {
			if img.Frame.Pixel(line, pos) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
	}
	return sb.String()
}

// Panel is a hal.Matrix that rebuilds the picture from the row and column
// port writes, the way a camera pointed at the LEDs would.
type Panel struct {
	mu     sync.Mutex
	sel    [display.Size]uint32
	on     [display.Size][display.Size]uint32
	drives uint64
	last   Image
}

func (p *Panel) Drive(rows, cols uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drives++
	if rows == 0 {
		return
	}
	for k := 0; k < display.Size; k++ {
		if rows&(1<<k) == 0 {
			continue
		}
		p.sel[k]++
		for b := 0; b < display.Size; b++ {
			if cols&(1<<b) != 0 {
				p.on[k][b]++
			}
		}
	}
}

// Drives returns the number of port writes seen.
func (p *Panel) Drives() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drives
}

// Snapshot returns the picture since the previous call and starts a new
// window. Rows that were not selected in the window keep their last state.
func (p *Panel) Snapshot() Image {
	p.mu.Lock()
	defer p.mu.Unlock()

	for k := 0; k < display.Size; k++ {
		if p.sel[k] == 0 {
			continue
		}
		for b := 0; b < display.Size; b++ {
			px := pinPixel[k][b]
			duty := uint8(p.on[k][b] * 255 / p.sel[k])
			p.last.Duty[px.line][px.pos] = duty
			mask := byte(0x80) >> px.pos
			if p.on[k][b] > 0 {
				p.last.Frame[px.line] |= mask
			} else {
				p.last.Frame[px.line] &^= mask
			}
			p.on[k][b] = 0
		}
		p.sel[k] = 0
	}
	return p.last
}
