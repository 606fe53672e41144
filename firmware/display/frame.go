// Package display drives the 8x8 LED matrix: frame layout, the wiring
// transform, the multiplexing tick and the frame-buffer shift primitives.
package display

// Size is the width and height of the matrix.
const Size = 8

// Frame is the logical image. Byte i is matrix line i and bit 7 is the first
// pixel of the line. Glyph tables use the same layout.
type Frame [Size]byte

// HardwareBuffer holds post-transform column-driver patterns, indexed by
// physical row line.
type HardwareBuffer [Size]byte

// Pixel reports whether the pixel at (line, pos) is lit; pos 0 is bit 7.
func (f Frame) Pixel(line, pos int) bool {
	return f[line]&(0x80>>uint(pos)) != 0
}

// Negative returns the frame with every pixel inverted.
func (f Frame) Negative() Frame {
	for i := range f {
		f[i] = ^f[i]
	}
	return f
}

// ShiftLeft blends two glyphs horizontally: old moves out towards bit 7 by
// off pixels and next enters from bit 0. off is 0..8.
func ShiftLeft(off uint8, old, next Frame) Frame {
	var f Frame
	for i := range f {
		f[i] = old[i]<<off | next[i]>>(8-off)
	}
	return f
}

// ShiftRight is the mirror of ShiftLeft: old moves towards bit 0 and next
// enters from bit 7.
func ShiftRight(off uint8, old, next Frame) Frame {
	var f Frame
	for i := range f {
		f[i] = old[i]>>off | next[i]<<(8-off)
	}
	return f
}

// ShiftUp builds the frame from lines off..7 of outgoing followed by lines
// 0..off-2 of incoming, so outgoing moves up and incoming rises from below.
// The remaining last line is blank, leaving a one-line gap between glyphs.
func ShiftUp(off uint8, incoming, outgoing Frame) Frame {
	var f Frame
	y := 0
	for i := int(off); i < Size; i++ {
		f[y] = outgoing[i]
		y++
	}
	for i := 0; i < int(off)-1; i++ {
		f[y] = incoming[i]
		y++
	}
	return f
}

// ShiftDown builds the frame from lines off..7 of next followed by lines
// 0..off-1 of old. Stepping off from 8 down to 0 slides next in from the top.
func ShiftDown(off uint8, old, next Frame) Frame {
	var f Frame
	y := 0
	for i := int(off); i < Size; i++ {
		f[y] = next[i]
		y++
	}
	for i := 0; i < int(off) && y < Size; i++ {
		f[y] = old[i]
		y++
	}
	return f
}
