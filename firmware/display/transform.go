package display

// Rotation selects the orientation of the image on the panel.
type Rotation uint8

const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

func (r Rotation) String() string {
	switch r {
	case Rotate90:
		return "90"
	case Rotate180:
		return "180"
	case Rotate270:
		return "270"
	default:
		return "0"
	}
}

// lineOrder maps physical row line k to the frame line it shows at 0 degrees.
// Row pins are wired 1,6,4,2,3,5,8,7.
var lineOrder = [Size]int{0, 5, 3, 1, 2, 4, 7, 6}

// straightBits maps frame bit i to column-driver bit straightBits[i].
var straightBits = [Size]uint8{7, 5, 4, 6, 0, 3, 1, 2}

// mirrorBits is straightBits applied to the bit-reversed byte.
var mirrorBits = [Size]uint8{2, 1, 3, 0, 6, 4, 5, 7}

var (
	straightTab, mirrorTab       [256]uint8
	straightInvTab, mirrorInvTab [256]uint8
)

func init() {
	for v := 0; v < 256; v++ {
		s := permute(uint8(v), &straightBits)
		m := permute(uint8(v), &mirrorBits)
		straightTab[v] = s
		mirrorTab[v] = m
		straightInvTab[s] = uint8(v)
		mirrorInvTab[m] = uint8(v)
	}
}

func permute(v uint8, to *[Size]uint8) uint8 {
	var o uint8
	for i := 0; i < Size; i++ {
		if v&(1<<uint(i)) != 0 {
			o |= 1 << to[i]
		}
	}
	return o
}

// SwapColBits applies the straight column-wiring permutation.
func SwapColBits(v uint8) uint8 { return straightTab[v] }

// SwapColBitsMirror applies the mirrored column-wiring permutation.
func SwapColBitsMirror(v uint8) uint8 { return mirrorTab[v] }

// transpose returns t with t[r] bit c set when f[c] bit r is set. With
// reverse, f[c] bit (7-r) is used instead.
func transpose(f Frame, reverse bool) Frame {
	var t Frame
	for c := 0; c < Size; c++ {
		for r := 0; r < Size; r++ {
			bit := uint(r)
			if reverse {
				bit = uint(7 - r)
			}
			if f[c]&(1<<bit) != 0 {
				t[r] |= 1 << uint(c)
			}
		}
	}
	return t
}

// Transform maps a frame to the hardware buffer for the given rotation.
// Unknown rotations are treated as Rotate0.
func Transform(r Rotation, f Frame) HardwareBuffer {
	var hw HardwareBuffer
	switch r {
	case Rotate90:
		t := transpose(f, false)
		for k := range hw {
			hw[k] = mirrorTab[t[lineOrder[k]]]
		}
	case Rotate180:
		for k := range hw {
			hw[k] = mirrorTab[f[Size-1-lineOrder[k]]]
		}
	case Rotate270:
		t := transpose(f, true)
		for k := range hw {
			hw[k] = straightTab[t[lineOrder[k]]]
		}
	default:
		for k := range hw {
			hw[k] = straightTab[f[lineOrder[k]]]
		}
	}
	return hw
}

// Inverse recovers the frame that Transform(r, ...) turned into hw.
func Inverse(r Rotation, hw HardwareBuffer) Frame {
	var f Frame
	switch r {
	case Rotate90:
		var t Frame
		for k := range hw {
			t[lineOrder[k]] = mirrorInvTab[hw[k]]
		}
		// transpose is its own inverse.
		f = transpose(t, false)
	case Rotate180:
		for k := range hw {
			f[Size-1-lineOrder[k]] = mirrorInvTab[hw[k]]
		}
	case Rotate270:
		var t Frame
		for k := range hw {
			t[lineOrder[k]] = straightInvTab[hw[k]]
		}
		f = untransposeReverse(t)
	default:
		for k := range hw {
			f[lineOrder[k]] = straightInvTab[hw[k]]
		}
	}
	return f
}

// untransposeReverse inverts transpose(f, true): t[r] bit c came from f[c]
// bit (7-r).
func untransposeReverse(t Frame) Frame {
	var f Frame
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if t[r]&(1<<uint(c)) != 0 {
				f[c] |= 1 << uint(7-r)
			}
		}
	}
	return f
}

// Panel returns the image a viewer sees for hw: it undoes only the fixed
// wiring, not the rotation.
func Panel(hw HardwareBuffer) Frame {
	return Inverse(Rotate0, hw)
}
