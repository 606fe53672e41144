package app

import (
	"gpi/firmware/config"
	"gpi/firmware/ds18b20"
	"gpi/firmware/glyph"
	"strconv"
)

// invalidTemperature is shown when the sensor cannot be read.
const invalidTemperature = " ??\x1cC"

// FormatTemperature renders t (tenths of a degree Celsius) for scrolling:
// a leading space, the value, the degree symbol and the scale letter.
//
//	long:  " 21.4\x1cC"  " -0.5\x1cC"
//	short: " 21\x1cC"    " -1\x1cC"
func FormatTemperature(t ds18b20.Temperature, c config.Config) []byte {
	if t == ds18b20.Invalid {
		return []byte(invalidTemperature)
	}

	v := int(t)
	unit := byte('C')
	if c.TempFahrenheit != 0 {
		v = v*9/5 + 320
		unit = 'F'
	}

	b := make([]byte, 1, 8)
	b[0] = ' '
	if c.TempShortFormat != 0 {
		b = strconv.AppendInt(b, int64(roundTenths(v)), 10)
	} else {
		if v < 0 {
			b = append(b, '-')
			v = -v
		}
		b = strconv.AppendInt(b, int64(v/10), 10)
		sep := byte('.')
		if c.UseComma != 0 {
			sep = ','
		}
		b = append(b, sep, byte('0'+v%10))
	}
	return append(b, glyph.SymbolDeg, unit)
}

// roundTenths rounds half away from zero.
func roundTenths(v int) int {
	whole, frac := v/10, v%10
	switch {
	case frac >= 5:
		whole++
	case frac <= -5:
		whole--
	}
	return whole
}
