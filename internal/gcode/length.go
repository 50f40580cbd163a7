// Package gcode implements the Siemens-dialect G-code front end: the
// fixed-point length type, code words, the line grammar, and numbered
// file loading.
package gcode

import (
	"fmt"
	"math"
)

// Micrometer is a signed length in units of 10⁻⁶ m. All length arithmetic
// in the system stays in this type; floats appear only transiently in arc
// geometry.
type Micrometer int64

// FromMM converts a millimeter float to micrometers, rounding to the
// nearest micrometer. Panics if mm is not finite or does not fit.
func FromMM(mm float64) Micrometer {
	f := math.Round(mm * 1000.0)
	i := int64(f)
	if float64(i) != f {
		panic("impossible float to integer conversion")
	}
	return Micrometer(i)
}

// MM converts micrometers to a millimeter float.
func (m Micrometer) MM() float64 {
	return float64(m) / 1000.0
}

// String formats the length as signed integer millimeters, a dot, and
// exactly three fractional digits.
func (m Micrometer) String() string {
	a := int64(m) / 1000
	b := int64(m) % 1000
	if b < 0 {
		b = -b
	}
	if m < 0 && a == 0 {
		return fmt.Sprintf("-0.%03d", b)
	}
	return fmt.Sprintf("%d.%03d", a, b)
}

// ParseMicrometer parses a complete decimal string of the form
// [+-]?(d+(.d*)?|.d+). The fraction is significant to exactly three
// digits: shorter fractions are zero-padded, longer ones truncated.
func ParseMicrometer(s string) (Micrometer, *SimpleError) {
	m, rest, ok := parseMicrometerPrefix(s)
	if !ok || rest != "" {
		return 0, Errorf("Invalid length '%s'", s)
	}
	return m, nil
}

// parseMicrometerPrefix scans a length from the start of s and returns the
// unconsumed remainder. ok is false when no length starts at s, including
// integer-part overflow.
func parseMicrometerPrefix(s string) (Micrometer, string, bool) {
	rest := s
	neg := false
	if len(rest) > 0 && (rest[0] == '+' || rest[0] == '-') {
		neg = rest[0] == '-'
		rest = rest[1:]
	}

	var whole int64
	wholeDigits := 0
	for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		d := int64(rest[0] - '0')
		if whole > (math.MaxInt64-d)/10 {
			return 0, s, false
		}
		whole = whole*10 + d
		wholeDigits++
		rest = rest[1:]
	}

	var frac int64
	fracDigits := 0
	if len(rest) > 0 && rest[0] == '.' {
		rest = rest[1:]
		for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
			if fracDigits < 3 {
				frac = frac*10 + int64(rest[0]-'0')
			}
			fracDigits++
			rest = rest[1:]
		}
		if wholeDigits == 0 && fracDigits == 0 {
			// A lone dot is not a number.
			return 0, s, false
		}
	} else if wholeDigits == 0 {
		return 0, s, false
	}
	for ; fracDigits < 3; fracDigits++ {
		frac *= 10
	}

	if whole > (math.MaxInt64-frac)/1000 {
		return 0, s, false
	}
	um := whole*1000 + frac
	if neg {
		um = -um
	}
	return Micrometer(um), rest, true
}
