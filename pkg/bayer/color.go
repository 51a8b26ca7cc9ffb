package bayer

import "math"

// RGB indexes the broad color channels produced by SplitChannels and
// RGBBackgroundSeparate. Green covers both green lattice positions.
type RGB int

const (
	Red RGB = iota
	Green
	Blue
)

func (c RGB) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	}
	return "unknown"
}

// Color identifies a position within the 2x2 RGGB superpixel. The two green
// pixels are distinguished: G1 sits on the red row, G2 on the blue row and
// at the superpixel origin.
type Color int

const (
	R Color = iota
	G1
	G2
	B
)

func (c Color) String() string {
	switch c {
	case R:
		return "R"
	case G1:
		return "G1"
	case G2:
		return "G2"
	case B:
		return "B"
	}
	return "unknown"
}

// roundHalfUp rounds to the nearest integer with halves away from zero, so
// 1.5 -> 2 and -1.5 -> -2. math.Round already uses this rule; the wrapper
// fixes the convention by name so callers do not reach for a half-to-even
// variant by accident.
func roundHalfUp(v float64) int {
	return int(math.Round(v))
}

// PixelColor classifies the Bayer color at the zero-indexed column x and
// row y. Fractional coordinates are rounded half away from zero before the
// lattice parity is inspected.
//
//	even x, even y -> G2
//	even x, odd y  -> R
//	odd x,  even y -> B
//	odd x,  odd y  -> G1
func PixelColor(x, y float64) Color {
	xi := roundHalfUp(x)
	yi := roundHalfUp(y)
	if xi%2 == 0 {
		if yi%2 == 0 {
			return G2
		}
		return R
	}
	if yi%2 == 0 {
		return B
	}
	return G1
}
