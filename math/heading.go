// math/heading.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

///////////////////////////////////////////////////////////////////////////
// headings and wind angles

// NormalizeHeading reduces h to [0,360).
func NormalizeHeading(h float32) float32 {
	h = Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 { // -tiny + 360 rounds up
		h = 0
	}
	return h
}

// Wrap360 is NormalizeHeading under the name used for compass courses.
func Wrap360(h float32) float32 {
	return NormalizeHeading(h)
}

// Wrap180 reduces an angle to (-180,180]; this is the domain of apparent
// wind angles, with positive values to starboard.
func Wrap180(a float32) float32 {
	if a = NormalizeHeading(a); a > 180 {
		a -= 360
	}
	return a
}

func OppositeHeading(h float32) float32 {
	return NormalizeHeading(h + 180)
}

// HeadingDifference returns the unsigned angle between two headings, in
// [0,180].
func HeadingDifference(a, b float32) float32 {
	d := NormalizeHeading(a - b)
	return min(d, 360-d)
}

// HeadingSignedTurn returns the signed turn in degrees from cur to target;
// positive values are turns to the right.
func HeadingSignedTurn(cur, target float32) float32 {
	return Wrap180(target - cur)
}

var compassPoints = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// ShortCompass returns the nearest of the eight principal compass points.
func ShortCompass(heading float32) string {
	return compassPoints[int(NormalizeHeading(heading+22.5)/45)]
}
