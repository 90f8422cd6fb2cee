// math/filter.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

// LowPassFilter is a single-pole exponential filter: each new output
// moves K of the way from the previous output toward the input.
type LowPassFilter struct {
	K    float32
	Last float32
}

func (f *LowPassFilter) Filter(v float32) float32 {
	f.Last += f.K * (v - f.Last)
	return f.Last
}

func (f *LowPassFilter) Reset(v float32) {
	f.Last = v
}

// LowPassAngleFilter filters compass angles by filtering the sine and
// cosine components separately, so that it behaves across north.
type LowPassAngleFilter struct {
	K    float32
	X, Y float32
}

// Filter returns the filtered angle in [0,360).
func (f *LowPassAngleFilter) Filter(angle float32) float32 {
	a := Radians(NormalizeHeading(angle))
	f.X += f.K * (Sin(a) - f.X)
	f.Y += f.K * (Cos(a) - f.Y)
	return f.Angle()
}

func (f *LowPassAngleFilter) Angle() float32 {
	return NormalizeHeading(Degrees(Atan2(f.X, f.Y)))
}

func (f *LowPassAngleFilter) Reset(angle float32) {
	a := Radians(NormalizeHeading(angle))
	f.X, f.Y = Sin(a), Cos(a)
}
