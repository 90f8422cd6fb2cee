// math/core.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package math holds the float32 angle, heading and geodesy helpers used
// throughout sailpilot. Angles are degrees unless a name says otherwise.
package math

import (
	gomath "math"

	"golang.org/x/exp/constraints"
)

const degToRad = gomath.Pi / 180

func Degrees(r float32) float32 { return r / degToRad }
func Radians(d float32) float32 { return d * degToRad }

// float32 wrappers for the stdlib functions the core needs; everything
// in nav is float32.

func Sin(a float32) float32      { return float32(gomath.Sin(float64(a))) }
func Cos(a float32) float32      { return float32(gomath.Cos(float64(a))) }
func Atan2(y, x float32) float32 { return float32(gomath.Atan2(float64(y), float64(x))) }
func Mod(a, b float32) float32   { return float32(gomath.Mod(float64(a), float64(b))) }

type number interface {
	constraints.Signed | constraints.Float
}

func Abs[V number](v V) V {
	return max(v, -v)
}

func Sqr[V constraints.Integer | constraints.Float](v V) V { return v * v }

// Min and Max are the builtins, kept as functions so that they can be
// passed around.
func Min[T constraints.Ordered](a, b T) T { return min(a, b) }
func Max[T constraints.Ordered](a, b T) T { return max(a, b) }

// Clamp limits x to [lo, hi].
func Clamp[T constraints.Ordered](x, lo, hi T) T {
	return min(max(x, lo), hi)
}

// Lerp interpolates from a (t=0) to b (t=1).
func Lerp(t, a, b float32) float32 {
	return a + t*(b-a)
}
