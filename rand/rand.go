// rand/rand.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package rand provides the seedable generator the simulator uses for
// wind shifts, gusts and yaw noise.
package rand

import (
	"github.com/MichaelTJones/pcg"
)

const pcgStream = 0xda3e39cb94b95bdb

// Rand is not safe for concurrent use; the simulator keeps one per run so
// that a given seed always reproduces the same track.
type Rand struct {
	src *pcg.PCG32
}

func NewSeeded(seed int64) Rand {
	src := pcg.NewPCG32()
	src.Seed(uint64(seed), pcgStream)
	return Rand{src: src}
}

func (r *Rand) Uint32() uint32 {
	return r.src.Random()
}

// IntRange returns a uniformly distributed integer in [lo,hi].
func (r *Rand) IntRange(lo, hi int) int {
	return lo + int(r.src.Bounded(uint32(hi-lo+1)))
}

// Float32 returns a value in [0,1].
func (r *Rand) Float32() float32 {
	return float32(r.src.Random()) / (1<<32 - 1)
}

// Uniform returns a uniformly distributed value in [lo,hi].
func (r *Rand) Uniform(lo, hi float32) float32 {
	return lo + (hi-lo)*r.Float32()
}

// SampleWeighted picks an index in [0,n) with probability proportional to
// weight(i). It returns -1 if every weight is zero.
func (r *Rand) SampleWeighted(n int, weight func(int) int) int {
	pick, total := -1, 0
	for i := range n {
		w := weight(i)
		if w <= 0 {
			continue
		}
		// Reservoir: keep i with probability w/total.
		total += w
		if int(r.src.Bounded(uint32(total))) < w {
			pick = i
		}
	}
	return pick
}
