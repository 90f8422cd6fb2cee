// sim/weather.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"time"

	"github.com/mmp/sailpilot/math"
	"github.com/mmp/sailpilot/rand"
)

// Weather is a true wind that shifts and gusts about a mean.
type Weather struct {
	MeanTWD  float32 // degrees
	MeanTWS  float32 // knots
	Shift    float32 // maximum shift from MeanTWD, degrees
	Interval time.Duration

	TWD, TWS float32

	nextChange time.Duration
}

func DefaultWeather() Weather {
	return Weather{
		MeanTWD:  350,
		MeanTWS:  10,
		Shift:    15,
		Interval: time.Minute,
		TWD:      350,
		TWS:      10,
	}
}

// Gusts, knots relative to the mean, and how often each turns up.
var (
	gustDeltas  = [...]float32{-3, -1, 0, 1, 4}
	gustWeights = [...]int{1, 3, 6, 3, 1}
)

// Update picks a new wind each Interval.
func (w *Weather) Update(now time.Duration, r *rand.Rand) {
	if now < w.nextChange {
		return
	}
	w.nextChange = now + w.Interval

	w.TWD = math.Wrap360(w.MeanTWD + r.Uniform(-w.Shift, w.Shift))
	g := r.SampleWeighted(len(gustWeights), func(i int) int { return gustWeights[i] })
	w.TWS = math.Max(0, w.MeanTWS+gustDeltas[g])
}
