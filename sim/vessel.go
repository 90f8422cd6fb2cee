// sim/vessel.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"time"

	"github.com/mmp/sailpilot/math"
	"github.com/mmp/sailpilot/rand"
)

// Polar gives the boat speed through the water as a fraction of the true
// wind speed at each true wind angle, tabulated every 15 degrees from
// head to wind to dead downwind.
var Polar = [...]float32{0, 0, 0.35, 0.5, 0.55, 0.6, 0.6, 0.58, 0.55, 0.5, 0.45, 0.42, 0.4}

// BoatSpeed returns the speed in knots for a true wind angle twa and true
// wind speed tws in knots.
func BoatSpeed(twa, tws float32) float32 {
	a := math.HeadingDifference(twa, 0) / 15
	i := int(a)
	if i >= len(Polar)-1 {
		return Polar[len(Polar)-1] * tws
	}
	return math.Lerp(a-float32(i), Polar[i], Polar[i+1]) * tws
}

// Rudder reports the current servo command.
type Rudder interface {
	Last() float32
}

type Vessel struct {
	Location math.Point2LL
	HDG      float32
	COG      float32
	SOG      float32 // metres/second

	// Servo command at which the boat sails straight.
	Centre float32
	// The turn rate in degrees/second is the servo offset from centre
	// divided by this.
	TurnRateFactor float32
	// Random yaw, degrees/second either way.
	YawNoise float32
}

// Step advances the vessel by dt. A positive offset from centre turns the
// boat to port.
func (v *Vessel) Step(dt time.Duration, rudder float32, w Weather, r *rand.Rand) {
	sec := float32(dt.Seconds())

	rate := -(rudder - v.Centre) / v.TurnRateFactor
	if v.YawNoise > 0 {
		rate += r.Uniform(-v.YawNoise, v.YawNoise)
	}
	v.HDG = math.NormalizeHeading(v.HDG + rate*sec)

	kt := BoatSpeed(w.TWD-v.HDG, w.TWS)
	v.SOG = kt * math.KnotsToMetresPerSecond
	v.COG = v.HDG
	v.Location = math.Project(v.Location, v.HDG, v.SOG*sec)
}

// ApparentWind returns the apparent wind angle relative to the bow
// (positive to starboard) and its compass direction.
func (v *Vessel) ApparentWind(w Weather) (awa, awd float32) {
	twa := math.Radians(math.Wrap180(w.TWD - v.HDG))
	tws := w.TWS * math.KnotsToMetresPerSecond

	// In the boat's frame, with x forward: the wind comes from twa and the
	// boat's own motion adds a headwind.
	x := tws*math.Cos(twa) + v.SOG
	y := tws * math.Sin(twa)
	if x == 0 && y == 0 {
		return 0, v.HDG
	}
	awa = math.Wrap180(math.Degrees(math.Atan2(y, x)))
	return awa, math.Wrap360(v.HDG + awa)
}
