// math/geodesy.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"
)

// EarthRadiusM is the mean radius used by all of the spherical
// calculations below.
const EarthRadiusM = 6371000

const (
	MetresPerNauticalMile  = 1852
	KnotsToMetresPerSecond = MetresPerNauticalMile / 3600.
)

// The functions below treat the earth as a sphere. The legs involved are
// at most a few nautical miles long, where the difference from an
// ellipsoid is well under the GPS error.
// https://www.movable-type.co.uk/scripts/latlong.html

func rad(d float64) float64 { return d / 180 * gomath.Pi }
func deg(r float64) float64 { return r * 180 / gomath.Pi }

// angularDistance returns the central angle between a and b in radians.
func angularDistance(a, b Point2LL) float64 {
	lat1, lon1 := rad(a[1]), rad(a[0])
	lat2, lon2 := rad(b[1]), rad(b[0])
	dlat, dlon := lat2-lat1, lon2-lon1

	x := Sqr(gomath.Sin(dlat/2)) + gomath.Cos(lat1)*gomath.Cos(lat2)*Sqr(gomath.Sin(dlon/2))
	return 2 * gomath.Atan2(gomath.Sqrt(x), gomath.Sqrt(1-x))
}

func bearing64(a, b Point2LL) float64 {
	lat1, lat2 := rad(a[1]), rad(b[1])
	dlon := rad(b[0] - a[0])
	y := gomath.Sin(dlon) * gomath.Cos(lat2)
	x := gomath.Cos(lat1)*gomath.Sin(lat2) - gomath.Sin(lat1)*gomath.Cos(lat2)*gomath.Cos(dlon)
	return gomath.Atan2(y, x)
}

// DistanceM returns the great-circle distance in metres between a and b.
func DistanceM(a, b Point2LL) float32 {
	return float32(EarthRadiusM * angularDistance(a, b))
}

// Bearing returns the initial true bearing from a to b in degrees,
// [0,360). Coincident points give 0.
func Bearing(a, b Point2LL) float32 {
	return NormalizeHeading(float32(deg(bearing64(a, b))))
}

// CrossTrackError returns the signed distance in metres of pos from the
// great circle through prev and next. Positive values are to starboard of
// the track, i.e. to the right when looking from prev toward next.
func CrossTrackError(pos, prev, next Point2LL) float32 {
	d13 := angularDistance(prev, pos)
	t13, t12 := bearing64(prev, pos), bearing64(prev, next)
	return float32(EarthRadiusM * gomath.Asin(gomath.Sin(d13)*gomath.Sin(t13-t12)))
}

// AlongTrackDistance returns the signed distance in metres from prev to the
// foot of the perpendicular from pos onto the prev-next track. It is
// negative when pos is behind prev.
func AlongTrackDistance(pos, prev, next Point2LL) float32 {
	d13 := angularDistance(prev, pos)
	t13, t12 := bearing64(prev, pos), bearing64(prev, next)
	dxt := gomath.Asin(gomath.Sin(d13) * gomath.Sin(t13-t12))
	c := gomath.Cos(d13) / gomath.Cos(dxt)
	dat := gomath.Acos(Clamp(c, -1, 1))
	if gomath.Cos(t13-t12) < 0 {
		dat = -dat
	}
	return float32(EarthRadiusM * dat)
}

// LocationPassedPoint reports whether pos has crossed the line through
// next that is perpendicular to the prev-next track. A degenerate track
// (prev and next coincident) counts as passed.
func LocationPassedPoint(pos, prev, next Point2LL) bool {
	leg := DistanceM(prev, next)
	if leg < 0.01 {
		return true
	}
	return AlongTrackDistance(pos, prev, next) >= leg
}

// WaypointPassed reports whether the vessel at pos has reached next:
// either it is within radius metres of it or it has passed the
// perpendicular through it.
func WaypointPassed(pos, prev, next Point2LL, radius float32) bool {
	return DistanceM(pos, next) <= radius || LocationPassedPoint(pos, prev, next)
}

// Project returns the point reached by travelling dist metres from origin
// along the initial true bearing hdg.
func Project(origin Point2LL, hdg float32, dist float32) Point2LL {
	lat1, lon1 := rad(origin[1]), rad(origin[0])
	brg := rad(float64(hdg))
	d := float64(dist) / EarthRadiusM

	lat2 := gomath.Asin(gomath.Sin(lat1)*gomath.Cos(d) + gomath.Cos(lat1)*gomath.Sin(d)*gomath.Cos(brg))
	lon2 := lon1 + gomath.Atan2(gomath.Sin(brg)*gomath.Sin(d)*gomath.Cos(lat1),
		gomath.Cos(d)-gomath.Sin(lat1)*gomath.Sin(lat2))

	lon := gomath.Mod(deg(lon2)+540, 360) - 180
	return Point2LL{lon, deg(lat2)}
}
