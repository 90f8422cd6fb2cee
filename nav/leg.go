// nav/leg.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"log/slog"

	"github.com/mmp/sailpilot/math"
)

// Leg holds the geometry of the current leg, derived from the snapshot on
// the slow tick. All distances are metres.
type Leg struct {
	Valid bool // location and next waypoint were both valid

	RLB                 float32 // rhumb-line bearing, previous to next waypoint
	BTW                 float32
	CDA                 float32 // course deviation angle, RLB - BTW
	DTW                 float32
	CTE                 float32 // + is starboard of the track
	CTECorrection       float32
	PastWP              bool
	WindAngleToWaypoint float32
	IsBTWSailable       bool
	VMG, VMC            float32 // metres/second toward the wind and the mark
	DTB                 float32 // distance to the nearest boundary
	DTH, BTH            float32 // distance and bearing to home

	PointOfSail PointOfSail
	Laylines    Laylines
}

func (l Leg) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("valid", l.Valid),
		slog.Float64("btw", float64(l.BTW)),
		slog.Float64("dtw", float64(l.DTW)),
		slog.Float64("cte", float64(l.CTE)),
		slog.Bool("sailable", l.IsBTWSailable),
		slog.String("point_of_sail", l.PointOfSail.String()),
	)
}

// UpdateLeg recomputes the leg geometry, the favoured tack and the
// laylines. Without a valid location or waypoint the geometry is zeroed
// and the bearing is treated as sailable so that stale data can't cause
// a tack.
func (nav *Nav) UpdateLeg() {
	s, cfg := &nav.Snapshot, nav.Config
	leg := Leg{}

	if s.NextValid && s.LocationValid {
		leg.Valid = true
		leg.RLB = math.Bearing(s.Prev, s.Next)
		leg.BTW = math.Bearing(s.Location, s.Next)
		leg.CDA = math.Wrap180(leg.RLB - leg.BTW)
		leg.DTW = math.DistanceM(s.Location, s.Next)
		leg.CTE = math.CrossTrackError(s.Location, s.Prev, s.Next)
		leg.CTECorrection = CTECorrection(leg.CTE, s.MaxCTE, cfg.CTECorrectionGain)
		leg.PastWP = math.WaypointPassed(s.Location, s.Prev, s.Next, s.MaxCTE)

		leg.WindAngleToWaypoint = math.Wrap180(s.TWD - leg.BTW)
		leg.IsBTWSailable = IsBTWSailable(leg.WindAngleToWaypoint, leg.CTE, s.MaxCTE, cfg)
		nav.Course.FavouredTack = FavouredTack(leg.WindAngleToWaypoint)

		leg.VMG = s.SOG * math.Cos(math.Radians(math.Wrap180(s.COG-s.TWD)))
		leg.VMC = s.SOG * math.Cos(math.Radians(math.Wrap180(s.COG-leg.BTW)))

		leg.DTB = math.Min(math.Max(s.MaxCTE-math.Abs(leg.CTE), 0), leg.DTW)

		if nav.Command.HomeSet {
			leg.DTH = math.DistanceM(s.Location, nav.Command.Home)
			leg.BTH = math.Bearing(s.Location, nav.Command.Home)
		}

		if nav.Course.PastBoundaryHold && math.Abs(leg.CTE) <= s.MaxCTE {
			NavLog(NavLogCourse, "back inside boundary, cte %.1f", leg.CTE)
			nav.Course.PastBoundaryHold = false
		}
	} else {
		leg.IsBTWSailable = true
	}

	leg.PointOfSail = GetPointOfSail(s.AWA)
	leg.Laylines = ComputeLaylines(s.TWD, cfg)

	nav.Leg = leg
}
